// Package notify dispatches operator alerts to one or more channels
// (Telegram, Discord), filtered by event type.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

// Event types published by the pipeline.
const (
	EventOpportunity = "opportunity"
	EventPassFailed  = "pass_failed"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders. It maintains a
// set of allowed event types; Notify only forwards messages whose event type
// is in the allowed set.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that delivers to the given senders. Only
// events whose type appears in the events slice are forwarded by Notify.
// An empty events slice allows all event types.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a notification to all senders if the event type is allowed.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}

	return n.dispatch(ctx, title, message)
}

// NotifyOpportunity formats a detected opportunity and sends it as an
// "opportunity" event.
func (n *Notifier) NotifyOpportunity(ctx context.Context, opp domain.Opportunity) error {
	title := fmt.Sprintf("Arbitrage: %.2f%% (%.2f USD)", opp.ProfitPercent, opp.NetProfit)
	message := FormatOpportunity(opp)
	return n.Notify(ctx, EventOpportunity, title, message)
}

// NotifyPassFailure reports a failed scan pass as a "pass_failed" event.
func (n *Notifier) NotifyPassFailure(ctx context.Context, passErr error) error {
	return n.Notify(ctx, EventPassFailed, "Scan pass failed", passErr.Error())
}

// FormatOpportunity renders an opportunity as a short multi-line summary
// suitable for chat channels.
func FormatOpportunity(opp domain.Opportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Kalshi %s %s @ %.3f x %.1f\n",
		strings.ToUpper(string(opp.KalshiLeg.Outcome)), opp.KalshiLeg.MarketID,
		opp.KalshiLeg.Price, opp.KalshiLeg.Contracts)
	fmt.Fprintf(&b, "Polymarket %s %s @ %.3f x %.1f\n",
		strings.ToUpper(string(opp.PolymarketLeg.Outcome)), opp.PolymarketLeg.MarketID,
		opp.PolymarketLeg.Price, opp.PolymarketLeg.Contracts)
	fmt.Fprintf(&b, "Cost %.2f, payout %.2f, profit %.2f (%.2f%%)\n",
		opp.TotalCost, opp.GuaranteedPayout, opp.NetProfit, opp.ProfitPercent)
	fmt.Fprintf(&b, "Titles: %q vs %q (sim %.2f, %s)",
		opp.Pair.Kalshi.Title, opp.Pair.Polymarket.Title,
		opp.Pair.Similarity, opp.Pair.Confidence)
	return b.String()
}

// dispatch fans the notification out to every sender. A single sender
// failure does not prevent delivery to the remaining senders; failures are
// collected into one combined error.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
