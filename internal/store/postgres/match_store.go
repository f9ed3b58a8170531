package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

// MatchStore implements domain.MatchStore using PostgreSQL.
type MatchStore struct {
	pool *pgxpool.Pool
}

// NewMatchStore creates a MatchStore backed by the given connection pool.
func NewMatchStore(pool *pgxpool.Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

// InsertBatch stores all matched pairs from one scan pass in a single
// transaction, so a pass is either fully recorded or not at all.
func (s *MatchStore) InsertBatch(ctx context.Context, passID string, pairs []domain.MatchedPair) error {
	if len(pairs) == 0 {
		return nil
	}

	const query = `
		INSERT INTO matched_pairs (
			pass_id,
			kalshi_market_id, kalshi_title, kalshi_yes_price,
			polymarket_market_id, polymarket_title, polymarket_yes_price,
			similarity, confidence, matches, conflicts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin match batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range pairs {
		matches, err := json.Marshal(p.Details.Matches)
		if err != nil {
			return fmt.Errorf("postgres: marshal matches: %w", err)
		}
		conflicts, err := json.Marshal(p.Details.Conflicts)
		if err != nil {
			return fmt.Errorf("postgres: marshal conflicts: %w", err)
		}

		_, err = tx.Exec(ctx, query,
			passID,
			p.Kalshi.ID, p.Kalshi.Title, p.Kalshi.YesPrice,
			p.Polymarket.ID, p.Polymarket.Title, p.Polymarket.YesPrice,
			p.Similarity, string(p.Confidence), matches, conflicts,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert matched pair %s/%s: %w", p.Kalshi.ID, p.Polymarket.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit match batch: %w", err)
	}
	return nil
}

// ListByPass returns all matched pairs recorded for the given pass, ordered
// by descending similarity.
func (s *MatchStore) ListByPass(ctx context.Context, passID string) ([]domain.MatchedPair, error) {
	const query = `
		SELECT kalshi_market_id, kalshi_title, kalshi_yes_price,
		       polymarket_market_id, polymarket_title, polymarket_yes_price,
		       similarity, confidence, matches, conflicts
		FROM matched_pairs
		WHERE pass_id = $1
		ORDER BY similarity DESC`

	rows, err := s.pool.Query(ctx, query, passID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pairs for pass %s: %w", passID, err)
	}
	defer rows.Close()

	var pairs []domain.MatchedPair
	for rows.Next() {
		var p domain.MatchedPair
		var confidence string
		var matches, conflicts []byte
		err := rows.Scan(
			&p.Kalshi.ID, &p.Kalshi.Title, &p.Kalshi.YesPrice,
			&p.Polymarket.ID, &p.Polymarket.Title, &p.Polymarket.YesPrice,
			&p.Similarity, &confidence, &matches, &conflicts,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan matched pair: %w", err)
		}

		p.Kalshi.Venue = domain.VenueKalshi
		p.Kalshi.NoPrice = 1 - p.Kalshi.YesPrice
		p.Polymarket.Venue = domain.VenuePolymarket
		p.Polymarket.NoPrice = 1 - p.Polymarket.YesPrice
		p.Confidence = domain.Confidence(confidence)

		if err := json.Unmarshal(matches, &p.Details.Matches); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal matches: %w", err)
		}
		if err := json.Unmarshal(conflicts, &p.Details.Conflicts); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal conflicts: %w", err)
		}

		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate matched pairs: %w", err)
	}
	return pairs, nil
}

// LatestPassID returns the pass ID of the most recently recorded pass.
// It returns domain.ErrNotFound when no pass has been recorded yet.
func (s *MatchStore) LatestPassID(ctx context.Context) (string, error) {
	const query = `
		SELECT pass_id FROM matched_pairs
		ORDER BY created_at DESC
		LIMIT 1`

	var passID string
	if err := s.pool.QueryRow(ctx, query).Scan(&passID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("postgres: latest pass id: %w", err)
	}
	return passID, nil
}

// Compile-time interface check.
var _ domain.MatchStore = (*MatchStore)(nil)
