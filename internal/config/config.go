// Package config defines the top-level configuration for the arbitrage bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBBOT_* environment variables.
type Config struct {
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	S3         S3Config         `toml:"s3"`
	Matching   MatchingConfig   `toml:"matching"`
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// KalshiConfig holds Kalshi exchange API parameters.
type KalshiConfig struct {
	BaseURL           string  `toml:"base_url"`
	ApiKey            string  `toml:"api_key"`
	RsaPrivateKeyPath string  `toml:"rsa_private_key_path"`
	PageLimit         int     `toml:"page_limit"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// PolymarketConfig holds Polymarket Gamma API parameters.
type PolymarketConfig struct {
	GammaHost         string  `toml:"gamma_host"`
	PageLimit         int     `toml:"page_limit"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// EmbeddingConfig holds the embedding service endpoint and batching knobs.
// BatchSize bounds how many titles go to the model per request; it caps peak
// memory of the external model, not correctness.
type EmbeddingConfig struct {
	BaseURL   string `toml:"base_url"`
	ApiKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	BatchSize int    `toml:"batch_size"`
	Enabled   bool   `toml:"enabled"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for pass archives.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
	Enabled        bool   `toml:"enabled"`
}

// MatchingConfig holds matching pass parameters.
type MatchingConfig struct {
	MinSimilarity float64 `toml:"min_similarity"`
}

// ArbitrageConfig holds arbitrage evaluation parameters. The three fee rates
// are explicit inputs here; the fee model never reads ambient state.
type ArbitrageConfig struct {
	Investment           float64 `toml:"investment"`
	KalshiFeeTier        string  `toml:"kalshi_fee_tier"` // "taker" or "maker"
	KalshiTakerRate      float64 `toml:"kalshi_taker_rate"`
	KalshiMakerRate      float64 `toml:"kalshi_maker_rate"`
	PolymarketProfitRate float64 `toml:"polymarket_profit_rate"`
}

// PipelineConfig holds scan pass scheduling parameters.
type PipelineConfig struct {
	ScanInterval  duration `toml:"scan_interval"`
	IndexLockTTL  duration `toml:"index_lock_ttl"`
	ArchivePasses bool     `toml:"archive_passes"`
	ArchivePrefix string   `toml:"archive_prefix"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding ("5m", "90s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters, used in serve and full modes.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel parameters.
type NotifyConfig struct {
	Enabled           bool     `toml:"enabled"`
	Events            []string `toml:"events"`
	TelegramBotToken  string   `toml:"telegram_bot_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
}

// Defaults returns a Config populated with sane defaults for every field that
// has one. Secrets and endpoints have no defaults and must come from the TOML
// file or environment.
func Defaults() Config {
	return Config{
		Kalshi: KalshiConfig{
			BaseURL:           "https://api.elections.kalshi.com/trade-api/v2",
			PageLimit:         200,
			RequestsPerSecond: 5,
		},
		Polymarket: PolymarketConfig{
			GammaHost:         "https://gamma-api.polymarket.com",
			PageLimit:         200,
			RequestsPerSecond: 5,
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			BatchSize: 64,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Postgres: PostgresConfig{
			Port:         5432,
			SSLMode:      "disable",
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Matching: MatchingConfig{
			MinSimilarity: 0.5,
		},
		Arbitrage: ArbitrageConfig{
			Investment:           100,
			KalshiFeeTier:        "taker",
			KalshiTakerRate:      0.07,
			KalshiMakerRate:      0.0175,
			PolymarketProfitRate: 0.02,
		},
		Pipeline: PipelineConfig{
			ScanInterval:  duration{5 * time.Minute},
			IndexLockTTL:  duration{10 * time.Minute},
			ArchivePrefix: "passes",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// Validate checks the configuration for inconsistencies that would prevent the
// application from running in the configured mode.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "scan", "serve", "full":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if c.Matching.MinSimilarity < 0 || c.Matching.MinSimilarity > 1 {
		return fmt.Errorf("config: matching.min_similarity must be in [0,1], got %v", c.Matching.MinSimilarity)
	}
	if c.Arbitrage.Investment <= 0 {
		return fmt.Errorf("config: arbitrage.investment must be positive, got %v", c.Arbitrage.Investment)
	}
	switch c.Arbitrage.KalshiFeeTier {
	case "taker", "maker":
	default:
		return fmt.Errorf("config: arbitrage.kalshi_fee_tier must be taker or maker, got %q", c.Arbitrage.KalshiFeeTier)
	}
	for _, rate := range []float64{c.Arbitrage.KalshiTakerRate, c.Arbitrage.KalshiMakerRate, c.Arbitrage.PolymarketProfitRate} {
		if rate < 0 || rate >= 1 {
			return fmt.Errorf("config: fee rates must be in [0,1), got %v", rate)
		}
	}

	if c.Pipeline.ScanInterval.Duration < time.Second {
		return fmt.Errorf("config: pipeline.scan_interval too short: %v", c.Pipeline.ScanInterval.Duration)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port out of range: %d", c.Server.Port)
	}
	if c.Embedding.Enabled && c.Embedding.BaseURL == "" {
		return fmt.Errorf("config: embedding.base_url required when embedding is enabled")
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		return fmt.Errorf("config: s3.bucket required when archival is enabled")
	}
	return nil
}
