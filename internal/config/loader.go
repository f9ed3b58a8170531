package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Kalshi ──
	setStr(&cfg.Kalshi.BaseURL, "ARBBOT_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.ApiKey, "ARBBOT_KALSHI_API_KEY")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "ARBBOT_KALSHI_RSA_PRIVATE_KEY_PATH")
	setInt(&cfg.Kalshi.PageLimit, "ARBBOT_KALSHI_PAGE_LIMIT")
	setFloat64(&cfg.Kalshi.RequestsPerSecond, "ARBBOT_KALSHI_REQUESTS_PER_SECOND")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "ARBBOT_POLYMARKET_GAMMA_HOST")
	setInt(&cfg.Polymarket.PageLimit, "ARBBOT_POLYMARKET_PAGE_LIMIT")
	setFloat64(&cfg.Polymarket.RequestsPerSecond, "ARBBOT_POLYMARKET_REQUESTS_PER_SECOND")

	// ── Embedding ──
	setStr(&cfg.Embedding.BaseURL, "ARBBOT_EMBEDDING_BASE_URL")
	setStr(&cfg.Embedding.ApiKey, "ARBBOT_EMBEDDING_API_KEY")
	setStr(&cfg.Embedding.Model, "ARBBOT_EMBEDDING_MODEL")
	setInt(&cfg.Embedding.BatchSize, "ARBBOT_EMBEDDING_BATCH_SIZE")
	setBool(&cfg.Embedding.Enabled, "ARBBOT_EMBEDDING_ENABLED")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBBOT_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ARBBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARBBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARBBOT_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ARBBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "ARBBOT_S3_FORCE_PATH_STYLE")
	setBool(&cfg.S3.Enabled, "ARBBOT_S3_ENABLED")

	// ── Matching / Arbitrage ──
	setFloat64(&cfg.Matching.MinSimilarity, "ARBBOT_MATCHING_MIN_SIMILARITY")
	setFloat64(&cfg.Arbitrage.Investment, "ARBBOT_ARBITRAGE_INVESTMENT")
	setStr(&cfg.Arbitrage.KalshiFeeTier, "ARBBOT_ARBITRAGE_KALSHI_FEE_TIER")
	setFloat64(&cfg.Arbitrage.KalshiTakerRate, "ARBBOT_ARBITRAGE_KALSHI_TAKER_RATE")
	setFloat64(&cfg.Arbitrage.KalshiMakerRate, "ARBBOT_ARBITRAGE_KALSHI_MAKER_RATE")
	setFloat64(&cfg.Arbitrage.PolymarketProfitRate, "ARBBOT_ARBITRAGE_POLYMARKET_PROFIT_RATE")

	// ── Pipeline ──
	setDuration(&cfg.Pipeline.ScanInterval, "ARBBOT_PIPELINE_SCAN_INTERVAL")
	setDuration(&cfg.Pipeline.IndexLockTTL, "ARBBOT_PIPELINE_INDEX_LOCK_TTL")
	setBool(&cfg.Pipeline.ArchivePasses, "ARBBOT_PIPELINE_ARCHIVE_PASSES")
	setStr(&cfg.Pipeline.ArchivePrefix, "ARBBOT_PIPELINE_ARCHIVE_PREFIX")

	// ── Server ──
	setInt(&cfg.Server.Port, "ARBBOT_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "ARBBOT_SERVER_API_KEY")
	if v := os.Getenv("ARBBOT_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitCSV(v)
	}

	// ── Notify ──
	setBool(&cfg.Notify.Enabled, "ARBBOT_NOTIFY_ENABLED")
	setStr(&cfg.Notify.TelegramBotToken, "ARBBOT_NOTIFY_TELEGRAM_BOT_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	if v := os.Getenv("ARBBOT_NOTIFY_EVENTS"); v != "" {
		cfg.Notify.Events = splitCSV(v)
	}

	// ── Top level ──
	setStr(&cfg.Mode, "ARBBOT_MODE")
	setStr(&cfg.LogLevel, "ARBBOT_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
