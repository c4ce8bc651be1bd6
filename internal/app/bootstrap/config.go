// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minProdSessionKey is the shortest session key accepted in prod.
const minProdSessionKey = 32

// appConfigKeys defines the configuration keys for ResidentHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: RESIDENTHUB_MONGO_URI, RESIDENTHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "resident_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "snapshot_reads", Default: "auto", Desc: "Obligation reads inside snapshot sessions: 'auto' or 'off'"},

	{Name: "session_key", Default: "", Desc: "Session signing key (required in production, at least 32 chars)"},
	{Name: "session_name", Default: "residenthub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "12h", Desc: "Session cookie lifetime (e.g., 12h, 30m)"},

	{Name: "otel_endpoint", Default: "", Desc: "OTLP/HTTP collector endpoint (host:port); blank disables tracing"},
	{Name: "otel_insecure", Default: false, Desc: "Export traces without TLS"},
	{Name: "otel_sample_ratio", Default: "1.0", Desc: "Trace sampling ratio between 0 and 1"},

	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for multi-document operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for obligation derivation and schema setup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, in order of precedence,
// flags > env (RESIDENTHUB_*) > config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "RESIDENTHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	ratio, err := strconv.ParseFloat(strings.TrimSpace(appValues.String("otel_sample_ratio")), 64)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("otel_sample_ratio: %w", err)
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SnapshotReads:    strings.ToLower(strings.TrimSpace(appValues.String("snapshot_reads"))),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 12*time.Hour),

		OtelEndpoint:    appValues.String("otel_endpoint"),
		OtelInsecure:    appValues.Bool("otel_insecure"),
		OtelSampleRatio: ratio,

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}

	if isProd(coreCfg) && len(appCfg.SessionKey) < minProdSessionKey {
		return fmt.Errorf("session_key must be at least %d characters in prod", minProdSessionKey)
	}

	switch appCfg.SnapshotReads {
	case "auto", "off":
	default:
		return fmt.Errorf("snapshot_reads must be 'auto' or 'off', got %q", appCfg.SnapshotReads)
	}

	if appCfg.OtelSampleRatio < 0 || appCfg.OtelSampleRatio > 1 {
		return fmt.Errorf("otel_sample_ratio must be between 0 and 1, got %v", appCfg.OtelSampleRatio)
	}

	for name, d := range map[string]time.Duration{
		"timeout_short":  appCfg.TimeoutShort,
		"timeout_medium": appCfg.TimeoutMedium,
		"timeout_long":   appCfg.TimeoutLong,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	return nil
}

func isProd(coreCfg *config.CoreConfig) bool {
	return coreCfg != nil && coreCfg.Env == "prod"
}
