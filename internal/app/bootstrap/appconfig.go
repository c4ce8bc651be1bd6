// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS); everything the
// residency tracker itself needs lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// SnapshotReads is "auto" (use snapshot sessions when the deployment
	// supports them) or "off".
	SnapshotReads string

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: residenthub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// OpenTelemetry export. An empty endpoint disables tracing.
	OtelEndpoint    string
	OtelInsecure    bool
	OtelSampleRatio float64

	// Operation timeouts applied by handlers and stores.
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
