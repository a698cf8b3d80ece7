package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Log        LogConfig        `yaml:"log"`
	CORS       CORSConfig       `yaml:"cors"`
	Unlock     UnlockConfig     `yaml:"unlock"`
	Compliance ComplianceConfig `yaml:"compliance"`
	Renderer   RendererConfig   `yaml:"renderer"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// AuthConfig holds JWT validation settings. Token issuance belongs to the
// external identity provider; we only need the shared secret to validate.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"       env-required:"true"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"praxislog"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"15m"`

	// LoginRateLimit caps password login attempts per IP per minute.
	LoginRateLimit int `yaml:"login_rate_limit" env:"AUTH_LOGIN_RATE_LIMIT" env-default:"10"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PATCH,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// UnlockConfig holds unlock workflow settings.
type UnlockConfig struct {
	DefaultDurationMinutes int           `yaml:"default_duration_minutes" env:"UNLOCK_DEFAULT_DURATION_MINUTES" env-default:"60"`
	MaxDurationMinutes     int           `yaml:"max_duration_minutes"     env:"UNLOCK_MAX_DURATION_MINUTES"     env-default:"1440"`
	SweepInterval          time.Duration `yaml:"sweep_interval"           env:"UNLOCK_SWEEP_INTERVAL"           env-default:"5m"`
	ExpiryWarningLead      time.Duration `yaml:"expiry_warning_lead"      env:"UNLOCK_EXPIRY_WARNING_LEAD"      env-default:"10m"`
}

// ComplianceConfig holds compliance engine settings.
type ComplianceConfig struct {
	// WarningBandPoints is the tolerance band, in percentage points, within
	// which a supervision composition threshold reports warning instead of
	// non_compliant.
	WarningBandPoints float64 `yaml:"warning_band_points" env:"COMPLIANCE_WARNING_BAND_POINTS" env-default:"5"`

	// AmberFloorPercent is the prorated-progress percentage at which a
	// category turns amber instead of red.
	AmberFloorPercent float64 `yaml:"amber_floor_percent" env:"COMPLIANCE_AMBER_FLOOR_PERCENT" env-default:"80"`

	// SnapshotCacheSize bounds the LRU cache of compliance snapshots.
	SnapshotCacheSize int `yaml:"snapshot_cache_size" env:"COMPLIANCE_SNAPSHOT_CACHE_SIZE" env-default:"512"`
}

// RendererConfig holds the external PDF renderer settings.
type RendererConfig struct {
	BaseURL string        `yaml:"base_url" env:"RENDERER_BASE_URL" env-default:"http://localhost:9090"`
	Timeout time.Duration `yaml:"timeout"  env:"RENDERER_TIMEOUT"  env-default:"10s"`
}
