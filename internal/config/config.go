package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Store    StoreConfig    `mapstructure:"store"    validate:"required"`
	Insights InsightsConfig `mapstructure:"insights" validate:"required"`
	Tracker  TrackerConfig  `mapstructure:"tracker"  validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StoreConfig selects and configures the snapshot persistence backend.
// Path is required for the file driver, URL for the postgres driver.
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=memory file postgres"`
	Path   string `mapstructure:"path"   validate:"required_if=Driver file"`
	URL    string `mapstructure:"url"    validate:"required_if=Driver postgres"`
}

// InsightsConfig contains settings for the insight generation backend the
// tracker initializes and polls. RateLimit caps outbound status requests in
// requests per second; zero means unlimited.
type InsightsConfig struct {
	BaseURL        string        `mapstructure:"base_url"        validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	RateLimit      float64       `mapstructure:"rate_limit"      validate:"gte=0"`
}

// TrackerConfig contains the timing knobs of the job tracking engine.
type TrackerConfig struct {
	PollInterval                time.Duration `mapstructure:"poll_interval"                  validate:"gt=0"`
	CompletedRemovalDelay       time.Duration `mapstructure:"completed_removal_delay"        validate:"gt=0"`
	AlreadyCompleteRemovalDelay time.Duration `mapstructure:"already_complete_removal_delay" validate:"gt=0"`
	StalenessWindow             time.Duration `mapstructure:"staleness_window"               validate:"gt=0"`
	FailureThreshold            int           `mapstructure:"failure_threshold"              validate:"gt=0"`
}

// AuthConfig contains all authentication and authorization settings.
// TokenHash is the bcrypt hash of the shared API token clients exchange for
// a session JWT.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenHash            string `mapstructure:"token_hash"             validate:"required"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}
