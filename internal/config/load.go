package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over values from the
// config file. Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional atlas.yaml in the working directory.
	v.SetConfigName("atlas")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// ATLAS_SERVER_PORT overrides server.port, and so on.
	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers a default for every known key. Keys without a
// default are invisible to Unmarshal even when set in the environment, so
// required settings get an empty default and rely on validation to catch
// their absence.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")

	v.SetDefault("insights.base_url", "")
	v.SetDefault("insights.request_timeout", 10*time.Second)
	v.SetDefault("insights.rate_limit", float64(0))

	v.SetDefault("tracker.poll_interval", 3*time.Second)
	v.SetDefault("tracker.completed_removal_delay", 8*time.Second)
	v.SetDefault("tracker.already_complete_removal_delay", 3*time.Second)
	v.SetDefault("tracker.staleness_window", 30*time.Minute)
	v.SetDefault("tracker.failure_threshold", 5)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_hash", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
}
