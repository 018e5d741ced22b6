// Package config loads service configuration from environment variables
// and an optional config file via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings.
type Config struct {
	ListenAddr string        `mapstructure:"listen_addr"`
	DBPath     string        `mapstructure:"db_path"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	JWTTTL     time.Duration `mapstructure:"jwt_ttl"`

	// Tolerance is the money comparison tolerance as a decimal string.
	// All sum checks (split exactness, settlement batches) use it.
	Tolerance string `mapstructure:"tolerance"`
}

// Load reads configuration from SPLITPOT_* environment variables and, when
// present, a splitpot.yaml file in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("db_path", "./data/splitpot.db")
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("tolerance", "0.01")

	v.SetConfigName("splitpot")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SPLITPOT")
	v.AutomaticEnv()
	v.BindEnv("listen_addr", "SPLITPOT_LISTEN_ADDR")
	v.BindEnv("db_path", "SPLITPOT_DB_PATH")
	v.BindEnv("jwt_secret", "SPLITPOT_JWT_SECRET")
	v.BindEnv("jwt_ttl", "SPLITPOT_JWT_TTL")
	v.BindEnv("tolerance", "SPLITPOT_TOLERANCE")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("SPLITPOT_JWT_SECRET is required")
	}
	return cfg, nil
}
