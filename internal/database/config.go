package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// AppConfig configures the project browser. It is loaded from an optional
// rmr-app.yaml next to the working directory, with environment variables
// taking precedence.
type AppConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Projects        []string      `mapstructure:"projects"`
}

func (c AppConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	return nil
}

// LoadAppConfig reads rmr-app.yaml from the given directories and applies
// RMR_APP_* environment overrides. A missing config file falls back to
// defaults.
func LoadAppConfig(paths ...string) (AppConfig, error) {
	v := viper.New()
	v.SetConfigName("rmr-app")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	v.SetEnvPrefix("RMR_APP")
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("shutdown_timeout", 10*time.Second)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
