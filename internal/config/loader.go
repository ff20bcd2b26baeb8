package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. SPOTS_DB_PATH
const EnvPrefix = "SPOTS_"

// Load builds a Config by layering defaults, an optional YAML file named by
// SPOTS_CONFIG, and SPOTS_* environment variables (lowest to highest).
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// SPOTS_SESSION_TTL_S -> session_ttl_s
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.DefaultLat < -90 || c.DefaultLat > 90:
		return fmt.Errorf("%w: default_lat out of range", ErrInvalidConfig)
	case c.DefaultLon < -180 || c.DefaultLon > 180:
		return fmt.Errorf("%w: default_lon out of range", ErrInvalidConfig)
	case c.GeolocationTimeoutMS <= 0:
		return fmt.Errorf("%w: geolocation_timeout_ms must be positive", ErrInvalidConfig)
	case c.LongPressMS <= 0:
		return fmt.Errorf("%w: long_press_ms must be positive", ErrInvalidConfig)
	case c.InitialZoom < 0 || c.InitialZoom > 22:
		return fmt.Errorf("%w: initial_zoom out of range", ErrInvalidConfig)
	case c.SessionTTLSeconds <= 0:
		return fmt.Errorf("%w: session_ttl_s must be positive", ErrInvalidConfig)
	case c.RateLimit <= 0 || c.RateWindowSeconds <= 0:
		return fmt.Errorf("%w: rate limit settings must be positive", ErrInvalidConfig)
	case c.AuthRequired && c.JWTSecret == "":
		return fmt.Errorf("%w: jwt_secret required when auth_required is set", ErrInvalidConfig)
	}
	return nil
}
