package config

import (
	"time"
)

// Config 应用配置
type Config struct {
	Addr     string `koanf:"addr"`
	DBPath   string `koanf:"db_path"`
	LogLevel string `koanf:"log_level"`

	// JWTSecret signs bearer tokens; AuthRequired rejects anonymous API calls.
	JWTSecret    string `koanf:"jwt_secret"`
	AuthRequired bool   `koanf:"auth_required"`

	// Fallback coordinate used when the device location is unavailable.
	DefaultLat float64 `koanf:"default_lat"`
	DefaultLon float64 `koanf:"default_lon"`

	GeolocationTimeoutMS int `koanf:"geolocation_timeout_ms"`
	LongPressMS          int `koanf:"long_press_ms"`
	InitialZoom          int `koanf:"initial_zoom"`

	SessionTTLSeconds int `koanf:"session_ttl_s"`

	RateLimit         int `koanf:"rate_limit"`
	RateWindowSeconds int `koanf:"rate_window_s"`
}

// New returns a Config holding the defaults
func New() *Config {
	return &Config{
		Addr:                 ":8080",
		DBPath:               "./data/spots.db",
		LogLevel:             "info",
		JWTSecret:            "your-secret-key-change-in-production",
		DefaultLat:           -34.9011,
		DefaultLon:           -56.1645,
		GeolocationTimeoutMS: 15000,
		LongPressMS:          700,
		InitialZoom:          12,
		SessionTTLSeconds:    1800,
		RateLimit:            300,
		RateWindowSeconds:    60,
	}
}

// GeolocationTimeout bounds a single position request
func (c *Config) GeolocationTimeout() time.Duration {
	return time.Duration(c.GeolocationTimeoutMS) * time.Millisecond
}

// LongPress is the hold threshold for long-press selection
func (c *Config) LongPress() time.Duration {
	return time.Duration(c.LongPressMS) * time.Millisecond
}

// SessionTTL is how long an idle map session survives
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// RateWindow is the rate limiter window
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateWindowSeconds) * time.Second
}
