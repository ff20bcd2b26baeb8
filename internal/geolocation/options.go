package geolocation

import (
	"time"

	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// Option configures a Provider.
type Option func(*Provider)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the provider logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(p *Provider) { p.metrics = m }
}
