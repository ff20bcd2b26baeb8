package picker

import (
	"time"

	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLongPress overrides the long-press threshold.
func WithLongPress(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.threshold = d
		}
	}
}

// WithAfterFunc replaces the timer scheduler.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.afterFunc = fn
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(c *Controller) { c.metrics = m }
}
