package mapview

import (
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger shared by every component of the map.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}
