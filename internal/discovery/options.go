package discovery

import (
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithDistance replaces the distance function.
func WithDistance(fn DistanceFunc) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.distance = fn
		}
	}
}

// WithResolverMetrics sets the metrics manager.
func WithResolverMetrics(m *metrics.Manager) Option {
	return func(r *Resolver) { r.metrics = m }
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the loader logger.
func WithLoaderLogger(l logger.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithLoaderMetrics sets the metrics manager.
func WithLoaderMetrics(m *metrics.Manager) LoaderOption {
	return func(ld *Loader) { ld.metrics = m }
}
