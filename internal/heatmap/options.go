package heatmap

import (
	"github.com/jengzang/spots-backend-go/pkg/logger"
	"github.com/jengzang/spots-backend-go/pkg/metrics"
)

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRendererLogger sets the renderer logger.
func WithRendererLogger(l logger.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// WithRendererMetrics sets the metrics manager.
func WithRendererMetrics(m *metrics.Manager) RendererOption {
	return func(r *Renderer) { r.metrics = m }
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

// WithOnCommit runs fn for every committed response, in commit order.
func WithOnCommit(fn func(HeatSet)) LoaderOption {
	return func(ld *Loader) { ld.onCommit = fn }
}
