// Package heatmap renders the catch heat layer and keeps its data current.
package heatmap

// GradientStop maps an intensity to a color.
type GradientStop struct {
	Stop  float64 `json:"stop"`
	Color string  `json:"color"`
}

// RenderConfig is everything needed to draw one heat layer.
type RenderConfig struct {
	Band       int            `json:"band"`
	Radius     int            `json:"radius"`
	Blur       int            `json:"blur"`
	MinOpacity float64        `json:"minOpacity"`
	MaxZoom    int            `json:"maxZoom"`
	Gradient   []GradientStop `json:"gradient"`
}

// MinOpacity keeps low-intensity points visible.
const MinOpacity = 0.35

// MaxZoom is the zoom at which points reach full intensity.
const MaxZoom = 18

type zoomBand struct {
	maxZoom int
	radius  int
	blur    int
}

// Lower zooms show more area and need wider kernels. The last band is
// open-ended.
var zoomBands = []zoomBand{
	{maxZoom: 6, radius: 35, blur: 25},
	{maxZoom: 8, radius: 30, blur: 22},
	{maxZoom: 10, radius: 25, blur: 18},
	{maxZoom: 12, radius: 20, blur: 15},
	{maxZoom: 14, radius: 16, blur: 12},
	{maxZoom: 16, radius: 12, blur: 9},
	{maxZoom: -1, radius: 9, blur: 7},
}

var gradient = []GradientStop{
	{Stop: 0.2, Color: "blue"},
	{Stop: 0.4, Color: "green"},
	{Stop: 0.6, Color: "yellow"},
	{Stop: 0.8, Color: "orange"},
	{Stop: 1.0, Color: "red"},
}

// BandForZoom returns the index of the zoom band containing zoom.
func BandForZoom(zoom int) int {
	for i, b := range zoomBands[:len(zoomBands)-1] {
		if zoom <= b.maxZoom {
			return i
		}
	}
	return len(zoomBands) - 1
}

// ConfigForZoom derives the render configuration for a zoom level.
func ConfigForZoom(zoom int) RenderConfig {
	band := BandForZoom(zoom)
	b := zoomBands[band]
	stops := make([]GradientStop, len(gradient))
	copy(stops, gradient)
	return RenderConfig{
		Band:       band,
		Radius:     b.radius,
		Blur:       b.blur,
		MinOpacity: MinOpacity,
		MaxZoom:    MaxZoom,
		Gradient:   stops,
	}
}
