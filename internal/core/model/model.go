// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"math"
)

// LatLng is a geographic coordinate in degrees (EPSG:4326).
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// Valid reports whether the coordinate is finite with latitude in [-90,90].
// Longitude is left unbounded since panning across the antimeridian wraps it.
func (c LatLng) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90
}

// Bounds is the geographic rectangle covered by a viewport.
type Bounds struct {
	SW LatLng `json:"sw"`
	NE LatLng `json:"ne"`
}

// Pixel is a position in surface (container) pixels, origin top-left.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// raw pointer event types delivered by a surface
const (
	EventMouseMove = "mousemove"
	EventClick     = "click"
	EventTouched   = "touched"
)

type InputEvent struct {
	Type string `json:"type"`
	Pos  Pixel  `json:"pos"`
}

// FeatureData is the per-feature payload resolved from a grid tile.
type FeatureData map[string]any

// Cells is a set of H3 cell ids in canonical string form.
type Cells []string
