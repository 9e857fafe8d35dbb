// Package geomap holds the map model: viewport centre and zoom plus the
// ordered layer collection the map owns.
package geomap

import (
	"errors"
	"fmt"

	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
	"github.com/mohammed-shakir/geomap-sync/internal/event"
)

var ErrInvalidArgument = errors.New("invalid argument")

const DefaultZoom = 9

// Change carries the previous and the new value of an attribute.
type Change[T any] struct {
	Old T
	New T
}

// Map is not safe for concurrent use; see the router session for how the
// server serialises access.
type Map struct {
	center model.LatLng
	zoom   int
	layers *layer.Collection

	zoomChanged   event.Emitter[Change[int]]
	centerChanged event.Emitter[Change[model.LatLng]]
}

// New returns a map centred on (0,0) at DefaultZoom with no layers.
func New() *Map {
	return &Map{zoom: DefaultZoom, layers: layer.NewCollection()}
}

// NewAt returns a map with the given initial viewport.
func NewAt(center model.LatLng, zoom int) (*Map, error) {
	m := New()
	if err := m.SetCenter(center); err != nil {
		return nil, err
	}
	if err := m.SetZoom(zoom); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Map) Zoom() int { return m.zoom }

func (m *Map) Center() model.LatLng { return m.center }

// SetZoom updates the zoom and emits a zoom change. A write of the current
// value emits nothing.
func (m *Map) SetZoom(z int) error {
	if z < 0 {
		return fmt.Errorf("%w: zoom %d must be >= 0", ErrInvalidArgument, z)
	}
	if z == m.zoom {
		return nil
	}
	old := m.zoom
	m.zoom = z
	m.zoomChanged.Emit(Change[int]{Old: old, New: z})
	return nil
}

// SetCenter updates the centre and emits a centre change. A write of the
// current value emits nothing.
func (m *Map) SetCenter(c model.LatLng) error {
	if !c.Valid() {
		return fmt.Errorf("%w: center %s", ErrInvalidArgument, c)
	}
	if c == m.center {
		return nil
	}
	old := m.center
	m.center = c
	m.centerChanged.Emit(Change[model.LatLng]{Old: old, New: c})
	return nil
}

// Layers returns the collection owned by the map. It is never replaced.
func (m *Map) Layers() *layer.Collection { return m.layers }

// AddLayer appends l to the layer collection, which emits the added event.
func (m *Map) AddLayer(l layer.Layer) bool { return m.layers.Add(l) }

func (m *Map) RemoveLayer(l layer.Layer) bool { return m.layers.Remove(l) }

func (m *Map) OnZoomChange(fn func(Change[int])) (unsubscribe func()) {
	return m.zoomChanged.Subscribe(fn)
}

func (m *Map) OnCenterChange(fn func(Change[model.LatLng])) (unsubscribe func()) {
	return m.centerChanged.Subscribe(fn)
}
