package mapview

import (
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
	"github.com/mohammed-shakir/geomap-sync/internal/core/tiler"
)

// surface events a view listens to
const (
	EventZoomEnd = "zoomend"
	EventDrag    = "drag"
)

// interactive layer hooks
const (
	HookOn  = "on"
	HookOff = "off"
)

// TileLayer is an opaque layer handle created by a surface.
type TileLayer interface {
	URLTemplate() string
}

type TileOptions struct {
	Attribution string
	Opacity     float64
}

// Interaction is what an interactive layer reports for a pointer event over
// a feature. For HookOff only the zero value is delivered.
type Interaction struct {
	Event model.InputEvent
	Pos   model.Pixel
	Data  model.FeatureData
}

// InteractionHandler errors are returned to the surface that fired the hook.
type InteractionHandler func(Interaction) error

type InteractiveLayer interface {
	TileLayer
	On(hook string, fn InteractionHandler)
}

// Surface is the rendering engine a View drives. Implementations emit
// EventZoomEnd and EventDrag for user gestures; they may also emit them for
// programmatic SetZoom/PanTo calls.
type Surface interface {
	SetZoom(z int)
	PanTo(c model.LatLng)
	Zoom() int
	Center() model.LatLng

	AddLayer(h TileLayer)
	RemoveLayer(h TileLayer)

	On(event string, fn func()) (unsubscribe func())

	NewTileLayer(urlTemplate string, opts TileOptions) TileLayer
	NewInteractiveLayer(tj tiler.TileJSON) InteractiveLayer

	// PixelToLatLng converts the position of a raw input event to a
	// geographic coordinate.
	PixelToLatLng(ev model.InputEvent) model.LatLng
}
