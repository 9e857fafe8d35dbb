// Package headless is an in-memory rendering surface. It keeps a viewport,
// records every programmatic mutation and lets callers simulate user
// gestures. The server drives one per session and the tests use it to
// observe what a view did.
package headless

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-spatial/geom/slippy"

	"github.com/mohammed-shakir/geomap-sync/internal/core/mapview"
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
	"github.com/mohammed-shakir/geomap-sync/internal/core/tiler"
	"github.com/mohammed-shakir/geomap-sync/internal/event"
)

const tileSize = 256

// recorded operations
const (
	OpSetZoom     = "setZoom"
	OpPanTo       = "panTo"
	OpAddLayer    = "addLayer"
	OpRemoveLayer = "removeLayer"
)

type Call struct {
	Op  string
	Arg any
}

type Option func(*Surface)

// WithViewport sets the container size in pixels. Default 256x256.
func WithViewport(width, height int) Option {
	return func(s *Surface) {
		if width > 0 && height > 0 {
			s.width, s.height = width, height
		}
	}
}

// WithProgrammaticEvents makes SetZoom and PanTo fire zoomend and drag the
// way some engines report programmatic moves.
func WithProgrammaticEvents() Option {
	return func(s *Surface) { s.programmatic = true }
}

var _ mapview.Surface = (*Surface)(nil)

// Surface is not safe for concurrent use.
type Surface struct {
	zoom   int
	center model.LatLng

	width, height int
	programmatic  bool

	layers    []mapview.TileLayer
	calls     []Call
	listeners map[string]*event.Emitter[struct{}]
}

func New(opts ...Option) *Surface {
	s := &Surface{
		width:     tileSize,
		height:    tileSize,
		listeners: make(map[string]*event.Emitter[struct{}]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxZoom is the deepest level the surface renders tiles for.
const MaxZoom = slippy.MaxZoom

func clampZoom(z int) int { return clamp(z, 0, MaxZoom) }

func (s *Surface) SetZoom(z int) {
	s.record(OpSetZoom, z)
	s.zoom = clampZoom(z)
	if s.programmatic {
		s.fire(mapview.EventZoomEnd)
	}
}

func (s *Surface) PanTo(c model.LatLng) {
	s.record(OpPanTo, c)
	s.center = c
	if s.programmatic {
		s.fire(mapview.EventDrag)
	}
}

func (s *Surface) Zoom() int { return s.zoom }

func (s *Surface) Center() model.LatLng { return s.center }

func (s *Surface) AddLayer(h mapview.TileLayer) {
	s.record(OpAddLayer, h.URLTemplate())
	s.layers = append(s.layers, h)
}

func (s *Surface) RemoveLayer(h mapview.TileLayer) {
	for i, x := range s.layers {
		if x == h {
			s.record(OpRemoveLayer, h.URLTemplate())
			s.layers = append(s.layers[:i:i], s.layers[i+1:]...)
			return
		}
	}
}

func (s *Surface) On(name string, fn func()) (unsubscribe func()) {
	em, ok := s.listeners[name]
	if !ok {
		em = &event.Emitter[struct{}]{}
		s.listeners[name] = em
	}
	return em.Subscribe(func(struct{}) { fn() })
}

func (s *Surface) NewTileLayer(urlTemplate string, opts mapview.TileOptions) mapview.TileLayer {
	return &TileHandle{url: urlTemplate, Options: opts}
}

func (s *Surface) NewInteractiveLayer(tj tiler.TileJSON) mapview.InteractiveLayer {
	h := &InteractiveHandle{TileHandle: TileHandle{Options: mapview.TileOptions{Opacity: tj.Opacity}}, TileJSON: tj}
	if len(tj.Tiles) > 0 {
		h.url = tj.Tiles[0]
	}
	return h
}

// Drag simulates the user panning the map to c.
func (s *Surface) Drag(c model.LatLng) {
	s.center = c
	s.fire(mapview.EventDrag)
}

// ZoomTo simulates a user zoom gesture ending at z.
// Levels outside 0..MaxZoom are clamped.
func (s *Surface) ZoomTo(z int) {
	s.zoom = clampZoom(z)
	s.fire(mapview.EventZoomEnd)
}

// Calls returns the programmatic mutations seen since the last ResetCalls.
func (s *Surface) Calls() []Call {
	return append([]Call(nil), s.calls...)
}

func (s *Surface) ResetCalls() { s.calls = nil }

// Layers returns the attached layer handles in stacking order.
func (s *Surface) Layers() []mapview.TileLayer {
	return append([]mapview.TileLayer(nil), s.layers...)
}

// PixelToLatLng unprojects the event position with spherical mercator,
// taking the viewport centre as the middle of the container.
func (s *Surface) PixelToLatLng(ev model.InputEvent) model.LatLng {
	size := worldSize(s.zoom)
	cx, cy := project(s.center, size)
	wx := cx + ev.Pos.X - float64(s.width)/2
	wy := cy + ev.Pos.Y - float64(s.height)/2
	return unproject(wx, wy, size)
}

// Bounds is the geographic extent of the container.
func (s *Surface) Bounds() model.Bounds {
	return model.Bounds{
		SW: s.PixelToLatLng(model.InputEvent{Pos: model.Pixel{X: 0, Y: float64(s.height)}}),
		NE: s.PixelToLatLng(model.InputEvent{Pos: model.Pixel{X: float64(s.width), Y: 0}}),
	}
}

// CenterTile is the slippy tile under the viewport centre.
func (s *Surface) CenterTile() *slippy.Tile {
	size := worldSize(s.zoom)
	cx, cy := project(s.center, size)
	n := 1 << uint(s.zoom)
	x := clamp(int(math.Floor(cx/tileSize)), 0, n-1)
	y := clamp(int(math.Floor(cy/tileSize)), 0, n-1)
	return slippy.NewTile(uint(s.zoom), uint(x), uint(y))
}

// Expand fills the {z}/{x}/{y} placeholders of tmpl with the centre tile.
func (s *Surface) Expand(tmpl string) string {
	return tileReplacer(s.CenterTile()).Replace(tmpl)
}

// RenderedURLs expands every attached layer template for the centre tile,
// i.e. the requests an engine would issue first.
func (s *Surface) RenderedURLs() []string {
	r := tileReplacer(s.CenterTile())
	out := make([]string, 0, len(s.layers))
	for _, h := range s.layers {
		out = append(out, r.Replace(h.URLTemplate()))
	}
	return out
}

func tileReplacer(t *slippy.Tile) *strings.Replacer {
	return strings.NewReplacer(
		"{z}", fmt.Sprint(t.Z),
		"{x}", fmt.Sprint(t.X),
		"{y}", fmt.Sprint(t.Y),
	)
}

func (s *Surface) record(op string, arg any) {
	s.calls = append(s.calls, Call{Op: op, Arg: arg})
}

func (s *Surface) fire(name string) {
	if em, ok := s.listeners[name]; ok {
		em.Emit(struct{}{})
	}
}

func worldSize(zoom int) float64 {
	return tileSize * math.Exp2(float64(zoom))
}

// maxLat is the latitude limit of the square mercator world.
const maxLat = 85.0511287798

func project(c model.LatLng, size float64) (x, y float64) {
	lat := math.Max(-maxLat, math.Min(maxLat, c.Lat)) * math.Pi / 180
	x = (c.Lng + 180) / 360 * size
	y = (1 - math.Log(math.Tan(lat)+1/math.Cos(lat))/math.Pi) / 2 * size
	return x, y
}

func unproject(x, y, size float64) model.LatLng {
	n := math.Pi - 2*math.Pi*y/size
	return model.LatLng{
		Lat: 180 / math.Pi * math.Atan(math.Sinh(n)),
		Lng: x/size*360 - 180,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
