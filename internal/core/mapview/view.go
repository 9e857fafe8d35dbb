// Package mapview binds a map model to a rendering surface and keeps the two
// synchronised in both directions without feedback loops.
package mapview

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mohammed-shakir/geomap-sync/internal/core/geomap"
	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
	"github.com/mohammed-shakir/geomap-sync/internal/core/observability"
	"github.com/mohammed-shakir/geomap-sync/internal/core/tiler"
)

var (
	ErrMissingDependency    = errors.New("missing dependency")
	ErrCallbackMissing      = errors.New("feature callback not defined")
	ErrUnsupportedLayerKind = errors.New("layer type not supported")
)

// State is the model→surface binding state. A view is Unbound only while it
// writes a surface-originated value into the model.
type State int

const (
	Bound State = iota
	Unbound
)

func (s State) String() string {
	if s == Unbound {
		return "unbound"
	}
	return "bound"
}

// ViewportChange reports a model update that originated on the surface.
type ViewportChange struct {
	Center model.LatLng
	Zoom   int
	Source string
}

type Option func(*View)

func WithLogger(l *slog.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithViewportListener registers fn to be called after a surface gesture
// changed the model.
func WithViewportListener(fn func(ViewportChange)) Option {
	return func(v *View) { v.onViewport = fn }
}

type attachment struct {
	layer  layer.Layer
	handle TileLayer
}

// View is single-threaded like the model it observes. It holds a
// non-owning reference to the map; call Close before discarding the map or
// the surface.
type View struct {
	m          *geomap.Map
	surface    Surface
	logger     *slog.Logger
	onViewport func(ViewportChange)

	state    State
	attached []attachment
	unsubs   []func()
	closed   bool
}

func New(m *geomap.Map, s Surface, opts ...Option) (*View, error) {
	if m == nil {
		return nil, fmt.Errorf("mapview: %w: a map model is required", ErrMissingDependency)
	}
	if s == nil {
		return nil, fmt.Errorf("mapview: %w: a rendering surface is required", ErrMissingDependency)
	}

	v := &View{m: m, surface: s, logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}

	layers := m.Layers()
	v.unsubs = append(v.unsubs,
		layers.OnAdded(v.onLayerAdded),
		layers.OnRemoved(v.onLayerRemoved),
		m.OnZoomChange(v.onModelZoom),
		m.OnCenterChange(v.onModelCenter),
	)

	// one-way initial sync; surface listeners are attached afterwards so the
	// surface cannot echo it back
	s.PanTo(m.Center())
	s.SetZoom(m.Zoom())

	layers.Each(func(_ int, l layer.Layer) { v.onLayerAdded(l) })

	v.unsubs = append(v.unsubs,
		s.On(EventZoomEnd, v.onSurfaceZoom),
		s.On(EventDrag, v.onSurfaceDrag),
	)
	return v, nil
}

func (v *View) State() State { return v.state }

func (v *View) Map() *geomap.Map { return v.m }

// Handle returns the surface handle attached for l.
func (v *View) Handle(l layer.Layer) (TileLayer, bool) {
	for _, a := range v.attached {
		if a.layer == l {
			return a.handle, true
		}
	}
	return nil, false
}

// Close detaches every subscription and removes attached layers from the
// surface. It is idempotent.
func (v *View) Close() {
	if v.closed {
		return
	}
	v.closed = true
	for _, unsub := range v.unsubs {
		unsub()
	}
	v.unsubs = nil
	for _, a := range v.attached {
		v.surface.RemoveLayer(a.handle)
	}
	v.attached = nil
}

// model -> surface

func (v *View) onModelZoom(c geomap.Change[int]) {
	if v.state == Unbound {
		observability.IncEchoSuppressed()
		return
	}
	v.logger.Debug("sync zoom to surface", "zoom", c.New)
	v.surface.SetZoom(c.New)
	observability.IncSurfaceSync(observability.DirModelToSurface)
}

func (v *View) onModelCenter(c geomap.Change[model.LatLng]) {
	if v.state == Unbound {
		observability.IncEchoSuppressed()
		return
	}
	v.logger.Debug("sync center to surface", "center", c.New.String())
	v.surface.PanTo(c.New)
	observability.IncSurfaceSync(observability.DirModelToSurface)
}

// surface -> model

func (v *View) onSurfaceZoom() {
	z := v.surface.Zoom()
	v.fromSurface(EventZoomEnd, func() error { return v.m.SetZoom(z) })
}

func (v *View) onSurfaceDrag() {
	c := v.surface.Center()
	v.fromSurface(EventDrag, func() error { return v.m.SetCenter(c) })
}

func (v *View) fromSurface(source string, write func() error) {
	if v.state == Unbound {
		// a gesture fired synchronously from inside a model write
		v.logger.Debug("surface event dropped during model write", "event", source)
		observability.IncEchoSuppressed()
		return
	}

	beforeCenter, beforeZoom := v.m.Center(), v.m.Zoom()
	if err := v.writeUnbound(write); err != nil {
		v.logger.Warn("surface viewport rejected by model", "event", source, "err", err)
		return
	}
	if v.m.Center() == beforeCenter && v.m.Zoom() == beforeZoom {
		return
	}

	observability.IncSurfaceSync(observability.DirSurfaceToModel)
	v.logger.Debug("sync surface to model", "event", source,
		"center", v.m.Center().String(), "zoom", v.m.Zoom())
	if v.onViewport != nil {
		v.onViewport(ViewportChange{Center: v.m.Center(), Zoom: v.m.Zoom(), Source: source})
	}
}

// writeUnbound runs write with model→surface propagation suspended and
// restores the binding before returning, panics included.
func (v *View) writeUnbound(write func() error) error {
	v.state = Unbound
	defer func() { v.state = Bound }()
	return write()
}

// layer dispatch

func (v *View) onLayerAdded(l layer.Layer) {
	if _, err := v.attach(l); err != nil {
		if errors.Is(err, ErrUnsupportedLayerKind) {
			v.logger.Error("layer type not supported", "kind", l.Kind().String(), "type", fmt.Sprintf("%T", l))
			return
		}
		v.logger.Error("layer not attached", "kind", l.Kind().String(), "err", err)
	}
}

func (v *View) onLayerRemoved(l layer.Layer) {
	for i, a := range v.attached {
		if a.layer == l {
			v.surface.RemoveLayer(a.handle)
			v.attached = append(v.attached[:i:i], v.attached[i+1:]...)
			return
		}
	}
}

func (v *View) attach(l layer.Layer) (TileLayer, error) {
	var (
		h    TileLayer
		mode string
	)
	switch t := l.(type) {
	case *layer.TiledLayer:
		h, mode = v.surface.NewTileLayer(t.URLTemplate, TileOptions{Opacity: 1}), "tile"
	case *layer.HostedDataLayer:
		if t.Interactivity != "" {
			h, mode = v.interactiveLayer(t), "interactive"
		} else {
			h, mode = v.surface.NewTileLayer(tiler.StaticTileURL(t), TileOptions{
				Attribution: t.Attribution,
				Opacity:     t.Opacity,
			}), "static"
		}
	default:
		observability.IncLayerError("unsupported_kind")
		return nil, fmt.Errorf("mapview: %w: %s", ErrUnsupportedLayerKind, l.Kind())
	}
	if h == nil {
		observability.IncLayerError("no_handle")
		return nil, fmt.Errorf("mapview: surface returned no handle for %s layer", l.Kind())
	}

	v.surface.AddLayer(h)
	v.attached = append(v.attached, attachment{layer: l, handle: h})
	observability.IncLayerAttached(l.Kind().String(), mode)
	v.logger.Debug("layer attached", "kind", l.Kind().String(), "mode", mode, "url", h.URLTemplate())
	return h, nil
}

func (v *View) interactiveLayer(l *layer.HostedDataLayer) TileLayer {
	tj := tiler.NewTileJSON(l)
	il := v.surface.NewInteractiveLayer(tj)
	if il == nil {
		return nil
	}
	il.On(HookOn, func(in Interaction) error { return v.featureOn(l, tj, in) })
	il.On(HookOff, func(Interaction) error { return featureOff(l) })
	return il
}

// callbacks are looked up when the event fires so they can be set after the
// layer was added
func (v *View) featureOn(l *layer.HostedDataLayer, tj tiler.TileJSON, in Interaction) error {
	var (
		fn   layer.FeatureHandler
		name string
	)
	switch in.Event.Type {
	case model.EventMouseMove:
		fn, name = l.OnFeatureHover, "hover"
	case model.EventClick, model.EventTouched:
		fn, name = l.OnFeatureClick, "click"
	default:
		return nil
	}
	if fn == nil {
		return callbackMissing(l, name)
	}
	at := v.surface.PixelToLatLng(in.Event)
	fn(in.Event, at, in.Pos, tj.Format(nil, in.Data))
	return nil
}

func featureOff(l *layer.HostedDataLayer) error {
	if l.OnFeatureLeave == nil {
		return callbackMissing(l, "leave")
	}
	l.OnFeatureLeave()
	return nil
}

func callbackMissing(l *layer.HostedDataLayer, name string) error {
	if !l.Debug {
		return nil
	}
	observability.IncLayerError("callback_missing")
	return fmt.Errorf("%w: %s on layer %q", ErrCallbackMissing, name, l.Dataset)
}
