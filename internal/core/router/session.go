// Package router exposes a map session over HTTP: one map model bound to a
// headless surface, driven either through the model or through simulated
// surface gestures.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mohammed-shakir/geomap-sync/internal/core/geomap"
	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
	"github.com/mohammed-shakir/geomap-sync/internal/core/mapview"
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
	"github.com/mohammed-shakir/geomap-sync/internal/core/tiler"
	mylog "github.com/mohammed-shakir/geomap-sync/internal/logger"
	"github.com/mohammed-shakir/geomap-sync/internal/mapper"
	"github.com/mohammed-shakir/geomap-sync/internal/surface/headless"
	"github.com/mohammed-shakir/geomap-sync/internal/viewevents"
	"github.com/mohammed-shakir/geomap-sync/internal/viewheat"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrBadRequest     = errors.New("bad request")
	ErrNotHostedData  = errors.New("layer is not a hosted-data layer")
	ErrNotInteractive = errors.New("layer is not interactive")
)

// viewport change sources
const (
	SourceAPI     = "api"
	GestureDrag   = "drag"
	GestureZoom   = "zoom"
	featureHover  = "hover"
	featureClick  = "click"
	featureLeave  = "leave"
	defaultSessID = "default"
)

type DescriptorSource interface {
	TileJSON(ctx context.Context, l *layer.HostedDataLayer) (tiler.TileJSON, error)
}

type EventPublisher interface {
	Publish(ev viewevents.Event)
}

type Deps struct {
	Logger        *slog.Logger
	Descriptors   DescriptorSource
	Cells         mapper.Interface
	Events        EventPublisher    // optional
	Heat          *viewheat.Tracker // optional
	LayerDefaults []layer.DecodeOption
	Surface       []headless.Option
}

type ViewportState struct {
	Center  model.LatLng `json:"center"`
	Zoom    int          `json:"zoom"`
	Bounds  model.Bounds `json:"bounds"`
	Cell    string       `json:"cell,omitempty"`
	Res     int          `json:"res"`
	Surface struct {
		Center model.LatLng `json:"center"`
		Zoom   int          `json:"zoom"`
	} `json:"surface"`
}

type ViewportUpdate struct {
	Center *model.LatLng `json:"center,omitempty"`
	Zoom   *int          `json:"zoom,omitempty"`
}

// Gesture is a simulated user interaction with the surface.
type Gesture struct {
	Type   string        `json:"type"`
	Center *model.LatLng `json:"center,omitempty"`
	Zoom   *int          `json:"zoom,omitempty"`
}

// FeatureEvent is what a feature callback of a session layer received.
type FeatureEvent struct {
	Kind  string            `json:"kind"`
	Event model.InputEvent  `json:"event"`
	At    model.LatLng      `json:"at"`
	Pos   model.Pixel       `json:"pos"`
	Data  model.FeatureData `json:"data,omitempty"`
}

type Interaction struct {
	Hook  string            `json:"hook"`
	Event model.InputEvent  `json:"event"`
	Pos   model.Pixel       `json:"pos"`
	Data  model.FeatureData `json:"data,omitempty"`
}

type LayerInfo struct {
	Index    int         `json:"index"`
	Kind     string      `json:"kind"`
	Visible  bool        `json:"visible"`
	Attached bool        `json:"attached"`
	URL      string      `json:"url,omitempty"`
	Layer    layer.Layer `json:"layer"`
}

type LayerURLs struct {
	Template string `json:"template"`
	Rendered string `json:"rendered"`
	Tile     string `json:"tile,omitempty"`
	Grid     string `json:"grid,omitempty"`
	SQL      string `json:"sql,omitempty"`
}

// Session serialises all access to its map, view and surface, which are
// single-threaded.
type Session struct {
	mu      sync.Mutex
	id      string
	m       *geomap.Map
	surface *headless.Surface
	view    *mapview.View
	deps    Deps

	lastFeature *FeatureEvent
}

func NewSession(id string, center model.LatLng, zoom int, deps Deps) (*Session, error) {
	if deps.Descriptors == nil {
		return nil, fmt.Errorf("router: %w: descriptor source", mapview.ErrMissingDependency)
	}
	if deps.Cells == nil {
		return nil, fmt.Errorf("router: %w: cell mapper", mapview.ErrMissingDependency)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if id == "" {
		id = defaultSessID
	}

	if zoom > headless.MaxZoom {
		return nil, fmt.Errorf("router: initial zoom %d above max %d", zoom, headless.MaxZoom)
	}
	m, err := geomap.NewAt(center, zoom)
	if err != nil {
		return nil, fmt.Errorf("router: initial viewport: %w", err)
	}
	s := &Session{id: id, m: m, deps: deps, surface: headless.New(deps.Surface...)}
	v, err := mapview.New(m, s.surface,
		mapview.WithLogger(deps.Logger.With("session", id)),
		mapview.WithViewportListener(s.onSurfaceViewport),
	)
	if err != nil {
		return nil, err
	}
	s.view = v
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Close()
}

// runs with s.mu held, from inside a surface gesture
func (s *Session) onSurfaceViewport(c mapview.ViewportChange) {
	s.publish(c.Center, c.Zoom, c.Source)
}

func (s *Session) publish(center model.LatLng, zoom int, source string) {
	if s.deps.Events == nil && s.deps.Heat == nil {
		return
	}
	cell, err := s.deps.Cells.CellForViewport(center, zoom)
	if err != nil {
		s.deps.Logger.Warn("viewport cell", "session", s.id, "err", err)
	}
	if s.deps.Heat != nil {
		s.deps.Heat.Record(cell)
	}
	if s.deps.Events == nil {
		return
	}
	s.deps.Events.Publish(viewevents.Event{
		Session: s.id,
		Lat:     center.Lat,
		Lng:     center.Lng,
		Zoom:    zoom,
		Cell:    cell,
		Res:     s.deps.Cells.Resolution(zoom),
		Source:  source,
	})
}

func (s *Session) Viewport() ViewportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport()
}

func (s *Session) viewport() ViewportState {
	st := ViewportState{
		Center: s.m.Center(),
		Zoom:   s.m.Zoom(),
		Bounds: s.surface.Bounds(),
		Res:    s.deps.Cells.Resolution(s.m.Zoom()),
	}
	if cell, err := s.deps.Cells.CellForViewport(st.Center, st.Zoom); err == nil {
		st.Cell = cell
	}
	st.Surface.Center = s.surface.Center()
	st.Surface.Zoom = s.surface.Zoom()
	return st
}

// SetViewport writes to the model; the view pushes the change to the
// surface. Every field is checked before anything is written.
func (s *Session) SetViewport(ctx context.Context, u ViewportUpdate) (ViewportState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Center != nil && !u.Center.Valid() {
		return s.viewport(), fmt.Errorf("%w: center %s out of range", geomap.ErrInvalidArgument, u.Center.String())
	}
	if u.Zoom != nil {
		if err := checkZoom(*u.Zoom); err != nil {
			return s.viewport(), err
		}
	}

	before, beforeZoom := s.m.Center(), s.m.Zoom()
	if u.Center != nil {
		if err := s.m.SetCenter(*u.Center); err != nil {
			return s.viewport(), err
		}
	}
	if u.Zoom != nil {
		if err := s.m.SetZoom(*u.Zoom); err != nil {
			return s.viewport(), err
		}
	}
	if s.m.Center() != before || s.m.Zoom() != beforeZoom {
		ctx = mylog.WithSession(ctx, s.id)
		s.deps.Logger.DebugContext(ctx, "viewport set", "center", s.m.Center().String(), "zoom", s.m.Zoom())
		s.publish(s.m.Center(), s.m.Zoom(), SourceAPI)
	}
	return s.viewport(), nil
}

// checkZoom rejects levels the surface cannot render.
func checkZoom(z int) error {
	if z < 0 {
		return fmt.Errorf("%w: zoom %d must be >= 0", geomap.ErrInvalidArgument, z)
	}
	if z > headless.MaxZoom {
		return fmt.Errorf("%w: zoom %d above max %d", ErrBadRequest, z, headless.MaxZoom)
	}
	return nil
}

// Gesture simulates a user gesture on the surface; the view writes it back
// into the model.
func (s *Session) Gesture(g Gesture) (ViewportState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch g.Type {
	case GestureDrag:
		if g.Center == nil || !g.Center.Valid() {
			return s.viewport(), fmt.Errorf("%w: drag needs a valid center", ErrBadRequest)
		}
		s.surface.Drag(*g.Center)
	case GestureZoom:
		if g.Zoom == nil || *g.Zoom < 0 || *g.Zoom > headless.MaxZoom {
			return s.viewport(), fmt.Errorf("%w: zoom needs a level in 0..%d", ErrBadRequest, headless.MaxZoom)
		}
		s.surface.ZoomTo(*g.Zoom)
	default:
		return s.viewport(), fmt.Errorf("%w: unknown gesture %q", ErrBadRequest, g.Type)
	}
	return s.viewport(), nil
}

// Cells lists the H3 cells covering the visible bounds.
func (s *Session) Cells() (model.Cells, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	zoom := s.m.Zoom()
	cells, err := s.deps.Cells.CellsForBounds(s.surface.Bounds(), zoom)
	return cells, s.deps.Cells.Resolution(zoom), err
}

// Heat returns the n most viewed cells, or nil when heat is not tracked.
func (s *Session) Heat(n int) []viewheat.Cell {
	if s.deps.Heat == nil {
		return nil
	}
	return s.deps.Heat.Top(n)
}

func (s *Session) Layers() []LayerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LayerInfo, 0, s.m.Layers().Len())
	s.m.Layers().Each(func(i int, l layer.Layer) {
		info := LayerInfo{Index: i, Kind: l.Kind().String(), Visible: l.IsVisible(), Layer: l}
		if h, ok := s.view.Handle(l); ok {
			info.Attached = true
			info.URL = h.URLTemplate()
		}
		out = append(out, info)
	})
	return out
}

// AddLayer decodes a layer payload and appends it to the map.
func (s *Session) AddLayer(ctx context.Context, payload []byte) (LayerInfo, error) {
	l, err := layer.Decode(payload, s.deps.LayerDefaults...)
	if err != nil {
		return LayerInfo{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if h, ok := l.(*layer.HostedDataLayer); ok {
		kinds, err := callbackKinds(payload)
		if err != nil {
			return LayerInfo{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		s.bindFeatureCallbacks(h, kinds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.AddLayer(l)
	i := s.m.Layers().Index(l)

	ctx = mylog.WithLayer(mylog.WithSession(ctx, s.id), l.Kind().String())
	s.deps.Logger.InfoContext(ctx, "layer added", "index", i)

	info := LayerInfo{Index: i, Kind: l.Kind().String(), Visible: l.IsVisible(), Layer: l}
	if h, ok := s.view.Handle(l); ok {
		info.Attached = true
		info.URL = h.URLTemplate()
	}
	return info, nil
}

func (s *Session) RemoveLayer(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.m.Layers().At(i)
	if !ok {
		return fmt.Errorf("layer %d: %w", i, ErrNotFound)
	}
	s.m.RemoveLayer(l)
	return nil
}

func (s *Session) TileJSON(ctx context.Context, i int) (tiler.TileJSON, error) {
	s.mu.Lock()
	l, err := s.hostedAt(i)
	s.mu.Unlock()
	if err != nil {
		return tiler.TileJSON{}, err
	}
	// layer attributes are not mutated after decode, so the lookup can run
	// without holding the session
	return s.deps.Descriptors.TileJSON(ctx, l)
}

func (s *Session) URLs(i int) (LayerURLs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.m.Layers().At(i)
	if !ok {
		return LayerURLs{}, fmt.Errorf("layer %d: %w", i, ErrNotFound)
	}

	var out LayerURLs
	switch t := l.(type) {
	case *layer.TiledLayer:
		out.Template = t.URLTemplate
	case *layer.HostedDataLayer:
		u := tiler.TileAndGridURLs(t)
		out.Tile, out.Grid = u.Tile, u.Grid
		out.SQL = tiler.SQLURL(t, t.Query)
		out.Template = tiler.StaticTileURL(t)
		if t.Interactivity != "" {
			out.Template = u.Tile
		}
	default:
		return LayerURLs{}, fmt.Errorf("layer %d: %w", i, mapview.ErrUnsupportedLayerKind)
	}
	out.Rendered = s.surface.Expand(out.Template)
	return out, nil
}

// Interact fires a feature hook on an interactive layer and reports what the
// layer callback received.
func (s *Session) Interact(i int, in Interaction) (*FeatureEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.m.Layers().At(i)
	if !ok {
		return nil, fmt.Errorf("layer %d: %w", i, ErrNotFound)
	}
	h, ok := s.view.Handle(l)
	if !ok {
		return nil, fmt.Errorf("layer %d: %w", i, ErrNotInteractive)
	}
	ih, ok := h.(*headless.InteractiveHandle)
	if !ok {
		return nil, fmt.Errorf("layer %d: %w", i, ErrNotInteractive)
	}
	if in.Hook != mapview.HookOn && in.Hook != mapview.HookOff {
		return nil, fmt.Errorf("%w: unknown hook %q", ErrBadRequest, in.Hook)
	}

	s.lastFeature = nil
	err := ih.Fire(in.Hook, mapview.Interaction{Event: in.Event, Pos: in.Pos, Data: in.Data})
	return s.lastFeature, err
}

func (s *Session) hostedAt(i int) (*layer.HostedDataLayer, error) {
	l, ok := s.m.Layers().At(i)
	if !ok {
		return nil, fmt.Errorf("layer %d: %w", i, ErrNotFound)
	}
	h, ok := l.(*layer.HostedDataLayer)
	if !ok {
		return nil, fmt.Errorf("layer %d: %w", i, ErrNotHostedData)
	}
	return h, nil
}

// callbackKinds reads the optional "callbacks" list of a layer payload.
// Without it every feature callback is bound.
func callbackKinds(payload []byte) (map[string]bool, error) {
	var p struct {
		Callbacks *[]string `json:"callbacks"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("parse callbacks: %w", err)
	}
	kinds := map[string]bool{featureHover: true, featureClick: true, featureLeave: true}
	if p.Callbacks == nil {
		return kinds, nil
	}
	picked := make(map[string]bool, len(*p.Callbacks))
	for _, k := range *p.Callbacks {
		if !kinds[k] {
			return nil, fmt.Errorf("unknown callback %q", k)
		}
		picked[k] = true
	}
	return picked, nil
}

// Callbacks run inside Interact with s.mu held; they record the last
// feature event for the response.
func (s *Session) bindFeatureCallbacks(l *layer.HostedDataLayer, kinds map[string]bool) {
	record := func(kind string) layer.FeatureHandler {
		return func(ev model.InputEvent, at model.LatLng, pos model.Pixel, data model.FeatureData) {
			s.lastFeature = &FeatureEvent{Kind: kind, Event: ev, At: at, Pos: pos, Data: data}
		}
	}
	if kinds[featureHover] {
		l.OnFeatureHover = record(featureHover)
	}
	if kinds[featureClick] {
		l.OnFeatureClick = record(featureClick)
	}
	if kinds[featureLeave] {
		l.OnFeatureLeave = func() { s.lastFeature = &FeatureEvent{Kind: featureLeave} }
	}
}
