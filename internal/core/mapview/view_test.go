package mapview_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mohammed-shakir/geomap-sync/internal/core/geomap"
	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
	"github.com/mohammed-shakir/geomap-sync/internal/core/mapview"
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
	"github.com/mohammed-shakir/geomap-sync/internal/surface/headless"
)

func newView(t *testing.T, m *geomap.Map, s *headless.Surface, opts ...mapview.Option) *mapview.View {
	t.Helper()
	v, err := mapview.New(m, s, opts...)
	if err != nil {
		t.Fatalf("mapview.New: %v", err)
	}
	t.Cleanup(v.Close)
	return v
}

func countOps(calls []headless.Call, op string) int {
	n := 0
	for _, c := range calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func TestNew_MissingDependency(t *testing.T) {
	if _, err := mapview.New(nil, headless.New()); !errors.Is(err, mapview.ErrMissingDependency) {
		t.Fatalf("nil map: err=%v", err)
	}
	if _, err := mapview.New(geomap.New(), nil); !errors.Is(err, mapview.ErrMissingDependency) {
		t.Fatalf("nil surface: err=%v", err)
	}
}

func TestNew_InitialSync(t *testing.T) {
	m, err := geomap.NewAt(model.LatLng{Lat: 40, Lng: -3}, 5)
	if err != nil {
		t.Fatal(err)
	}
	s := headless.New()
	newView(t, m, s)

	if s.Zoom() != 5 || s.Center() != (model.LatLng{Lat: 40, Lng: -3}) {
		t.Fatalf("surface viewport %v/%d", s.Center(), s.Zoom())
	}
}

func TestModelToSurface_ExactlyOnePan(t *testing.T) {
	m := geomap.New()
	s := headless.New()
	newView(t, m, s)
	s.ResetCalls()

	c := model.LatLng{Lat: 59.33, Lng: 18.07}
	if err := m.SetCenter(c); err != nil {
		t.Fatal(err)
	}
	calls := s.Calls()
	if len(calls) != 1 || calls[0].Op != headless.OpPanTo || calls[0].Arg != c {
		t.Fatalf("calls=%v", calls)
	}

	if err := m.SetZoom(12); err != nil {
		t.Fatal(err)
	}
	if countOps(s.Calls(), headless.OpSetZoom) != 1 || s.Zoom() != 12 {
		t.Fatalf("zoom not propagated: calls=%v", s.Calls())
	}
}

func TestSurfaceToModel_NoEcho(t *testing.T) {
	m := geomap.New()
	s := headless.New()
	var changes []mapview.ViewportChange
	newView(t, m, s, mapview.WithViewportListener(func(c mapview.ViewportChange) {
		changes = append(changes, c)
	}))
	s.ResetCalls()

	centerEvents := 0
	m.OnCenterChange(func(geomap.Change[model.LatLng]) { centerEvents++ })

	s.Drag(model.LatLng{Lat: 10, Lng: 20})

	if m.Center() != (model.LatLng{Lat: 10, Lng: 20}) || centerEvents != 1 {
		t.Fatalf("model center=%v events=%d", m.Center(), centerEvents)
	}
	if calls := s.Calls(); len(calls) != 0 {
		t.Fatalf("surface mutated by its own gesture: %v", calls)
	}
	if len(changes) != 1 || changes[0].Source != mapview.EventDrag {
		t.Fatalf("viewport changes=%v", changes)
	}

	s.ZoomTo(3)
	if m.Zoom() != 3 || len(s.Calls()) != 0 {
		t.Fatalf("zoom=%d calls=%v", m.Zoom(), s.Calls())
	}
}

func TestSurfaceEchoOfProgrammaticMove(t *testing.T) {
	m := geomap.New()
	s := headless.New(headless.WithProgrammaticEvents())
	v := newView(t, m, s)
	s.ResetCalls()

	if err := m.SetZoom(4); err != nil {
		t.Fatal(err)
	}
	// zoomend from the programmatic SetZoom writes the same value back,
	// which the model treats as no change
	if n := countOps(s.Calls(), headless.OpSetZoom); n != 1 {
		t.Fatalf("setZoom calls=%d want 1", n)
	}
	if v.State() != mapview.Bound {
		t.Fatalf("state=%s want bound", v.State())
	}
}

func TestSurfaceToModel_RejectedValueKeepsModel(t *testing.T) {
	m := geomap.New()
	s := headless.New()
	v := newView(t, m, s)

	s.ZoomTo(-1)
	if m.Zoom() != geomap.DefaultZoom {
		t.Fatalf("zoom=%d", m.Zoom())
	}
	if v.State() != mapview.Bound {
		t.Fatalf("state not restored after rejected write")
	}
}

func TestNestedGestureDropped(t *testing.T) {
	m := geomap.New()
	s := headless.New()
	newView(t, m, s)

	// a listener that reacts to the model write by producing another gesture
	nested := false
	m.OnCenterChange(func(geomap.Change[model.LatLng]) {
		if !nested {
			nested = true
			s.ZoomTo(15)
		}
	})
	s.Drag(model.LatLng{Lat: 1, Lng: 1})

	if m.Center() != (model.LatLng{Lat: 1, Lng: 1}) {
		t.Fatalf("center=%v", m.Center())
	}
	if m.Zoom() != geomap.DefaultZoom {
		t.Fatalf("nested gesture reached the model: zoom=%d", m.Zoom())
	}
}

func TestDispatch_TiledLayer(t *testing.T) {
	m := geomap.New()
	s := headless.New()
	v := newView(t, m, s)

	l := layer.NewTiled("http://tiles/{z}/{x}/{y}.png")
	m.AddLayer(l)

	h, ok := v.Handle(l)
	if !ok || h.URLTemplate() != l.URLTemplate {
		t.Fatalf("handle=%v ok=%v", h, ok)
	}
	th := h.(*headless.TileHandle)
	if th.Options.Opacity != 1 {
		t.Fatalf("opacity=%v", th.Options.Opacity)
	}

	m.RemoveLayer(l)
	if len(s.Layers()) != 0 {
		t.Fatalf("layer still on surface after removal")
	}
	if _, ok := v.Handle(l); ok {
		t.Fatalf("handle kept after removal")
	}
}

func TestDispatch_StaticHostedData(t *testing.T) {
	m := geomap.New()
	s := headless.New()
	v := newView(t, m, s)

	l := layer.NewHostedData("mytable")
	l.TilerHost, l.TilerPort = "tiles.example.com", ""
	m.AddLayer(l)

	h, ok := v.Handle(l)
	if !ok {
		t.Fatal("not attached")
	}
	want := "http://tiles.example.com/tiles/mytable/{z}/{x}/{y}.png?sql=SELECT%20*%20FROM%20mytable&style="
	if h.URLTemplate() != want {
		t.Fatalf("url=%q\nwant %q", h.URLTemplate(), want)
	}
	opts := h.(*headless.TileHandle).Options
	if opts.Attribution != "CartoDB" || opts.Opacity != 0.99 {
		t.Fatalf("opts=%+v", opts)
	}
}

func TestDispatch_LayersPresentBeforeBind(t *testing.T) {
	m := geomap.New()
	m.AddLayer(layer.NewTiled("a/{z}/{x}/{y}"))
	m.AddLayer(layer.NewTiled("b/{z}/{x}/{y}"))
	s := headless.New()
	newView(t, m, s)

	ls := s.Layers()
	if len(ls) != 2 || ls[0].URLTemplate() != "a/{z}/{x}/{y}" || ls[1].URLTemplate() != "b/{z}/{x}/{y}" {
		t.Fatalf("layers=%v", ls)
	}
}

type customLayer struct{}

func (*customLayer) Kind() layer.Kind { return layer.Kind(99) }
func (*customLayer) IsVisible() bool  { return true }

func TestDispatch_UnsupportedKind(t *testing.T) {
	var buf bytes.Buffer
	m := geomap.New()
	s := headless.New()
	v := newView(t, m, s, mapview.WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))

	l := &customLayer{}
	if !m.AddLayer(l) {
		t.Fatal("collection rejected custom layer")
	}
	if m.Layers().Len() != 1 {
		t.Fatalf("layer not kept in collection")
	}
	if len(s.Layers()) != 0 {
		t.Fatalf("surface got %d layers", len(s.Layers()))
	}
	if _, ok := v.Handle(l); ok {
		t.Fatal("unexpected handle")
	}

	var rec struct {
		Level string `json:"level"`
		Msg   string `json:"msg"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log output %q: %v", buf.String(), err)
	}
	if rec.Level != "ERROR" || rec.Msg != "layer type not supported" {
		t.Fatalf("record=%+v", rec)
	}
}

func interactiveFixture(t *testing.T) (*geomap.Map, *headless.Surface, *layer.HostedDataLayer, *headless.InteractiveHandle) {
	t.Helper()
	m := geomap.New()
	s := headless.New()
	v := newView(t, m, s)

	l := layer.NewHostedData("stores")
	l.Interactivity = "cartodb_id, name"
	m.AddLayer(l)

	h, ok := v.Handle(l)
	if !ok {
		t.Fatal("not attached")
	}
	ih, ok := h.(*headless.InteractiveHandle)
	if !ok {
		t.Fatalf("handle %T is not interactive", h)
	}
	return m, s, l, ih
}

func TestInteractive_HoverAndClick(t *testing.T) {
	_, s, l, h := interactiveFixture(t)

	if !strings.Contains(h.URLTemplate(), "interactivity=cartodb_id%2Cname") {
		t.Fatalf("url=%q", h.URLTemplate())
	}
	if len(h.TileJSON.Grids) != 1 || !strings.Contains(h.TileJSON.Grids[0], ".grid.json?") {
		t.Fatalf("grids=%v", h.TileJSON.Grids)
	}

	var hovered, clicked []model.FeatureData
	var at model.LatLng
	l.OnFeatureHover = func(_ model.InputEvent, ll model.LatLng, _ model.Pixel, d model.FeatureData) {
		hovered = append(hovered, d)
		at = ll
	}
	l.OnFeatureClick = func(_ model.InputEvent, _ model.LatLng, _ model.Pixel, d model.FeatureData) {
		clicked = append(clicked, d)
	}

	data := model.FeatureData{"cartodb_id": 7}
	center := model.InputEvent{Type: model.EventMouseMove, Pos: model.Pixel{X: 128, Y: 128}}
	if err := h.Fire(mapview.HookOn, mapview.Interaction{Event: center, Data: data}); err != nil {
		t.Fatal(err)
	}
	if len(hovered) != 1 || hovered[0]["cartodb_id"] != 7 || at != s.Center() {
		t.Fatalf("hovered=%v at=%v", hovered, at)
	}

	for _, typ := range []string{model.EventClick, model.EventTouched} {
		ev := model.InputEvent{Type: typ}
		if err := h.Fire(mapview.HookOn, mapview.Interaction{Event: ev, Data: data}); err != nil {
			t.Fatal(err)
		}
	}
	if len(clicked) != 2 {
		t.Fatalf("clicked=%d want 2", len(clicked))
	}
}

func TestInteractive_MissingCallback(t *testing.T) {
	_, _, l, h := interactiveFixture(t)
	click := mapview.Interaction{Event: model.InputEvent{Type: model.EventClick}}

	if err := h.Fire(mapview.HookOn, click); err != nil {
		t.Fatalf("without debug: err=%v want nil", err)
	}

	l.Debug = true
	if err := h.Fire(mapview.HookOn, click); !errors.Is(err, mapview.ErrCallbackMissing) {
		t.Fatalf("with debug: err=%v want ErrCallbackMissing", err)
	}
	if err := h.Fire(mapview.HookOff, mapview.Interaction{}); !errors.Is(err, mapview.ErrCallbackMissing) {
		t.Fatalf("leave with debug: err=%v", err)
	}
}

func TestInteractive_Leave(t *testing.T) {
	_, _, l, h := interactiveFixture(t)
	left := 0
	l.OnFeatureLeave = func() { left++ }
	if err := h.Fire(mapview.HookOff, mapview.Interaction{}); err != nil || left != 1 {
		t.Fatalf("err=%v left=%d", err, left)
	}
}

func TestClose_Detaches(t *testing.T) {
	m := geomap.New()
	s := headless.New()
	v, err := mapview.New(m, s)
	if err != nil {
		t.Fatal(err)
	}
	m.AddLayer(layer.NewTiled("x/{z}/{x}/{y}"))
	v.Close()
	v.Close()

	if len(s.Layers()) != 0 {
		t.Fatalf("layers left on surface: %d", len(s.Layers()))
	}
	s.ResetCalls()
	_ = m.SetZoom(2)
	m.AddLayer(layer.NewTiled("y/{z}/{x}/{y}"))
	if len(s.Calls()) != 0 {
		t.Fatalf("closed view still syncing: %v", s.Calls())
	}
	s.Drag(model.LatLng{Lat: 5, Lng: 5})
	if m.Center() != (model.LatLng{}) {
		t.Fatalf("closed view wrote to model")
	}
}
