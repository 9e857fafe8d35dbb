package h3mapper

import (
	"reflect"
	"sort"
	"testing"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
)

var stockholm = model.Bounds{
	SW: model.LatLng{Lat: 59.30, Lng: 17.95},
	NE: model.LatLng{Lat: 59.40, Lng: 18.15},
}

func TestResolutionForZoom(t *testing.T) {
	cases := map[int]int{-3: 0, 0: 0, 4: 3, 9: 6, 12: 9, 20: 15, 25: 15}
	for zoom, want := range cases {
		if got := ResolutionForZoom(zoom); got != want {
			t.Fatalf("ResolutionForZoom(%d)=%d want %d", zoom, got, want)
		}
	}
}

func TestResolution_FixedOrDerived(t *testing.T) {
	if r := New(-1).Resolution(12); r != 9 {
		t.Fatalf("derived res=%d want 9", r)
	}
	if r := New(7).Resolution(12); r != 7 {
		t.Fatalf("fixed res=%d want 7", r)
	}
	if r := New(40).Resolution(0); r != 15 {
		t.Fatalf("clamped res=%d want 15", r)
	}
}

func TestCellForViewport_MatchesH3(t *testing.T) {
	m := New(8)
	center := model.LatLng{Lat: 59.3293, Lng: 18.0686}

	got, err := m.CellForViewport(center, 12)
	if err != nil {
		t.Fatalf("CellForViewport: %v", err)
	}
	want, err := h3.LatLngToCell(h3.LatLng{Lat: center.Lat, Lng: center.Lng}, 8)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	if got != want.String() {
		t.Fatalf("cell=%s want %s", got, want)
	}

	if _, err := m.CellForViewport(model.LatLng{Lat: 95}, 3); err == nil {
		t.Fatalf("expected error for invalid center")
	}
}

func TestCellsForBounds_SortedUniqueDeterministic(t *testing.T) {
	m := New(8)
	cells, err := m.CellsForBounds(stockholm, 0)
	if err != nil {
		t.Fatalf("CellsForBounds: %v", err)
	}
	if len(cells) < 2 {
		t.Fatalf("expected several cells, got %d", len(cells))
	}
	if !sort.StringsAreSorted([]string(cells)) {
		t.Fatalf("cells must be sorted")
	}
	seen := map[string]bool{}
	for _, c := range cells {
		if seen[c] {
			t.Fatalf("duplicate cell %s", c)
		}
		seen[c] = true
	}
	again, _ := m.CellsForBounds(stockholm, 0)
	if !reflect.DeepEqual(cells, again) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestCellsForBounds_TinyViewportFallsBackToCenterCell(t *testing.T) {
	m := New(0)
	tiny := model.Bounds{
		SW: model.LatLng{Lat: 59.3290, Lng: 18.0680},
		NE: model.LatLng{Lat: 59.3291, Lng: 18.0681},
	}
	cells, err := m.CellsForBounds(tiny, 0)
	if err != nil {
		t.Fatalf("CellsForBounds: %v", err)
	}
	if len(cells) != 1 {
		t.Fatalf("cells=%v want exactly one", cells)
	}
}

func TestCellsForBounds_Invalid(t *testing.T) {
	bad := model.Bounds{SW: model.LatLng{Lat: -100}, NE: model.LatLng{Lat: 10, Lng: 10}}
	if _, err := New(5).CellsForBounds(bad, 0); err == nil {
		t.Fatalf("expected error")
	}
}

func TestToParent(t *testing.T) {
	m := New(-1)
	c, err := h3.LatLngToCell(h3.LatLng{Lat: 59.3293, Lng: 18.0686}, 9)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	p, err := m.ToParent(c.String(), 4)
	if err != nil {
		t.Fatalf("ToParent: %v", err)
	}
	want, _ := c.Parent(4)
	if p != want.String() {
		t.Fatalf("parent=%s want %s", p, want)
	}
	if same, _ := m.ToParent(c.String(), 12); same != c.String() {
		t.Fatalf("finer res should return the cell itself, got %s", same)
	}
	if _, err := m.ToParent("not-a-cell", 3); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := m.ToParent(c.String(), 16); err == nil {
		t.Fatalf("expected resolution error")
	}
}
