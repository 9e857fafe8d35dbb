package geomap

import (
	"errors"
	"math"
	"testing"

	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
)

func TestNew_Defaults(t *testing.T) {
	m := New()
	if m.Zoom() != 9 {
		t.Fatalf("zoom=%d want 9", m.Zoom())
	}
	if m.Center() != (model.LatLng{}) {
		t.Fatalf("center=%v want 0,0", m.Center())
	}
	if m.Layers() == nil || m.Layers().Len() != 0 {
		t.Fatalf("expected empty owned collection")
	}
}

func TestSetZoom_RoundTripAndEvent(t *testing.T) {
	m := New()
	var got []Change[int]
	m.OnZoomChange(func(c Change[int]) { got = append(got, c) })

	for _, z := range []int{0, 3, 18} {
		if err := m.SetZoom(z); err != nil {
			t.Fatalf("SetZoom(%d): %v", z, err)
		}
		if m.Zoom() != z {
			t.Fatalf("Zoom()=%d want %d", m.Zoom(), z)
		}
	}
	if len(got) != 3 || got[0] != (Change[int]{Old: 9, New: 0}) || got[2] != (Change[int]{Old: 3, New: 18}) {
		t.Fatalf("events=%v", got)
	}
}

func TestSetZoom_SameValueIsSilent(t *testing.T) {
	m := New()
	n := 0
	m.OnZoomChange(func(Change[int]) { n++ })
	if err := m.SetZoom(DefaultZoom); err != nil {
		t.Fatalf("SetZoom: %v", err)
	}
	if n != 0 {
		t.Fatalf("events=%d want 0", n)
	}
}

func TestSetZoom_NegativeRejected(t *testing.T) {
	m := New()
	n := 0
	m.OnZoomChange(func(Change[int]) { n++ })

	err := m.SetZoom(-1)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err=%v want ErrInvalidArgument", err)
	}
	if m.Zoom() != DefaultZoom || n != 0 {
		t.Fatalf("model changed on rejected write: zoom=%d events=%d", m.Zoom(), n)
	}
}

func TestSetCenter(t *testing.T) {
	m := New()
	var got []Change[model.LatLng]
	m.OnCenterChange(func(c Change[model.LatLng]) { got = append(got, c) })

	c := model.LatLng{Lat: 59.33, Lng: 18.07}
	if err := m.SetCenter(c); err != nil {
		t.Fatalf("SetCenter: %v", err)
	}
	if m.Center() != c || len(got) != 1 || got[0].New != c {
		t.Fatalf("center=%v events=%v", m.Center(), got)
	}

	// wrapped longitude after panning across the antimeridian is accepted
	if err := m.SetCenter(model.LatLng{Lat: 10, Lng: 200}); err != nil {
		t.Fatalf("wrapped lng rejected: %v", err)
	}
}

func TestSetCenter_Rejects(t *testing.T) {
	bad := []model.LatLng{
		{Lat: 91, Lng: 0},
		{Lat: math.NaN(), Lng: 0},
		{Lat: 0, Lng: math.Inf(1)},
	}
	m := New()
	for _, c := range bad {
		if err := m.SetCenter(c); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("SetCenter(%v) err=%v want ErrInvalidArgument", c, err)
		}
	}
	if m.Center() != (model.LatLng{}) {
		t.Fatalf("model changed: %v", m.Center())
	}
}

func TestNewAt(t *testing.T) {
	m, err := NewAt(model.LatLng{Lat: 1, Lng: 2}, 4)
	if err != nil {
		t.Fatalf("NewAt: %v", err)
	}
	if m.Zoom() != 4 || m.Center() != (model.LatLng{Lat: 1, Lng: 2}) {
		t.Fatalf("unexpected viewport %v/%d", m.Center(), m.Zoom())
	}
	if _, err := NewAt(model.LatLng{}, -2); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err=%v want ErrInvalidArgument", err)
	}
}

func TestAddLayer_DelegatesToCollection(t *testing.T) {
	m := New()
	var added []layer.Layer
	m.Layers().OnAdded(func(l layer.Layer) { added = append(added, l) })

	l := layer.NewTiled("http://t/{z}/{x}/{y}.png")
	if !m.AddLayer(l) {
		t.Fatalf("AddLayer returned false")
	}
	if len(added) != 1 || added[0] != l {
		t.Fatalf("added=%v", added)
	}
	if !m.RemoveLayer(l) || m.Layers().Len() != 0 {
		t.Fatalf("RemoveLayer failed")
	}
}
