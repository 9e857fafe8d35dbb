package h3mapper

import (
	"errors"
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
)

const maxRes = 15

// Mapper maps viewports to H3 cells. A fixed resolution of -1 means the
// resolution follows the map zoom.
type Mapper struct {
	res int
}

func New(res int) *Mapper {
	if res > maxRes {
		res = maxRes
	}
	return &Mapper{res: res}
}

// ResolutionForZoom scales web map zoom (0..20) onto H3 resolutions (0..15).
func ResolutionForZoom(zoom int) int {
	r := zoom * maxRes / 20
	if r < 0 {
		return 0
	}
	if r > maxRes {
		return maxRes
	}
	return r
}

// Resolution returns the resolution used at zoom.
func (m *Mapper) Resolution(zoom int) int {
	if m.res < 0 {
		return ResolutionForZoom(zoom)
	}
	return m.res
}

func (m *Mapper) CellForViewport(center model.LatLng, zoom int) (string, error) {
	if !center.Valid() {
		return "", fmt.Errorf("invalid center %s", center)
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: center.Lat, Lng: center.Lng}, m.Resolution(zoom))
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return c.String(), nil
}

// CellsForBounds returns the sorted cells whose centres fall inside b. A
// viewport smaller than one cell yields the cell under its centre.
func (m *Mapper) CellsForBounds(b model.Bounds, zoom int) (model.Cells, error) {
	if !b.SW.Valid() || !b.NE.Valid() {
		return nil, errors.New("invalid bounds")
	}
	res := m.Resolution(zoom)
	outer := h3.GeoLoop{
		{Lat: b.SW.Lat, Lng: b.SW.Lng},
		{Lat: b.SW.Lat, Lng: b.NE.Lng},
		{Lat: b.NE.Lat, Lng: b.NE.Lng},
		{Lat: b.NE.Lat, Lng: b.SW.Lng},
	}
	cells, err := polyfill(outer, res)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		center := model.LatLng{Lat: (b.SW.Lat + b.NE.Lat) / 2, Lng: (b.SW.Lng + b.NE.Lng) / 2}
		c, err := h3.LatLngToCell(h3.LatLng{Lat: center.Lat, Lng: center.Lng}, res)
		if err != nil {
			return nil, fmt.Errorf("h3 cell: %w", err)
		}
		return model.Cells{c.String()}, nil
	}
	return cells, nil
}

// ToParent returns the ancestor of cell at parentRes.
func (m *Mapper) ToParent(cell string, parentRes int) (string, error) {
	if parentRes < 0 || parentRes > maxRes {
		return "", fmt.Errorf("invalid H3 resolution %d (must be 0..15)", parentRes)
	}
	var c h3.Cell
	if err := c.UnmarshalText([]byte(cell)); err != nil {
		return "", fmt.Errorf("parse cell: %w", err)
	}
	if !c.IsValid() {
		return "", fmt.Errorf("invalid h3 cell %q", cell)
	}
	if parentRes >= c.Resolution() {
		return cell, nil
	}
	p, err := c.Parent(parentRes)
	if err != nil {
		return "", fmt.Errorf("h3 parent: %w", err)
	}
	return p.String(), nil
}

// polyfill computes unique cells and returns them sorted for determinism.
func polyfill(outer h3.GeoLoop, res int) (model.Cells, error) {
	idx, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: outer}, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}
	out := make([]string, 0, len(idx))
	seen := make(map[string]struct{}, len(idx))
	for _, c := range idx {
		s := c.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
