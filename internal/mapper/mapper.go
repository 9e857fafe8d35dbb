// Package mapper converts viewports into H3 cells.
package mapper

import (
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
)

type Interface interface {
	Resolution(zoom int) int
	CellForViewport(center model.LatLng, zoom int) (string, error)
	CellsForBounds(b model.Bounds, zoom int) (model.Cells, error)
}
