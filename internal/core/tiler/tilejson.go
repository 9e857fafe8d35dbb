package tiler

import (
	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
)

const (
	TileJSONVersion = "1.0.0"
	BlankImage      = "../img/blank_tile.png"
)

// Formatter turns resolved grid data into what interaction handlers receive.
type Formatter func(options map[string]any, data model.FeatureData) model.FeatureData

// Passthrough returns grid data unchanged.
func Passthrough(_ map[string]any, data model.FeatureData) model.FeatureData { return data }

// TileJSON describes an interactive layer: tile and grid URL templates plus
// rendering hints.
type TileJSON struct {
	TileJSON   string    `json:"tilejson"`
	Scheme     string    `json:"scheme"`
	Tiles      []string  `json:"tiles"`
	Grids      []string  `json:"grids"`
	TilesBase  string    `json:"tiles_base"`
	GridsBase  string    `json:"grids_base"`
	Opacity    float64   `json:"opacity"`
	BlankImage string    `json:"blankImage,omitempty"`
	Formatter  Formatter `json:"-"`
}

func NewTileJSON(l *layer.HostedDataLayer) TileJSON {
	u := TileAndGridURLs(l)
	return TileJSON{
		TileJSON:   TileJSONVersion,
		Scheme:     "xyz",
		Tiles:      []string{u.Tile},
		Grids:      []string{u.Grid},
		TilesBase:  u.Tile,
		GridsBase:  u.Grid,
		Opacity:    l.Opacity,
		BlankImage: BlankImage,
		Formatter:  Passthrough,
	}
}

// Format applies the descriptor's formatter, defaulting to Passthrough.
func (tj TileJSON) Format(options map[string]any, data model.FeatureData) model.FeatureData {
	if tj.Formatter == nil {
		return Passthrough(options, data)
	}
	return tj.Formatter(options, data)
}
