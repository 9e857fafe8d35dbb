package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
	h3mapper "github.com/mohammed-shakir/geomap-sync/internal/mapper/h3"
	"github.com/mohammed-shakir/geomap-sync/internal/surface/headless"
)

var (
	cellsLat, cellsLng      float64
	cellsZoom, cellsRes     int
	cellsWidth, cellsHeight int
	cellsAll                bool
)

var cellsCmd = &cobra.Command{
	Use:   "cells",
	Short: "Map a viewport onto H3 cells",
	Long: `Print the H3 cell under the viewport centre, or with --all every cell
covering a viewport of --width x --height pixels.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		center := model.LatLng{Lat: cellsLat, Lng: cellsLng}
		m := h3mapper.New(cellsRes)
		out := cmd.OutOrStdout()

		if !cellsAll {
			cell, err := m.CellForViewport(center, cellsZoom)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\tres=%d\n", cell, m.Resolution(cellsZoom))
			return nil
		}

		s := headless.New(headless.WithViewport(cellsWidth, cellsHeight))
		s.PanTo(center)
		s.SetZoom(cellsZoom)
		cells, err := m.CellsForBounds(s.Bounds(), cellsZoom)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, strings.Join(cells, "\n"))
		return nil
	},
}

func init() {
	f := cellsCmd.Flags()
	f.Float64Var(&cellsLat, "lat", 0, "viewport centre latitude")
	f.Float64Var(&cellsLng, "lng", 0, "viewport centre longitude")
	f.IntVar(&cellsZoom, "zoom", 0, "viewport zoom")
	f.IntVar(&cellsRes, "res", cfg.H3Res, "H3 resolution, -1 follows zoom")
	f.IntVar(&cellsWidth, "width", 256, "viewport width in pixels")
	f.IntVar(&cellsHeight, "height", 256, "viewport height in pixels")
	f.BoolVar(&cellsAll, "all", false, "list every cell covering the viewport")
	rootCmd.AddCommand(cellsCmd)
}
