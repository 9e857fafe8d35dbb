package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
	"github.com/mohammed-shakir/geomap-sync/internal/core/tiler"
)

var tileJSONCmd = &cobra.Command{
	Use:   "tilejson <layer.json|->",
	Short: "Print the TileJSON descriptor of a hosted-data layer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := readLayer(cmd, args[0])
		if err != nil {
			return err
		}
		h, ok := l.(*layer.HostedDataLayer)
		if !ok {
			return errors.New("tilejson: only hosted-data layers have a descriptor")
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(tiler.NewTileJSON(h))
	},
}

func init() {
	rootCmd.AddCommand(tileJSONCmd)
}
