package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
	"github.com/mohammed-shakir/geomap-sync/internal/core/tiler"
	"github.com/mohammed-shakir/geomap-sync/internal/surface/headless"
)

var (
	urlsLat, urlsLng float64
	urlsZoom         int
)

var urlsCmd = &cobra.Command{
	Use:   "urls <layer.json|->",
	Short: "Print the URL templates of a layer",
	Long: `Print the tile URL template of a layer and the URL rendered for the
tile under the given viewport centre. Hosted-data layers also print their
grid and SQL API URLs.

Examples:
  geomapctl urls layer.json
  echo '{"type":"HostedData","table_name":"roads"}' | geomapctl urls - --zoom 9 --lat 59.33 --lng 18.07`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := readLayer(cmd, args[0])
		if err != nil {
			return err
		}
		center := model.LatLng{Lat: urlsLat, Lng: urlsLng}
		if !center.Valid() || urlsZoom < 0 {
			return fmt.Errorf("invalid viewport %s zoom %d", center, urlsZoom)
		}
		s := headless.New()
		s.PanTo(center)
		s.SetZoom(urlsZoom)

		out := cmd.OutOrStdout()
		switch t := l.(type) {
		case *layer.TiledLayer:
			fmt.Fprintf(out, "template\t%s\n", t.URLTemplate)
			fmt.Fprintf(out, "rendered\t%s\n", s.Expand(t.URLTemplate))
		case *layer.HostedDataLayer:
			tmpl := tiler.StaticTileURL(t)
			u := tiler.TileAndGridURLs(t)
			if t.Interactivity != "" {
				tmpl = u.Tile
			}
			fmt.Fprintf(out, "template\t%s\n", tmpl)
			fmt.Fprintf(out, "rendered\t%s\n", s.Expand(tmpl))
			fmt.Fprintf(out, "grid\t%s\n", u.Grid)
			fmt.Fprintf(out, "sql\t%s\n", tiler.SQLURL(t, t.Query))
		}
		return nil
	},
}

func init() {
	urlsCmd.Flags().Float64Var(&urlsLat, "lat", 0, "viewport centre latitude")
	urlsCmd.Flags().Float64Var(&urlsLng, "lng", 0, "viewport centre longitude")
	urlsCmd.Flags().IntVar(&urlsZoom, "zoom", 0, "viewport zoom")
	rootCmd.AddCommand(urlsCmd)
}
