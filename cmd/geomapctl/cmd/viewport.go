package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/geomap-sync/internal/core/httpclient"
	"github.com/mohammed-shakir/geomap-sync/internal/core/model"
	"github.com/mohammed-shakir/geomap-sync/internal/core/router"
)

var (
	serverURL string
	vpDrag    bool
)

var viewportCmd = &cobra.Command{
	Use:   "viewport",
	Short: "Show or move the viewport of a running server",
	Long: `Without flags, print the viewport of the server session. --lat/--lng and
--zoom move it through the map model; with --drag the move is sent as a
user gesture on the surface instead.

Examples:
  geomapctl viewport
  geomapctl viewport --zoom 12
  geomapctl viewport --lat 59.33 --lng 18.07 --drag`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := httpclient.NewSession(serverURL, nil)
		f := cmd.Flags()
		var center *model.LatLng
		if f.Changed("lat") || f.Changed("lng") {
			lat, _ := f.GetFloat64("lat")
			lng, _ := f.GetFloat64("lng")
			center = &model.LatLng{Lat: lat, Lng: lng}
		}
		var zoom *int
		if f.Changed("zoom") {
			z, _ := f.GetInt("zoom")
			zoom = &z
		}

		var (
			st  router.ViewportState
			err error
		)
		switch {
		case vpDrag && center == nil:
			return errors.New("--drag needs --lat and --lng")
		case vpDrag:
			st, err = c.Gesture(cmd.Context(), router.Gesture{Type: router.GestureDrag, Center: center})
		case center != nil || zoom != nil:
			st, err = c.SetViewport(cmd.Context(), router.ViewportUpdate{Center: center, Zoom: zoom})
		default:
			st, err = c.Viewport(cmd.Context())
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	},
}

func init() {
	f := viewportCmd.Flags()
	f.StringVar(&serverURL, "server", "http://localhost"+cfg.Addr, "geomap server base URL")
	f.Float64("lat", 0, "centre latitude")
	f.Float64("lng", 0, "centre longitude")
	f.Int("zoom", 0, "zoom level")
	f.BoolVar(&vpDrag, "drag", false, "send the move as a drag gesture")
	rootCmd.AddCommand(viewportCmd)
}
