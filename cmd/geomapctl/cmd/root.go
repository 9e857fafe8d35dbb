package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/geomap-sync/internal/core/config"
	"github.com/mohammed-shakir/geomap-sync/internal/core/layer"
)

var (
	cfg      = config.FromEnv()
	tilerURL string
)

var rootCmd = &cobra.Command{
	Use:   "geomapctl",
	Short: "Inspect map layers and viewports offline",
	Long: `geomapctl resolves the URLs a map surface would request for a layer,
prints TileJSON descriptors and maps viewports onto H3 cells.

Hosted-data endpoints default to the TILER_* and SQL_* environment
variables; attributes in the layer document win.`,
	Version:       versioninfo.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.HostedData.TilerHost, "tiler-domain", cfg.HostedData.TilerHost, "hosted tiler domain")
	rootCmd.PersistentFlags().StringVar(&cfg.HostedData.TilerPort, "tiler-port", cfg.HostedData.TilerPort, "hosted tiler port (empty to omit)")
	rootCmd.PersistentFlags().StringVar(&cfg.HostedData.TilerProtocol, "tiler-protocol", cfg.HostedData.TilerProtocol, "hosted tiler protocol")
	rootCmd.PersistentFlags().StringVar(&cfg.HostedData.CDNURL, "cdn-url", cfg.HostedData.CDNURL, "CDN base URL, overrides the tiler and sql endpoints")
}

// readLayer decodes the layer document at path, or stdin for "-".
func readLayer(cmd *cobra.Command, path string) (layer.Layer, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read layer: %w", err)
	}
	return layer.Decode(data, cfg.HostedData.Apply)
}
