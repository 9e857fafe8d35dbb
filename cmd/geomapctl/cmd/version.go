package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/geomap-sync/internal/metrics"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		b := metrics.CurrentBuild()
		fmt.Fprintf(cmd.OutOrStdout(), "version %s\nrevision %s\ndirty %t\nbuilt %s\n",
			b.Version, b.Revision, b.Dirty, b.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
