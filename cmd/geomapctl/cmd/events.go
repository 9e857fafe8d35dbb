package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/geomap-sync/internal/logger"
	"github.com/mohammed-shakir/geomap-sync/internal/viewevents"
	"github.com/mohammed-shakir/geomap-sync/internal/viewheat"
)

var (
	eventsGroup    string
	eventsOldest   bool
	eventsTop      int
	eventsHalfLife time.Duration
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail viewport events from Kafka",
	Long: `Print every viewport event published by geomap servers as one JSON line.
On interrupt, print the most viewed cells seen while tailing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		zl := logger.Build(logger.Config{Level: "warn", Service: "geomapctl", Component: "events"}, os.Stderr)
		heat := viewheat.New(eventsHalfLife)
		out := cmd.OutOrStdout()

		c := viewevents.NewConsumer(viewevents.ConsumerConfig{
			Brokers:             cfg.ViewEvents.Brokers,
			Topic:               cfg.ViewEvents.Topic,
			GroupID:             eventsGroup,
			InitialOffsetOldest: eventsOldest,
		}, logger.NewSlog(&zl), printEvent(out, heat))

		if err := c.Start(ctx); err != nil {
			return err
		}
		return printHeat(out, heat.Top(eventsTop))
	},
}

func printEvent(out io.Writer, heat *viewheat.Tracker) viewevents.HandlerFunc {
	enc := json.NewEncoder(out)
	return func(_ context.Context, ev viewevents.Event) error {
		heat.Record(ev.Cell)
		return enc.Encode(ev)
	}
}

func printHeat(out io.Writer, top []viewheat.Cell) error {
	for _, c := range top {
		if _, err := fmt.Fprintf(out, "%s\t%.3f\n", c.Cell, c.Score); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	f := eventsCmd.Flags()
	f.StringSliceVar(&cfg.ViewEvents.Brokers, "brokers", cfg.ViewEvents.Brokers, "Kafka brokers")
	f.StringVar(&cfg.ViewEvents.Topic, "topic", cfg.ViewEvents.Topic, "viewport events topic")
	f.StringVar(&eventsGroup, "group", "geomapctl", "consumer group id")
	f.BoolVar(&eventsOldest, "from-beginning", false, "start from the oldest retained event")
	f.IntVar(&eventsTop, "top", 10, "hottest cells printed on exit")
	f.DurationVar(&eventsHalfLife, "half-life", cfg.HeatHalfLife, "heat half-life")
	rootCmd.AddCommand(eventsCmd)
}
