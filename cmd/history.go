package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"playout-engine/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and prune telemetry history",
}

var historyShowCmd = &cobra.Command{
	Use:   "show <screen_id>",
	Short: "Show recent play events and location points of a screen",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")
		screenID := args[0]

		var events []storage.PlayEvent
		var points []storage.LocationPoint
		err := provider.WithTx(ctx, func(tx storage.Tx) error {
			if _, err := tx.GetScreen(ctx, screenID); err != nil {
				return err
			}
			var err error
			if events, err = tx.ListPlayEvents(ctx, screenID, limit); err != nil {
				return err
			}
			points, err = tx.ListLocations(ctx, screenID, limit)
			return err
		})
		if err != nil {
			fail("Failed to read history", err, "screen_id", screenID)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED AT\tCREATIVE ID\tFLIGHT ID\tDURATION\tSTATUS\tPLAYER ID")
		for _, e := range events {
			flight := "-"
			if e.FlightID != nil {
				flight = *e.FlightID
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1fs\t%s\t%s\n",
				e.StartedAt.Format(time.RFC3339),
				e.CreativeID,
				flight,
				e.DurationSeconds,
				e.PlayStatus,
				e.PlayerID,
			)
		}
		w.Flush()

		if len(points) == 0 {
			return
		}
		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RECORDED AT\tLATITUDE\tLONGITUDE")
		for _, p := range points {
			fmt.Fprintf(w, "%s\t%.6f\t%.6f\n", p.RecordedAt.Format(time.RFC3339), p.Latitude, p.Longitude)
		}
		w.Flush()
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune [--days N]",
	Short: "Remove old heartbeats and location history",
	Long: `Remove heartbeats and location history points older than a number of days.
Play events are proof of play and are never pruned.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		days, _ := cmd.Flags().GetInt("days")
		if days < 1 {
			fmt.Println("--days must be at least 1")
			os.Exit(1)
		}

		olderThan := time.Now().UTC().AddDate(0, 0, -days)
		fmt.Printf("Pruning telemetry older than %d days (recorded before %s)...\n",
			days, olderThan.Format("2006-01-02 15:04:05"))

		var count int64
		err := provider.WithTx(ctx, func(tx storage.Tx) error {
			var err error
			count, err = tx.PruneTelemetry(ctx, olderThan)
			return err
		})
		if err != nil {
			fail("Failed to prune telemetry", err)
		}

		if count == 0 {
			fmt.Println("Nothing to prune")
		} else {
			fmt.Printf("Successfully pruned %d row(s)\n", count)
		}
	},
}

func init() {
	historyShowCmd.Flags().IntP("limit", "l", 20, "Maximum rows of each kind")
	historyPruneCmd.Flags().IntP("days", "d", 90, "Remove rows older than this many days")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}
