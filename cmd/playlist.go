package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"playout-engine/internal/playout"
	"playout-engine/internal/utils"
)

var playlistCmd = &cobra.Command{
	Use:   "playlist",
	Short: "Inspect resolved playlists",
}

var playlistShowCmd = &cobra.Command{
	Use:   "show <screen_id>",
	Short: "Resolve and print the current playlist of a screen",
	Long:  `Resolve the playlist a player of the screen would receive now. Player state is not changed.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		result, err := playout.NewEngine(provider).ResolveScreen(ctx, args[0])
		if err != nil {
			fail("Failed to resolve playlist", err, "screen_id", args[0])
		}

		fmt.Printf("Screen:      %s (%s, %s)\n", result.ScreenID, result.Region, result.City)
		fmt.Printf("Config hash: %s\n", result.ConfigHash)
		if result.Fallback {
			fmt.Println("No eligible flights, serving fallback creative")
		}
		if len(result.Playlist) == 0 {
			fmt.Println("Playlist is empty")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tCREATIVE ID\tCAMPAIGN ID\tFLIGHT ID\tDURATION\tFILE")
		for i, item := range result.Playlist {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%ds\t%s\n",
				i+1,
				item.CreativeID,
				item.CampaignID,
				item.FlightID,
				item.DurationSeconds,
				utils.ResolveMediaURL(cfg.MediaBaseURL, item.FileURL),
			)
		}
		w.Flush()
	},
}

func init() {
	playlistCmd.AddCommand(playlistShowCmd)
	rootCmd.AddCommand(playlistCmd)
}
