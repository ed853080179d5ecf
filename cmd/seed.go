package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"playout-engine/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load a fixture of regions, screens, campaigns and flights",
	Long: `Load a YAML fixture for development. Everything in the file is written in
one transaction. Listed approvals go through the approval workflow, so
pre-approval regions need an approval_code.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		fixture, err := seed.LoadFile(args[0])
		if err != nil {
			fail("Failed to load fixture", err, "file", args[0])
		}

		summary, err := seed.Apply(ctx, provider, fixture, time.Now())
		if err != nil {
			fail("Failed to apply fixture", err, "file", args[0])
		}

		fmt.Printf("Seeded %d region(s), %d screen(s), %d group(s), %d campaign(s), %d creative(s), %d flight(s), %d approval(s)\n",
			summary.Regions, summary.Screens, summary.Groups, summary.Campaigns,
			summary.Creatives, summary.Flights, summary.Approvals)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
