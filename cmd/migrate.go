package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|version]",
	Short:     "Manage the database schema",
	Long:      `Apply all pending migrations (up, the default), roll back the latest one (down) or print the schema version.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "version"},
	Annotations: map[string]string{
		manualSchemaAnnotation: "true",
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		action := "up"
		if len(args) > 0 {
			action = args[0]
		}

		current, err := provider.GetSchemaVersion(ctx)
		if err != nil {
			fail("Failed to read schema version", err)
		}

		switch action {
		case "version":
			fmt.Printf("Schema version: %d\n", current)
			return
		case "up":
			err = provider.Migrate(ctx, -1)
		case "down":
			if current == 0 {
				fmt.Println("Nothing to roll back")
				return
			}
			err = provider.Migrate(ctx, current-1)
		}
		if err != nil {
			fail("Migration failed", err)
		}

		version, err := provider.GetSchemaVersion(ctx)
		if err != nil {
			fail("Failed to read schema version", err)
		}
		fmt.Printf("Schema version: %d (was %d)\n", version, current)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
