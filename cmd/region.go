package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"playout-engine/internal/regions"
	"playout-engine/internal/storage"
)

var regionCmd = &cobra.Command{
	Use:   "region",
	Short: "Manage regulatory regions",
}

var regionImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import regions from a CSV file",
	Long: `Import regions from a CSV file with the header
code,name,requires_pre_approval,regulator_name,regulator_contact
Files may be UTF-8 (with or without BOM) or UTF-16 with BOM. Existing regions are updated.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		n, err := regions.ImportFile(ctx, provider, args[0])
		if err != nil {
			fail("Failed to import regions", err, "file", args[0])
		}
		fmt.Printf("Imported %d region(s) from %s\n", n, args[0])
	},
}

var regionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List regions",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		var list []storage.Region
		err := provider.WithTx(ctx, func(tx storage.Tx) error {
			var err error
			list, err = tx.ListRegions(ctx)
			return err
		})
		if err != nil {
			fail("Failed to list regions", err)
		}

		if len(list) == 0 {
			fmt.Println("No regions found")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tNAME\tPRE-APPROVAL\tREGULATOR")
		for _, r := range list {
			regulator := "-"
			if r.RegulatorName != nil {
				regulator = *r.RegulatorName
			}
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", r.Code, r.Name, r.RequiresPreApproval, regulator)
		}
		w.Flush()
	},
}

func init() {
	regionCmd.AddCommand(regionImportCmd)
	regionCmd.AddCommand(regionListCmd)
	rootCmd.AddCommand(regionCmd)
}
