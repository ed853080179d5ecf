package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"playout-engine/internal/approval"
	"playout-engine/internal/storage"
)

var approvalCmd = &cobra.Command{
	Use:   "approval",
	Short: "Manage creative approvals",
	Long:  `List, request, approve and reject the per-region compliance approvals of creatives.`,
}

var approvalListCmd = &cobra.Command{
	Use:   "list [status]",
	Short: "List approvals",
	Long:  `List approvals by status. Valid statuses: pending, approved, rejected, all. Defaults to pending.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		status := storage.ApprovalStatusPending
		if len(args) > 0 {
			switch args[0] {
			case "pending", "approved", "rejected":
				status = storage.ApprovalStatus(args[0])
			case "all":
				status = ""
			default:
				fmt.Println("Valid statuses: pending, approved, rejected, all")
				os.Exit(1)
			}
		}

		approvals, err := approval.NewService(provider).List(ctx, status)
		if err != nil {
			fail("Failed to list approvals", err)
		}

		if len(approvals) == 0 {
			fmt.Println("No approvals found")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CREATIVE ID\tREGION\tSTATUS\tAPPROVAL CODE\tREVIEWED BY\tUPDATED AT")
		for _, a := range approvals {
			code, reviewer := "-", "-"
			if a.ApprovalCode != nil {
				code = *a.ApprovalCode
			}
			if a.ReviewedBy != nil {
				reviewer = *a.ReviewedBy
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				a.CreativeID,
				a.RegionCode,
				a.Status,
				code,
				reviewer,
				a.UpdatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		w.Flush()
	},
}

var approvalRequestCmd = &cobra.Command{
	Use:   "request <creative_id> <region>...",
	Short: "Open pending approvals of a creative in regions",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := approval.NewService(provider).EnsurePending(ctx, args[0], args[1:]); err != nil {
			fail("Failed to request approvals", err, "creative_id", args[0])
		}
		fmt.Printf("Approvals requested for creative %s in %d region(s)\n", args[0], len(args)-1)
	},
}

func transition(cmd *cobra.Command, args []string, status storage.ApprovalStatus) {
	ctx := context.Background()
	code, _ := cmd.Flags().GetString("code")
	notes, _ := cmd.Flags().GetString("notes")

	reviewer := getActiveUser()
	result, err := approval.NewService(provider).Transition(ctx, approval.Decision{
		CreativeID:   args[0],
		RegionCode:   args[1],
		Status:       status,
		ApprovalCode: code,
		ReviewedBy:   reviewer,
		Notes:        notes,
	})
	if err != nil {
		fail("Failed to update approval", err, "creative_id", args[0], "region", args[1])
	}
	fmt.Printf("Creative %s %s in %s by %s\n", result.CreativeID, result.Status, result.RegionCode, reviewer)
}

var approvalApproveCmd = &cobra.Command{
	Use:   "approve <creative_id> <region>",
	Short: "Approve a creative in a region",
	Long:  `Approve a creative in a region. Regions that require pre-approval need the regulator's code in --code.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		transition(cmd, args, storage.ApprovalStatusApproved)
	},
}

var approvalRejectCmd = &cobra.Command{
	Use:   "reject <creative_id> <region>",
	Short: "Reject a creative in a region",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		transition(cmd, args, storage.ApprovalStatusRejected)
	},
}

func init() {
	approvalApproveCmd.Flags().StringP("code", "c", "", "Regulator approval code")
	approvalApproveCmd.Flags().StringP("notes", "n", "", "Review notes")
	approvalRejectCmd.Flags().StringP("notes", "n", "", "Review notes")

	approvalCmd.AddCommand(approvalListCmd)
	approvalCmd.AddCommand(approvalRequestCmd)
	approvalCmd.AddCommand(approvalApproveCmd)
	approvalCmd.AddCommand(approvalRejectCmd)
	rootCmd.AddCommand(approvalCmd)
}
