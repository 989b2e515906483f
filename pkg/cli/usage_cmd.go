package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newUsageCmd builds the "usage" command group: summary and daily views of
// the upstream API call ledger.
func newUsageCmd(client *Client, output *string) *cobra.Command {
	usageCmd := &cobra.Command{
		Use:   "usage",
		Short: "Inspect upstream API usage and cost",
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show aggregated API usage and cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := client.UsageSummary(cmd.Context())
			if err != nil {
				return err
			}
			// The summary is a nested document; JSON is the readable form
			// in both output modes.
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}

	var days int
	dailyCmd := &cobra.Command{
		Use:   "daily",
		Short: "Show per-day API usage for the trailing window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := client.UsageDaily(cmd.Context(), days)
			if err != nil {
				return err
			}
			if *output == "json" {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tPROVIDER\tCALLS\tCOST\tOK\tFAILED")
			for _, r := range rows {
				fmt.Fprintf(tw, "%v\t%v\t%v\t%v\t%v\t%v\n",
					r["date"], r["provider"], r["total_calls"],
					r["total_cost"], r["success_calls"], r["failed_calls"])
			}
			tw.Flush()
			return nil
		},
	}
	dailyCmd.Flags().IntVar(&days, "days", 30, "Window size in days")

	usageCmd.AddCommand(summaryCmd, dailyCmd)
	return usageCmd
}
