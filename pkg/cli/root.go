// Package cli implements the dotasync admin command-line interface. All
// commands talk to a running server over its HTTP API.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]any{"error": err.Error()}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["code"] = apiErr.Code
			}
			_ = printJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host      string
		accountID int64
		output    string
	)

	client := &Client{}

	rootCmd := &cobra.Command{
		Use:           "dotasync",
		Short:         "Dota 2 sync service CLI",
		Long:          "Command-line interface for the dotasync orchestration API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Precedence: flag > env > default.
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("DOTASYNC_HOST"); v != "" {
					host = v
				}
			}
			if !cmd.Flags().Changed("account") {
				if v := os.Getenv("DOTASYNC_ACCOUNT_ID"); v != "" {
					id, err := strconv.ParseInt(v, 10, 64)
					if err != nil {
						return fmt.Errorf("DOTASYNC_ACCOUNT_ID must be an integer: %w", err)
					}
					accountID = id
				}
			}
			if output != "table" && output != "json" {
				return fmt.Errorf("invalid output format %q (want table or json)", output)
			}
			client.Host = host
			client.AccountID = accountID
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().Int64Var(&accountID, "account", 0, "Dota 2 account ID")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(
		newSyncCmd(client, &output),
		newJobsCmd(client, &output),
		newStatusCmd(client, &output),
		newUsageCmd(client, &output),
		newCommandsCmd(&output),
	)
	return rootCmd
}
