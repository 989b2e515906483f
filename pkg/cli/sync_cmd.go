package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// newSyncCmd builds the "sync" command group: trigger, cancel, cancel-all.
func newSyncCmd(client *Client, output *string) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Trigger and cancel sync jobs",
	}

	var jobType string
	triggerCmd := &cobra.Command{
		Use:   "trigger",
		Short: "Start a sync job for the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			job, err := client.TriggerSync(cmd.Context(), jobType)
			if err != nil {
				return err
			}
			if *output == "json" {
				return printJSON(cmd.OutOrStdout(), job)
			}
			fmt.Printf("Started job %d (%s)\n", job.ID, job.JobType)
			return nil
		},
	}
	triggerCmd.Flags().StringVar(&jobType, "type", "", "Job type (default manual_sync)")

	cancelCmd := &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a sync job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job ID %q", args[0])
			}
			job, err := client.CancelSync(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			if *output == "json" {
				return printJSON(cmd.OutOrStdout(), job)
			}
			fmt.Printf("Job %d is now %s\n", job.ID, job.Status)
			return nil
		},
	}

	cancelAllCmd := &cobra.Command{
		Use:   "cancel-all",
		Short: "Cancel every active sync job for the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := client.CancelAll(cmd.Context())
			if err != nil {
				return err
			}
			if *output == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			if len(resp.Results) == 0 {
				fmt.Println("No active jobs")
				return nil
			}
			for _, r := range resp.Results {
				if r.Error != nil {
					fmt.Printf("Job %d: %s\n", r.JobID, *r.Error)
					continue
				}
				fmt.Printf("Job %d cancelled\n", r.JobID)
			}
			return nil
		},
	}

	syncCmd.AddCommand(triggerCmd, cancelCmd, cancelAllCmd)
	return syncCmd
}

// newJobsCmd builds the "jobs" command: list recent jobs or show one.
func newJobsCmd(client *Client, output *string) *cobra.Command {
	var limit int
	jobsCmd := &cobra.Command{
		Use:   "jobs [job-id]",
		Short: "List recent sync jobs, or show one by ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				jobID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid job ID %q", args[0])
				}
				job, err := client.Job(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				if *output == "json" {
					return printJSON(cmd.OutOrStdout(), job)
				}
				printJobTable(job)
				return nil
			}

			jobs, err := client.Jobs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if *output == "json" {
				return printJSON(cmd.OutOrStdout(), jobs)
			}
			printJobsTable(jobs)
			return nil
		},
	}
	jobsCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of jobs to list")
	return jobsCmd
}

// newStatusCmd builds the "status" command.
func newStatusCmd(client *Client, output *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the account is currently syncing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			if *output == "json" {
				return printJSON(cmd.OutOrStdout(), status)
			}
			if !status.IsSyncing {
				fmt.Println("Idle")
				return nil
			}
			fmt.Println("Syncing:")
			printJobTable(status.ActiveJob)
			return nil
		},
	}
}
