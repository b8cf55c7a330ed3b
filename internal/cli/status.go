package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the "status" subcommand that polls the current state
// of a run's jobs once and prints them.
func NewStatusCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show the current state of a run's batch jobs",
		Example: `  newsbatch status --run-id 01JD3YZ8Q0V5M9T4R2K7X6W1PE`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeStatus(cmd, runID)
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Run to inspect (default: most recent run)")
	return cmd
}

func executeStatus(cmd *cobra.Command, requestedRun string) error {
	state, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}

	pipe, err := newPipeline(state.cfg)
	if err != nil {
		return err
	}
	defer pipe.Close()

	runID, err := resolveRunID(pipe.tracking, requestedRun)
	if err != nil {
		return err
	}

	entries := pipe.tracking.EntriesForRun(runID)
	if len(entries) == 0 {
		cmd.Printf("No jobs recorded for run %s\n", runID)
		return nil
	}

	cmd.Printf("Run %s: %d jobs\n\n", runID, len(entries))
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "BATCH\tJOB\tITEMS\tSTATE\tCOMPLETED")
	for _, entry := range entries {
		status, err := pipe.service.GetJobState(cmd.Context(), entry.JobID)
		stateText := string(status.State)
		completed := ""
		if err != nil {
			stateText = fmt.Sprintf("unknown: %v", err)
		} else if status.TotalCount > 0 {
			completed = fmt.Sprintf("%d/%d", status.CompletedCount, status.TotalCount)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			entry.BatchName, entry.JobID, entry.ItemCount, stateText, completed)
	}
	return nil
}
