package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewJobsCmd creates the "jobs" subcommand that lists every job recorded in
// the tracking log across all runs.
func NewJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Short:   "List every batch job in the tracking log",
		Example: `  newsbatch jobs`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeJobs(cmd)
		},
	}
	return cmd
}

func executeJobs(cmd *cobra.Command) error {
	state, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}

	pipe, err := newPipeline(state.cfg)
	if err != nil {
		return err
	}
	defer pipe.Close()

	entries := pipe.tracking.Entries()
	if len(entries) == 0 {
		cmd.Println("Tracking log is empty")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "RUN\tWAVE\tBATCH\tJOB\tITEMS\tSUBMITTED")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%s\n",
			entry.RunID, entry.WaveIndex, entry.BatchName, entry.JobID,
			entry.ItemCount, entry.SubmittedAt.Format(time.RFC3339))
	}
	return nil
}
