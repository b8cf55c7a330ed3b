package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LongAiden/news-classification/internal/classify"
	"github.com/LongAiden/news-classification/internal/gemini"
	"github.com/LongAiden/news-classification/internal/scheduler"
)

// NewResultsCmd creates the "results" subcommand that downloads and
// reconciles the output of a run's finished jobs.
func NewResultsCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Download and reconcile a run's job output",
		Long: `Download the output of every finished job recorded for a run, map each
result back to its article through the persisted request-key mappings, and
write the combined report. Jobs still running are listed and skipped;
re-running the command later picks them up.`,
		Example: `  newsbatch results --run-id 01JD3YZ8Q0V5M9T4R2K7X6W1PE`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeResults(cmd, runID)
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Run to reconcile (default: most recent run)")
	return cmd
}

func executeResults(cmd *cobra.Command, requestedRun string) error {
	state, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}
	cfg := state.cfg

	pipe, err := newPipeline(cfg)
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
		return fmt.Errorf("no jobs recorded for run %s", runID)
	}

	reconciler := scheduler.NewReconciler(pipe.service, logger)
	report := &scheduler.RunReport{RunID: runID}
	pending := 0

	for _, entry := range entries {
		status, err := pipe.service.GetJobState(cmd.Context(), entry.JobID)
		if err != nil {
			return fmt.Errorf("checking job %s: %w", entry.JobID, err)
		}
		if !status.State.Terminal() {
			cmd.Printf("Job %s still %s, skipping\n", entry.JobID, status.State)
			pending++
			continue
		}

		mapping, err := scheduler.LoadMapping(cfg.WorkDir, entry.BatchName)
		if err != nil {
			return fmt.Errorf("loading mapping for %s: %w", entry.BatchName, err)
		}
		handle := scheduler.JobHandle{
			BatchName: entry.BatchName,
			JobID:     entry.JobID,
			ItemCount: entry.ItemCount,
			Mapping:   mapping,
		}

		var outcomes []classify.ItemOutcome
		if status.State == gemini.StateSucceeded {
			outcomes, err = reconciler.ReconcileJob(cmd.Context(), handle)
			if err != nil {
				return err
			}
		} else {
			cmd.Printf("Job %s ended in %s, marking its items failed\n", entry.JobID, status.State)
			for _, itemID := range mapping {
				outcomes = append(outcomes, classify.ItemOutcome{
					ItemID: itemID,
					State:  classify.OutcomeFailed,
					Reason: fmt.Sprintf("job ended in state %s", status.State),
				})
			}
		}
		report.Outcomes = append(report.Outcomes, outcomes...)
	}

	report.TotalItems = len(report.Outcomes)
	report.Tally()
	report.Partial = report.Failed > 0 || pending > 0

	path, err := writeReport(cfg, report)
	if err != nil {
		return err
	}

	cmd.Printf("\nRun %s: %d succeeded, %d failed, %d jobs still pending\n",
		runID, report.Succeeded, report.Failed, pending)
	cmd.Printf("Report: %s\n", path)
	return nil
}
