package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LongAiden/news-classification/internal/classify"
	"github.com/LongAiden/news-classification/internal/scheduler"
)

// submitParams holds the parameters for the submit command execution.
type submitParams struct {
	inputPath string
	runID     string
}

// NewSubmitCmd creates the "submit" subcommand: fire-and-forget submission
// for collections that fit within a single wave budget. Jobs are left running
// and picked up later with "results".
func NewSubmitCmd() *cobra.Command {
	var params submitParams

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit articles without waiting for results",
		Long: `Submit a collection as batch jobs and exit immediately. The jobs are
recorded in the tracking log; fetch their output later with "newsbatch results".

Submit refuses collections whose estimated cost exceeds one wave budget, since
unattended submission cannot enforce the wave-at-a-time quota guarantee. Use
"newsbatch run" for larger collections.`,
		Example: `  newsbatch submit --input articles.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeSubmit(cmd, params)
		},
	}

	cmd.Flags().StringVar(&params.inputPath, "input", "", "Path to articles JSON file")
	cmd.Flags().StringVar(&params.runID, "run-id", "", "Reuse an existing run ID")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func executeSubmit(cmd *cobra.Command, params submitParams) error {
	state, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}
	cfg := state.cfg

	items, err := classify.LoadArticles(params.inputPath)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no articles in %s", params.inputPath)
	}

	estimated := int64(len(items)) * cfg.Scheduler.CostPerItem
	if estimated > cfg.Scheduler.PerWaveBudget {
		return fmt.Errorf(
			"%d articles cost an estimated %d tokens, above the %d per-wave budget; use 'newsbatch run' instead",
			len(items), estimated, cfg.Scheduler.PerWaveBudget)
	}

	pipe, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer pipe.Close()

	subBatches, err := scheduler.Split(items, cfg.Scheduler.MaxBatchSize)
	if err != nil {
		return err
	}

	runID := params.runID
	if runID == "" {
		runID = scheduler.NewRunID()
	}

	cmd.Printf("Run %s: submitting %d articles in %d sub-batches\n", runID, len(items), len(subBatches))
	for i, batch := range subBatches {
		handle, err := pipe.submitter.Submit(cmd.Context(), runID, 0, i, batch)
		if err != nil {
			return err
		}
		cmd.Printf("  %s -> %s (%d items)\n", handle.BatchName, handle.JobID, handle.ItemCount)
	}

	cmd.Printf("\nJobs submitted. Fetch output later with:\n  newsbatch results --run-id %s\n", runID)
	return nil
}
