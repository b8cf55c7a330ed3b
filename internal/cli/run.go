package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/LongAiden/news-classification/internal/classify"
	"github.com/LongAiden/news-classification/internal/scheduler"
	"github.com/LongAiden/news-classification/internal/tui"
)

// runParams holds the parameters for the run command execution.
type runParams struct {
	inputPath   string
	runID       string
	interactive bool
}

// NewRunCmd creates the "run" subcommand that drives a full classification
// run: plan waves, submit, monitor, reconcile, and write the report.
//
// Registered flags:
//   - --input: path to the articles JSON file (required)
//   - --run-id: reuse an existing run ID to resume after a crash
//   - --interactive: show a live progress view (requires a terminal)
func NewRunCmd() *cobra.Command {
	var params runParams

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify a collection of articles in quota-safe waves",
		Long: `Classify articles through the batch API, splitting the collection into
sequential waves sized to stay within the enqueued-token quota. Each wave is
submitted, monitored to completion, and reconciled before the next begins.

When --run-id names a previous run, already-submitted sub-batches are found in
the tracking log and reattached instead of resubmitted.`,
		Example: runExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeRun(cmd, params)
		},
	}

	cmd.Flags().StringVar(&params.inputPath, "input", "", "Path to articles JSON file")
	cmd.Flags().StringVar(&params.runID, "run-id", "", "Resume an existing run instead of starting a new one")
	cmd.Flags().BoolVar(&params.interactive, "interactive", false, "Show a live progress view")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

const runExample = `  # Classify articles with defaults
  newsbatch run --input articles.json

  # Watch progress interactively
  newsbatch run --input articles.json --interactive

  # Resume a crashed run
  newsbatch run --input articles.json --run-id 01JD3YZ8Q0V5M9T4R2K7X6W1PE`

func executeRun(cmd *cobra.Command, params runParams) error {
	state, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}

	items, err := classify.LoadArticles(params.inputPath)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no articles in %s", params.inputPath)
	}

	pipe, err := newPipeline(state.cfg)
	if err != nil {
		return err
	}
	defer pipe.Close()

	runID := params.runID
	if runID == "" {
		runID = scheduler.NewRunID()
	}
	cmd.Printf("Run %s: %d articles\n", runID, len(items))

	var report *scheduler.RunReport
	if params.interactive && isTerminal(os.Stdout) {
		report, err = runInteractive(cmd.Context(), pipe.coordinator, runID, items)
	} else {
		report, err = pipe.coordinator.Run(cmd.Context(), runID, items)
	}
	if err != nil {
		return err
	}

	path, err := writeReport(state.cfg, report)
	if err != nil {
		return err
	}

	printRunSummary(cmd, report, path)
	return nil
}

// runInteractive executes the run in the background while a Bubble Tea view
// follows its progress. Quitting the view cancels the run.
func runInteractive(ctx context.Context, coordinator *scheduler.Coordinator, runID string, items []classify.Article) (*scheduler.RunReport, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan tui.RunOutcome, 1)
	go func() {
		report, err := coordinator.Run(runCtx, runID, items)
		done <- tui.RunOutcome{Report: report, Err: err}
	}()

	model := tui.NewRunModel(coordinator.Status, done, cancel)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		cancel()
		outcome := <-done
		if outcome.Err != nil {
			return nil, outcome.Err
		}
		return outcome.Report, err
	}

	if outcome := final.(tui.RunModel).Outcome(); outcome != nil {
		return outcome.Report, outcome.Err
	}

	// The user quit before the run finished; wait for cancellation to land.
	outcome := <-done
	return outcome.Report, outcome.Err
}

func printRunSummary(cmd *cobra.Command, report *scheduler.RunReport, path string) {
	cmd.Printf("\nRun %s finished\n", report.RunID)
	cmd.Printf("  Waves:         %d\n", len(report.Waves))
	cmd.Printf("  Succeeded:     %d\n", report.Succeeded)
	cmd.Printf("  Failed:        %d\n", report.Failed)
	cmd.Printf("  Not submitted: %d\n", report.NotSubmitted)
	if report.Partial {
		cmd.Println("  Status:        PARTIAL, see per-item reasons in the report")
	} else {
		cmd.Println("  Status:        complete")
	}
	cmd.Printf("  Report:        %s\n", path)
}
