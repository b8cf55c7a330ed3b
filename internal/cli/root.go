// Package cli implements the newsbatch command tree.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/LongAiden/news-classification/internal/config"
	"github.com/LongAiden/news-classification/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// appState carries the loaded configuration through the command context.
type appState struct {
	cfg       *config.Config
	logResult *logging.Result
}

type appStateKey struct{}

// appFromContext returns the state installed by the root command's
// PersistentPreRunE.
func appFromContext(ctx context.Context) (*appState, error) {
	state, ok := ctx.Value(appStateKey{}).(*appState)
	if !ok || state == nil {
		return nil, errors.New("command executed without initialized configuration")
	}
	return state, nil
}

// NewRootCmd creates the root Cobra command for the newsbatch CLI. It loads
// configuration and wires logging before any subcommand runs.
func NewRootCmd(ver string) *cobra.Command {
	var state *appState

	cmd := &cobra.Command{
		Use:     "newsbatch",
		Short:   "Budget-aware batch news classification",
		Long:    "newsbatch: Classify large news collections through the Gemini Batch API in quota-safe waves",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if workDir, _ := cmd.Flags().GetString("work-dir"); workDir != "" {
				cfg.WorkDir = workDir
			}

			result := setupLogging(cmd, cfg)
			state = &appState{cfg: cfg, logResult: result}
			cmd.SetContext(context.WithValue(cmd.Context(), appStateKey{}, state))
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if state == nil {
				return nil
			}
			return state.logResult.Close()
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "path to config file (default "+config.DefaultConfigFile+")")
	cmd.PersistentFlags().String("work-dir", "", "directory for batch files, mappings, and the job tracking log")

	cmd.AddCommand(
		NewRunCmd(),
		NewSubmitCmd(),
		NewStatusCmd(),
		NewResultsCmd(),
		NewJobsCmd(),
		NewFetchCmd(),
		NewCostCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Classify a collection of articles end to end
  newsbatch run --input articles.json

  # Watch the run in an interactive progress view
  newsbatch run --input articles.json --interactive

  # Fetch article content from a list of URLs first
  newsbatch fetch --urls urls.txt --output articles.json

  # Check the state of a run's jobs
  newsbatch status --run-id 01JD3YZ8Q0V5M9T4R2K7X6W1PE

  # Download and reconcile results for a finished run
  newsbatch results --run-id 01JD3YZ8Q0V5M9T4R2K7X6W1PE

  # List every job the tracking log knows about
  newsbatch jobs

  # Compare standard vs batch processing costs
  newsbatch cost --items 12000`
