package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LongAiden/news-classification/internal/config"
	"github.com/LongAiden/news-classification/internal/logging"
)

// setupLogging configures logging from config file, environment, and flags.
// --debug forces console debug output regardless of configuration.
func setupLogging(cmd *cobra.Command, cfg *config.Config) *logging.Result {
	loggingCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = "console"
		loggingCfg.File = ""
	}

	result := logging.New(loggingCfg)
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		fmt.Fprintf(cmd.ErrOrStderr(), "Logging to %s\n", result.FilePath)
	}

	ctx := logging.WithContext(cmd.Context(), result.Logger)
	cmd.SetContext(ctx)

	logger.Debug().Str("command", cmd.Name()).Msg("Command started")
	return &result
}
