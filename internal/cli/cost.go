package cli

import (
	"github.com/spf13/cobra"

	"github.com/LongAiden/news-classification/internal/cost"
)

// costParams holds the parameters for the cost command execution.
type costParams struct {
	items        int
	inputTokens  int
	outputTokens int
}

// NewCostCmd creates the "cost" subcommand comparing standard and batch
// processing spend at a given daily volume.
func NewCostCmd() *cobra.Command {
	var params costParams

	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Compare standard vs batch processing costs",
		Example: `  # 12,000 articles per day with default token averages
  newsbatch cost --items 12000

  # Custom token profile
  newsbatch cost --items 10000 --avg-input-tokens 2500 --avg-output-tokens 300`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeCost(cmd, params)
		},
	}

	cmd.Flags().IntVar(&params.items, "items", 0, "Articles processed per day")
	cmd.Flags().IntVar(&params.inputTokens, "avg-input-tokens", 2000, "Average input tokens per request")
	cmd.Flags().IntVar(&params.outputTokens, "avg-output-tokens", 200, "Average output tokens per request")
	_ = cmd.MarkFlagRequired("items")

	return cmd
}

func executeCost(cmd *cobra.Command, params costParams) error {
	calc := cost.Calculator{
		DailyItems:      params.items,
		AvgInputTokens:  params.inputTokens,
		AvgOutputTokens: params.outputTokens,
	}

	cmp, err := calc.Compare()
	if err != nil {
		return err
	}

	calc.Render(cmd.OutOrStdout(), cmp)
	return nil
}
