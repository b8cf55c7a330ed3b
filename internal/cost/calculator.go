// Package cost estimates API spend for standard versus batch processing and
// renders the comparison for the CLI.
package cost

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Pricing is the per-million-token price for one processing mode.
type Pricing struct {
	Name   string
	Input  float64
	Output float64
}

// Published per-1M-token prices for the two processing modes.
var (
	StandardPricing = Pricing{
		Name:   "Gemini 2.0 Flash Lite (Standard)",
		Input:  0.30,
		Output: 2.50,
	}
	BatchPricing = Pricing{
		Name:   "Gemini 2.0 Flash (Batch)",
		Input:  0.15,
		Output: 1.25,
	}
)

const (
	daysPerMonth = 30
	daysPerYear  = 365
	tokensPerM   = 1_000_000
)

// Calculator estimates daily spend for a fixed processing volume.
type Calculator struct {
	// DailyItems is the number of articles classified per day.
	DailyItems int

	// AvgInputTokens is the average prompt plus article size per request.
	AvgInputTokens int

	// AvgOutputTokens is the average response size per request.
	AvgOutputTokens int
}

// Breakdown is the cost of one mode at the calculator's volume.
type Breakdown struct {
	Pricing       Pricing
	InputTokens   int64
	OutputTokens  int64
	InputCostDay  float64
	OutputCostDay float64
	TotalCostDay  float64
}

// TotalCostMonth returns the 30-day cost.
func (b Breakdown) TotalCostMonth() float64 { return b.TotalCostDay * daysPerMonth }

// TotalCostYear returns the 365-day cost.
func (b Breakdown) TotalCostYear() float64 { return b.TotalCostDay * daysPerYear }

// Comparison holds both modes plus the savings batch processing yields.
type Comparison struct {
	Standard       Breakdown
	Batch          Breakdown
	SavingsDay     float64
	SavingsMonth   float64
	SavingsYear    float64
	SavingsPercent float64
}

// ErrInvalidVolume is returned when the calculator's inputs are not positive.
var ErrInvalidVolume = errors.New("daily items and token averages must be positive")

// Estimate computes the cost breakdown for the given pricing.
func (c Calculator) Estimate(pricing Pricing) (Breakdown, error) {
	if c.DailyItems < 1 || c.AvgInputTokens < 1 || c.AvgOutputTokens < 1 {
		return Breakdown{}, ErrInvalidVolume
	}

	b := Breakdown{
		Pricing:      pricing,
		InputTokens:  int64(c.DailyItems) * int64(c.AvgInputTokens),
		OutputTokens: int64(c.DailyItems) * int64(c.AvgOutputTokens),
	}
	b.InputCostDay = float64(b.InputTokens) / tokensPerM * pricing.Input
	b.OutputCostDay = float64(b.OutputTokens) / tokensPerM * pricing.Output
	b.TotalCostDay = b.InputCostDay + b.OutputCostDay
	return b, nil
}

// Compare estimates both modes and the savings of switching to batch.
func (c Calculator) Compare() (Comparison, error) {
	standard, err := c.Estimate(StandardPricing)
	if err != nil {
		return Comparison{}, err
	}
	batch, err := c.Estimate(BatchPricing)
	if err != nil {
		return Comparison{}, err
	}

	cmp := Comparison{
		Standard:     standard,
		Batch:        batch,
		SavingsDay:   standard.TotalCostDay - batch.TotalCostDay,
		SavingsMonth: standard.TotalCostMonth() - batch.TotalCostMonth(),
		SavingsYear:  standard.TotalCostYear() - batch.TotalCostYear(),
	}
	if standard.TotalCostDay > 0 {
		cmp.SavingsPercent = cmp.SavingsDay / standard.TotalCostDay * 100
	}
	return cmp, nil
}

// Render writes the cost comparison report to w with grouped number
// formatting.
func (c Calculator) Render(w io.Writer, cmp Comparison) {
	p := message.NewPrinter(language.English)
	rule := strings.Repeat("=", 72)
	thin := strings.Repeat("-", 72)

	p.Fprintf(w, "%s\nCost comparison: standard vs batch processing\n%s\n\n", rule, rule)
	p.Fprintf(w, "Processing volume\n")
	p.Fprintf(w, "  Daily items:              %d\n", c.DailyItems)
	p.Fprintf(w, "  Avg input tokens/request: %d\n", c.AvgInputTokens)
	p.Fprintf(w, "  Avg output tokens/request: %d\n", c.AvgOutputTokens)
	p.Fprintf(w, "  Daily input tokens:       %d (%.1fM)\n", cmp.Standard.InputTokens, float64(cmp.Standard.InputTokens)/tokensPerM)
	p.Fprintf(w, "  Daily output tokens:      %d (%.1fM)\n\n", cmp.Standard.OutputTokens, float64(cmp.Standard.OutputTokens)/tokensPerM)

	renderMode(p, w, thin, cmp.Standard)
	renderMode(p, w, thin, cmp.Batch)

	p.Fprintf(w, "%s\nSavings with batch processing\n%s\n", rule, rule)
	p.Fprintf(w, "  Per day:   $%.2f (%.1f%%)\n", cmp.SavingsDay, cmp.SavingsPercent)
	p.Fprintf(w, "  Per month: $%.2f\n", cmp.SavingsMonth)
	p.Fprintf(w, "  Per year:  $%.2f\n", cmp.SavingsYear)
}

func renderMode(p *message.Printer, w io.Writer, thin string, b Breakdown) {
	fmt.Fprintf(w, "%s\n%s\n%s\n", thin, b.Pricing.Name, thin)
	p.Fprintf(w, "  Input:  %.1fM tokens x $%.2f = $%.2f/day\n", float64(b.InputTokens)/tokensPerM, b.Pricing.Input, b.InputCostDay)
	p.Fprintf(w, "  Output: %.1fM tokens x $%.2f = $%.2f/day\n", float64(b.OutputTokens)/tokensPerM, b.Pricing.Output, b.OutputCostDay)
	p.Fprintf(w, "  Total:  $%.2f/day  ($%.2f/month, $%.2f/year)\n\n", b.TotalCostDay, b.TotalCostMonth(), b.TotalCostYear())
}
