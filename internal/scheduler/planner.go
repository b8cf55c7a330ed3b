package scheduler

import (
	"errors"
	"fmt"
)

// WaveSpec describes one planned wave before any submission happens.
type WaveSpec struct {
	// Index is the zero-based wave number.
	Index int

	// ItemCount is the number of items this wave carries.
	ItemCount int

	// SubBatchCount is how many sub-batches the wave's items split into.
	SubBatchCount int

	// BudgetConsumed is the wave's estimated enqueued-token cost.
	BudgetConsumed int64
}

// Plan is the complete wave schedule for one run.
type Plan struct {
	Waves []WaveSpec

	// ItemsPerWave is the per-wave item ceiling derived from the budget.
	ItemsPerWave int

	// Degenerate is true when a single item's estimated cost exceeds the
	// per-wave budget. The plan still makes progress by scheduling one item
	// per wave; callers should log this as a warning, not treat it as an
	// error.
	Degenerate bool
}

// Planner input errors.
var (
	ErrNoItems        = errors.New("total items must be >= 1")
	ErrInvalidCost    = errors.New("cost per item must be >= 1")
	ErrInvalidBudget  = errors.New("per-wave budget must be >= 1")
	ErrInvalidPlanArg = errors.New("invalid plan argument")
)

// PlanWaves computes the wave schedule for totalItems given the per-item cost
// estimate, the per-wave token budget, and the sub-batch size limit.
//
// The computation is pure and stable: identical inputs always produce the
// identical plan, which is what allows a crashed run to be replayed against
// its tracking log. Wave item counts always sum to exactly totalItems, and
// every wave except a degenerate one satisfies
// ItemCount * costPerItem <= perWaveBudget.
func PlanWaves(totalItems int, costPerItem, perWaveBudget int64, maxBatchSize int) (Plan, error) {
	if totalItems < 1 {
		return Plan{}, fmt.Errorf("%w: got %d", ErrNoItems, totalItems)
	}
	if costPerItem < 1 {
		return Plan{}, fmt.Errorf("%w: got %d", ErrInvalidCost, costPerItem)
	}
	if perWaveBudget < 1 {
		return Plan{}, fmt.Errorf("%w: got %d", ErrInvalidBudget, perWaveBudget)
	}
	if maxBatchSize < 1 {
		return Plan{}, fmt.Errorf("%w: max batch size %d", ErrInvalidPlanArg, maxBatchSize)
	}

	plan := Plan{
		ItemsPerWave: int(perWaveBudget / costPerItem),
	}

	// A single item costing more than the whole budget would otherwise plan
	// zero-item waves forever. Clamp to one item per wave so the run always
	// makes progress.
	if plan.ItemsPerWave < 1 {
		plan.ItemsPerWave = 1
		plan.Degenerate = true
	}

	waveCount := (totalItems + plan.ItemsPerWave - 1) / plan.ItemsPerWave
	plan.Waves = make([]WaveSpec, 0, waveCount)

	remaining := totalItems
	for i := 0; i < waveCount; i++ {
		itemCount := plan.ItemsPerWave
		if itemCount > remaining {
			itemCount = remaining
		}
		plan.Waves = append(plan.Waves, WaveSpec{
			Index:          i,
			ItemCount:      itemCount,
			SubBatchCount:  (itemCount + maxBatchSize - 1) / maxBatchSize,
			BudgetConsumed: int64(itemCount) * costPerItem,
		})
		remaining -= itemCount
	}

	return plan, nil
}
