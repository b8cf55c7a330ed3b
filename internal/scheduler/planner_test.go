package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanWaves(t *testing.T) {
	t.Run("large collection splits into budget-sized waves", func(t *testing.T) {
		plan, err := PlanWaves(12000, 2800, 9_000_000, 1000)
		require.NoError(t, err)

		assert.Equal(t, 3214, plan.ItemsPerWave)
		assert.False(t, plan.Degenerate)
		require.Len(t, plan.Waves, 4)

		wantItems := []int{3214, 3214, 3214, 2358}
		wantSubBatches := []int{4, 4, 4, 3}
		total := 0
		for i, wave := range plan.Waves {
			assert.Equal(t, i, wave.Index)
			assert.Equal(t, wantItems[i], wave.ItemCount)
			assert.Equal(t, wantSubBatches[i], wave.SubBatchCount)
			assert.LessOrEqual(t, wave.BudgetConsumed, int64(9_000_000))
			assert.Equal(t, int64(wave.ItemCount)*2800, wave.BudgetConsumed)
			total += wave.ItemCount
		}
		assert.Equal(t, 12000, total)
	})

	t.Run("collection fitting one wave plans one wave", func(t *testing.T) {
		plan, err := PlanWaves(500, 2800, 9_000_000, 1000)
		require.NoError(t, err)

		require.Len(t, plan.Waves, 1)
		assert.Equal(t, 500, plan.Waves[0].ItemCount)
		assert.Equal(t, 1, plan.Waves[0].SubBatchCount)
	})

	t.Run("item cost above budget degrades to one item per wave", func(t *testing.T) {
		plan, err := PlanWaves(3, 100, 50, 10)
		require.NoError(t, err)

		assert.True(t, plan.Degenerate)
		assert.Equal(t, 1, plan.ItemsPerWave)
		require.Len(t, plan.Waves, 3)
		for _, wave := range plan.Waves {
			assert.Equal(t, 1, wave.ItemCount)
			assert.Equal(t, 1, wave.SubBatchCount)
		}
	})

	t.Run("identical inputs produce identical plans", func(t *testing.T) {
		first, err := PlanWaves(12000, 2800, 9_000_000, 1000)
		require.NoError(t, err)
		second, err := PlanWaves(12000, 2800, 9_000_000, 1000)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		tests := []struct {
			name          string
			totalItems    int
			costPerItem   int64
			perWaveBudget int64
			maxBatchSize  int
			wantErr       error
		}{
			{"zero items", 0, 2800, 9_000_000, 1000, ErrNoItems},
			{"negative items", -5, 2800, 9_000_000, 1000, ErrNoItems},
			{"zero cost", 100, 0, 9_000_000, 1000, ErrInvalidCost},
			{"zero budget", 100, 2800, 0, 1000, ErrInvalidBudget},
			{"zero batch size", 100, 2800, 9_000_000, 0, ErrInvalidPlanArg},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := PlanWaves(tt.totalItems, tt.costPerItem, tt.perWaveBudget, tt.maxBatchSize)
				require.ErrorIs(t, err, tt.wantErr)
			})
		}
	})
}
