package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	p := NewProgress(100, 4)

	snap := p.Snapshot()
	assert.Equal(t, PhasePlanning, snap.Phase)
	assert.Zero(t, snap.PercentComplete())

	p.SetPhase(1, PhaseMonitoring)
	p.AddOutcomes(20, 5)

	snap = p.Snapshot()
	assert.Equal(t, 1, snap.CurrentWave)
	assert.Equal(t, PhaseMonitoring, snap.Phase)
	assert.Equal(t, 25, snap.ProcessedItems)
	assert.Equal(t, 20, snap.Succeeded)
	assert.Equal(t, 5, snap.Failed)
	assert.InDelta(t, 25.0, snap.PercentComplete(), 0.001)

	p.AddOutcomes(75, 0)
	assert.InDelta(t, 100.0, p.Snapshot().PercentComplete(), 0.001)
}

func TestProgressSnapshotZeroTotal(t *testing.T) {
	var snap ProgressSnapshot
	assert.Zero(t, snap.PercentComplete())
	assert.Zero(t, snap.EstimatedTimeRemaining())
}
