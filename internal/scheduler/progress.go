package scheduler

import (
	"sync"
	"time"
)

// percentMultiplier converts a ratio to a percentage (0-100).
const percentMultiplier = 100

// WavePhase labels where a run currently is in its lifecycle.
type WavePhase string

// Run phases in order. A run ends in PhaseComplete or PhasePartialFailure.
const (
	PhasePlanning       WavePhase = "planning"
	PhaseSubmitting     WavePhase = "submitting"
	PhaseMonitoring     WavePhase = "monitoring"
	PhaseReconciling    WavePhase = "reconciling"
	PhaseComplete       WavePhase = "complete"
	PhasePartialFailure WavePhase = "partial_failure"
)

// Progress tracks a run across its waves. It provides thread-safe snapshots
// for UI updates while the coordinator mutates it from its own goroutine.
type Progress struct {
	mu sync.RWMutex

	totalItems     int
	processedItems int
	totalWaves     int
	currentWave    int
	phase          WavePhase
	succeeded      int
	failed         int
	startTime      time.Time
	lastUpdateTime time.Time
}

// ProgressSnapshot is a point-in-time copy of run progress.
type ProgressSnapshot struct {
	TotalItems     int
	ProcessedItems int
	TotalWaves     int
	CurrentWave    int
	Phase          WavePhase
	Succeeded      int
	Failed         int
	StartTime      time.Time
	LastUpdateTime time.Time
}

// NewProgress creates a progress tracker for a run of totalItems spread over
// totalWaves waves.
func NewProgress(totalItems, totalWaves int) *Progress {
	now := time.Now()
	return &Progress{
		totalItems:     totalItems,
		totalWaves:     totalWaves,
		phase:          PhasePlanning,
		startTime:      now,
		lastUpdateTime: now,
	}
}

// SetPhase records the wave index and phase the run just entered.
func (p *Progress) SetPhase(waveIndex int, phase WavePhase) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentWave = waveIndex
	p.phase = phase
	p.lastUpdateTime = time.Now()
}

// AddOutcomes records reconciled items for the current wave.
func (p *Progress) AddOutcomes(succeeded, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.succeeded += succeeded
	p.failed += failed
	p.processedItems += succeeded + failed
	p.lastUpdateTime = time.Now()
}

// Snapshot returns a copy of the current progress.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return ProgressSnapshot{
		TotalItems:     p.totalItems,
		ProcessedItems: p.processedItems,
		TotalWaves:     p.totalWaves,
		CurrentWave:    p.currentWave,
		Phase:          p.phase,
		Succeeded:      p.succeeded,
		Failed:         p.failed,
		StartTime:      p.startTime,
		LastUpdateTime: p.lastUpdateTime,
	}
}

// PercentComplete returns the completion percentage (0-100).
func (s ProgressSnapshot) PercentComplete() float64 {
	if s.TotalItems == 0 {
		return 0
	}
	return (float64(s.ProcessedItems) / float64(s.TotalItems)) * percentMultiplier
}

// ElapsedTime returns the time elapsed since the run started.
func (s ProgressSnapshot) ElapsedTime() time.Duration {
	return time.Since(s.StartTime)
}

// EstimatedTimeRemaining estimates remaining time from the observed rate.
// Returns 0 before any item has been processed.
func (s ProgressSnapshot) EstimatedTimeRemaining() time.Duration {
	if s.ProcessedItems == 0 {
		return 0
	}
	avgPerItem := time.Since(s.StartTime) / time.Duration(s.ProcessedItems)
	return avgPerItem * time.Duration(s.TotalItems-s.ProcessedItems)
}
