package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/LongAiden/news-classification/internal/gemini"
)

// AwaitResult reports the final observed state of every monitored job.
type AwaitResult struct {
	// States maps job ID to its last observed status.
	States map[string]gemini.JobStatus

	// TimedOut is true when maxWait elapsed before every job reached a
	// terminal state. Jobs still pending keep their last observed status;
	// they are not cancelled and remain in the tracking log.
	TimedOut bool
}

// Monitor polls batch jobs until they settle or the wait budget runs out.
type Monitor struct {
	service JobService
	clock   Clock
	logger  zerolog.Logger
}

// NewMonitor returns a Monitor polling through service.
func NewMonitor(service JobService, logger zerolog.Logger) *Monitor {
	return &Monitor{
		service: service,
		clock:   realClock{},
		logger:  logger.With().Str("component", "monitor").Logger(),
	}
}

// Poll fetches the current status of every handle once. A fetch error for
// one job is logged and that job keeps its previous status; a single flaky
// poll round must not fail the wave.
func (m *Monitor) Poll(ctx context.Context, handles []JobHandle, states map[string]gemini.JobStatus) {
	for _, h := range handles {
		if prev, ok := states[h.JobID]; ok && prev.State.Terminal() {
			continue
		}
		status, err := m.service.GetJobState(ctx, h.JobID)
		if err != nil {
			m.logger.Warn().
				Str("jobId", h.JobID).
				Err(err).
				Msg("Failed to poll job state, will retry next round")
			continue
		}
		states[h.JobID] = status
	}
}

// AwaitTerminal polls every handle at pollInterval until all jobs reach a
// terminal state or maxWait elapses. Timeout is an expected outcome, not an
// error: the result carries TimedOut with the latest states so the caller
// can reconcile whatever did finish. Cancelling ctx is the only error path.
func (m *Monitor) AwaitTerminal(ctx context.Context, handles []JobHandle, pollInterval, maxWait time.Duration) (AwaitResult, error) {
	result := AwaitResult{States: make(map[string]gemini.JobStatus, len(handles))}
	deadline := m.clock.Now().Add(maxWait)

	for {
		m.Poll(ctx, handles, result.States)
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if allTerminal(handles, result.States) {
			m.logger.Info().
				Int("jobCount", len(handles)).
				Msg("All jobs reached a terminal state")
			return result, nil
		}

		if !m.clock.Now().Add(pollInterval).Before(deadline) {
			result.TimedOut = true
			m.logger.Warn().
				Int("pendingJobs", pendingCount(handles, result.States)).
				Dur("maxWait", maxWait).
				Msg("Wait budget exhausted with jobs still running")
			return result, nil
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-m.clock.After(pollInterval):
		}
	}
}

func allTerminal(handles []JobHandle, states map[string]gemini.JobStatus) bool {
	for _, h := range handles {
		status, ok := states[h.JobID]
		if !ok || !status.State.Terminal() {
			return false
		}
	}
	return true
}

func pendingCount(handles []JobHandle, states map[string]gemini.JobStatus) int {
	n := 0
	for _, h := range handles {
		status, ok := states[h.JobID]
		if !ok || !status.State.Terminal() {
			n++
		}
	}
	return n
}
