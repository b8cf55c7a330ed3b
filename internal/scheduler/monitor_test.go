package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LongAiden/news-classification/internal/gemini"
)

func newTestMonitor(service JobService) *Monitor {
	monitor := NewMonitor(service, zerolog.Nop())
	monitor.clock = newFakeClock()
	return monitor
}

func handlesFor(jobIDs ...string) []JobHandle {
	handles := make([]JobHandle, 0, len(jobIDs))
	for _, id := range jobIDs {
		handles = append(handles, JobHandle{JobID: id, ItemCount: 1})
	}
	return handles
}

func TestMonitorAwaitTerminal(t *testing.T) {
	t.Run("returns once every job settles", func(t *testing.T) {
		service := newFakeService()
		service.states["job-a"] = []gemini.JobStatus{
			{State: gemini.StatePending},
			{State: gemini.StateRunning},
			{State: gemini.StateSucceeded},
		}
		service.states["job-b"] = []gemini.JobStatus{
			{State: gemini.StateSucceeded},
		}
		monitor := newTestMonitor(service)

		result, err := monitor.AwaitTerminal(context.Background(),
			handlesFor("job-a", "job-b"), 30*time.Second, time.Hour)
		require.NoError(t, err)

		assert.False(t, result.TimedOut)
		assert.Equal(t, gemini.StateSucceeded, result.States["job-a"].State)
		assert.Equal(t, gemini.StateSucceeded, result.States["job-b"].State)
	})

	t.Run("terminal jobs are not polled again", func(t *testing.T) {
		service := newFakeService()
		service.states["job-a"] = []gemini.JobStatus{{State: gemini.StateSucceeded}}
		service.states["job-b"] = []gemini.JobStatus{
			{State: gemini.StateRunning},
			{State: gemini.StateRunning},
			{State: gemini.StateSucceeded},
		}
		monitor := newTestMonitor(service)

		_, err := monitor.AwaitTerminal(context.Background(),
			handlesFor("job-a", "job-b"), 30*time.Second, time.Hour)
		require.NoError(t, err)

		assert.Equal(t, 1, service.stateCalls["job-a"])
		assert.Equal(t, 3, service.stateCalls["job-b"])
	})

	t.Run("wait budget exhaustion reports timeout, not error", func(t *testing.T) {
		service := newFakeService()
		service.states["job-a"] = []gemini.JobStatus{{State: gemini.StateRunning}}
		monitor := newTestMonitor(service)

		result, err := monitor.AwaitTerminal(context.Background(),
			handlesFor("job-a"), 30*time.Second, 5*time.Minute)
		require.NoError(t, err)

		assert.True(t, result.TimedOut)
		assert.Equal(t, gemini.StateRunning, result.States["job-a"].State)
	})

	t.Run("a failed poll keeps the previous state", func(t *testing.T) {
		service := newFakeService()
		service.stateErrs["job-a"] = quotaErr()
		service.states["job-a"] = []gemini.JobStatus{{State: gemini.StateSucceeded}}
		monitor := newTestMonitor(service)

		result, err := monitor.AwaitTerminal(context.Background(),
			handlesFor("job-a"), 30*time.Second, time.Hour)
		require.NoError(t, err)

		assert.False(t, result.TimedOut)
		assert.Equal(t, gemini.StateSucceeded, result.States["job-a"].State)
	})

	t.Run("cancellation interrupts the wait", func(t *testing.T) {
		service := newFakeService()
		service.states["job-a"] = []gemini.JobStatus{{State: gemini.StateRunning}}
		monitor := newTestMonitor(service)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := monitor.AwaitTerminal(ctx, handlesFor("job-a"), 30*time.Second, time.Hour)
		require.ErrorIs(t, err, context.Canceled)
	})
}
