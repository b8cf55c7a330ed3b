package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LongAiden/news-classification/internal/scheduler"
)

func testSnapshot() scheduler.ProgressSnapshot {
	return scheduler.ProgressSnapshot{
		TotalItems:     100,
		ProcessedItems: 40,
		TotalWaves:     4,
		CurrentWave:    1,
		Phase:          scheduler.PhaseMonitoring,
		Succeeded:      38,
		Failed:         2,
		StartTime:      time.Now().Add(-time.Minute),
	}
}

func TestRunModelView(t *testing.T) {
	model := NewRunModel(testSnapshot, make(chan RunOutcome), nil)

	updated, _ := model.Update(tickMsg(time.Now()))
	view := updated.(RunModel).View()

	assert.Contains(t, view, "Wave:")
	assert.Contains(t, view, "2/4")
	assert.Contains(t, view, "40/100")
	assert.Contains(t, view, string(scheduler.PhaseMonitoring))
	assert.Contains(t, view, "Press q to cancel")
}

func TestRunModelCompletion(t *testing.T) {
	done := make(chan RunOutcome, 1)
	report := &scheduler.RunReport{RunID: "run-a", Succeeded: 100}
	done <- RunOutcome{Report: report}

	model := NewRunModel(testSnapshot, done, nil)
	msg := model.awaitDone()()
	updated, cmd := model.Update(msg)

	finished := updated.(RunModel)
	require.NotNil(t, finished.Outcome())
	assert.Equal(t, report, finished.Outcome().Report)
	assert.NotNil(t, cmd, "completion must quit the program")
	assert.Contains(t, finished.View(), "Run finished")
}

func TestRunModelQuitCancels(t *testing.T) {
	cancelled := false
	model := NewRunModel(testSnapshot, make(chan RunOutcome), func() { cancelled = true })

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	assert.True(t, cancelled)
	assert.NotNil(t, cmd)
	assert.Contains(t, updated.(RunModel).View(), "Cancelling")
}
