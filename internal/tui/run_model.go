// Package tui renders live run progress with Bubble Tea while a run is
// executing in the background.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LongAiden/news-classification/internal/scheduler"
)

// Palette shared by the run view.
var (
	ColorHeader  = lipgloss.Color("39")
	ColorLabel   = lipgloss.Color("245")
	ColorValue   = lipgloss.Color("252")
	ColorOK      = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorError   = lipgloss.Color("196")
)

// refreshInterval is how often the view re-reads run progress.
const refreshInterval = 500 * time.Millisecond

const runViewWidth = 60

// RunOutcome carries the finished run back into the TUI event loop.
type RunOutcome struct {
	Report *scheduler.RunReport
	Err    error
}

type tickMsg time.Time

type runDoneMsg RunOutcome

// RunModel is the Bubble Tea model for watching a run.
type RunModel struct {
	status func() scheduler.ProgressSnapshot
	done   <-chan RunOutcome
	cancel func()

	bar      progress.Model
	spin     spinner.Model
	snapshot scheduler.ProgressSnapshot
	outcome  *RunOutcome
	quitting bool
}

// NewRunModel creates a model that watches status and exits when the run
// outcome arrives on done. cancel is invoked when the user quits early.
func NewRunModel(status func() scheduler.ProgressSnapshot, done <-chan RunOutcome, cancel func()) RunModel {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(runViewWidth))
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(ColorHeader)

	return RunModel{
		status: status,
		done:   done,
		cancel: cancel,
		bar:    bar,
		spin:   spin,
	}
}

// Init starts the refresh ticker and the done watcher.
func (m RunModel) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.awaitDone(), m.spin.Tick)
}

func (m RunModel) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m RunModel) awaitDone() tea.Cmd {
	return func() tea.Msg {
		return runDoneMsg(<-m.done)
	}
}

// Update handles refresh ticks, run completion, and quit keys.
func (m RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		m.snapshot = m.status()
		return m, m.tick()

	case runDoneMsg:
		outcome := RunOutcome(msg)
		m.outcome = &outcome
		m.snapshot = m.status()
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Outcome returns the finished run, if one arrived before the TUI exited.
func (m RunModel) Outcome() *RunOutcome {
	return m.outcome
}

// View renders the current run state.
func (m RunModel) View() string {
	header := lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	label := lipgloss.NewStyle().Foreground(ColorLabel)
	value := lipgloss.NewStyle().Foreground(ColorValue).Bold(true)

	var b strings.Builder
	b.WriteString(header.Render("Batch classification run"))
	b.WriteString("\n\n")

	s := m.snapshot
	if s.TotalWaves > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n",
			label.Render("Wave:"),
			value.Render(fmt.Sprintf("%d/%d", s.CurrentWave+1, s.TotalWaves))))
	}
	b.WriteString(fmt.Sprintf("%s %s %s\n",
		label.Render("Phase:"),
		m.phaseView(s.Phase),
		m.spinnerView()))
	b.WriteString(fmt.Sprintf("%s %s\n",
		label.Render("Items:"),
		value.Render(fmt.Sprintf("%d/%d (%d ok, %d failed)",
			s.ProcessedItems, s.TotalItems, s.Succeeded, s.Failed))))

	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(s.PercentComplete() / 100))
	b.WriteString("\n\n")

	switch {
	case m.quitting:
		b.WriteString(label.Render("Cancelling, submitted jobs stay queued for a later fetch"))
	case m.outcome != nil && m.outcome.Err != nil:
		b.WriteString(lipgloss.NewStyle().Foreground(ColorError).Render(
			fmt.Sprintf("Run failed: %v", m.outcome.Err)))
	case m.outcome != nil:
		b.WriteString(lipgloss.NewStyle().Foreground(ColorOK).Render("Run finished"))
	default:
		b.WriteString(label.Render("Press q to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m RunModel) phaseView(phase scheduler.WavePhase) string {
	var color lipgloss.Color
	switch phase {
	case scheduler.PhaseComplete:
		color = ColorOK
	case scheduler.PhasePartialFailure:
		color = ColorWarning
	default:
		color = ColorValue
	}
	if phase == "" {
		phase = scheduler.PhasePlanning
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(string(phase))
}

func (m RunModel) spinnerView() string {
	if m.outcome != nil || m.quitting {
		return ""
	}
	return m.spin.View()
}
