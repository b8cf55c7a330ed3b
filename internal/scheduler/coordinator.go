package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/LongAiden/news-classification/internal/classify"
	"github.com/LongAiden/news-classification/internal/config"
	"github.com/LongAiden/news-classification/internal/gemini"
)

// submitConcurrency bounds how many sub-batch uploads run at once within a
// wave. Waves themselves are strictly sequential.
const submitConcurrency = 4

// WaveReport summarizes one wave after it has been reconciled.
type WaveReport struct {
	Index     int      `json:"index"`
	ItemCount int      `json:"itemCount"`
	JobIDs    []string `json:"jobIds"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	TimedOut  bool     `json:"timedOut,omitempty"`
}

// RunReport is the final accounting of a run. Every input item appears in
// exactly one outcome.
type RunReport struct {
	RunID        string                 `json:"runId"`
	TotalItems   int                    `json:"totalItems"`
	Succeeded    int                    `json:"succeeded"`
	Failed       int                    `json:"failed"`
	NotSubmitted int                    `json:"notSubmitted"`
	Partial      bool                   `json:"partial"`
	Waves        []WaveReport           `json:"waves"`
	Outcomes     []classify.ItemOutcome `json:"outcomes"`
}

// Coordinator drives a run through its waves: plan once, then for each wave
// submit, monitor, and reconcile before the next wave starts. Sequential
// waves are what keeps at most one wave's worth of tokens enqueued at the
// service at any time.
type Coordinator struct {
	cfg        config.SchedulerConfig
	submitter  *Submitter
	monitor    *Monitor
	reconciler *Reconciler
	logger     zerolog.Logger

	mu       sync.RWMutex // guards progress, which Run swaps while Status polls
	progress *Progress
}

// NewCoordinator wires a Coordinator from its collaborators.
func NewCoordinator(cfg config.SchedulerConfig, submitter *Submitter, monitor *Monitor, reconciler *Reconciler, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		submitter:  submitter,
		monitor:    monitor,
		reconciler: reconciler,
		logger:     logger.With().Str("component", "coordinator").Logger(),
	}
}

// NewRunID returns a fresh sortable run identifier.
func NewRunID() string {
	return ulid.Make().String()
}

// Status returns a snapshot of the current run's progress, or a zero snapshot
// before Run has started.
func (c *Coordinator) Status() ProgressSnapshot {
	c.mu.RLock()
	progress := c.progress
	c.mu.RUnlock()
	if progress == nil {
		return ProgressSnapshot{}
	}
	return progress.Snapshot()
}

// Run processes every item under runID and returns the full report. A fatal
// submission error stops further waves but never discards work: jobs already
// submitted are still monitored and reconciled, items whose submission was
// refused are reported failed, and items in skipped waves are reported as
// not submitted. Cancellation returns an error; submitted jobs stay in the
// tracking log for a later resume.
func (c *Coordinator) Run(ctx context.Context, runID string, items []classify.Article) (*RunReport, error) {
	if len(items) == 0 {
		return nil, errors.New("no items to process")
	}

	logger := c.logger.With().Str("runId", runID).Logger()
	logger.Info().
		Str("operation", "run").
		Int("totalItems", len(items)).
		Msg("Planning run")

	plan, err := PlanWaves(len(items), c.cfg.CostPerItem, c.cfg.PerWaveBudget, c.cfg.MaxBatchSize)
	if err != nil {
		return nil, fmt.Errorf("planning waves: %w", err)
	}
	if plan.Degenerate {
		logger.Warn().
			Int64("costPerItem", c.cfg.CostPerItem).
			Int64("perWaveBudget", c.cfg.PerWaveBudget).
			Msg("Single item cost exceeds wave budget, scheduling one item per wave")
	}
	logger.Info().
		Int("waveCount", len(plan.Waves)).
		Int("itemsPerWave", plan.ItemsPerWave).
		Msg("Run planned")

	c.mu.Lock()
	c.progress = NewProgress(len(items), len(plan.Waves))
	c.mu.Unlock()

	report := &RunReport{
		RunID:      runID,
		TotalItems: len(items),
	}

	offset := 0
	var fatal error
	for _, wave := range plan.Waves {
		waveItems := items[offset : offset+wave.ItemCount]
		offset += wave.ItemCount

		if fatal != nil {
			// An earlier wave hit a fatal error. The remaining items are
			// reported instead of silently dropped.
			report.Outcomes = append(report.Outcomes,
				MarkNotSubmitted(waveItems, fmt.Sprintf("run aborted: %v", fatal))...)
			continue
		}

		waveReport, outcomes, waveErr := c.runWave(ctx, runID, wave, waveItems)
		report.Waves = append(report.Waves, waveReport)
		report.Outcomes = append(report.Outcomes, outcomes...)
		c.progress.AddOutcomes(waveReport.Succeeded, waveReport.Failed)

		if waveErr != nil {
			if ctx.Err() != nil {
				return nil, waveErr
			}
			logger.Error().
				Int("waveIndex", wave.Index).
				Err(waveErr).
				Msg("Wave failed, skipping remaining waves")
			fatal = waveErr
		}
	}

	report.Tally()
	report.Partial = fatal != nil || report.Failed > 0 || report.NotSubmitted > 0
	if report.Partial {
		c.progress.SetPhase(len(plan.Waves)-1, PhasePartialFailure)
	} else {
		c.progress.SetPhase(len(plan.Waves)-1, PhaseComplete)
	}

	logger.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("notSubmitted", report.NotSubmitted).
		Bool("partial", report.Partial).
		Msg("Run finished")
	return report, nil
}

// runWave drives one wave through submit, monitor, and reconcile. The
// returned error is non-nil only for fatal conditions that should stop
// subsequent waves; per-item failures are folded into the outcomes.
func (c *Coordinator) runWave(ctx context.Context, runID string, wave WaveSpec, items []classify.Article) (WaveReport, []classify.ItemOutcome, error) {
	logger := c.logger.With().
		Str("runId", runID).
		Int("waveIndex", wave.Index).
		Logger()

	report := WaveReport{Index: wave.Index, ItemCount: len(items)}

	c.progress.SetPhase(wave.Index, PhaseSubmitting)
	logger.Info().
		Str("operation", "submit_wave").
		Int("itemCount", len(items)).
		Int("subBatches", wave.SubBatchCount).
		Int64("budgetConsumed", wave.BudgetConsumed).
		Msg("Submitting wave")

	subBatches, err := Split(items, c.cfg.MaxBatchSize)
	if err != nil {
		return report, nil, fmt.Errorf("splitting wave %d: %w", wave.Index, err)
	}

	handles, submitErrs := c.submitAll(ctx, runID, wave.Index, subBatches)
	if err := ctx.Err(); err != nil {
		return report, nil, err
	}

	var outcomes []classify.ItemOutcome
	var fatal error
	submitted := make([]JobHandle, 0, len(handles))
	for i, h := range handles {
		if submitErrs[i] != nil {
			// The attempt reached the service and was refused for good; that
			// is a failure, not a skip.
			outcomes = append(outcomes,
				MarkFailed(subBatches[i], submitErrs[i].Error())...)
			if isFatalSubmitError(submitErrs[i]) && fatal == nil {
				fatal = submitErrs[i]
			}
			continue
		}
		submitted = append(submitted, h)
		report.JobIDs = append(report.JobIDs, h.JobID)
	}

	if len(submitted) > 0 {
		c.progress.SetPhase(wave.Index, PhaseMonitoring)
		await, err := c.monitor.AwaitTerminal(ctx, submitted, c.cfg.PollInterval(), c.cfg.MaxWaitPerWave())
		if err != nil {
			return report, outcomes, err
		}
		report.TimedOut = await.TimedOut

		c.progress.SetPhase(wave.Index, PhaseReconciling)
		for _, h := range submitted {
			outcomes = append(outcomes, c.reconcileHandle(ctx, logger, h, await.States[h.JobID])...)
			if err := ctx.Err(); err != nil {
				return report, outcomes, err
			}
		}
	}

	for _, o := range outcomes {
		switch o.State {
		case classify.OutcomeSucceeded:
			report.Succeeded++
		case classify.OutcomeFailed:
			report.Failed++
		}
	}
	return report, outcomes, fatal
}

// submitAll uploads the wave's sub-batches with bounded concurrency. Every
// sub-batch gets an attempt even when a sibling fails; errors are returned
// per index so the caller can distinguish fatal from per-batch failures.
func (c *Coordinator) submitAll(ctx context.Context, runID string, waveIndex int, subBatches [][]classify.Article) ([]JobHandle, []error) {
	handles := make([]JobHandle, len(subBatches))
	submitErrs := make([]error, len(subBatches))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(submitConcurrency)
	for i, batch := range subBatches {
		group.Go(func() error {
			handle, err := c.submitter.Submit(groupCtx, runID, waveIndex, i, batch)
			if err != nil {
				submitErrs[i] = err
				return nil
			}
			handles[i] = handle
			return nil
		})
	}
	// Goroutines report through the slices, never through the group error.
	_ = group.Wait()
	return handles, submitErrs
}

// reconcileHandle turns one job's final state into per-item outcomes.
func (c *Coordinator) reconcileHandle(ctx context.Context, logger zerolog.Logger, handle JobHandle, status gemini.JobStatus) []classify.ItemOutcome {
	switch {
	case status.State == gemini.StateSucceeded:
		outcomes, err := c.reconciler.ReconcileJob(ctx, handle)
		if err != nil {
			logger.Error().
				Str("jobId", handle.JobID).
				Err(err).
				Msg("Failed to download job output")
			return failAll(handle, fmt.Sprintf("downloading output: %v", err))
		}
		return outcomes
	case status.State.Terminal():
		logger.Warn().
			Str("jobId", handle.JobID).
			Str("state", string(status.State)).
			Msg("Job ended without results")
		return failAll(handle, fmt.Sprintf("job ended in state %s", status.State))
	default:
		// Still running when the wait budget ran out. The job stays in the
		// tracking log; a later results fetch can pick it up.
		logger.Warn().
			Str("jobId", handle.JobID).
			Str("state", string(status.State)).
			Msg("Job still running after wait budget, leaving it for a later fetch")
		return failAll(handle, "timed out waiting for job to finish")
	}
}

func failAll(handle JobHandle, reason string) []classify.ItemOutcome {
	outcomes := make([]classify.ItemOutcome, 0, len(handle.Mapping))
	for _, itemID := range handle.Mapping {
		outcomes = append(outcomes, classify.ItemOutcome{
			ItemID: itemID,
			State:  classify.OutcomeFailed,
			Reason: reason,
		})
	}
	return outcomes
}

// isFatalSubmitError reports whether a submission error should stop the run.
// Quota and transient errors already went through the retry budget; only
// errors that will never succeed on retry abort subsequent waves.
func isFatalSubmitError(err error) bool {
	return errors.Is(err, gemini.ErrInvalidRequest) || errors.Is(err, gemini.ErrPermissionDenied)
}

// Tally recomputes the per-state counts from the outcomes.
func (r *RunReport) Tally() {
	r.Succeeded, r.Failed, r.NotSubmitted = 0, 0, 0
	for _, o := range r.Outcomes {
		switch o.State {
		case classify.OutcomeSucceeded:
			r.Succeeded++
		case classify.OutcomeFailed:
			r.Failed++
		case classify.OutcomeNotSubmitted:
			r.NotSubmitted++
		}
	}
}
