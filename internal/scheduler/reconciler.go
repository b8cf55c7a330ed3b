package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/LongAiden/news-classification/internal/classify"
	"github.com/LongAiden/news-classification/internal/gemini"
)

// Reconciler errors, surfaced in per-item reasons rather than failing a wave.
var (
	// ErrOrphanResult marks an output record whose request key has no entry
	// in the sub-batch mapping.
	ErrOrphanResult = errors.New("result does not match any submitted request")

	// ErrMalformedPayload marks an output record whose payload could not be
	// decoded into a classification result.
	ErrMalformedPayload = errors.New("malformed result payload")
)

// Reconciler turns raw job output back into per-article outcomes using the
// request-key mappings persisted at submission time.
type Reconciler struct {
	service JobService
	logger  zerolog.Logger
}

// NewReconciler returns a Reconciler downloading output through service.
func NewReconciler(service JobService, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		service: service,
		logger:  logger.With().Str("component", "reconciler").Logger(),
	}
}

// ReconcileJob downloads one finished job's output and maps every record back
// to its article. The returned outcomes cover every item in the handle's
// mapping: items present in the output get their decoded result or failure
// reason, items absent from the output are marked failed. Orphan records that
// match no known request key are logged and skipped. ReconcileJob is a pure
// read of service output, so calling it twice yields the same outcomes.
func (r *Reconciler) ReconcileJob(ctx context.Context, handle JobHandle) ([]classify.ItemOutcome, error) {
	logger := r.logger.With().Str("jobId", handle.JobID).Logger()

	records, err := r.service.DownloadJobOutput(ctx, handle.JobID)
	if err != nil {
		return nil, fmt.Errorf("downloading output of job %s: %w", handle.JobID, err)
	}

	outcomes := make([]classify.ItemOutcome, 0, len(handle.Mapping))
	seen := make(map[string]bool, len(handle.Mapping))

	for _, record := range records {
		itemID, ok := handle.Mapping[record.Key]
		if !ok {
			logger.Warn().
				Str("requestKey", record.Key).
				Err(ErrOrphanResult).
				Msg("Skipping orphan output record")
			continue
		}
		if seen[itemID] {
			logger.Warn().
				Str("requestKey", record.Key).
				Str("itemId", itemID).
				Msg("Skipping duplicate output record")
			continue
		}
		seen[itemID] = true
		outcomes = append(outcomes, r.recordOutcome(logger, itemID, record))
	}

	// Items the mapping promised but the output never delivered. The job can
	// succeed as a whole while dropping individual requests, so these are
	// per-item failures, not a job failure.
	for key, itemID := range handle.Mapping {
		if seen[itemID] {
			continue
		}
		logger.Warn().
			Str("requestKey", key).
			Str("itemId", itemID).
			Msg("Item missing from job output")
		outcomes = append(outcomes, classify.ItemOutcome{
			ItemID: itemID,
			State:  classify.OutcomeFailed,
			Reason: "missing from job output",
		})
	}

	return outcomes, nil
}

func (r *Reconciler) recordOutcome(logger zerolog.Logger, itemID string, record gemini.OutputRecord) classify.ItemOutcome {
	if record.Err != "" {
		return classify.ItemOutcome{
			ItemID: itemID,
			State:  classify.OutcomeFailed,
			Reason: record.Err,
		}
	}

	result, err := classify.DecodeResult(record.Payload)
	if err != nil {
		logger.Warn().
			Str("itemId", itemID).
			Err(err).
			Msg("Failed to decode result payload")
		return classify.ItemOutcome{
			ItemID: itemID,
			State:  classify.OutcomeFailed,
			Reason: fmt.Sprintf("%v: %v", ErrMalformedPayload, err),
		}
	}

	return classify.ItemOutcome{
		ItemID: itemID,
		State:  classify.OutcomeSucceeded,
		Result: result,
	}
}

// MarkNotSubmitted builds outcomes for items whose submission was never
// attempted, typically because their wave was skipped after an earlier fatal
// error.
func MarkNotSubmitted(items []classify.Article, reason string) []classify.ItemOutcome {
	outcomes := make([]classify.ItemOutcome, 0, len(items))
	for _, item := range items {
		outcomes = append(outcomes, classify.ItemOutcome{
			ItemID: item.ID,
			State:  classify.OutcomeNotSubmitted,
			Reason: reason,
		})
	}
	return outcomes
}

// MarkFailed builds failed outcomes for items whose submission was attempted
// but did not produce a job, such as a sub-batch that exhausted its quota
// retries.
func MarkFailed(items []classify.Article, reason string) []classify.ItemOutcome {
	outcomes := make([]classify.ItemOutcome, 0, len(items))
	for _, item := range items {
		outcomes = append(outcomes, classify.ItemOutcome{
			ItemID: item.ID,
			State:  classify.OutcomeFailed,
			Reason: reason,
		})
	}
	return outcomes
}
