package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/LongAiden/news-classification/internal/classify"
	"github.com/LongAiden/news-classification/internal/gemini"
)

// JobService is the slice of the batch API the scheduler depends on.
// *gemini.Client satisfies it; tests substitute fakes.
type JobService interface {
	UploadAndCreateJob(ctx context.Context, name string, body []byte) (gemini.JobInfo, error)
	GetJobState(ctx context.Context, jobID string) (gemini.JobStatus, error)
	DownloadJobOutput(ctx context.Context, jobID string) ([]gemini.OutputRecord, error)
}

// JobHandle ties a submitted job back to the sub-batch it carries.
type JobHandle struct {
	BatchName string
	JobID     string
	ItemCount int
	// Mapping is RequestKey -> item ID for this sub-batch.
	Mapping map[string]string
}

// BatchName builds the deterministic name for one sub-batch. The name is a
// pure function of its coordinates so a resumed run regenerates the same
// names and finds its prior submissions in the tracking log.
func BatchName(runID string, waveIndex, subBatchIndex int) string {
	return fmt.Sprintf("%s_wave%02d_batch%03d", runID, waveIndex, subBatchIndex)
}

// RequestKey returns the positional key for the idx-th item in a sub-batch.
// The service echoes this key on each result line, which is the only identity
// information that survives the round trip.
func RequestKey(idx int) string {
	return fmt.Sprintf("request_%d", idx)
}

// Submitter uploads sub-batches and creates batch jobs, retrying transient
// and quota failures with exponential backoff.
type Submitter struct {
	service    JobService
	tracking   *TrackingLog
	workDir    string
	model      string
	maxRetries int
	baseDelay  time.Duration
	clock      Clock
	logger     zerolog.Logger
}

// NewSubmitter returns a Submitter writing mappings under workDir and
// journaling every submission to tracking.
func NewSubmitter(service JobService, tracking *TrackingLog, workDir, model string, maxRetries int, logger zerolog.Logger) *Submitter {
	return &Submitter{
		service:    service,
		tracking:   tracking,
		workDir:    workDir,
		model:      model,
		maxRetries: maxRetries,
		baseDelay:  2 * time.Second,
		clock:      realClock{},
		logger:     logger.With().Str("component", "submitter").Logger(),
	}
}

// Submit uploads one sub-batch and creates its batch job. The request-key
// mapping is persisted before the upload and the tracking entry is appended
// before Submit reports success, so a crash at any point leaves enough on
// disk to resume or reconcile.
func (s *Submitter) Submit(ctx context.Context, runID string, waveIndex, subBatchIndex int, items []classify.Article) (JobHandle, error) {
	batchName := BatchName(runID, waveIndex, subBatchIndex)
	logger := s.logger.With().
		Str("batchName", batchName).
		Int("itemCount", len(items)).
		Logger()

	// Resume path: if this sub-batch was already submitted, reattach to the
	// recorded job instead of creating a duplicate.
	if entry, ok := s.tracking.Find(runID, waveIndex, subBatchIndex); ok {
		mapping, err := LoadMapping(s.workDir, batchName)
		if err != nil {
			return JobHandle{}, fmt.Errorf("reattaching to job %s: %w", entry.JobID, err)
		}
		logger.Info().Str("jobId", entry.JobID).Msg("Reusing previously submitted job")
		return JobHandle{
			BatchName: batchName,
			JobID:     entry.JobID,
			ItemCount: entry.ItemCount,
			Mapping:   mapping,
		}, nil
	}

	body, mapping, err := buildRequestFile(s.model, items)
	if err != nil {
		return JobHandle{}, fmt.Errorf("building request file for %s: %w", batchName, err)
	}

	if _, err := SaveMapping(s.workDir, batchName, mapping); err != nil {
		return JobHandle{}, fmt.Errorf("saving mapping for %s: %w", batchName, err)
	}

	info, err := s.createWithRetry(ctx, batchName, body, logger)
	if err != nil {
		return JobHandle{}, err
	}

	if err := s.tracking.Append(TrackingEntry{
		RunID:         runID,
		WaveIndex:     waveIndex,
		SubBatchIndex: subBatchIndex,
		BatchName:     batchName,
		JobID:         info.ID,
		ItemCount:     len(items),
		SubmittedAt:   s.clock.Now().UTC(),
	}); err != nil {
		return JobHandle{}, fmt.Errorf("recording submission of %s: %w", batchName, err)
	}

	logger.Info().Str("jobId", info.ID).Msg("Submitted batch job")
	return JobHandle{
		BatchName: batchName,
		JobID:     info.ID,
		ItemCount: len(items),
		Mapping:   mapping,
	}, nil
}

func (s *Submitter) createWithRetry(ctx context.Context, batchName string, body []byte, logger zerolog.Logger) (gemini.JobInfo, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(s.baseDelay, attempt)
			logger.Warn().
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("Retrying batch submission")
			select {
			case <-ctx.Done():
				return gemini.JobInfo{}, ctx.Err()
			case <-s.clock.After(delay):
			}
		}

		info, err := s.service.UploadAndCreateJob(ctx, batchName, body)
		if err == nil {
			return info, nil
		}
		if !gemini.Retryable(err) {
			return gemini.JobInfo{}, fmt.Errorf("submitting %s: %w", batchName, err)
		}
		lastErr = err
	}
	return gemini.JobInfo{}, fmt.Errorf("submitting %s after %d retries: %w", batchName, s.maxRetries, lastErr)
}

// backoffDelay returns base * 2^(attempt-1) with ±25% jitter.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := base << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(delay)/2+1)) - delay/4
	return delay + jitter
}

// buildRequestFile renders items into the JSONL request file the batch API
// expects and returns the positional key mapping alongside it.
func buildRequestFile(model string, items []classify.Article) ([]byte, map[string]string, error) {
	var buf bytes.Buffer
	mapping := make(map[string]string, len(items))

	for idx, item := range items {
		key := RequestKey(idx)
		mapping[key] = item.ID

		line := requestLine{
			CustomID: key,
			Method:   "POST",
			URL:      fmt.Sprintf("/v1/models/%s:generateContent", model),
			Body: requestBody{
				SystemInstruction: content{
					Parts: []part{{Text: classify.SystemPrompt()}},
				},
				Contents: []content{{
					Role:  "user",
					Parts: []part{{Text: fmt.Sprintf("Title: %s\n\n%s", item.Title, item.Content)}},
				}},
				GenerationConfig: generationConfig{
					ResponseMIMEType: "application/json",
					ResponseSchema:   classify.ResponseSchema(),
				},
			},
		}

		data, err := json.Marshal(line)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding request for item %s: %w", item.ID, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), mapping, nil
}

type requestLine struct {
	CustomID string      `json:"custom_id"`
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Body     requestBody `json:"body"`
}

type requestBody struct {
	SystemInstruction content          `json:"systemInstruction"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string         `json:"response_mime_type"`
	ResponseSchema   map[string]any `json:"response_schema"`
}
