package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LongAiden/news-classification/internal/config"
	"github.com/LongAiden/news-classification/internal/gemini"
	"github.com/LongAiden/news-classification/internal/scheduler"
)

// trackingLogName is the tracking log file inside the work directory.
const trackingLogName = "job_tracking.jsonl"

// pipeline bundles the collaborators a scheduling command needs.
type pipeline struct {
	service     *gemini.Client
	tracking    *scheduler.TrackingLog
	submitter   *scheduler.Submitter
	coordinator *scheduler.Coordinator
}

func (p *pipeline) Close() error {
	return p.tracking.Close()
}

// newService builds the batch API client from configuration.
func newService(cfg *config.Config) (*gemini.Client, error) {
	if cfg.Service.APIKey == "" {
		return nil, fmt.Errorf("no API key configured, set %s or service.api_key", config.EnvAPIKey)
	}

	opts := []gemini.Option{gemini.WithLogger(logger)}
	if cfg.Service.BaseURL != "" {
		opts = append(opts, gemini.WithBaseURL(cfg.Service.BaseURL))
	}
	return gemini.NewClient(cfg.Service.APIKey, cfg.Service.Model, opts...), nil
}

// trackingPath returns the tracking log location under the work directory.
func trackingPath(cfg *config.Config) string {
	return filepath.Join(cfg.WorkDir, trackingLogName)
}

// newPipeline wires the full submit/monitor/reconcile stack. The caller must
// Close the returned pipeline.
func newPipeline(cfg *config.Config) (*pipeline, error) {
	service, err := newService(cfg)
	if err != nil {
		return nil, err
	}

	tracking, err := scheduler.OpenTrackingLog(trackingPath(cfg))
	if err != nil {
		return nil, err
	}

	submitter := scheduler.NewSubmitter(
		service, tracking, cfg.WorkDir, cfg.Service.Model, cfg.Scheduler.MaxRetries, logger)
	monitor := scheduler.NewMonitor(service, logger)
	reconciler := scheduler.NewReconciler(service, logger)

	return &pipeline{
		service:   service,
		tracking:  tracking,
		submitter: submitter,
		coordinator: scheduler.NewCoordinator(
			cfg.Scheduler, submitter, monitor, reconciler, logger),
	}, nil
}

// resultsPath returns where a run's reconciled outcomes are written.
func resultsPath(cfg *config.Config, runID string) string {
	return filepath.Join(cfg.WorkDir, "results_"+runID+".json")
}

// writeReport persists the run report next to the run's other artifacts.
func writeReport(cfg *config.Config, report *scheduler.RunReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding run report: %w", err)
	}

	path := resultsPath(cfg, report.RunID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing run report: %w", err)
	}
	return path, nil
}

// resolveRunID returns the requested run ID, or the most recently submitted
// run in the tracking log when the flag was left empty.
func resolveRunID(tracking *scheduler.TrackingLog, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}

	entries := tracking.Entries()
	if len(entries) == 0 {
		return "", errors.New("tracking log is empty, nothing to inspect")
	}
	return entries[len(entries)-1].RunID, nil
}
