package scheduler

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TrackingEntry is one durable record of a submitted batch job. Entries are
// appended before the submitter reports success, so every job the service
// may be running is discoverable after a crash.
type TrackingEntry struct {
	RunID         string    `json:"runId"`
	WaveIndex     int       `json:"waveIndex"`
	SubBatchIndex int       `json:"subBatchIndex"`
	BatchName     string    `json:"batchName"`
	JobID         string    `json:"jobId"`
	ItemCount     int       `json:"itemCount"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// ErrTrackingClosed is returned when appending to a closed log.
var ErrTrackingClosed = errors.New("tracking log is closed")

// TrackingLog is an append-only JSONL journal of submitted jobs. It is safe
// for concurrent use; each Append is a single write followed by a sync so a
// crash never loses an acknowledged entry.
type TrackingLog struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	entries []TrackingEntry
}

// OpenTrackingLog opens (creating if needed) the tracking log at path and
// loads any entries from previous runs.
func OpenTrackingLog(path string) (*TrackingLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating tracking log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening tracking log: %w", err)
	}

	log := &TrackingLog{path: path, file: file}
	if err := log.load(); err != nil {
		file.Close()
		return nil, err
	}
	return log, nil
}

func (l *TrackingLog) load() error {
	scanner := bufio.NewScanner(l.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var entry TrackingEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("parsing tracking log %s line %d: %w", l.path, line, err)
		}
		l.entries = append(l.entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading tracking log %s: %w", l.path, err)
	}
	return nil
}

// Append durably records a submitted job. The entry is synced to disk before
// Append returns.
func (l *TrackingLog) Append(entry TrackingEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return ErrTrackingClosed
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding tracking entry: %w", err)
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing tracking entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("syncing tracking log: %w", err)
	}

	l.entries = append(l.entries, entry)
	return nil
}

// Entries returns a copy of every recorded entry in append order.
func (l *TrackingLog) Entries() []TrackingEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]TrackingEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// EntriesForRun returns the entries recorded under runID in append order.
func (l *TrackingLog) EntriesForRun(runID string) []TrackingEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []TrackingEntry
	for _, e := range l.entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the entry for the given run, wave, and sub-batch, if one was
// recorded. Used on resume to reattach to already-submitted jobs instead of
// submitting duplicates.
func (l *TrackingLog) Find(runID string, waveIndex, subBatchIndex int) (TrackingEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if e.RunID == runID && e.WaveIndex == waveIndex && e.SubBatchIndex == subBatchIndex {
			return e, true
		}
	}
	return TrackingEntry{}, false
}

// Close releases the underlying file. Further appends fail with
// ErrTrackingClosed.
func (l *TrackingLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// SaveMapping persists the positional request-key to item-ID mapping for one
// sub-batch. The mapping is written before the sub-batch is submitted so
// results can be reconciled even if the process dies mid-wave.
func SaveMapping(workDir, batchName string, mapping map[string]string) (string, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}

	path := filepath.Join(workDir, batchName+"_mapping.json")
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding mapping: %w", err)
	}

	// Write-then-rename keeps a half-written mapping from shadowing a good
	// one on crash.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing mapping file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("renaming mapping file: %w", err)
	}
	return path, nil
}

// LoadMapping reads a previously saved request-key mapping.
func LoadMapping(workDir, batchName string) (map[string]string, error) {
	path := filepath.Join(workDir, batchName+"_mapping.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping file: %w", err)
	}

	mapping := make(map[string]string)
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("parsing mapping file %s: %w", path, err)
	}
	return mapping, nil
}
