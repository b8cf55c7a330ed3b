package scheduler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(runID string, wave, subBatch int) TrackingEntry {
	return TrackingEntry{
		RunID:         runID,
		WaveIndex:     wave,
		SubBatchIndex: subBatch,
		BatchName:     BatchName(runID, wave, subBatch),
		JobID:         "batches/job-" + BatchName(runID, wave, subBatch),
		ItemCount:     5,
		SubmittedAt:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestTrackingLog(t *testing.T) {
	t.Run("entries survive reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "job_tracking.jsonl")

		log, err := OpenTrackingLog(path)
		require.NoError(t, err)
		require.NoError(t, log.Append(testEntry("run-a", 0, 0)))
		require.NoError(t, log.Append(testEntry("run-a", 0, 1)))
		require.NoError(t, log.Close())

		reopened, err := OpenTrackingLog(path)
		require.NoError(t, err)
		defer reopened.Close()

		entries := reopened.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, testEntry("run-a", 0, 0), entries[0])
		assert.Equal(t, testEntry("run-a", 0, 1), entries[1])
	})

	t.Run("find locates a sub-batch by coordinates", func(t *testing.T) {
		log, err := OpenTrackingLog(filepath.Join(t.TempDir(), "t.jsonl"))
		require.NoError(t, err)
		defer log.Close()

		require.NoError(t, log.Append(testEntry("run-a", 0, 0)))
		require.NoError(t, log.Append(testEntry("run-a", 1, 2)))

		entry, ok := log.Find("run-a", 1, 2)
		require.True(t, ok)
		assert.Equal(t, BatchName("run-a", 1, 2), entry.BatchName)

		_, ok = log.Find("run-a", 2, 0)
		assert.False(t, ok)
		_, ok = log.Find("run-b", 0, 0)
		assert.False(t, ok)
	})

	t.Run("entries for run filters other runs", func(t *testing.T) {
		log, err := OpenTrackingLog(filepath.Join(t.TempDir(), "t.jsonl"))
		require.NoError(t, err)
		defer log.Close()

		require.NoError(t, log.Append(testEntry("run-a", 0, 0)))
		require.NoError(t, log.Append(testEntry("run-b", 0, 0)))
		require.NoError(t, log.Append(testEntry("run-a", 1, 0)))

		entries := log.EntriesForRun("run-a")
		require.Len(t, entries, 2)
		assert.Equal(t, 0, entries[0].WaveIndex)
		assert.Equal(t, 1, entries[1].WaveIndex)
	})

	t.Run("append after close fails", func(t *testing.T) {
		log, err := OpenTrackingLog(filepath.Join(t.TempDir(), "t.jsonl"))
		require.NoError(t, err)
		require.NoError(t, log.Close())

		require.ErrorIs(t, log.Append(testEntry("run-a", 0, 0)), ErrTrackingClosed)
	})
}

func TestMappingFiles(t *testing.T) {
	t.Run("mapping round trip", func(t *testing.T) {
		dir := t.TempDir()
		mapping := map[string]string{
			"request_0": "article-0",
			"request_1": "article-1",
		}

		path, err := SaveMapping(dir, "run_wave00_batch000", mapping)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "run_wave00_batch000_mapping.json"), path)

		loaded, err := LoadMapping(dir, "run_wave00_batch000")
		require.NoError(t, err)
		assert.Equal(t, mapping, loaded)
	})

	t.Run("missing mapping fails", func(t *testing.T) {
		_, err := LoadMapping(t.TempDir(), "nope")
		require.Error(t, err)
	})
}
