package scheduler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/LongAiden/news-classification/internal/gemini"
)

// fakeClock advances its time whenever a delay is requested, so polling and
// backoff loops run instantly under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// fakeService is an in-memory JobService. Unconfigured jobs succeed on first
// poll and echo outputs synthesized from their uploaded request lines.
type fakeService struct {
	mu            sync.Mutex
	createErrs    []error            // consumed one per UploadAndCreateJob call
	createErrsFor map[string][]error // per-batch-name sequences, take precedence
	createCalls   int
	bodies      map[string][]byte             // jobID -> uploaded JSONL
	states      map[string][]gemini.JobStatus // per-job poll sequence, last repeats
	stateCalls  map[string]int
	stateErrs   map[string]error // consumed on first poll of that job
	outputs     map[string][]gemini.OutputRecord
	outputErrs  map[string]error
	events      []string // ordered log of creates and terminal polls
}

func newFakeService() *fakeService {
	return &fakeService{
		createErrsFor: make(map[string][]error),
		bodies:        make(map[string][]byte),
		states:        make(map[string][]gemini.JobStatus),
		stateCalls:    make(map[string]int),
		stateErrs:     make(map[string]error),
		outputs:       make(map[string][]gemini.OutputRecord),
		outputErrs:    make(map[string]error),
	}
}

func (f *fakeService) UploadAndCreateJob(_ context.Context, name string, body []byte) (gemini.JobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := f.createCalls
	f.createCalls++

	if seq, ok := f.createErrsFor[name]; ok && len(seq) > 0 {
		err := seq[0]
		f.createErrsFor[name] = seq[1:]
		if err != nil {
			return gemini.JobInfo{}, err
		}
	} else if call < len(f.createErrs) && f.createErrs[call] != nil {
		return gemini.JobInfo{}, f.createErrs[call]
	}

	jobID := "batches/" + name
	f.bodies[jobID] = body
	f.events = append(f.events, "create "+name)
	return gemini.JobInfo{ID: jobID, State: gemini.StatePending}, nil
}

func (f *fakeService) GetJobState(_ context.Context, jobID string) (gemini.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.stateErrs[jobID]; ok {
		delete(f.stateErrs, jobID)
		return gemini.JobStatus{}, err
	}

	seq := f.states[jobID]
	if len(seq) == 0 {
		seq = []gemini.JobStatus{{ID: jobID, State: gemini.StateSucceeded}}
	}
	i := f.stateCalls[jobID]
	f.stateCalls[jobID]++
	if i >= len(seq) {
		i = len(seq) - 1
	}

	status := seq[i]
	status.ID = jobID
	if status.State.Terminal() {
		f.events = append(f.events, "terminal "+jobID)
	}
	return status, nil
}

func (f *fakeService) DownloadJobOutput(_ context.Context, jobID string) ([]gemini.OutputRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.outputErrs[jobID]; ok {
		return nil, err
	}
	if records, ok := f.outputs[jobID]; ok {
		return records, nil
	}

	// Synthesize one valid result per uploaded request line.
	var records []gemini.OutputRecord
	scanner := bufio.NewScanner(bytes.NewReader(f.bodies[jobID]))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line struct {
			CustomID string `json:"custom_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return nil, fmt.Errorf("fake service: bad request line: %w", err)
		}
		records = append(records, gemini.OutputRecord{
			Key:     line.CustomID,
			Payload: []byte(`{"page_title":"t","is_news":"Yes","confident_score":7,"sentiment":"Neutral"}`),
		})
	}
	return records, nil
}

func (f *fakeService) eventLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

func quotaErr() error {
	return &gemini.ServiceError{Kind: gemini.ErrQuotaExceeded, StatusCode: 429, Detail: "enqueued tokens exhausted"}
}

func invalidErr() error {
	return &gemini.ServiceError{Kind: gemini.ErrInvalidRequest, StatusCode: 400, Detail: "bad request"}
}
