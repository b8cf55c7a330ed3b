// Package gemini implements the HTTP client for the asynchronous batch job
// service. It is the only package that speaks the service's wire format:
// requests go up as JSONL, job states come back as JOB_STATE_* strings, and
// output records are decoded into typed variants at this boundary so the
// scheduler never branches on raw service JSON.
package gemini

import "time"

// JobState is the lifecycle state of one batch job, as reported by the
// service. The scheduler only ever observes these states; it never sets them.
type JobState string

// Job states. Succeeded, Failed, and Cancelled are terminal.
const (
	StatePending   JobState = "JOB_STATE_PENDING"
	StateRunning   JobState = "JOB_STATE_RUNNING"
	StateSucceeded JobState = "JOB_STATE_SUCCEEDED"
	StateFailed    JobState = "JOB_STATE_FAILED"
	StateCancelled JobState = "JOB_STATE_CANCELLED"
	StateUnknown   JobState = "JOB_STATE_UNSPECIFIED"
)

// Terminal reports whether no further state transition can occur.
func (s JobState) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// ParseJobState maps a service state string onto the known set, defaulting to
// StateUnknown for anything unrecognized.
func ParseJobState(s string) JobState {
	switch JobState(s) {
	case StatePending, StateRunning, StateSucceeded, StateFailed, StateCancelled:
		return JobState(s)
	default:
		return StateUnknown
	}
}

// JobInfo identifies a created batch job.
type JobInfo struct {
	// ID is the service-assigned opaque job name.
	ID string

	// State is the state observed at creation time.
	State JobState
}

// JobStatus is a point-in-time snapshot of one job.
type JobStatus struct {
	ID             string
	State          JobState
	CompletedCount int
	TotalCount     int
	CreateTime     time.Time
	UpdateTime     time.Time
}

// OutputRecord is one decoded line of a completed job's output. Exactly one
// of Payload and Err is set: Payload carries the model's JSON text for the
// request key, Err carries the service-reported failure for that request.
type OutputRecord struct {
	// Key is the request key (custom id) the caller attached at submission.
	Key string

	// Payload is the model's raw JSON output for this request.
	Payload []byte

	// Err is the service-side error message, when the request failed.
	Err string
}
