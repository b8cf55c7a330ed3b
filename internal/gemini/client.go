package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/LongAiden/news-classification/internal/logging"
)

// defaultBaseURL is the public batch API endpoint.
const defaultBaseURL = "https://generativelanguage.googleapis.com"

// maxResponseSize limits response bodies to prevent memory exhaustion when a
// job's output is pathologically large.
const maxResponseSize = 64 * 1024 * 1024 // 64MB

// Client talks to the batch job service over HTTPS.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithBaseURL overrides the service endpoint, used by tests and self-hosted
// proxies.
func WithBaseURL(url string) Option {
	return func(client *Client) {
		client.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a batch service client for the given model.
func NewClient(apiKey, model string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// uploadResponse is the service's reply to a file upload.
type uploadResponse struct {
	File struct {
		Name string `json:"name"`
		URI  string `json:"uri"`
	} `json:"file"`
}

// createJobResponse is the service's reply to batch job creation.
type createJobResponse struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// jobStatusResponse is the service's reply to a job status query.
type jobStatusResponse struct {
	Name           string `json:"name"`
	State          string `json:"state"`
	CompletedCount int    `json:"completedCount"`
	TotalCount     int    `json:"totalCount"`
	CreateTime     string `json:"createTime"`
	UpdateTime     string `json:"updateTime"`
}

// UploadAndCreateJob uploads the serialized JSONL request body and creates a
// batch job over it. The returned JobInfo carries the opaque job name the
// caller must persist before acting on it.
func (c *Client) UploadAndCreateJob(ctx context.Context, name string, body []byte) (JobInfo, error) {
	fileURI, err := c.uploadFile(ctx, name, body)
	if err != nil {
		return JobInfo{}, fmt.Errorf("upload batch file %s: %w", name, err)
	}

	payload, err := json.Marshal(map[string]any{
		"model":       "models/" + c.model,
		"displayName": name,
		"inputFile":   fileURI,
	})
	if err != nil {
		return JobInfo{}, fmt.Errorf("encode create-job request: %w", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, c.baseURL+"/v1beta/batches", "application/json", payload)
	if err != nil {
		return JobInfo{}, err
	}

	var created createJobResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return JobInfo{}, &ServiceError{Kind: ErrInvalidRequest, Detail: "unparsable create-job response: " + err.Error()}
	}
	if created.Name == "" {
		return JobInfo{}, &ServiceError{Kind: ErrInvalidRequest, Detail: "create-job response has no job name"}
	}

	c.logger.Info().
		Str("component", "gemini").
		Str("operation", "create_job").
		Str("batch_name", name).
		Str("job_id", created.Name).
		Int("body_bytes", len(body)).
		Msg("batch job created")

	return JobInfo{ID: created.Name, State: ParseJobState(created.State)}, nil
}

// GetJobState fetches a point-in-time status snapshot for one job.
func (c *Client) GetJobState(ctx context.Context, jobID string) (JobStatus, error) {
	respBody, err := c.do(ctx, http.MethodGet, c.jobURL(jobID), "", nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("get state of job %s: %w", jobID, err)
	}

	var status jobStatusResponse
	if err := json.Unmarshal(respBody, &status); err != nil {
		return JobStatus{}, &ServiceError{Kind: ErrInvalidRequest, Detail: "unparsable job status: " + err.Error()}
	}

	return JobStatus{
		ID:             jobID,
		State:          ParseJobState(status.State),
		CompletedCount: status.CompletedCount,
		TotalCount:     status.TotalCount,
		CreateTime:     parseTime(status.CreateTime),
		UpdateTime:     parseTime(status.UpdateTime),
	}, nil
}

// outputLine is one raw line of job output before decoding.
type outputLine struct {
	CustomID string `json:"custom_id"`
	Response *struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	} `json:"response"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// DownloadJobOutput fetches and decodes the JSONL output of a completed job.
// Record order is whatever the service produced; callers must not assume it
// matches submission order. Lines that cannot be parsed at all are skipped
// with a warning rather than failing the download.
func (c *Client) DownloadJobOutput(ctx context.Context, jobID string) ([]OutputRecord, error) {
	log := logging.FromContext(ctx)

	respBody, err := c.do(ctx, http.MethodGet, c.jobURL(jobID)+":output", "", nil)
	if err != nil {
		return nil, fmt.Errorf("download output of job %s: %w", jobID, err)
	}

	var records []OutputRecord
	scanner := bufio.NewScanner(bytes.NewReader(respBody))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var out outputLine
		if err := json.Unmarshal(line, &out); err != nil {
			log.Warn().
				Str("component", "gemini").
				Str("job_id", jobID).
				Err(err).
				Msg("skipping unparsable output line")
			continue
		}

		record := OutputRecord{Key: out.CustomID}
		switch {
		case out.Error != nil:
			record.Err = out.Error.Message
		case out.Response != nil && len(out.Response.Candidates) > 0 &&
			len(out.Response.Candidates[0].Content.Parts) > 0:
			record.Payload = []byte(out.Response.Candidates[0].Content.Parts[0].Text)
		default:
			record.Err = "empty response"
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan output of job %s: %w", jobID, err)
	}

	return records, nil
}

// uploadFile uploads the JSONL body and returns the service file URI.
func (c *Client) uploadFile(ctx context.Context, name string, body []byte) (string, error) {
	respBody, err := c.do(ctx, http.MethodPost, c.baseURL+"/upload/v1beta/files", "application/jsonl", body)
	if err != nil {
		return "", err
	}

	var uploaded uploadResponse
	if err := json.Unmarshal(respBody, &uploaded); err != nil {
		return "", &ServiceError{Kind: ErrInvalidRequest, Detail: "unparsable upload response: " + err.Error()}
	}
	if uploaded.File.URI == "" {
		return "", &ServiceError{Kind: ErrInvalidRequest, Detail: "upload response has no file uri"}
	}
	return uploaded.File.URI, nil
}

// do executes one HTTP round trip, classifying failures into the package
// error taxonomy. Network failures are transient; HTTP errors are classified
// by status code.
func (c *Client) do(ctx context.Context, method, url, contentType string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &ServiceError{Kind: ErrInvalidRequest, Detail: err.Error()}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, transientErr(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, transientErr(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// jobURL builds the status URL for a job name, which already includes its
// collection prefix (e.g. "batches/abc123").
func (c *Client) jobURL(jobID string) string {
	return c.baseURL + "/v1beta/" + jobID
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
