// Package clickup wraps the ClickUp v2 API for creating tasks and subtasks.
//
// The client is deliberately small: lead ingestion only ever needs "create a
// task in the configured list, optionally under a parent". It authenticates
// with a personal token sent verbatim in the Authorization header (ClickUp
// personal tokens take no "Bearer" prefix) and retries transient failures
// with a fixed escalating backoff.
//
// A client without a token or list id is "unconfigured". CreateTask then
// returns a sentinel Task with Skipped set instead of touching the network;
// callers must check Skipped before treating the result as a real task.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-leads-backend/internal/config"
)

// DefaultBaseURL is the production ClickUp API endpoint.
const DefaultBaseURL = "https://api.clickup.com/api/v2"

// maxErrorBodyBytes caps how much of an error response body is kept for
// diagnostics.
const maxErrorBodyBytes = 2048

// DefaultBackoff is the escalating delay schedule applied between attempts.
// Attempts beyond the schedule's length reuse its last entry.
var DefaultBackoff = []time.Duration{500 * time.Millisecond, 2 * time.Second, 5 * time.Second}

// Task is the remote system's view of a created task. Only ID and URL are
// absorbed into the lead record; Raw keeps the payload echo for logging.
type Task struct {
	ID  string `json:"id"`
	URL string `json:"url"`

	// Skipped marks the sentinel result returned when the client is not
	// configured. No network I/O happened and ID/URL are empty.
	Skipped bool `json:"-"`
	// StatusCode is the HTTP status of the successful response.
	StatusCode int `json:"-"`
	// Raw is the undecoded response body.
	Raw json.RawMessage `json:"-"`
}

// CreateTaskInput describes one task creation call. A non-empty ParentID
// makes the remote system create the task as a subtask of that parent.
type CreateTaskInput struct {
	Name        string
	Description string
	DueDateMS   *int64
	ParentID    string
}

// Error is returned when a task creation call cannot be completed.
//
// Permanent marks non-retryable rejections (4xx other than 429): the call
// was aborted on the first such response. Otherwise the attempt budget was
// exhausted on transient failures and Attempts carries how many were made.
type Error struct {
	Attempts   int
	LastStatus int // last HTTP status observed; 0 for transport-level failures
	Permanent  bool
	Body       string // truncated response body, when any
	Err        error  // last underlying transport error, when any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("clickup: POST failed after %d attempt(s)", e.Attempts)
	if e.LastStatus != 0 {
		msg += fmt.Sprintf(" (last status %d)", e.LastStatus)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying transport error for errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// Client calls the ClickUp API. The zero value is unconfigured; use New.
// Fields are exported so tests can point BaseURL at a local server and
// shrink Backoff.
type Client struct {
	Token         string
	ListID        string
	DefaultStatus string

	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
	Backoff    []time.Duration
}

// New constructs a Client from configuration, applying defaults for the
// endpoint, per-attempt timeout, retry budget, and backoff schedule.
func New(cfg config.ClickUpConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 3
	}
	return &Client{
		Token:         cfg.Token,
		ListID:        cfg.ListID,
		DefaultStatus: cfg.DefaultStatus,
		BaseURL:       DefaultBaseURL,
		HTTPClient:    &http.Client{Timeout: timeout},
		MaxRetries:    retries,
		Backoff:       DefaultBackoff,
	}
}

// Configured reports whether the client holds both an auth token and a
// target list id. Unconfigured clients skip all network I/O.
func (c *Client) Configured() bool {
	return c.Token != "" && c.ListID != ""
}

// CreateTask creates a task in the configured list. When in.ParentID is set,
// ClickUp creates it as a subtask of that parent.
//
// Unconfigured clients return Task{Skipped: true} and a nil error. On a 2xx
// response the decoded task is returned immediately; transient failures
// (network errors, 429, 5xx) are retried per the backoff schedule and other
// 4xx responses abort at once. Exhaustion and aborts yield a *Error.
func (c *Client) CreateTask(ctx context.Context, in CreateTaskInput) (Task, error) {
	if !c.Configured() {
		log.Info().Str("reason", "missing_token_or_list_id").Msg("clickup_skipped")
		return Task{Skipped: true}, nil
	}

	payload := map[string]any{
		"name": in.Name,
	}
	if in.Description != "" {
		payload["description"] = in.Description
	}
	if in.DueDateMS != nil {
		payload["due_date"] = *in.DueDateMS
	}
	if in.ParentID != "" {
		payload["parent"] = in.ParentID
	}
	if c.DefaultStatus != "" {
		payload["status"] = c.DefaultStatus
	}

	url := fmt.Sprintf("%s/list/%s/task", c.BaseURL, c.ListID)
	return c.postWithRetries(ctx, url, payload)
}

// postWithRetries issues the POST with retry/backoff on network errors, 429,
// and 5xx responses. Any other 4xx aborts without retrying.
func (c *Client) postWithRetries(ctx context.Context, url string, payload map[string]any) (Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("clickup: encode payload: %w", err)
	}

	var (
		lastErr    error
		lastStatus int
		lastBody   string
	)

	for attempt := 1; attempt <= c.MaxRetries; attempt++ {
		task, status, respBody, err := c.post(ctx, url, body)
		switch {
		case err != nil:
			lastErr, lastStatus = err, 0
			log.Warn().
				Str("url", url).
				Int("attempt", attempt).
				Err(err).
				Msg("clickup_post_network_error")

		case status >= 200 && status < 300:
			log.Info().Str("url", url).Int("status", status).Msg("clickup_post_ok")
			return task, nil

		case status == http.StatusTooManyRequests || status >= 500:
			lastErr, lastStatus, lastBody = nil, status, respBody
			log.Warn().
				Str("url", url).
				Int("status", status).
				Int("attempt", attempt).
				Str("body", respBody).
				Msg("clickup_post_retryable_http_error")

		default:
			// Non-retryable 4xx: abort immediately.
			log.Error().
				Str("url", url).
				Int("status", status).
				Int("attempt", attempt).
				Str("body", respBody).
				Msg("clickup_post_http_error")
			return Task{}, &Error{
				Attempts:   attempt,
				LastStatus: status,
				Permanent:  true,
				Body:       respBody,
			}
		}

		if attempt < c.MaxRetries {
			if err := c.sleep(ctx, c.backoffFor(attempt)); err != nil {
				return Task{}, &Error{Attempts: attempt, LastStatus: lastStatus, Err: err}
			}
		}
	}

	return Task{}, &Error{
		Attempts:   c.MaxRetries,
		LastStatus: lastStatus,
		Body:       lastBody,
		Err:        lastErr,
	}
}

// post performs a single attempt. It returns the decoded task for 2xx
// responses; for non-2xx the truncated body is returned for diagnostics.
func (c *Client) post(ctx context.Context, url string, body []byte) (Task, int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Task{}, 0, "", err
	}
	// Personal token style: no 'Bearer' prefix.
	req.Header.Set("Authorization", c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Task{}, 0, "", err
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if readErr != nil {
			return Task{}, 0, "", readErr
		}
		task := Task{StatusCode: resp.StatusCode, Raw: raw}
		if err := json.Unmarshal(raw, &task); err != nil {
			// A 2xx with an undecodable body still carries no usable id;
			// surface it as a transport-level failure.
			return Task{}, 0, "", fmt.Errorf("decode response: %w", err)
		}
		return task, resp.StatusCode, "", nil
	}

	return Task{}, resp.StatusCode, truncate(string(raw), maxErrorBodyBytes), nil
}

// backoffFor returns the delay before the attempt following attempt n,
// capped at the schedule's last entry.
func (c *Client) backoffFor(attempt int) time.Duration {
	sched := c.Backoff
	if len(sched) == 0 {
		sched = DefaultBackoff
	}
	i := attempt - 1
	if i >= len(sched) {
		i = len(sched) - 1
	}
	return sched[i]
}

// sleep blocks for d or until ctx is done.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
