package clickup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tbourn/go-leads-backend/internal/config"
)

// fastClient returns a configured client pointed at url with no real backoff.
func fastClient(url string) *Client {
	c := New(config.ClickUpConfig{
		Token:         "pk_test",
		ListID:        "901100",
		DefaultStatus: "Open",
		Timeout:       2 * time.Second,
		MaxRetries:    3,
	})
	c.BaseURL = url
	c.Backoff = []time.Duration{0}
	return c
}

func TestCreateTask_UnconfiguredSkipsNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := New(config.ClickUpConfig{Token: "", ListID: "901100"})
	c.BaseURL = srv.URL

	task, err := c.CreateTask(context.Background(), CreateTaskInput{Name: "n"})
	if err != nil {
		t.Fatalf("unconfigured CreateTask should not error: %v", err)
	}
	if !task.Skipped {
		t.Fatalf("expected sentinel Skipped result, got %+v", task)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("unconfigured client must not attempt network I/O")
	}
	if c.Configured() {
		t.Fatalf("Configured() should be false without a token")
	}
}

func TestCreateTask_SuccessPayloadAndHeaders(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"abc123","url":"https://app.clickup.com/t/abc123"}`))
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	due := int64(1700000000000)
	task, err := c.CreateTask(context.Background(), CreateTaskInput{
		Name:        "New lead: Roman Riquelme",
		Description: "details",
		DueDateMS:   &due,
		ParentID:    "parent-1",
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if task.ID != "abc123" || task.URL != "https://app.clickup.com/t/abc123" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.StatusCode != http.StatusOK || task.Skipped {
		t.Fatalf("unexpected task meta: %+v", task)
	}
	if gotPath != "/list/901100/task" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotAuth != "pk_test" {
		t.Fatalf("token must be sent verbatim (no Bearer prefix), got %q", gotAuth)
	}
	if gotPayload["name"] != "New lead: Roman Riquelme" ||
		gotPayload["description"] != "details" ||
		gotPayload["parent"] != "parent-1" ||
		gotPayload["status"] != "Open" {
		t.Fatalf("unexpected payload: %v", gotPayload)
	}
	if ms, ok := gotPayload["due_date"].(float64); !ok || int64(ms) != due {
		t.Fatalf("due_date not sent as epoch ms: %v", gotPayload["due_date"])
	}
}

func TestCreateTask_OmitsOptionalFields(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"t1"}`))
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	c.DefaultStatus = ""
	if _, err := c.CreateTask(context.Background(), CreateTaskInput{Name: "only name"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	for _, k := range []string{"description", "due_date", "parent", "status"} {
		if _, ok := gotPayload[k]; ok {
			t.Fatalf("optional field %q should be omitted: %v", k, gotPayload)
		}
	}
}

func TestCreateTask_RetriesThenSucceeds(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"after-retries"}`))
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	task, err := c.CreateTask(context.Background(), CreateTaskInput{Name: "n"})
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if task.ID != "after-retries" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", got)
	}
}

func TestCreateTask_RetriesOn429(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"ok"}`))
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	if _, err := c.CreateTask(context.Background(), CreateTaskInput{Name: "n"}); err != nil {
		t.Fatalf("429 should be retried: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestCreateTask_NonRetryable4xxAbortsImmediately(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"err":"Status not found"}`))
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	_, err := c.CreateTask(context.Background(), CreateTaskInput{Name: "n"})

	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !ce.Permanent || ce.LastStatus != http.StatusBadRequest || ce.Attempts != 1 {
		t.Fatalf("unexpected error detail: %+v", ce)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("non-retryable 4xx must not be retried")
	}
}

func TestCreateTask_ExhaustionCarriesAttemptsAndStatus(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	_, err := c.CreateTask(context.Background(), CreateTaskInput{Name: "n"})

	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ce.Permanent {
		t.Fatalf("exhaustion is not a permanent rejection: %+v", ce)
	}
	if ce.Attempts != 3 || ce.LastStatus != http.StatusServiceUnavailable {
		t.Fatalf("unexpected error detail: %+v", ce)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
}

func TestBackoffFor_CapsAtLastEntry(t *testing.T) {
	c := &Client{Backoff: []time.Duration{time.Second, 2 * time.Second}}
	if got := c.backoffFor(1); got != time.Second {
		t.Fatalf("attempt 1: %v", got)
	}
	if got := c.backoffFor(2); got != 2*time.Second {
		t.Fatalf("attempt 2: %v", got)
	}
	if got := c.backoffFor(7); got != 2*time.Second {
		t.Fatalf("attempts beyond the schedule reuse its last entry, got %v", got)
	}
}

func TestCreateTask_ContextCancelDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	c.Backoff = []time.Duration{time.Hour} // cancellation must cut this short

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.CreateTask(ctx, CreateTaskInput{Name: "n"})
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !errors.Is(ce.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", ce.Err)
	}
}
