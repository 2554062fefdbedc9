// Package services – SyncService
//
// This file implements the sync orchestrator: the best-effort mirror of a
// newly persisted lead into the external task tracker. It builds the parent
// task, creates the configured checklist of subtasks in order, and writes
// the resulting external identifiers back onto the same lead row.
//
// The lead is already durably stored when this runs, so nothing here is
// allowed to escape as an error: every failure is recorded as a log event
// and a metric and then swallowed. A lead whose sync columns stay NULL is a
// valid terminal state.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/clickup"
	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/repo"
)

// SyncOutcome is the deterministic result of one sync run. It is the
// orchestrator's only output: callers may branch or count on it, but never
// receive an error.
type SyncOutcome string

const (
	// SyncSkipped: nothing to do (duplicate delivery, or unconfigured client).
	SyncSkipped SyncOutcome = "skipped"
	// SyncSucceeded: parent and subtasks created, references written back.
	SyncSucceeded SyncOutcome = "succeeded"
	// SyncRetriesExhausted: the tracker stayed unreachable or transiently
	// failing past the retry budget.
	SyncRetriesExhausted SyncOutcome = "failed_retries_exhausted"
	// SyncRejected: the tracker rejected a call outright (non-retryable),
	// or an unexpected local failure ended the run.
	SyncRejected SyncOutcome = "failed_non_retryable"
)

// syncOutcomes counts sync runs by outcome. Skipped duplicate deliveries are
// not counted; configured-but-skipped runs are.
var syncOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "lead_sync_total",
		Help: "Total lead sync runs by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(syncOutcomes)
}

// defaultSubtasks is the checklist applied when SUBTASKS is unset.
var defaultSubtasks = []string{
	"Contact lead (24h)",
	"Send info",
	"Propose 3 slots",
	"Schedule intro meeting",
}

// firstSubtaskDue is how far out the first checklist item is due.
const firstSubtaskDue = 24 * time.Hour

// TaskCreator is the narrow contract the orchestrator needs from the
// external task client.
type TaskCreator interface {
	// Configured reports whether the client can reach the tracker at all.
	Configured() bool
	// CreateTask creates one task, optionally under a parent.
	CreateTask(ctx context.Context, in clickup.CreateTaskInput) (clickup.Task, error)
}

// SyncService mirrors newly created leads into the external task tracker.
type SyncService struct {
	// DB is the same GORM handle the lead was created through; the write-back
	// targets the exact row persisted within this request's lifetime.
	DB *gorm.DB
	// Client performs the remote task creation calls.
	Client TaskCreator
	// Subtasks overrides the checklist titles; empty applies defaultSubtasks.
	Subtasks []string
	// Now supplies the base time for the first subtask's due date.
	Now func() time.Time
}

// NewSyncService constructs a SyncService.
func NewSyncService(db *gorm.DB, client TaskCreator, subtasks []string) *SyncService {
	return &SyncService{DB: db, Client: client, Subtasks: subtasks, Now: time.Now}
}

// SyncIfNew mirrors the lead into the external tracker when created is true.
// Duplicate deliveries (created=false) are a silent no-op.
//
// All failures are swallowed by design: the webhook response must report the
// persistence half of the job regardless of what the tracker does.
func (s *SyncService) SyncIfNew(ctx context.Context, lead *domain.Lead, created bool) SyncOutcome {
	if !created {
		return SyncSkipped
	}
	outcome := s.sync(ctx, lead)
	syncOutcomes.WithLabelValues(string(outcome)).Inc()
	return outcome
}

func (s *SyncService) sync(ctx context.Context, lead *domain.Lead) SyncOutcome {
	if s.Client == nil || !s.Client.Configured() {
		log.Info().Str("reason", "missing_token_or_list_id").Msg("sync_skipped")
		return SyncSkipped
	}

	parent, err := s.Client.CreateTask(ctx, clickup.CreateTaskInput{
		Name:        taskName(lead.Name),
		Description: taskDescription(lead),
	})
	if err != nil {
		return s.recordFailure(lead, "parent", err)
	}
	if parent.Skipped {
		// Defensive re-check; the client lost its configuration mid-run.
		log.Info().Str("reason", "missing_token_or_list_id").Msg("sync_skipped")
		return SyncSkipped
	}
	log.Info().Uint("lead_id", lead.ID).Str("parent_id", parent.ID).Msg("sync_task_created")

	titles := s.Subtasks
	if len(titles) == 0 {
		titles = defaultSubtasks
	}

	subIDs := make([]string, 0, len(titles))
	for i, title := range titles {
		in := clickup.CreateTaskInput{Name: title, ParentID: parent.ID}
		if i == 0 {
			// Only the first checklist item gets a due date: contact the
			// lead within a day, the rest follows at the team's pace.
			due := s.now().Add(firstSubtaskDue).UTC().UnixMilli()
			in.DueDateMS = &due
		}
		sub, err := s.Client.CreateTask(ctx, in)
		if err != nil {
			return s.recordFailure(lead, "subtask", err)
		}
		subIDs = append(subIDs, sub.ID)
		log.Info().
			Uint("lead_id", lead.ID).
			Str("parent_id", parent.ID).
			Str("subtask_id", sub.ID).
			Str("title", title).
			Msg("sync_subtask_created")
	}

	if lead.ID == 0 {
		// No persisted row to hang the references on; tasks exist remotely
		// but there is nothing safe to update locally.
		log.Warn().Msg("sync_persist_refs_no_row")
		return SyncRejected
	}

	refs := domain.ExternalRefs{
		TaskID:     parent.ID,
		SubtaskIDs: subIDs,
		TaskURL:    parent.URL,
		StatusCode: parent.StatusCode,
	}
	if err := repo.UpdateLeadExternalRefs(ctx, s.DB, lead.ID, refs); err != nil {
		log.Error().Uint("lead_id", lead.ID).Err(err).Msg("sync_persist_refs_failed")
		return SyncRejected
	}

	lead.ExternalTaskID = &refs.TaskID
	lead.SetExternalSubtaskIDs(subIDs)
	lead.ExternalTaskURL = &refs.TaskURL
	lead.StatusAPI = &refs.StatusCode

	log.Info().
		Uint("lead_id", lead.ID).
		Str("parent_id", parent.ID).
		Int("subtasks", len(subIDs)).
		Msg("sync_persisted_refs")
	return SyncSucceeded
}

// recordFailure logs a client failure and maps it to an outcome.
func (s *SyncService) recordFailure(lead *domain.Lead, stage string, err error) SyncOutcome {
	var ce *clickup.Error
	if errors.As(err, &ce) && ce.Permanent {
		log.Error().Uint("lead_id", lead.ID).Str("stage", stage).Err(err).Msg("sync_rejected")
		return SyncRejected
	}
	log.Error().Uint("lead_id", lead.ID).Str("stage", stage).Err(err).Msg("sync_failed")
	return SyncRetriesExhausted
}

func (s *SyncService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// taskName builds the parent task name from the lead's name, title-cased so
// hastily typed form submissions read cleanly on the board.
func taskName(name string) string {
	return "New lead: " + cases.Title(language.Und, cases.NoLower).String(name)
}

// taskDescription renders the human-readable summary embedded in the parent
// task. Optional fields fall back to a "-" placeholder.
func taskDescription(lead *domain.Lead) string {
	interests := "-"
	if tags := lead.Interests(); len(tags) > 0 {
		interests = strings.Join(tags, ", ")
	}
	return fmt.Sprintf(
		"**Name:** %s\n**Email:** %s\n**Phone:** %s\n**Interests:** %s\n**Message:** %s\n",
		lead.Name,
		lead.Email,
		orPlaceholder(lead.Phone),
		interests,
		orPlaceholder(lead.Message),
	)
}

func orPlaceholder(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
