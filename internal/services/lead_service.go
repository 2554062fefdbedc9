// Package services – LeadService
//
// This file implements the LeadService, the idempotent persistence engine
// for incoming webhook submissions. It normalizes the payload, derives the
// dedupe key, and performs the create-or-fetch dance: attempt the insert,
// and on a unique-constraint conflict resolve to the pre-existing row. The
// unique index on leads.dedupe_key is the sole synchronization primitive;
// two concurrent deliveries of the same submission are resolved here rather
// than crashing the request.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/repo"
)

// LeadInput is a webhook submission handed over by the transport layer.
// Email validity and name presence are enforced there; this service trims
// and lower-cases but does not re-validate.
type LeadInput struct {
	Name      string
	Email     string
	Phone     *string
	Interests []string
	Message   *string
}

// LeadRepo defines the repository contract required by LeadService.
type LeadRepo interface {
	// CreateLead inserts a new lead row; repo.ErrDuplicateLead on conflict.
	CreateLead(ctx context.Context, db *gorm.DB, l *domain.Lead) error

	// GetLeadByDedupeKey fetches the row holding the given dedupe key.
	GetLeadByDedupeKey(ctx context.Context, db *gorm.DB, key string) (*domain.Lead, error)

	// LatestLeadByEmail returns the newest row for a normalized email.
	LatestLeadByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Lead, error)

	// CountLeads returns the total number of leads for pagination.
	CountLeads(ctx context.Context, db *gorm.DB) (int64, error)

	// ListLeadsPage returns a page of leads, most recent first.
	ListLeadsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Lead, error)
}

// LeadService persists webhook submissions idempotently.
type LeadService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the lead repository used by this service.
	Repo LeadRepo
	// Now supplies the submission timestamp; defaults to time.Now. The UTC
	// calendar date of this instant feeds the dedupe key.
	Now func() time.Time
}

// NewLeadService constructs a LeadService bound to db and repo.
func NewLeadService(db *gorm.DB, r LeadRepo) *LeadService {
	return &LeadService{DB: db, Repo: r, Now: time.Now}
}

// CreateOrGet persists a lead if it is new; if the same submission (per
// dedupe key) arrives again, it returns the existing record instead.
//
// Returns (lead, created, err). created is true only for the call that
// actually inserted the row; concurrent or retried deliveries observe
// created=false with the same record.
func (s *LeadService) CreateOrGet(ctx context.Context, in LeadInput) (*domain.Lead, bool, error) {
	now := s.now()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	key := domain.DedupeKey(email, name, now)

	lead := &domain.Lead{
		Name:      name,
		Email:     email,
		Phone:     trimOptional(in.Phone),
		Message:   trimOptional(in.Message),
		DedupeKey: key,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	lead.SetInterests(trimAll(in.Interests))

	err := s.Repo.CreateLead(ctx, s.DB, lead)
	if err == nil {
		log.Info().Uint("lead_id", lead.ID).Msg("lead_created")
		return lead, true, nil
	}
	if !errors.Is(err, repo.ErrDuplicateLead) {
		return nil, false, err
	}

	// Unique constraint hit: fetch the existing row and return it.
	existing, lookupErr := s.Repo.GetLeadByDedupeKey(ctx, s.DB, key)
	if lookupErr == nil {
		log.Info().Uint("lead_id", existing.ID).Msg("lead_duplicate_returning_existing")
		return existing, false, nil
	}
	if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
		return nil, false, lookupErr
	}

	// Extremely rare edge case: unique error but no row found by key. Fall
	// back to the newest row for the email. Diagnostic safety net only; if
	// this fires, the store lost a row mid-flight.
	fallback, fbErr := s.Repo.LatestLeadByEmail(ctx, s.DB, email)
	if fbErr == nil {
		log.Warn().Uint("lead_id", fallback.ID).Msg("lead_duplicate_fallback_by_email")
		return fallback, false, nil
	}
	if !errors.Is(fbErr, gorm.ErrRecordNotFound) {
		return nil, false, fbErr
	}

	log.Error().Str("dedupe_key", key).Msg("lead_conflict_unresolved")
	return nil, false, ErrLeadConflictUnresolved
}

// ListPage returns a page of stored leads (most recent first) and the total
// count. It applies defaults for invalid page/pageSize.
func (s *LeadService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Lead, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountLeads(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Lead{}, 0, nil
	}

	items, err := s.Repo.ListLeadsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

func (s *LeadService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// trimOptional trims an optional string, mapping blank values to nil.
func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

// trimAll trims every element, preserving order and element count.
func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
