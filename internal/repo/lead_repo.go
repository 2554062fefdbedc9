// Package repo implements the data persistence layer for leads, backed by
// GORM. This file provides repository functions for the Lead model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a lead is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - CreateLead maps unique-index violations on dedupe_key to
//     ErrDuplicateLead; the service layer resolves those to the existing row.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicateLead indicates that a lead row already exists for the same
// dedupe key. This is the expected signal under retried or concurrent
// webhook deliveries, not a failure.
var ErrDuplicateLead = errors.New("duplicate lead")

// CreateLead inserts a new Lead row. CreatedAt/UpdatedAt are set to UTC when
// unset so tests and callers may pre-populate them.
//
// The insert relies entirely on the unique index over dedupe_key for
// concurrency control: when two deliveries of the same submission race, the
// store admits exactly one and this function reports ErrDuplicateLead for
// the loser.
func CreateLead(ctx context.Context, db *gorm.DB, l *domain.Lead) error {
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = now
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return ErrDuplicateLead
		}
		return err
	}
	return nil
}

// GetLeadByDedupeKey fetches the lead holding the given dedupe key, or
// ErrNotFound when no such row exists.
func GetLeadByDedupeKey(ctx context.Context, db *gorm.DB, key string) (*domain.Lead, error) {
	var l domain.Lead
	err := db.WithContext(ctx).
		Where("dedupe_key = ?", key).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// LatestLeadByEmail returns the most recently created lead for the given
// normalized email, or ErrNotFound. Used only as a diagnostic safety net when
// a duplicate insert cannot be resolved by dedupe key.
func LatestLeadByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Lead, error) {
	var l domain.Lead
	err := db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at desc").
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateLeadExternalRefs records the external tracker references on an
// already persisted lead in a single UPDATE. This is the second write phase
// of lead ingestion; skipping it entirely (sync never succeeded) leaves the
// row in a valid state. Returns ErrNotFound when the row no longer exists.
func UpdateLeadExternalRefs(ctx context.Context, db *gorm.DB, id uint, refs domain.ExternalRefs) error {
	res := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"external_task_id":     refs.TaskID,
			"external_subtask_ids": domain.EncodeStringList(refs.SubtaskIDs),
			"external_task_url":    refs.TaskURL,
			"status_api":           refs.StatusCode,
			"updated_at":           time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountLeads returns the total number of stored leads.
func CountLeads(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Count(&total).Error
	return total, err
}

// ListLeadsPage returns a page of leads ordered by creation time descending
// (most recent first). Use CountLeads to obtain the total for pagination
// metadata. The caller is responsible for computing offset and limit.
func ListLeadsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Lead, error) {
	var out []domain.Lead
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
