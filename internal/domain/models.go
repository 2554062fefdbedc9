// Package domain defines the persistence model for captured leads. The Lead
// type is mapped with GORM and forms the core data layer of the lead-intake
// application.
package domain

import (
	"encoding/json"
	"time"
)

// Lead represents a single captured form submission. A lead is created
// exactly once per dedupe key (first-writer-wins); the external sync columns
// start out NULL and are written at most once, after the ClickUp mirror
// succeeds. A lead whose sync columns are all NULL is a fully valid terminal
// state.
//
// Fields:
//   - ID: server-assigned autoincrement primary key.
//   - Name / Email / Phone / Message: submitted contact data. Email is
//     stored lower-cased and trimmed; Phone and Message are optional.
//   - InterestsJSON: ordered list of interest tags, serialized as JSON text
//     for SQLite portability. Use Interests/SetInterests rather than touching
//     the column directly.
//   - DedupeKey: deterministic digest (see DedupeKey) with a UNIQUE index;
//     the sole arbiter that collapses retried webhook deliveries into one row.
//   - ExternalTaskID / ExternalSubtaskIDsJSON / ExternalTaskURL / StatusAPI:
//     references into the external task tracker, NULL until a sync succeeds.
type Lead struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name          string  `json:"name"            gorm:"type:varchar(200);not null"`
	Email         string  `json:"email"           gorm:"type:varchar(320);not null;index:idx_leads_email"`
	Phone         *string `json:"phone,omitempty" gorm:"type:varchar(50)"`
	InterestsJSON string  `json:"-"               gorm:"column:interests;type:text;not null"`
	Message       *string `json:"message,omitempty" gorm:"type:text"`

	DedupeKey string `json:"-" gorm:"type:varchar(128);not null;uniqueIndex:ux_leads_dedupe_key"`

	ExternalTaskID         *string `json:"-" gorm:"type:varchar(64)"`
	ExternalSubtaskIDsJSON *string `json:"-" gorm:"column:external_subtask_ids;type:text"`
	ExternalTaskURL        *string `json:"-" gorm:"type:text"`
	StatusAPI              *int    `json:"-" gorm:"column:status_api"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }

// ExternalRefs carries the identifiers collected from the external task
// tracker back into the persistence layer for the second write phase.
// SubtaskIDs preserves creation order; entries may be empty strings when the
// remote response carried no id.
type ExternalRefs struct {
	TaskID     string
	SubtaskIDs []string
	TaskURL    string
	StatusCode int
}

// EncodeStringList serializes an ordered list of strings for storage in a
// TEXT column. A nil slice encodes as the empty JSON array so that NOT NULL
// columns always hold valid JSON.
func EncodeStringList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		// Marshalling []string cannot fail; keep the column valid regardless.
		return "[]"
	}
	return string(b)
}

// DecodeStringList parses a stored JSON array back into a list. Absent or
// invalid storage decodes to the empty list, never to nil or an error: a
// corrupt column must not take down reads of an otherwise valid lead.
func DecodeStringList(s string) []string {
	if s == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// Interests returns the ordered interest tags decoded from storage.
func (l *Lead) Interests() []string {
	return DecodeStringList(l.InterestsJSON)
}

// SetInterests stores the ordered interest tags, serializing at the storage
// boundary.
func (l *Lead) SetInterests(v []string) {
	l.InterestsJSON = EncodeStringList(v)
}

// ExternalSubtaskIDs returns the ordered external subtask identifiers, or an
// empty list when the lead has never been synced.
func (l *Lead) ExternalSubtaskIDs() []string {
	if l.ExternalSubtaskIDsJSON == nil {
		return []string{}
	}
	return DecodeStringList(*l.ExternalSubtaskIDsJSON)
}

// SetExternalSubtaskIDs stores the ordered external subtask identifiers.
func (l *Lead) SetExternalSubtaskIDs(v []string) {
	s := EncodeStringList(v)
	l.ExternalSubtaskIDsJSON = &s
}
