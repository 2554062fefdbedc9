// Package domain – dedupe key derivation.
//
// Webhook channels redeliver: the form provider retries on timeouts, users
// double-submit, and load balancers replay. The dedupe key collapses all
// deliveries of the same logical lead within one UTC calendar day into a
// single row, enforced by the UNIQUE index on leads.dedupe_key.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// DedupeKey returns the deterministic digest used as the uniqueness
// constraint for a submission: hex SHA-256 over the lower-cased trimmed
// email, the UTC calendar date (YYYYMMDD) of at, and the trimmed name,
// joined with "|".
//
// Two submissions with the same normalized email and name on the same UTC
// day always produce the same key; a new day produces a new key, so the same
// person submitting again tomorrow is a new lead.
func DedupeKey(email, name string, at time.Time) string {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	raw := email + "|" + at.UTC().Format("20060102") + "|" + name
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
