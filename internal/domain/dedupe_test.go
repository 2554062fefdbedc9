package domain

import (
	"strings"
	"testing"
	"time"
)

var dedupeDay = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func TestDedupeKey_Deterministic(t *testing.T) {
	a := DedupeKey("test1@example.com", "Roman Riquelme", dedupeDay)
	b := DedupeKey("test1@example.com", "Roman Riquelme", dedupeDay)
	if a != b {
		t.Fatalf("same inputs must yield same key: %s vs %s", a, b)
	}
	if len(a) != 64 || strings.ToLower(a) != a {
		t.Fatalf("key should be lowercase hex sha-256, got %q", a)
	}
}

func TestDedupeKey_NormalizesEmailAndName(t *testing.T) {
	base := DedupeKey("test1@example.com", "Roman Riquelme", dedupeDay)

	if got := DedupeKey("  TEST1@Example.COM ", "Roman Riquelme", dedupeDay); got != base {
		t.Fatalf("email case/whitespace must not change the key")
	}
	if got := DedupeKey("test1@example.com", "  Roman Riquelme  ", dedupeDay); got != base {
		t.Fatalf("name whitespace must not change the key")
	}
}

func TestDedupeKey_DifferentInputsDiffer(t *testing.T) {
	base := DedupeKey("test1@example.com", "Roman Riquelme", dedupeDay)

	if got := DedupeKey("test2@example.com", "Roman Riquelme", dedupeDay); got == base {
		t.Fatalf("different email must change the key")
	}
	if got := DedupeKey("test1@example.com", "Juan Riquelme", dedupeDay); got == base {
		t.Fatalf("different name must change the key")
	}
}

func TestDedupeKey_UTCDateBoundary(t *testing.T) {
	sameDay := DedupeKey("a@b.com", "A", dedupeDay.Add(8*time.Hour))
	if sameDay != DedupeKey("a@b.com", "A", dedupeDay) {
		t.Fatalf("same UTC day must yield same key")
	}

	nextDay := DedupeKey("a@b.com", "A", dedupeDay.Add(24*time.Hour))
	if nextDay == DedupeKey("a@b.com", "A", dedupeDay) {
		t.Fatalf("next UTC day must yield a new key")
	}

	// Local timezones must not leak into the date component.
	loc := time.FixedZone("UTC-10", -10*3600)
	local := dedupeDay.Add(2 * time.Hour).In(loc) // still the same UTC day
	if DedupeKey("a@b.com", "A", local) != DedupeKey("a@b.com", "A", dedupeDay) {
		t.Fatalf("key must be derived from the UTC calendar date")
	}
}
