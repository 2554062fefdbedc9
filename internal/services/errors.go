// Package services defines the business logic for lead ingestion and
// external synchronization. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; mapping to
// HTTP status codes is performed at the handler layer.
package services

import "errors"

var (
	// ErrLeadConflictUnresolved indicates that the store reported a duplicate
	// dedupe key but neither the key lookup nor the fallback email lookup
	// found a row. It signals store corruption or a race the system cannot
	// reason about, and is the only persistence failure surfaced to callers.
	ErrLeadConflictUnresolved = errors.New("lead conflict could not be resolved")
)
