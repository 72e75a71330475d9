// Package services defines the business logic of the deletion, archive,
// audit, and rate-limiting subsystems. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

var (
	// ErrEntityNotFound indicates that the referenced entity does not exist
	// (or, for live-only operations, is soft-deleted and therefore hidden).
	ErrEntityNotFound = errors.New("entity not found")

	// ErrNotSoftDeleted is returned when a restore or purge targets an
	// entity that is not currently in the soft-deleted state. Purging a
	// live entity is intentionally impossible: the two-phase delete
	// discipline requires a soft delete first.
	ErrNotSoftDeleted = errors.New("entity is not soft-deleted")

	// ErrUnsupportedEntityType is returned when an operation names an
	// entity type with no registered policy. This is a wiring defect in
	// the caller, never an expected runtime condition.
	ErrUnsupportedEntityType = errors.New("unsupported entity type")

	// ErrAuditWriteFailed wraps failures to persist an audit record. By
	// policy this error never rolls back or fails the primary mutation;
	// callers log it and proceed.
	ErrAuditWriteFailed = errors.New("audit write failed")
)
