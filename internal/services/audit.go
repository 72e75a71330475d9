// Package services – AuditRecorder
//
// This file implements the audit recorder, which turns a mutation into one
// immutable ledger row: actor, action, entity reference, a name snapshot,
// an optional before/after diff, and request metadata. Failures to write
// are wrapped in ErrAuditWriteFailed and, by policy, never abort or roll
// back the mutation that was being recorded; losing one ledger entry is
// less harmful than blocking a committed user action.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tmarkou/go-lab-backend/internal/domain"
	"github.com/tmarkou/go-lab-backend/internal/repo"
)

// Change is one field's before/after pair in an audit diff.
type Change struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// AuditEntry is everything the recorder needs to persist one ledger row.
type AuditEntry struct {
	ActorID    string
	Action     string // one of the domain.AuditAction* constants
	EntityType domain.EntityType
	EntityID   string
	// EntityName is the display-name snapshot taken before the mutation.
	EntityName string
	LabID      *string
	// Metadata carries request context: caller address, client id, and
	// for deletions the soft/hard flag.
	Metadata map[string]any
	// Changes is an optional field→{before,after} diff.
	Changes map[string]Change
}

// AuditRecorder persists audit entries. It exposes no update or delete
// operations, preserving non-repudiation by construction.
type AuditRecorder struct {
	// DB is the database handle used for ledger writes.
	DB *gorm.DB
}

// Record persists one immutable audit row and returns it.
//
// Errors are wrapped in ErrAuditWriteFailed so callers can detect the
// non-fatal class with errors.Is and log-and-proceed.
func (r *AuditRecorder) Record(ctx context.Context, e AuditEntry) (*domain.AuditRecord, error) {
	rec := &domain.AuditRecord{
		ID:         uuid.NewString(),
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: string(e.EntityType),
		EntityID:   e.EntityID,
		EntityName: e.EntityName,
		LabID:      e.LabID,
		CreatedAt:  time.Now().UTC(),
	}

	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%w: encode metadata: %v", ErrAuditWriteFailed, err)
		}
		rec.Metadata = datatypes.JSON(b)
	}
	if len(e.Changes) > 0 {
		b, err := json.Marshal(e.Changes)
		if err != nil {
			return nil, fmt.Errorf("%w: encode changes: %v", ErrAuditWriteFailed, err)
		}
		rec.Changes = datatypes.JSON(b)
	}

	if err := repo.CreateAuditRecord(ctx, r.DB, rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
	}
	return rec, nil
}

// List returns a page of ledger rows matching the filter, newest first,
// together with the total for pagination metadata.
func (r *AuditRecorder) List(ctx context.Context, f repo.AuditFilter, page, pageSize int) ([]domain.AuditRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountAuditRecords(ctx, r.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.AuditRecord{}, 0, nil
	}
	items, err := repo.ListAuditRecordsPage(ctx, r.DB, f, (page-1)*pageSize, pageSize)
	return items, total, err
}
