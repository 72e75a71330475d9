// Package services – DeletionService
//
// This file implements the deletion orchestrator, the single entry point
// route handlers call to destroy an entity. One call walks the full
// pipeline: rate-limit check (cheapest first), entity load plus dependency
// check, the soft or hard mutation per the deletion policy, then the audit
// record. The dependency check and the mutation run inside one transaction
// so no child can appear between the check and the delete.
//
// Client outcomes (rate limited, dependency blocked, not found) are
// returned in the DeleteResult, never as errors, so callers must handle
// each case explicitly; the error return is reserved for infrastructure
// failures where the mutation itself could not be performed.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tmarkou/go-lab-backend/internal/domain"
	"github.com/tmarkou/go-lab-backend/internal/repo"
)

// DeleteOutcome discriminates the result of a deletion attempt.
type DeleteOutcome string

const (
	// DeleteOK: the entity was deleted (softly or permanently).
	DeleteOK DeleteOutcome = "ok"
	// DeleteRateLimited: the actor exhausted the destructive-op window.
	DeleteRateLimited DeleteOutcome = "rate_limited"
	// DeleteBlocked: live child relations prevent the deletion.
	DeleteBlocked DeleteOutcome = "has_dependencies"
	// DeleteNotFound: no live entity matched.
	DeleteNotFound DeleteOutcome = "not_found"
)

// RequestMeta carries caller context into the audit trail.
type RequestMeta struct {
	// Address is the caller's network address.
	Address string
	// ClientID identifies the client software (user agent or similar).
	ClientID string
}

// DeleteResult is the discriminated outcome of one deletion attempt.
// Exactly the fields relevant to the Outcome are populated.
type DeleteResult struct {
	Outcome DeleteOutcome
	// Entity is the pre-deletion snapshot (id, name) for UI confirmation.
	Entity *domain.EntitySnapshot
	// SoftDeleted reports which mutation the policy selected.
	SoftDeleted bool
	// RetryAfter is set when Outcome is DeleteRateLimited.
	RetryAfter time.Duration
	// Dependencies holds the non-zero blocking counts when Outcome is
	// DeleteBlocked.
	Dependencies map[string]int64
	// Detail is a human-readable clause for blocked deletions, e.g.
	// "3 task(s), 2 comment(s)".
	Detail string
}

// DeletionService orchestrates destructive deletions. All collaborators
// are injected; the service is safe for concurrent use.
type DeletionService struct {
	DB       *gorm.DB
	Limiter  *OpWindowLimiter
	Checker  *DependencyChecker
	Recorder *AuditRecorder
	// Policy selects soft or hard deletion per entity type. Defaults to
	// DefaultDeletionPolicy via NewDeletionService.
	Policy map[domain.EntityType]DeleteMode
}

// NewDeletionService wires a DeletionService with default policy tables.
func NewDeletionService(db *gorm.DB, limiter *OpWindowLimiter) *DeletionService {
	return &DeletionService{
		DB:       db,
		Limiter:  limiter,
		Checker:  NewDependencyChecker(),
		Recorder: &AuditRecorder{DB: db},
		Policy:   DefaultDeletionPolicy(),
	}
}

// Delete runs the deletion pipeline for one entity on behalf of actorID.
//
// Pipeline:
//  1. Rate limit (destructive class). Throttled calls stop before the
//     entity is touched.
//  2. Load the live entity and its relation counts; blocked or missing
//     entities stop here. Check and mutation share a transaction.
//  3. Apply the policy's mutation (soft marker or permanent removal).
//  4. Record the audit entry. A failed audit write is logged and the
//     result still reports success: the mutation is already committed and
//     is never rolled back for the ledger's sake. The write uses a
//     context detached from the caller's cancellation for the same
//     reason.
//
// Returns an error only for unsupported entity types (a wiring defect)
// and for infrastructure failures during load or mutation.
func (s *DeletionService) Delete(ctx context.Context, actorID string, typ domain.EntityType, id string, meta RequestMeta) (*DeleteResult, error) {
	mode, ok := s.Policy[typ]
	if !ok {
		return nil, ErrUnsupportedEntityType
	}

	if d := s.Limiter.Check(ctx, actorID, OpClassDestructive); !d.Allowed {
		return &DeleteResult{Outcome: DeleteRateLimited, RetryAfter: d.RetryAfter}, nil
	}

	var res *DeleteResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Snapshot before any mutation; the audit entry and the UI
		// confirmation need the name even after a hard delete.
		snap, err := repo.GetEntity(ctx, tx, typ, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				res = &DeleteResult{Outcome: DeleteNotFound}
				return nil
			}
			return err
		}

		report, err := s.Checker.Check(ctx, tx, typ, id)
		if err != nil {
			if errors.Is(err, ErrEntityNotFound) {
				res = &DeleteResult{Outcome: DeleteNotFound}
				return nil
			}
			return err
		}
		if report.Blocked() {
			res = &DeleteResult{
				Outcome:      DeleteBlocked,
				Dependencies: report.BlockingCounts(),
				Detail:       report.Describe(),
			}
			return nil
		}

		if mode == DeleteSoft {
			err = repo.SoftDeleteEntity(ctx, tx, typ, id)
		} else {
			err = repo.HardDeleteEntity(ctx, tx, typ, id)
		}
		if err != nil {
			return err
		}

		res = &DeleteResult{
			Outcome:     DeleteOK,
			Entity:      snap,
			SoftDeleted: mode == DeleteSoft,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Outcome == DeleteOK {
		s.recordDeletion(ctx, actorID, res, meta)
	}
	return res, nil
}

// recordDeletion writes the DELETE audit entry. Best-effort: failures are
// logged and swallowed, and the caller's cancellation does not stop the
// write once the mutation has committed.
func (s *DeletionService) recordDeletion(ctx context.Context, actorID string, res *DeleteResult, meta RequestMeta) {
	auditCtx := context.WithoutCancel(ctx)

	metadata := map[string]any{
		"is_soft_delete": res.SoftDeleted,
	}
	if meta.Address != "" {
		metadata["address"] = meta.Address
	}
	if meta.ClientID != "" {
		metadata["client_id"] = meta.ClientID
	}

	_, err := s.Recorder.Record(auditCtx, AuditEntry{
		ActorID:    actorID,
		Action:     domain.AuditActionDelete,
		EntityType: res.Entity.Type,
		EntityID:   res.Entity.ID,
		EntityName: res.Entity.Name,
		LabID:      res.Entity.LabID,
		Metadata:   metadata,
	})
	if err != nil {
		log.Warn().Err(err).
			Str("entity_type", string(res.Entity.Type)).
			Str("entity_id", res.Entity.ID).
			Str("actor_id", actorID).
			Msg("deletion committed but audit write failed")
	}
}
