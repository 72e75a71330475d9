// Package services – ArchiveManager
//
// This file implements the archive surface over soft-deleted entities:
// list the ones approaching permanent cleanup, restore them, or promote
// them to a permanent delete. Restore deliberately skips the dependency
// checker; bringing an entity back can never violate referential
// integrity, only removing one can. Purge deliberately refuses live
// entities so permanent deletion is only reachable through a prior soft
// delete.
package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/tmarkou/go-lab-backend/internal/domain"
	"github.com/tmarkou/go-lab-backend/internal/repo"
)

// ArchiveEntry is one soft-deleted entity in an expiring listing.
type ArchiveEntry struct {
	EntityType    domain.EntityType `json:"entity_type"`
	EntityID      string            `json:"entity_id"`
	Name          string            `json:"name"`
	LabID         *string           `json:"lab_id,omitempty"`
	DeletedAt     time.Time         `json:"deleted_at"`
	PurgeDeadline time.Time         `json:"purge_deadline"`
}

// ArchiveManager manages the soft-deleted population across all entity
// types that currently hold soft-deleted rows.
type ArchiveManager struct {
	// DB is the database handle used for all archive operations.
	DB *gorm.DB
	// RetentionDays is how long a soft-deleted entity remains restorable
	// before its purge deadline passes.
	RetentionDays int
}

// NewArchiveManager constructs an ArchiveManager with the given retention
// window. Non-positive retention falls back to 30 days.
func NewArchiveManager(db *gorm.DB, retentionDays int) *ArchiveManager {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &ArchiveManager{DB: db, RetentionDays: retentionDays}
}

// retention returns the retention window as a duration.
func (m *ArchiveManager) retention() time.Duration {
	return time.Duration(m.RetentionDays) * 24 * time.Hour
}

// ListExpiring returns soft-deleted entities whose purge deadline falls
// within withinDays from now, across every entity type, ordered by
// ascending deadline. Offset/limit make the sequence restartable for
// paginated consumers. A nil labID lists all labs.
func (m *ArchiveManager) ListExpiring(ctx context.Context, labID *string, withinDays, offset, limit int) ([]ArchiveEntry, error) {
	if withinDays < 0 {
		withinDays = 0
	}
	// deadline = deleted_at + retention; deadline <= now + withinDays
	// rearranges to deleted_at <= now + withinDays - retention.
	cutoff := time.Now().UTC().Add(time.Duration(withinDays)*24*time.Hour - m.retention())

	var entries []ArchiveEntry
	for _, typ := range domain.EntityTypes() {
		snaps, err := repo.ListSoftDeleted(ctx, m.DB, typ, labID, cutoff)
		if err != nil {
			return nil, err
		}
		for _, s := range snaps {
			entries = append(entries, ArchiveEntry{
				EntityType:    s.Type,
				EntityID:      s.ID,
				Name:          s.Name,
				LabID:         s.LabID,
				DeletedAt:     *s.DeletedAt,
				PurgeDeadline: s.DeletedAt.Add(m.retention()),
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PurgeDeadline.Before(entries[j].PurgeDeadline)
	})

	if offset >= len(entries) {
		return []ArchiveEntry{}, nil
	}
	entries = entries[offset:]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Restore clears the soft-deletion marker, making the entity visible in
// normal queries again.
//
// Errors:
//   - ErrEntityNotFound when no row exists at all.
//   - ErrNotSoftDeleted when the entity exists but is live.
func (m *ArchiveManager) Restore(ctx context.Context, typ domain.EntityType, id string) (*domain.EntitySnapshot, error) {
	snap, err := m.requireSoftDeleted(ctx, typ, id)
	if err != nil {
		return nil, err
	}
	if err := repo.RestoreEntity(ctx, m.DB, typ, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Raced with a purge or another restore between check and
			// mutation; report what is true now.
			return nil, ErrNotSoftDeleted
		}
		return nil, err
	}
	snap.DeletedAt = nil
	return snap, nil
}

// Purge permanently deletes an already-soft-deleted entity. Live entities
// are refused with ErrNotSoftDeleted to enforce the two-phase discipline.
// Audit records referencing the entity are untouched.
func (m *ArchiveManager) Purge(ctx context.Context, typ domain.EntityType, id string) (*domain.EntitySnapshot, error) {
	snap, err := m.requireSoftDeleted(ctx, typ, id)
	if err != nil {
		return nil, err
	}
	if err := repo.HardDeleteEntity(ctx, m.DB, typ, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, err
	}
	return snap, nil
}

// requireSoftDeleted loads the entity in any state and verifies it is
// currently soft-deleted.
func (m *ArchiveManager) requireSoftDeleted(ctx context.Context, typ domain.EntityType, id string) (*domain.EntitySnapshot, error) {
	snap, err := repo.GetEntityAny(ctx, m.DB, typ, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEntityNotFound
		}
		if errors.Is(err, repo.ErrUnsupportedEntityType) {
			return nil, ErrUnsupportedEntityType
		}
		return nil, err
	}
	if snap.DeletedAt == nil {
		return nil, ErrNotSoftDeleted
	}
	return snap, nil
}
