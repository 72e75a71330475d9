// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the generic entity repository used by
// the deletion, archive, and dependency subsystems.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition keyed by domain.EntityType.
//
// Error semantics:
//   - When an entity is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Unknown entity types return ErrUnsupportedEntityType.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - GetEntity(ctx, db, typ, id) -> *domain.EntitySnapshot, error
//     Fetches a live entity (soft-deleted rows excluded).
//
//   - GetEntityAny(ctx, db, typ, id) -> *domain.EntitySnapshot, error
//     Fetches an entity regardless of deletion state (Unscoped).
//
//   - CreateEntity(ctx, db, model) -> error
//     Inserts a domain model row.
//
//   - UpdateEntityFields(ctx, db, typ, id, fields) -> error
//     Applies a partial update to a live entity.
//
//   - RelationCounts(ctx, db, typ, id) -> map[string]int64, error
//     Live child counts for every relation the registry declares.
//
//   - SoftDeleteEntity / RestoreEntity / HardDeleteEntity
//     The three deletion-lifecycle mutations.
//
//   - ListSoftDeleted(ctx, db, typ, labID, before) -> []domain.EntitySnapshot
//     Soft-deleted rows with deleted_at on or before a cutoff.
//
// This repository is designed to be wrapped by the higher-level services
// (DeletionService, ArchiveManager, DependencyChecker) which enforce
// policy, rate limits, and audit recording.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tmarkou/go-lab-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrUnsupportedEntityType is returned when a domain.EntityType has no
// registry entry. Correctly wired callers never trigger it.
var ErrUnsupportedEntityType = errors.New("unsupported entity type")

// GetEntity fetches a live entity by type and id. Soft-deleted rows are
// excluded by the default GORM scope. Returns ErrNotFound when the row is
// missing or soft-deleted.
func GetEntity(ctx context.Context, db *gorm.DB, typ domain.EntityType, id string) (*domain.EntitySnapshot, error) {
	d, err := lookup(typ)
	if err != nil {
		return nil, err
	}
	m := d.newModel()
	if err := db.WithContext(ctx).First(m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	snap := m.Snapshot()
	return &snap, nil
}

// GetEntityAny fetches an entity by type and id regardless of its deletion
// state. The snapshot's DeletedAt reports whether the row is currently
// soft-deleted. Returns ErrNotFound when no row exists at all.
func GetEntityAny(ctx context.Context, db *gorm.DB, typ domain.EntityType, id string) (*domain.EntitySnapshot, error) {
	d, err := lookup(typ)
	if err != nil {
		return nil, err
	}
	m := d.newModel()
	if err := db.WithContext(ctx).Unscoped().First(m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	snap := m.Snapshot()
	return &snap, nil
}

// CreateEntity inserts a domain model row. The model carries its own ID;
// callers generate UUIDs the same way the rest of the codebase does.
func CreateEntity(ctx context.Context, db *gorm.DB, model any) error {
	return db.WithContext(ctx).Create(model).Error
}

// UpdateEntityFields applies a partial update to a live entity. Returns
// ErrNotFound when no live row matches.
func UpdateEntityFields(ctx context.Context, db *gorm.DB, typ domain.EntityType, id string, fields map[string]any) error {
	d, err := lookup(typ)
	if err != nil {
		return err
	}
	res := db.WithContext(ctx).Model(d.newModel()).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RelationCounts returns the live child count for every relation the
// registry declares for typ, keyed by relation name. Types with no
// declared relations return an empty map.
func RelationCounts(ctx context.Context, db *gorm.DB, typ domain.EntityType, id string) (map[string]int64, error) {
	d, err := lookup(typ)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(d.relations))
	for _, rel := range d.relations {
		n, err := rel.count(ctx, db, id)
		if err != nil {
			return nil, err
		}
		out[rel.name] = n
	}
	return out, nil
}

// RelationOrder returns the declared relation names for typ in registry
// order, so callers can render counts deterministically.
func RelationOrder(typ domain.EntityType) []string {
	d, ok := registry[typ]
	if !ok {
		return nil
	}
	names := make([]string, len(d.relations))
	for i, rel := range d.relations {
		names[i] = rel.name
	}
	return names
}

// SoftDeleteEntity sets the soft-deletion marker on a live entity.
// Returns ErrNotFound when the entity is missing or already soft-deleted.
func SoftDeleteEntity(ctx context.Context, db *gorm.DB, typ domain.EntityType, id string) error {
	d, err := lookup(typ)
	if err != nil {
		return err
	}
	res := db.WithContext(ctx).Where("id = ?", id).Delete(d.newModel())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RestoreEntity clears the soft-deletion marker. Returns ErrNotFound when
// no currently soft-deleted row matches; callers distinguish "missing"
// from "live" with GetEntityAny.
func RestoreEntity(ctx context.Context, db *gorm.DB, typ domain.EntityType, id string) error {
	d, err := lookup(typ)
	if err != nil {
		return err
	}
	res := db.WithContext(ctx).Unscoped().Model(d.newModel()).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HardDeleteEntity permanently removes the row, whatever its deletion
// state. Irreversible. Returns ErrNotFound when no row exists.
func HardDeleteEntity(ctx context.Context, db *gorm.DB, typ domain.EntityType, id string) error {
	d, err := lookup(typ)
	if err != nil {
		return err
	}
	res := db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(d.newModel())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSoftDeleted returns snapshots of soft-deleted rows of typ whose
// deleted_at is on or before the cutoff, optionally scoped to a lab.
// Types without a direct lab column (tasks, comments) resolve their lab
// through the parent chain, so the filter holds for every type except
// labs themselves.
func ListSoftDeleted(ctx context.Context, db *gorm.DB, typ domain.EntityType, labID *string, before time.Time) ([]domain.EntitySnapshot, error) {
	d, err := lookup(typ)
	if err != nil {
		return nil, err
	}
	return d.listSoftDeleted(ctx, db, labID, before)
}
