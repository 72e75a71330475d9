// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// audit ledger.
//
// The ledger is intentionally insert-and-read only: no update or delete
// functions exist here, and none should be added. That asymmetry is what
// makes audit records trustworthy.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tmarkou/go-lab-backend/internal/domain"
)

// AuditFilter narrows audit listings. Zero-value fields are ignored.
type AuditFilter struct {
	ActorID    string
	EntityType string
	EntityID   string
	LabID      string
	Action     string
}

// CreateAuditRecord inserts one ledger row. The record's ID and CreatedAt
// must already be set by the caller.
func CreateAuditRecord(ctx context.Context, db *gorm.DB, rec *domain.AuditRecord) error {
	return db.WithContext(ctx).Create(rec).Error
}

// CountAuditRecords returns the total number of ledger rows matching the
// filter, for pagination metadata.
func CountAuditRecords(ctx context.Context, db *gorm.DB, f AuditFilter) (int64, error) {
	var total int64
	err := auditQuery(ctx, db, f).Count(&total).Error
	return total, err
}

// ListAuditRecordsPage returns a page of ledger rows matching the filter,
// newest first. The caller computes offset and limit.
func ListAuditRecordsPage(ctx context.Context, db *gorm.DB, f AuditFilter, offset, limit int) ([]domain.AuditRecord, error) {
	var out []domain.AuditRecord
	err := auditQuery(ctx, db, f).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// auditQuery composes the filtered base query shared by count and list.
func auditQuery(ctx context.Context, db *gorm.DB, f AuditFilter) *gorm.DB {
	q := db.WithContext(ctx).Model(&domain.AuditRecord{})
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.LabID != "" {
		q = q.Where("lab_id = ?", f.LabID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	return q
}
