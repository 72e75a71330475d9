// Package domain – audit ledger model.
//
// AuditRecord is the immutable ledger of mutating actions. Records are
// write-once: nothing in this codebase updates or deletes a row after it
// has been inserted, which is what makes the ledger usable for
// non-repudiation. Note the deliberate absence of UpdatedAt and DeletedAt.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions recorded in the ledger.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
)

// AuditRecord captures who did what to which entity, with enough request
// context to reconstruct the action later. A record outlives the entity it
// describes: hard-deleting an entity never removes its audit trail.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ActorID: identifier of the user who performed the action.
//   - Action: one of the AuditAction* constants.
//   - EntityType / EntityID: reference to the affected entity.
//   - EntityName: human-readable name snapshot taken before the mutation,
//     so the trail stays readable after a hard delete.
//   - LabID: owning lab, when the entity is lab-scoped.
//   - Changes: optional field→{before,after} diff (JSON).
//   - Metadata: request context (caller address, client id, soft flag) (JSON).
//   - CreatedAt: insertion time; the only timestamp a ledger row carries.
type AuditRecord struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	ActorID    string         `json:"actor_id"    gorm:"type:varchar(64);not null;index"`
	Action     string         `json:"action"      gorm:"type:varchar(16);not null;index;check:action IN ('CREATE','UPDATE','DELETE')"`
	EntityType string         `json:"entity_type" gorm:"type:varchar(32);not null;index:idx_audit_entity,priority:1"`
	EntityID   string         `json:"entity_id"   gorm:"type:char(36);not null;index:idx_audit_entity,priority:2"`
	EntityName string         `json:"entity_name,omitempty" gorm:"type:varchar(255)"`
	LabID      *string        `json:"lab_id,omitempty" gorm:"type:char(36);index"`
	Changes    datatypes.JSON `json:"changes,omitempty"  gorm:"type:json"`
	Metadata   datatypes.JSON `json:"metadata,omitempty" gorm:"type:json"`
	CreatedAt  time.Time      `json:"created_at"  gorm:"index"`
}

// TableName returns the database table name for AuditRecord.
func (AuditRecord) TableName() string { return "audit_records" }
