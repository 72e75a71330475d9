// Package domain – generic entity view.
//
// The deletion, archive, and audit subsystems operate on entities
// generically, without caring which concrete model they are looking at.
// EntityType is the stable tag for each deletable model and EntitySnapshot
// is the model-independent projection (id, name, lab scope, deletion state)
// those subsystems exchange.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// EntityType tags every deletable model with a stable, wire-safe name.
// The tag doubles as the URL path segment on the deletion endpoints.
type EntityType string

// All deletable entity types.
const (
	EntityTypeLab        EntityType = "lab"
	EntityTypeBucket     EntityType = "bucket"
	EntityTypeStudy      EntityType = "study"
	EntityTypeTask       EntityType = "task"
	EntityTypeIdea       EntityType = "idea"
	EntityTypeComment    EntityType = "comment"
	EntityTypeDeadline   EntityType = "deadline"
	EntityTypeMembership EntityType = "membership"
)

// EntityTypes lists every known type in a stable order, for iteration
// (archive listings) and for validation messages.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityTypeLab, EntityTypeBucket, EntityTypeStudy, EntityTypeTask,
		EntityTypeIdea, EntityTypeComment, EntityTypeDeadline, EntityTypeMembership,
	}
}

// ParseEntityType maps a string tag to its EntityType. The second return
// value is false for unknown tags.
func ParseEntityType(s string) (EntityType, bool) {
	t := EntityType(s)
	switch t {
	case EntityTypeLab, EntityTypeBucket, EntityTypeStudy, EntityTypeTask,
		EntityTypeIdea, EntityTypeComment, EntityTypeDeadline, EntityTypeMembership:
		return t, true
	}
	return "", false
}

// EntitySnapshot is a model-independent projection of a deletable entity.
// The deletion orchestrator takes a snapshot before mutating so the audit
// trail and the UI confirmation keep the entity's name even after a hard
// delete removed the row.
type EntitySnapshot struct {
	Type      EntityType `json:"entity_type"`
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	LabID     *string    `json:"lab_id,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// softDeletedAt converts a GORM soft-delete marker to a plain *time.Time,
// nil when the entity is live.
func softDeletedAt(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

// clipName shortens free-form text to a snapshot-sized name.
func clipName(s string) string {
	const max = 80
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// Snapshot returns the generic projection of a lab.
func (l *Lab) Snapshot() EntitySnapshot {
	return EntitySnapshot{Type: EntityTypeLab, ID: l.ID, Name: l.Name, DeletedAt: softDeletedAt(l.DeletedAt)}
}

// Snapshot returns the generic projection of a bucket.
func (b *Bucket) Snapshot() EntitySnapshot {
	return EntitySnapshot{Type: EntityTypeBucket, ID: b.ID, Name: b.Name, LabID: &b.LabID, DeletedAt: softDeletedAt(b.DeletedAt)}
}

// Snapshot returns the generic projection of a study.
func (s *Study) Snapshot() EntitySnapshot {
	return EntitySnapshot{Type: EntityTypeStudy, ID: s.ID, Name: s.Title, LabID: &s.LabID, DeletedAt: softDeletedAt(s.DeletedAt)}
}

// Snapshot returns the generic projection of a task.
func (t *Task) Snapshot() EntitySnapshot {
	return EntitySnapshot{Type: EntityTypeTask, ID: t.ID, Name: t.Title, DeletedAt: softDeletedAt(t.DeletedAt)}
}

// Snapshot returns the generic projection of an idea.
func (i *Idea) Snapshot() EntitySnapshot {
	return EntitySnapshot{Type: EntityTypeIdea, ID: i.ID, Name: i.Title, LabID: &i.LabID, DeletedAt: softDeletedAt(i.DeletedAt)}
}

// Snapshot returns the generic projection of a comment. Comments have no
// display name of their own; a body prefix stands in so audit entries and
// archive listings stay readable.
func (c *Comment) Snapshot() EntitySnapshot {
	return EntitySnapshot{Type: EntityTypeComment, ID: c.ID, Name: clipName(c.Body), DeletedAt: softDeletedAt(c.DeletedAt)}
}

// Snapshot returns the generic projection of a deadline.
func (d *Deadline) Snapshot() EntitySnapshot {
	return EntitySnapshot{Type: EntityTypeDeadline, ID: d.ID, Name: d.Title, LabID: &d.LabID, DeletedAt: softDeletedAt(d.DeletedAt)}
}

// Snapshot returns the generic projection of a membership.
func (m *Membership) Snapshot() EntitySnapshot {
	return EntitySnapshot{Type: EntityTypeMembership, ID: m.ID, Name: m.UserID, LabID: &m.LabID, DeletedAt: softDeletedAt(m.DeletedAt)}
}
