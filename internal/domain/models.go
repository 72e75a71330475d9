// Package domain defines the persistence models for the lab operations
// backend: labs, studies, tasks, idea-board entries, comments, deadlines,
// buckets, and team memberships. These types are mapped with GORM and form
// the core data layer of the application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Lab represents a research lab, the tenant boundary of the system. All
// other entities are scoped to a lab either directly or through their
// parent study.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: human-readable lab name.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (policy normally hard-deletes labs,
//     but the column keeps the soft path available per configuration).
type Lab struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string         `json:"name"       gorm:"type:varchar(255);not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Lab.
func (Lab) TableName() string { return "labs" }

// Bucket groups studies within a lab (e.g. "Grant 2026", "Pilot work").
// A bucket cannot be deleted while studies still reference it.
type Bucket struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	LabID     string         `json:"lab_id"     gorm:"type:char(36);not null;index"`
	Name      string         `json:"name"       gorm:"type:varchar(255);not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Bucket.
func (Bucket) TableName() string { return "buckets" }

// Study represents a research study or project within a lab. Studies own
// tasks, comments, deadlines, and team memberships; those children block
// deletion of the study while they exist.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - LabID: owning lab; indexed for tenant-scoped queries.
//   - BucketID: optional grouping bucket.
//   - Title / Status: study metadata shown in rosters and dashboards.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Study struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	LabID     string         `json:"lab_id"     gorm:"type:char(36);not null;index:idx_lab_studies"`
	BucketID  *string        `json:"bucket_id,omitempty" gorm:"type:char(36);index"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null"`
	Status    string         `json:"status"     gorm:"type:varchar(32);not null;default:'active'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Study.
func (Study) TableName() string { return "studies" }

// Task is a unit of work within a study.
type Task struct {
	ID         string         `json:"id"         gorm:"type:char(36);primaryKey"`
	StudyID    string         `json:"study_id"   gorm:"type:char(36);not null;index:idx_study_tasks"`
	Title      string         `json:"title"      gorm:"type:varchar(255);not null"`
	Status     string         `json:"status"     gorm:"type:varchar(32);not null;default:'open'"`
	AssigneeID string         `json:"assignee_id,omitempty" gorm:"type:varchar(64);index"`
	DueAt      *time.Time     `json:"due_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Task.
func (Task) TableName() string { return "tasks" }

// Idea is an idea-board entry scoped to a lab.
type Idea struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	LabID     string         `json:"lab_id"     gorm:"type:char(36);not null;index"`
	AuthorID  string         `json:"author_id"  gorm:"type:varchar(64);not null;index"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null"`
	Body      string         `json:"body"       gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Idea.
func (Idea) TableName() string { return "ideas" }

// Comment is attached to exactly one parent: a study, a task, or an idea.
// The nullable foreign keys keep a single table for all comment threads.
type Comment struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	StudyID   *string        `json:"study_id,omitempty" gorm:"type:char(36);index"`
	TaskID    *string        `json:"task_id,omitempty"  gorm:"type:char(36);index"`
	IdeaID    *string        `json:"idea_id,omitempty"  gorm:"type:char(36);index"`
	AuthorID  string         `json:"author_id"  gorm:"type:varchar(64);not null;index"`
	Body      string         `json:"body"       gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// Deadline is a calendar deadline, either lab-wide or tied to a study.
type Deadline struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	LabID     string         `json:"lab_id"     gorm:"type:char(36);not null;index"`
	StudyID   *string        `json:"study_id,omitempty" gorm:"type:char(36);index"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null"`
	DueAt     time.Time      `json:"due_at"     gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Deadline.
func (Deadline) TableName() string { return "deadlines" }

// Membership places a user on a lab roster, optionally scoped to a single
// study. A user appears at most once per (lab, study) pair.
type Membership struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	LabID     string         `json:"lab_id"     gorm:"type:char(36);not null;index;uniqueIndex:ux_member_lab_study_user"`
	StudyID   *string        `json:"study_id,omitempty" gorm:"type:char(36);index;uniqueIndex:ux_member_lab_study_user"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index;uniqueIndex:ux_member_lab_study_user"`
	Role      string         `json:"role"       gorm:"type:varchar(32);not null;default:'member'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Membership.
func (Membership) TableName() string { return "memberships" }
