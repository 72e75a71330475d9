// Package repo – entity descriptor registry.
//
// Every deletable entity type is described once, in one table: how to
// instantiate its model, which column scopes it to a lab, and which child
// relations exist with a count query per relation. The deletion, archive,
// and dependency subsystems all drive off this registry instead of
// switching on concrete models, which is what keeps the per-type policy
// auditable in a single place.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tmarkou/go-lab-backend/internal/domain"
)

// relation is a named child-relation counter. Counts use the default GORM
// scope, so soft-deleted children do not block deletion of their parent.
type relation struct {
	name  string
	count func(ctx context.Context, db *gorm.DB, id string) (int64, error)
}

// descriptor ties an EntityType to its concrete model and relations.
type descriptor struct {
	// newModel returns a pointer to a zero value of the concrete model.
	newModel func() snapshotter
	// labColumn is the column scoping rows to a lab. It is "" for labs
	// themselves and for types whose lab scope lives on a parent row; the
	// latter must override listSoftDeleted so lab filters still hold.
	labColumn string
	// listSoftDeleted returns snapshots of soft-deleted rows with
	// deleted_at on or before the given time, optionally lab-scoped.
	listSoftDeleted func(ctx context.Context, db *gorm.DB, labID *string, before time.Time) ([]domain.EntitySnapshot, error)
	relations       []relation
}

// snapshotter is implemented by every domain model the registry manages.
type snapshotter interface {
	Snapshot() domain.EntitySnapshot
}

// countWhere builds a relation counter over model filtered by a single
// foreign-key column.
func countWhere(model any, column string) func(ctx context.Context, db *gorm.DB, id string) (int64, error) {
	return func(ctx context.Context, db *gorm.DB, id string) (int64, error) {
		var n int64
		err := db.WithContext(ctx).Model(model).Where(column+" = ?", id).Count(&n).Error
		return n, err
	}
}

// describe builds a descriptor for a concrete model type.
func describe[T any, PT interface {
	*T
	snapshotter
}](labColumn string, relations ...relation) *descriptor {
	return &descriptor{
		newModel:  func() snapshotter { return PT(new(T)) },
		labColumn: labColumn,
		listSoftDeleted: func(ctx context.Context, db *gorm.DB, labID *string, before time.Time) ([]domain.EntitySnapshot, error) {
			q := db.WithContext(ctx).Unscoped().
				Where("deleted_at IS NOT NULL AND deleted_at <= ?", before)
			if labID != nil && labColumn != "" {
				q = q.Where(labColumn+" = ?", *labID)
			}
			var rows []T
			if err := q.Find(&rows).Error; err != nil {
				return nil, err
			}
			out := make([]domain.EntitySnapshot, len(rows))
			for i := range rows {
				out[i] = PT(&rows[i]).Snapshot()
			}
			return out, nil
		},
		relations: relations,
	}
}

// withList replaces the default soft-deleted listing. Types whose lab
// scope lives on a parent row (tasks via their study, comments via their
// study/task/idea) need a listing that resolves tenancy through that
// chain; the default column filter would silently return every lab's rows.
func (d *descriptor) withList(fn func(ctx context.Context, db *gorm.DB, labID *string, before time.Time) ([]domain.EntitySnapshot, error)) *descriptor {
	d.listSoftDeleted = fn
	return d
}

// studyLabs maps study id to owning lab id for the given studies. Parents
// may themselves be soft-deleted, so the lookup is unscoped.
func studyLabs(ctx context.Context, db *gorm.DB, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Study
	if err := db.WithContext(ctx).Unscoped().
		Select("id", "lab_id").Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = rows[i].LabID
	}
	return out, nil
}

// listSoftDeletedTasks lists soft-deleted tasks with their lab resolved
// through the owning study, honoring the optional lab filter.
func listSoftDeletedTasks(ctx context.Context, db *gorm.DB, labID *string, before time.Time) ([]domain.EntitySnapshot, error) {
	var rows []domain.Task
	if err := db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at <= ?", before).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].StudyID
	}
	labs, err := studyLabs(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.EntitySnapshot, 0, len(rows))
	for i := range rows {
		lab, known := labs[rows[i].StudyID]
		if labID != nil && (!known || lab != *labID) {
			continue
		}
		snap := rows[i].Snapshot()
		if known {
			l := lab
			snap.LabID = &l
		}
		out = append(out, snap)
	}
	return out, nil
}

// listSoftDeletedComments lists soft-deleted comments with their lab
// resolved through the parent study, task, or idea.
func listSoftDeletedComments(ctx context.Context, db *gorm.DB, labID *string, before time.Time) ([]domain.EntitySnapshot, error) {
	var rows []domain.Comment
	if err := db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at <= ?", before).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	var studyIDs, taskIDs, ideaIDs []string
	for i := range rows {
		switch c := &rows[i]; {
		case c.StudyID != nil:
			studyIDs = append(studyIDs, *c.StudyID)
		case c.TaskID != nil:
			taskIDs = append(taskIDs, *c.TaskID)
		case c.IdeaID != nil:
			ideaIDs = append(ideaIDs, *c.IdeaID)
		}
	}

	// Task-parented comments add one more hop: task to study to lab.
	taskStudy := make(map[string]string, len(taskIDs))
	if len(taskIDs) > 0 {
		var tasks []domain.Task
		if err := db.WithContext(ctx).Unscoped().
			Select("id", "study_id").Where("id IN ?", taskIDs).
			Find(&tasks).Error; err != nil {
			return nil, err
		}
		for i := range tasks {
			taskStudy[tasks[i].ID] = tasks[i].StudyID
			studyIDs = append(studyIDs, tasks[i].StudyID)
		}
	}

	labs, err := studyLabs(ctx, db, studyIDs)
	if err != nil {
		return nil, err
	}

	ideaLab := make(map[string]string, len(ideaIDs))
	if len(ideaIDs) > 0 {
		var ideas []domain.Idea
		if err := db.WithContext(ctx).Unscoped().
			Select("id", "lab_id").Where("id IN ?", ideaIDs).
			Find(&ideas).Error; err != nil {
			return nil, err
		}
		for i := range ideas {
			ideaLab[ideas[i].ID] = ideas[i].LabID
		}
	}

	out := make([]domain.EntitySnapshot, 0, len(rows))
	for i := range rows {
		var lab string
		var known bool
		switch c := &rows[i]; {
		case c.StudyID != nil:
			lab, known = labs[*c.StudyID]
		case c.TaskID != nil:
			if sid, ok := taskStudy[*c.TaskID]; ok {
				lab, known = labs[sid]
			}
		case c.IdeaID != nil:
			lab, known = ideaLab[*c.IdeaID]
		}
		if labID != nil && (!known || lab != *labID) {
			continue
		}
		snap := rows[i].Snapshot()
		if known {
			l := lab
			snap.LabID = &l
		}
		out = append(out, snap)
	}
	return out, nil
}

// registry declares every deletable entity type. Relation order is the
// order counts appear in dependency reports and error messages.
var registry = map[domain.EntityType]*descriptor{
	domain.EntityTypeLab: describe[domain.Lab]("",
		relation{"studies", countWhere(&domain.Study{}, "lab_id")},
		relation{"buckets", countWhere(&domain.Bucket{}, "lab_id")},
		relation{"members", countWhere(&domain.Membership{}, "lab_id")},
		relation{"ideas", countWhere(&domain.Idea{}, "lab_id")},
		relation{"deadlines", countWhere(&domain.Deadline{}, "lab_id")},
	),
	domain.EntityTypeBucket: describe[domain.Bucket]("lab_id",
		relation{"studies", countWhere(&domain.Study{}, "bucket_id")},
	),
	domain.EntityTypeStudy: describe[domain.Study]("lab_id",
		relation{"tasks", countWhere(&domain.Task{}, "study_id")},
		relation{"comments", countWhere(&domain.Comment{}, "study_id")},
		relation{"members", countWhere(&domain.Membership{}, "study_id")},
		relation{"deadlines", countWhere(&domain.Deadline{}, "study_id")},
	),
	domain.EntityTypeTask: describe[domain.Task]("",
		relation{"comments", countWhere(&domain.Comment{}, "task_id")},
	).withList(listSoftDeletedTasks),
	domain.EntityTypeIdea: describe[domain.Idea]("lab_id",
		relation{"comments", countWhere(&domain.Comment{}, "idea_id")},
	),
	domain.EntityTypeComment:    describe[domain.Comment]("").withList(listSoftDeletedComments),
	domain.EntityTypeDeadline:   describe[domain.Deadline]("lab_id"),
	domain.EntityTypeMembership: describe[domain.Membership]("lab_id"),
}

// lookup returns the descriptor for typ, or ErrUnsupportedEntityType when
// the type is not registered. An unknown type here is a wiring defect, not
// a runtime condition.
func lookup(typ domain.EntityType) (*descriptor, error) {
	d, ok := registry[typ]
	if !ok {
		return nil, ErrUnsupportedEntityType
	}
	return d, nil
}
