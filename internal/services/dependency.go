// Package services – DependencyChecker
//
// Before an entity is destructively deleted, this component reads the live
// count of every child relation the repository registry declares for it and
// decides, against the blocking-relations policy, whether the deletion may
// proceed. The full report is returned either way so callers can tell the
// user exactly what stands in the way ("Cannot delete: 3 task(s), 2
// comment(s)").
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tmarkou/go-lab-backend/internal/domain"
	"github.com/tmarkou/go-lab-backend/internal/repo"
)

// DependencyReport is the transient result of one dependency check. It is
// produced per deletion attempt and never persisted.
type DependencyReport struct {
	// Counts holds the live count of every declared relation, blocking
	// or not, keyed by relation name.
	Counts map[string]int64 `json:"counts"`
	// blocking flags the relation names whose non-zero count blocks.
	blocking map[string]struct{}
	// order preserves registry declaration order for rendering.
	order []string
}

// Blocked reports whether any blocking relation has a non-zero count.
func (r *DependencyReport) Blocked() bool {
	for name := range r.blocking {
		if r.Counts[name] > 0 {
			return true
		}
	}
	return false
}

// BlockingCounts returns only the blocking relations with non-zero counts,
// the map callers surface to clients.
func (r *DependencyReport) BlockingCounts() map[string]int64 {
	out := make(map[string]int64)
	for name := range r.blocking {
		if n := r.Counts[name]; n > 0 {
			out[name] = n
		}
	}
	return out
}

// Describe renders the blocking counts as a human-readable clause in
// declaration order, e.g. "3 task(s), 2 comment(s)".
func (r *DependencyReport) Describe() string {
	parts := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if _, isBlocking := r.blocking[name]; !isBlocking {
			continue
		}
		if n := r.Counts[name]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s(s)", n, strings.TrimSuffix(name, "s")))
		}
	}
	return strings.Join(parts, ", ")
}

// DependencyChecker reads relation counts and applies the blocking policy.
// It has no side effects.
type DependencyChecker struct {
	// Blocking maps entity types to the relation names that block their
	// deletion. Defaults to DefaultBlockingRelations.
	Blocking map[domain.EntityType][]string
}

// NewDependencyChecker constructs a checker with the default policy table.
func NewDependencyChecker() *DependencyChecker {
	return &DependencyChecker{Blocking: DefaultBlockingRelations()}
}

// Check returns the dependency report for the entity. The db handle may be
// transaction-bound so the counts stay read-consistent with a mutation the
// caller performs in the same transaction.
//
// Errors:
//   - ErrEntityNotFound when no live entity matches (typ, id).
//   - ErrUnsupportedEntityType for unregistered types.
//   - The underlying DB error otherwise.
func (c *DependencyChecker) Check(ctx context.Context, db *gorm.DB, typ domain.EntityType, id string) (*DependencyReport, error) {
	// Existence first, so a missing entity surfaces as not-found rather
	// than an empty report.
	if _, err := repo.GetEntity(ctx, db, typ, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEntityNotFound
		}
		if errors.Is(err, repo.ErrUnsupportedEntityType) {
			return nil, ErrUnsupportedEntityType
		}
		return nil, err
	}

	counts, err := repo.RelationCounts(ctx, db, typ, id)
	if err != nil {
		return nil, err
	}

	blocking := make(map[string]struct{})
	for _, name := range c.Blocking[typ] {
		blocking[name] = struct{}{}
	}
	return &DependencyReport{
		Counts:   counts,
		blocking: blocking,
		order:    repo.RelationOrder(typ),
	}, nil
}
