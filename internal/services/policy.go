// Package services – deletion policy tables.
//
// Which entity types delete softly, which delete hard, and which child
// relations block a deletion are all declared here as data. Route handlers
// and earlier revisions of this system scattered these decisions across
// endpoints; keeping them in two tables is what makes the policy auditable
// and overridable from configuration.
package services

import (
	"fmt"

	"github.com/tmarkou/go-lab-backend/internal/domain"
)

// DeleteMode selects the mutation applied when an entity is deleted.
type DeleteMode string

const (
	// DeleteSoft marks the row deleted and keeps it restorable until the
	// retention window expires.
	DeleteSoft DeleteMode = "soft"
	// DeleteHard removes the row permanently. Irreversible.
	DeleteHard DeleteMode = "hard"
)

// DefaultDeletionPolicy returns the per-type soft/hard table. Container
// types (lab, bucket, study) hard-delete: once their dependency checks
// pass they are empty shells, and keeping tombstones for them only
// complicates tenant cleanup. Leaf content (tasks, ideas, comments,
// deadlines, memberships) soft-deletes so users can recover mistakes.
func DefaultDeletionPolicy() map[domain.EntityType]DeleteMode {
	return map[domain.EntityType]DeleteMode{
		domain.EntityTypeLab:        DeleteHard,
		domain.EntityTypeBucket:     DeleteHard,
		domain.EntityTypeStudy:      DeleteHard,
		domain.EntityTypeTask:       DeleteSoft,
		domain.EntityTypeIdea:       DeleteSoft,
		domain.EntityTypeComment:    DeleteSoft,
		domain.EntityTypeDeadline:   DeleteSoft,
		domain.EntityTypeMembership: DeleteSoft,
	}
}

// PolicyWithOverrides returns the default deletion policy with the given
// per-type overrides applied on top. Keys are entity type tags as they
// appear in URLs ("task", "study"), values are "soft" or "hard". An
// unknown tag or mode is rejected so a typo in DELETE_POLICY_OVERRIDES
// cannot silently flip a type to the built-in default.
func PolicyWithOverrides(overrides map[string]string) (map[domain.EntityType]DeleteMode, error) {
	policy := DefaultDeletionPolicy()
	for tag, mode := range overrides {
		typ, ok := domain.ParseEntityType(tag)
		if !ok {
			return nil, fmt.Errorf("deletion policy override: unknown entity type %q", tag)
		}
		switch DeleteMode(mode) {
		case DeleteSoft, DeleteHard:
			policy[typ] = DeleteMode(mode)
		default:
			return nil, fmt.Errorf("deletion policy override for %q: mode must be soft or hard, got %q", tag, mode)
		}
	}
	return policy, nil
}

// DefaultBlockingRelations returns, per entity type, the child relations
// whose non-zero live count blocks deletion. Relations the registry
// declares but this table omits (e.g. a study's deadlines) are reported
// for context but never block.
func DefaultBlockingRelations() map[domain.EntityType][]string {
	return map[domain.EntityType][]string{
		domain.EntityTypeLab:    {"studies", "buckets", "members"},
		domain.EntityTypeBucket: {"studies"},
		domain.EntityTypeStudy:  {"tasks", "comments", "members"},
		domain.EntityTypeTask:   {"comments"},
		domain.EntityTypeIdea:   {"comments"},
	}
}
