// Deletion HTTP handlers.
//
// This file exposes the destructive-deletion endpoint:
//   - DELETE /entities/{type}/{id}
//
// Handlers are transport-thin: they validate input, call the deletion
// orchestrator, and translate its discriminated result into HTTP responses
// (429 with Retry-After, 400 with dependency counts, 404, or 200 with the
// pre-deletion snapshot).
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tmarkou/go-lab-backend/internal/domain"
	"github.com/tmarkou/go-lab-backend/internal/http/middleware"
	"github.com/tmarkou/go-lab-backend/internal/repo"
	"github.com/tmarkou/go-lab-backend/internal/services"
	"github.com/tmarkou/go-lab-backend/internal/sysutil"
)

//
// Service contracts (context-aware)
//

// DeletionService defines the destructive-deletion operation consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DeletionService interface {
	// Delete runs the rate-limit / dependency / mutate / audit pipeline
	// for one entity on behalf of an actor.
	Delete(ctx context.Context, actorID string, typ domain.EntityType, id string, meta services.RequestMeta) (*services.DeleteResult, error)
}

// ArchiveService defines restore/purge/list operations over soft-deleted
// entities.
type ArchiveService interface {
	// ListExpiring returns soft-deleted entities nearing their purge
	// deadline, ordered by ascending deadline.
	ListExpiring(ctx context.Context, labID *string, withinDays, offset, limit int) ([]services.ArchiveEntry, error)
	// Restore clears the soft-deletion marker.
	Restore(ctx context.Context, typ domain.EntityType, id string) (*domain.EntitySnapshot, error)
	// Purge permanently removes an already-soft-deleted entity.
	Purge(ctx context.Context, typ domain.EntityType, id string) (*domain.EntitySnapshot, error)
}

// AuditService defines read access to the audit ledger.
type AuditService interface {
	// List returns a page of audit records, newest first, with the total.
	List(ctx context.Context, f repo.AuditFilter, page, pageSize int) ([]domain.AuditRecord, int64, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for deletion, archive, and audit.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	delSvc     DeletionService
	archiveSvc ArchiveService
	auditSvc   AuditService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(delSvc DeletionService, archiveSvc ArchiveService, auditSvc AuditService) *Handlers {
	return &Handlers{delSvc: delSvc, archiveSvc: archiveSvc, auditSvc: auditSvc}
}

// actorID extracts the authenticated user id from Gin context (set by
// upstream middleware). If absent, it falls back to "X-User-ID" header
// (tests use it), and finally to "demo-user". It never touches c.Request
// if it's nil.
func actorID(c *gin.Context) string {
	var fromCtx, fromHeader string
	if v, ok := c.Get("userID"); ok {
		fromCtx, _ = v.(string)
	}
	if c != nil && c.Request != nil {
		fromHeader = strings.TrimSpace(c.GetHeader("X-User-ID"))
	}
	return sysutil.FirstNonEmpty(fromCtx, fromHeader, "demo-user")
}

// entityTypeParam parses the :type path segment; writes a 400 and returns
// false on unknown tags.
func entityTypeParam(c *gin.Context) (domain.EntityType, bool) {
	typ, ok := domain.ParseEntityType(c.Param("type"))
	if !ok {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown entity type "+strconv.Quote(c.Param("type")))
		return "", false
	}
	return typ, true
}

//
// DTOs
//

// DeletedEntity is the pre-deletion snapshot echoed back for UI
// confirmation messages.
type DeletedEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeleteEntityResponse is the success payload of the deletion endpoint.
type DeleteEntityResponse struct {
	DeletedEntity DeletedEntity `json:"deleted_entity"`
	SoftDeleted   bool          `json:"soft_deleted"`
}

// DependencyErrorResponse extends the standard error envelope with the
// per-relation counts blocking a deletion.
type DependencyErrorResponse struct {
	ErrorResponse
	// Dependencies maps relation name to its live count.
	Dependencies map[string]int64 `json:"dependencies"`
}

//
// Handlers
//

// DeleteEntity godoc
// @ID          deleteEntity
// @Summary     Delete an entity
// @Description Deletes an entity after rate-limit and dependency checks. Soft or hard per the per-type policy.
// @Tags        Entities
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       type       path    string  true  "Entity type tag"        example(study)
// @Param       id         path    string  true  "Entity ID (UUID)"       format(uuid)
//
// @Success     200  {object}  handlers.DeleteEntityResponse
// @Failure     400  {object}  handlers.DependencyErrorResponse "Dependencies block deletion"
// @Failure     404  {object}  handlers.ErrorResponse "Entity not found"
// @Failure     429  {object}  handlers.ErrorResponse "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /entities/{type}/{id} [delete]
func (h *Handlers) DeleteEntity(c *gin.Context) {
	typ, valid := entityTypeParam(c)
	if !valid {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entity id must be a UUID")
		return
	}

	meta := services.RequestMeta{
		Address:  c.ClientIP(),
		ClientID: c.Request.UserAgent(),
	}

	res, err := h.delSvc.Delete(c.Request.Context(), actorID(c), typ, id, meta)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	middleware.ObserveDeletion(string(typ), string(res.Outcome))

	switch res.Outcome {
	case services.DeleteOK:
		ok(c, http.StatusOK, DeleteEntityResponse{
			DeletedEntity: DeletedEntity{ID: res.Entity.ID, Name: res.Entity.Name},
			SoftDeleted:   res.SoftDeleted,
		})
	case services.DeleteRateLimited:
		secs := int(res.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		fail(c, http.StatusTooManyRequests, ErrCodeRateLimited,
			"destructive operation limit reached; retry in "+strconv.Itoa(secs)+"s")
	case services.DeleteBlocked:
		reqID := c.Writer.Header().Get("X-Request-ID")
		c.AbortWithStatusJSON(http.StatusBadRequest, DependencyErrorResponse{
			ErrorResponse: ErrorResponse{
				RequestID: reqID,
				Code:      ErrCodeHasDependencies,
				Message:   "cannot delete: " + res.Detail,
			},
			Dependencies: res.Dependencies,
		})
	case services.DeleteNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, string(typ)+" not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "unhandled deletion outcome")
	}
}
