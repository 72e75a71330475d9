// Archive HTTP handlers.
//
// This file exposes the archive surface over soft-deleted entities:
//   - GET    /archive/expiring                  (list, paginated)
//   - POST   /archive/{type}/{id}/restore       (clear the soft-delete marker)
//   - DELETE /archive/{type}/{id}               (purge permanently)
//
// Restore and purge both require the entity to currently be soft-deleted;
// the handlers translate the service's ErrNotSoftDeleted into 409 so
// clients can distinguish "wrong state" from "missing".
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmarkou/go-lab-backend/internal/services"
	"github.com/tmarkou/go-lab-backend/internal/utils"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListExpiringResponse wraps a page of expiring soft-deleted entities.
type ListExpiringResponse struct {
	Entries    []services.ArchiveEntry `json:"entries"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	WithinDays int                     `json:"within_days"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// ListExpiring godoc
// @ID          listExpiring
// @Summary     List soft-deleted entities nearing permanent cleanup
// @Description Returns soft-deleted entities whose purge deadline falls within within_days, ascending by deadline.
// @Tags        Archive
// @Produce     json
//
// @Param       lab_id       query  string  false "Restrict to one lab"
// @Param       within_days  query  int     false "Deadline horizon in days"  minimum(0) default(7)
// @Param       page         query  int     false "Page number"               minimum(1) default(1)
// @Param       page_size    query  int     false "Items per page"            minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListExpiringResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /archive/expiring [get]
func (h *Handlers) ListExpiring(c *gin.Context) {
	page, pageSize := clampPagination(c)
	withinDays := utils.AtoiDefault(c.Query("within_days"), 7)
	if withinDays < 0 {
		withinDays = 0
	}

	var labID *string
	if v := c.Query("lab_id"); v != "" {
		labID = &v
	}

	entries, err := h.archiveSvc.ListExpiring(c.Request.Context(), labID, withinDays, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListExpiringResponse{
		Entries:    entries,
		Page:       page,
		PageSize:   pageSize,
		WithinDays: withinDays,
	})
}

// RestoreEntity godoc
// @ID          restoreEntity
// @Summary     Restore a soft-deleted entity
// @Description Clears the soft-deletion marker so the entity reappears in normal queries.
// @Tags        Archive
// @Produce     json
//
// @Param       type  path  string  true  "Entity type tag"  example(task)
// @Param       id    path  string  true  "Entity ID (UUID)" format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Entity not found"
// @Failure     409  {object} handlers.ErrorResponse "Entity is not soft-deleted"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /archive/{type}/{id}/restore [post]
func (h *Handlers) RestoreEntity(c *gin.Context) {
	typ, valid := entityTypeParam(c)
	if !valid {
		return
	}

	if _, err := h.archiveSvc.Restore(c.Request.Context(), typ, c.Param("id")); err != nil {
		h.archiveError(c, err)
		return
	}
	noContent(c)
}

// PurgeEntity godoc
// @ID          purgeEntity
// @Summary     Permanently delete a soft-deleted entity
// @Description Removes the row for good. Only reachable for entities that are already soft-deleted.
// @Tags        Archive
// @Produce     json
//
// @Param       type  path  string  true  "Entity type tag"  example(task)
// @Param       id    path  string  true  "Entity ID (UUID)" format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Entity not found"
// @Failure     409  {object} handlers.ErrorResponse "Entity is not soft-deleted"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /archive/{type}/{id} [delete]
func (h *Handlers) PurgeEntity(c *gin.Context) {
	typ, valid := entityTypeParam(c)
	if !valid {
		return
	}

	if _, err := h.archiveSvc.Purge(c.Request.Context(), typ, c.Param("id")); err != nil {
		h.archiveError(c, err)
		return
	}
	noContent(c)
}

// archiveError maps archive service errors to HTTP responses.
func (h *Handlers) archiveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEntityNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "entity not found")
	case errors.Is(err, services.ErrNotSoftDeleted):
		fail(c, http.StatusConflict, ErrCodeNotSoftDeleted, "entity is not soft-deleted")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
