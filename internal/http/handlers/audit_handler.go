// Audit HTTP handlers.
//
// The ledger is append-only; this file only exposes reads. Filters are
// optional query params and combine with AND semantics.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmarkou/go-lab-backend/internal/domain"
	"github.com/tmarkou/go-lab-backend/internal/repo"
	"github.com/tmarkou/go-lab-backend/internal/utils"
)

// ListAuditResponse wraps a page of audit records plus pagination metadata.
type ListAuditResponse struct {
	Records    []domain.AuditRecord `json:"records"`
	Pagination Pagination           `json:"pagination"`
}

// ListAudit godoc
// @ID          listAudit
// @Summary     List audit records
// @Description Returns audit records newest-first, filterable by actor, entity, lab, and action.
// @Tags        Audit
// @Produce     json
//
// @Param       actor_id     query  string  false "Filter by acting user"
// @Param       entity_type  query  string  false "Filter by entity type tag"  example(task)
// @Param       entity_id    query  string  false "Filter by entity ID"
// @Param       lab_id       query  string  false "Filter by lab"
// @Param       action       query  string  false "Filter by action"  Enums(CREATE, UPDATE, DELETE)
// @Param       page         query  int     false "Page number"       minimum(1) default(1)
// @Param       page_size    query  int     false "Items per page"    minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListAuditResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /audit [get]
func (h *Handlers) ListAudit(c *gin.Context) {
	page, pageSize := clampPagination(c)

	f := repo.AuditFilter{
		ActorID:  c.Query("actor_id"),
		EntityID: c.Query("entity_id"),
		LabID:    c.Query("lab_id"),
		Action:   c.Query("action"),
	}
	if raw := c.Query("entity_type"); raw != "" {
		typ, valid := domain.ParseEntityType(raw)
		if !valid {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown entity type "+raw)
			return
		}
		f.EntityType = string(typ)
	}

	records, total, err := h.auditSvc.List(c.Request.Context(), f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListAuditResponse{
		Records: records,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: utils.TotalPages(total, pageSize),
			HasNext:    int64(page*pageSize) < total,
		},
	})
}
