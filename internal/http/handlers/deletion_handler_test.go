package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tmarkou/go-lab-backend/internal/domain"
	"github.com/tmarkou/go-lab-backend/internal/repo"
	"github.com/tmarkou/go-lab-backend/internal/services"
)

//
// Fakes
//

type fakeDeletion struct {
	res       *services.DeleteResult
	err       error
	gotActor  string
	gotType   domain.EntityType
	gotID     string
	gotMeta   services.RequestMeta
	callCount int
}

func (f *fakeDeletion) Delete(_ context.Context, actorID string, typ domain.EntityType, id string, meta services.RequestMeta) (*services.DeleteResult, error) {
	f.callCount++
	f.gotActor, f.gotType, f.gotID, f.gotMeta = actorID, typ, id, meta
	return f.res, f.err
}

type fakeArchive struct {
	entries    []services.ArchiveEntry
	snap       *domain.EntitySnapshot
	err        error
	gotLabID   *string
	gotWithin  int
	gotOffset  int
	gotLimit   int
	gotType    domain.EntityType
	gotID      string
	lastMethod string
}

func (f *fakeArchive) ListExpiring(_ context.Context, labID *string, withinDays, offset, limit int) ([]services.ArchiveEntry, error) {
	f.lastMethod = "list"
	f.gotLabID, f.gotWithin, f.gotOffset, f.gotLimit = labID, withinDays, offset, limit
	return f.entries, f.err
}

func (f *fakeArchive) Restore(_ context.Context, typ domain.EntityType, id string) (*domain.EntitySnapshot, error) {
	f.lastMethod = "restore"
	f.gotType, f.gotID = typ, id
	return f.snap, f.err
}

func (f *fakeArchive) Purge(_ context.Context, typ domain.EntityType, id string) (*domain.EntitySnapshot, error) {
	f.lastMethod = "purge"
	f.gotType, f.gotID = typ, id
	return f.snap, f.err
}

type fakeAudit struct {
	records     []domain.AuditRecord
	total       int64
	err         error
	gotFilter   repo.AuditFilter
	gotPage     int
	gotPageSize int
}

func (f *fakeAudit) List(_ context.Context, filter repo.AuditFilter, page, pageSize int) ([]domain.AuditRecord, int64, error) {
	f.gotFilter, f.gotPage, f.gotPageSize = filter, page, pageSize
	return f.records, f.total, f.err
}

func newHandlerRouter(del *fakeDeletion, arc *fakeArchive, aud *fakeAudit) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(del, arc, aud)
	r := gin.New()
	r.DELETE("/entities/:type/:id", h.DeleteEntity)
	r.GET("/archive/expiring", h.ListExpiring)
	r.POST("/archive/:type/:id/restore", h.RestoreEntity)
	r.DELETE("/archive/:type/:id", h.PurgeEntity)
	r.GET("/audit", h.ListAudit)
	return r
}

const testUUID = "6e1f5d0a-0f4a-4d8e-9c3b-2a7b1c9d4e5f"

//
// DeleteEntity
//

func TestDeleteEntity_OK(t *testing.T) {
	del := &fakeDeletion{res: &services.DeleteResult{
		Outcome:     services.DeleteOK,
		Entity:      &domain.EntitySnapshot{ID: testUUID, Name: "Plasmid prep"},
		SoftDeleted: true,
	}}
	r := newHandlerRouter(del, &fakeArchive{}, &fakeAudit{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/entities/task/"+testUUID, nil)
	req.Header.Set("X-User-ID", "alice")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp DeleteEntityResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.DeletedEntity.ID != testUUID || resp.DeletedEntity.Name != "Plasmid prep" || !resp.SoftDeleted {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if del.gotActor != "alice" || del.gotType != domain.EntityTypeTask || del.gotID != testUUID {
		t.Fatalf("service got actor=%q type=%q id=%q", del.gotActor, del.gotType, del.gotID)
	}
}

func TestDeleteEntity_ActorFallsBackToDemoUser(t *testing.T) {
	del := &fakeDeletion{res: &services.DeleteResult{Outcome: services.DeleteNotFound}}
	r := newHandlerRouter(del, &fakeArchive{}, &fakeAudit{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/entities/task/"+testUUID, nil))

	if del.gotActor != "demo-user" {
		t.Fatalf("actor=%q, want demo-user", del.gotActor)
	}
}

func TestDeleteEntity_BadType_And_BadID(t *testing.T) {
	del := &fakeDeletion{}
	r := newHandlerRouter(del, &fakeArchive{}, &fakeAudit{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/entities/widget/"+testUUID, nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown type status=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/entities/task/not-a-uuid", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeBadRequest {
		t.Fatalf("code=%q", er.Code)
	}
	if del.callCount != 0 {
		t.Fatalf("service should not be reached on validation failure")
	}
}

func TestDeleteEntity_RateLimited_SetsRetryAfter(t *testing.T) {
	del := &fakeDeletion{res: &services.DeleteResult{
		Outcome:    services.DeleteRateLimited,
		RetryAfter: 42 * time.Second,
	}}
	r := newHandlerRouter(del, &fakeArchive{}, &fakeAudit{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/entities/study/"+testUUID, nil))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("Retry-After=%q", got)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeRateLimited {
		t.Fatalf("code=%q", er.Code)
	}
}

func TestDeleteEntity_RateLimited_SubSecondRoundsUp(t *testing.T) {
	del := &fakeDeletion{res: &services.DeleteResult{
		Outcome:    services.DeleteRateLimited,
		RetryAfter: 300 * time.Millisecond,
	}}
	r := newHandlerRouter(del, &fakeArchive{}, &fakeAudit{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/entities/study/"+testUUID, nil))
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After=%q, want 1", got)
	}
}

func TestDeleteEntity_Blocked_ReturnsDependencyCounts(t *testing.T) {
	del := &fakeDeletion{res: &services.DeleteResult{
		Outcome:      services.DeleteBlocked,
		Dependencies: map[string]int64{"tasks": 3, "comments": 1},
		Detail:       "3 task(s), 1 comment(s)",
	}}
	r := newHandlerRouter(del, &fakeArchive{}, &fakeAudit{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/entities/study/"+testUUID, nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	var resp DependencyErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Code != ErrCodeHasDependencies {
		t.Fatalf("code=%q", resp.Code)
	}
	if resp.Dependencies["tasks"] != 3 || resp.Dependencies["comments"] != 1 {
		t.Fatalf("dependencies=%v", resp.Dependencies)
	}
}

func TestDeleteEntity_NotFound_And_ServiceError(t *testing.T) {
	del := &fakeDeletion{res: &services.DeleteResult{Outcome: services.DeleteNotFound}}
	r := newHandlerRouter(del, &fakeArchive{}, &fakeAudit{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/entities/idea/"+testUUID, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("not found status=%d", w.Code)
	}

	del.res, del.err = nil, errors.New("db down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/entities/idea/"+testUUID, nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("error status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeDeleteFailed {
		t.Fatalf("code=%q", er.Code)
	}
}
