package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tmarkou/go-lab-backend/internal/domain"
	"github.com/tmarkou/go-lab-backend/internal/services"
)

func TestListExpiring_DefaultsAndPassthrough(t *testing.T) {
	now := time.Now().UTC()
	arc := &fakeArchive{entries: []services.ArchiveEntry{{
		EntityType:    domain.EntityTypeTask,
		EntityID:      testUUID,
		Name:          "Old task",
		DeletedAt:     now.Add(-29 * 24 * time.Hour),
		PurgeDeadline: now.Add(24 * time.Hour),
	}}}
	r := newHandlerRouter(&fakeDeletion{}, arc, &fakeAudit{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/archive/expiring", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	// Defaults: page 1, page_size 20, within_days 7, all labs.
	if arc.gotLabID != nil || arc.gotWithin != 7 || arc.gotOffset != 0 || arc.gotLimit != 20 {
		t.Fatalf("service got lab=%v within=%d offset=%d limit=%d",
			arc.gotLabID, arc.gotWithin, arc.gotOffset, arc.gotLimit)
	}
	var resp ListExpiringResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Name != "Old task" {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}
	if resp.Page != 1 || resp.PageSize != 20 || resp.WithinDays != 7 {
		t.Fatalf("unexpected pagination echo: %+v", resp)
	}
}

func TestListExpiring_QueryParams(t *testing.T) {
	arc := &fakeArchive{}
	r := newHandlerRouter(&fakeDeletion{}, arc, &fakeAudit{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/archive/expiring?lab_id=lab-1&within_days=30&page=3&page_size=10", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if arc.gotLabID == nil || *arc.gotLabID != "lab-1" {
		t.Fatalf("lab filter not forwarded: %v", arc.gotLabID)
	}
	if arc.gotWithin != 30 || arc.gotOffset != 20 || arc.gotLimit != 10 {
		t.Fatalf("got within=%d offset=%d limit=%d", arc.gotWithin, arc.gotOffset, arc.gotLimit)
	}
}

func TestListExpiring_ClampsPageSizeAndHorizon(t *testing.T) {
	arc := &fakeArchive{}
	r := newHandlerRouter(&fakeDeletion{}, arc, &fakeAudit{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/archive/expiring?page=0&page_size=999&within_days=-4", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if arc.gotOffset != 0 || arc.gotLimit != 100 || arc.gotWithin != 0 {
		t.Fatalf("clamping failed: offset=%d limit=%d within=%d",
			arc.gotOffset, arc.gotLimit, arc.gotWithin)
	}
}

func TestRestoreEntity_Statuses(t *testing.T) {
	arc := &fakeArchive{snap: &domain.EntitySnapshot{ID: testUUID, Name: "T"}}
	r := newHandlerRouter(&fakeDeletion{}, arc, &fakeAudit{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/archive/task/"+testUUID+"/restore", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("restore status=%d", w.Code)
	}
	if arc.lastMethod != "restore" || arc.gotType != domain.EntityTypeTask || arc.gotID != testUUID {
		t.Fatalf("service got method=%q type=%q id=%q", arc.lastMethod, arc.gotType, arc.gotID)
	}

	// Unknown type never reaches the service.
	arc.lastMethod = ""
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/archive/widget/"+testUUID+"/restore", nil))
	if w.Code != http.StatusBadRequest || arc.lastMethod != "" {
		t.Fatalf("unknown type status=%d method=%q", w.Code, arc.lastMethod)
	}

	arc.snap, arc.err = nil, services.ErrEntityNotFound
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/archive/task/"+testUUID+"/restore", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing status=%d", w.Code)
	}

	arc.err = services.ErrNotSoftDeleted
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/archive/task/"+testUUID+"/restore", nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("live status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeNotSoftDeleted {
		t.Fatalf("code=%q", er.Code)
	}
}

func TestPurgeEntity_Statuses(t *testing.T) {
	arc := &fakeArchive{snap: &domain.EntitySnapshot{ID: testUUID, Name: "T"}}
	r := newHandlerRouter(&fakeDeletion{}, arc, &fakeAudit{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/archive/comment/"+testUUID, nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("purge status=%d", w.Code)
	}
	if arc.lastMethod != "purge" || arc.gotType != domain.EntityTypeComment {
		t.Fatalf("service got method=%q type=%q", arc.lastMethod, arc.gotType)
	}

	arc.snap, arc.err = nil, services.ErrNotSoftDeleted
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/archive/comment/"+testUUID, nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("live status=%d", w.Code)
	}
}
