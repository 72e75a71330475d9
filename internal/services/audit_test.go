package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tmarkou/go-lab-backend/internal/domain"
	"github.com/tmarkou/go-lab-backend/internal/repo"
)

func TestAuditRecorder_RecordAndReadBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	rec := &AuditRecorder{DB: db}

	labID := uuid.NewString()
	entityID := uuid.NewString()
	row, err := rec.Record(ctx, AuditEntry{
		ActorID:    "alice",
		Action:     domain.AuditActionDelete,
		EntityType: domain.EntityTypeTask,
		EntityID:   entityID,
		EntityName: "Label samples",
		LabID:      &labID,
		Metadata:   map[string]any{"is_soft_delete": true, "address": "10.0.0.1"},
		Changes: map[string]Change{
			"status": {Before: "open", After: "deleted"},
		},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if row.ID == "" || row.CreatedAt.IsZero() {
		t.Fatalf("record should carry id and timestamp: %+v", row)
	}

	items, total, err := rec.List(ctx, repo.AuditFilter{EntityID: entityID}, 1, 10)
	if err != nil || total != 1 {
		t.Fatalf("List: total=%d err=%v", total, err)
	}
	got := items[0]
	if got.ActorID != "alice" || got.EntityName != "Label samples" || got.LabID == nil || *got.LabID != labID {
		t.Fatalf("unexpected record: %+v", got)
	}

	var meta map[string]any
	if err := json.Unmarshal(got.Metadata, &meta); err != nil {
		t.Fatalf("metadata should be valid JSON: %v", err)
	}
	if meta["is_soft_delete"] != true || meta["address"] != "10.0.0.1" {
		t.Fatalf("unexpected metadata: %v", meta)
	}
	var changes map[string]Change
	if err := json.Unmarshal(got.Changes, &changes); err != nil {
		t.Fatalf("changes should be valid JSON: %v", err)
	}
	if changes["status"].Before != "open" || changes["status"].After != "deleted" {
		t.Fatalf("unexpected changes: %v", changes)
	}
}

func TestAuditRecorder_EmptyOptionalColumns(t *testing.T) {
	db := newTestDB(t)
	rec := &AuditRecorder{DB: db}

	row, err := rec.Record(context.Background(), AuditEntry{
		ActorID:    "alice",
		Action:     domain.AuditActionCreate,
		EntityType: domain.EntityTypeIdea,
		EntityID:   uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(row.Metadata) != 0 || len(row.Changes) != 0 {
		t.Fatalf("empty maps should leave JSON columns unset: %+v", row)
	}
}

func TestAuditRecorder_WriteFailureWrapped(t *testing.T) {
	deadDB, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB, err := deadDB.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	_ = sqlDB.Close()

	rec := &AuditRecorder{DB: deadDB}
	_, err = rec.Record(context.Background(), AuditEntry{
		ActorID:    "alice",
		Action:     domain.AuditActionDelete,
		EntityType: domain.EntityTypeTask,
		EntityID:   uuid.NewString(),
	})
	if !errors.Is(err, ErrAuditWriteFailed) {
		t.Fatalf("expected ErrAuditWriteFailed, got %v", err)
	}
}

func TestAuditRecorder_ListPaginationAndClamping(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	rec := &AuditRecorder{DB: db}

	for i := 0; i < 5; i++ {
		if _, err := rec.Record(ctx, AuditEntry{
			ActorID:    "alice",
			Action:     domain.AuditActionDelete,
			EntityType: domain.EntityTypeTask,
			EntityID:   uuid.NewString(),
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	items, total, err := rec.List(ctx, repo.AuditFilter{}, 1, 2)
	if err != nil || total != 5 || len(items) != 2 {
		t.Fatalf("page 1: total=%d len=%d err=%v", total, len(items), err)
	}
	items, _, err = rec.List(ctx, repo.AuditFilter{}, 3, 2)
	if err != nil || len(items) != 1 {
		t.Fatalf("page 3: len=%d err=%v", len(items), err)
	}

	// Out-of-range inputs clamp instead of erroring.
	items, total, err = rec.List(ctx, repo.AuditFilter{}, 0, 0)
	if err != nil || total != 5 || len(items) != 5 {
		t.Fatalf("clamped page: total=%d len=%d err=%v", total, len(items), err)
	}

	// No matches short-circuits with an empty page.
	items, total, err = rec.List(ctx, repo.AuditFilter{ActorID: "nobody"}, 1, 10)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("empty filter result: total=%d len=%d err=%v", total, len(items), err)
	}
}
