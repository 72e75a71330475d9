package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tmarkou/go-lab-backend/internal/domain"
)

func TestAuditLedger_CreateCountList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	labID := uuid.NewString()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	recs := []*domain.AuditRecord{
		{ID: uuid.NewString(), ActorID: "alice", Action: domain.AuditActionDelete,
			EntityType: "task", EntityID: uuid.NewString(), EntityName: "T1", CreatedAt: base},
		{ID: uuid.NewString(), ActorID: "alice", Action: domain.AuditActionDelete,
			EntityType: "study", EntityID: uuid.NewString(), EntityName: "S1", LabID: &labID,
			CreatedAt: base.Add(time.Minute)},
		{ID: uuid.NewString(), ActorID: "bob", Action: domain.AuditActionUpdate,
			EntityType: "task", EntityID: uuid.NewString(), EntityName: "T2",
			CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range recs {
		if err := CreateAuditRecord(ctx, db, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	// Unfiltered count.
	total, err := CountAuditRecords(ctx, db, AuditFilter{})
	if err != nil || total != 3 {
		t.Fatalf("count all = %d err=%v", total, err)
	}

	// Filter combinations AND together.
	n, err := CountAuditRecords(ctx, db, AuditFilter{ActorID: "alice", EntityType: "task"})
	if err != nil || n != 1 {
		t.Fatalf("count alice+task = %d err=%v", n, err)
	}
	n, err = CountAuditRecords(ctx, db, AuditFilter{LabID: labID})
	if err != nil || n != 1 {
		t.Fatalf("count lab = %d err=%v", n, err)
	}
	n, err = CountAuditRecords(ctx, db, AuditFilter{Action: domain.AuditActionDelete})
	if err != nil || n != 2 {
		t.Fatalf("count deletes = %d err=%v", n, err)
	}

	// Listing is newest first and paginates.
	page, err := ListAuditRecordsPage(ctx, db, AuditFilter{}, 0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ActorID != "bob" || page[1].EntityName != "S1" {
		t.Fatalf("unexpected first page: %+v", page)
	}
	rest, err := ListAuditRecordsPage(ctx, db, AuditFilter{}, 2, 2)
	if err != nil || len(rest) != 1 || rest[0].EntityName != "T1" {
		t.Fatalf("unexpected second page: %+v err=%v", rest, err)
	}
}
