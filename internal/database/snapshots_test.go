package database

import (
	"context"
	"errors"
	"testing"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"github.com/shopspring/decimal"
)

func testTotals(assets, liabilities int64) models.Totals {
	return models.Totals{
		TotalAssets:      decimal.NewFromInt(assets),
		TotalLiabilities: decimal.NewFromInt(liabilities),
		NetWorth:         decimal.NewFromInt(assets - liabilities),
	}
}

func TestSnapshot_OnePerDay(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := service.InsertSnapshot(ctx, store.InsertSnapshotParams{
		UserId:       "user1",
		SnapshotDate: "2025-03-14",
		Totals:       testTotals(1000, 400),
	})
	if err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}

	_, err = service.InsertSnapshot(ctx, store.InsertSnapshotParams{
		UserId:       "user1",
		SnapshotDate: "2025-03-14",
		Totals:       testTotals(2000, 400),
	})
	if !errors.Is(err, store.ErrDuplicateSnapshot) {
		t.Fatalf("Expected ErrDuplicateSnapshot, got %v", err)
	}

	// The same date for another user is independent
	if _, err := service.InsertSnapshot(ctx, store.InsertSnapshotParams{
		UserId:       "user2",
		SnapshotDate: "2025-03-14",
		Totals:       testTotals(5, 0),
	}); err != nil {
		t.Fatalf("InsertSnapshot for user2 failed: %v", err)
	}

	snap, err := service.GetSnapshot(ctx, "user1", "2025-03-14")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if !snap.NetWorth.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expected net worth 600, got %s", snap.NetWorth)
	}
}

func TestUpdateSnapshotTotals(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := service.UpdateSnapshotTotals(ctx, "user1", "2025-03-14", testTotals(1, 0)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound updating missing snapshot, got %v", err)
	}

	original, err := service.InsertSnapshot(ctx, store.InsertSnapshotParams{
		UserId:       "user1",
		SnapshotDate: "2025-03-14",
		Totals:       testTotals(1000, 400),
	})
	if err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}

	updated, err := service.UpdateSnapshotTotals(ctx, "user1", "2025-03-14", testTotals(1100, 400))
	if err != nil {
		t.Fatalf("UpdateSnapshotTotals failed: %v", err)
	}
	if updated.Id != original.Id {
		t.Errorf("Expected the same row to be updated, got id %s want %s", updated.Id, original.Id)
	}
	if !updated.TotalAssets.Equal(decimal.NewFromInt(1100)) || !updated.NetWorth.Equal(decimal.NewFromInt(700)) {
		t.Errorf("Unexpected totals after update: %+v", updated)
	}
}

func TestGetSnapshots_Range(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	for i, date := range []string{"2025-03-12", "2025-03-10", "2025-03-11"} {
		if _, err := service.InsertSnapshot(ctx, store.InsertSnapshotParams{
			UserId:       "user1",
			SnapshotDate: date,
			Totals:       testTotals(int64(100*(i+1)), 0),
		}); err != nil {
			t.Fatalf("InsertSnapshot %s failed: %v", date, err)
		}
	}

	all, err := service.GetSnapshots(ctx, "user1", "", "")
	if err != nil {
		t.Fatalf("GetSnapshots failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 snapshots, got %d", len(all))
	}
	if all[0].SnapshotDate != "2025-03-10" || all[2].SnapshotDate != "2025-03-12" {
		t.Errorf("Expected snapshots ordered by date, got %s..%s", all[0].SnapshotDate, all[2].SnapshotDate)
	}

	ranged, err := service.GetSnapshots(ctx, "user1", "2025-03-11", "2025-03-11")
	if err != nil {
		t.Fatalf("GetSnapshots failed: %v", err)
	}
	if len(ranged) != 1 || ranged[0].SnapshotDate != "2025-03-11" {
		t.Errorf("Expected only 2025-03-11, got %+v", ranged)
	}

	other, err := service.GetSnapshots(ctx, "user2", "", "")
	if err != nil {
		t.Fatalf("GetSnapshots failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no snapshots for user2, got %d", len(other))
	}
}
