package database

import (
	"context"
	"errors"
	"testing"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"github.com/shopspring/decimal"
)

func createTestRule(t *testing.T, service *Service, userId, startDate string) *models.RecurringTransaction {
	t.Helper()
	rule, err := service.CreateRecurring(context.Background(), store.CreateRecurringParams{
		UserId:      userId,
		Type:        models.TransactionTypeExpense,
		Amount:      decimal.NewFromInt(1200),
		Description: "Rent",
		Frequency:   models.FrequencyMonthly,
		StartDate:   startDate,
	})
	if err != nil {
		t.Fatalf("CreateRecurring failed: %v", err)
	}
	return rule
}

func TestGetDueRecurring(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createTestRule(t, service, "user1", "2025-03-01")
	createTestRule(t, service, "user2", "2025-03-10")
	createTestRule(t, service, "user1", "2025-04-01")

	due, err := service.GetDueRecurring(ctx, "", "2025-03-14")
	if err != nil {
		t.Fatalf("GetDueRecurring failed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("Expected 2 due rules across users, got %d", len(due))
	}
	if !due[0].Active || due[0].NextDate != "2025-03-01" {
		t.Errorf("Unexpected first due rule: %+v", due[0])
	}

	due, err = service.GetDueRecurring(ctx, "user2", "2025-03-14")
	if err != nil {
		t.Fatalf("GetDueRecurring failed: %v", err)
	}
	if len(due) != 1 || due[0].UserId != "user2" {
		t.Errorf("Expected only user2's rule, got %+v", due)
	}
}

func TestMaterializeRecurring(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	rule := createTestRule(t, service, "user1", "2025-03-01")

	txn, err := service.MaterializeRecurring(ctx, store.MaterializeParams{
		Rule:           *rule,
		OccurrenceDate: "2025-03-01",
		NextDate:       "2025-04-01",
	})
	if err != nil {
		t.Fatalf("MaterializeRecurring failed: %v", err)
	}
	if txn.ExternalId != "recurring:"+rule.Id+":2025-03-01" {
		t.Errorf("Unexpected external id %s", txn.ExternalId)
	}
	if txn.RecurringId != rule.Id || txn.TransactionDate != "2025-03-01" {
		t.Errorf("Unexpected materialized transaction: %+v", txn)
	}

	due, err := service.GetDueRecurring(ctx, "user1", "2025-03-31")
	if err != nil {
		t.Fatalf("GetDueRecurring failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("Expected rule to be advanced past 2025-03-31, got %+v", due)
	}

	// A stale rule copy loses the compare-and-swap on next_date
	_, err = service.MaterializeRecurring(ctx, store.MaterializeParams{
		Rule:           *rule,
		OccurrenceDate: "2025-03-02",
		NextDate:       "2025-04-02",
	})
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Errorf("Expected ErrConcurrentModification, got %v", err)
	}

	latest, err := service.GetLatestTransactionSeq(ctx)
	if err != nil {
		t.Fatalf("GetLatestTransactionSeq failed: %v", err)
	}
	if latest != txn.Seq {
		t.Errorf("Expected the rolled back insert to leave seq at %d, got %d", txn.Seq, latest)
	}
}

func TestMaterializeRecurring_ExistingOccurrenceAdvances(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	rule := createTestRule(t, service, "user1", "2025-03-01")

	// The occurrence was already recorded, e.g. by an earlier run that crashed before advancing
	insertTestTransaction(t, service, "user1", models.TransactionTypeExpense, "1200", "recurring:"+rule.Id+":2025-03-01")

	_, err := service.MaterializeRecurring(ctx, store.MaterializeParams{
		Rule:           *rule,
		OccurrenceDate: "2025-03-01",
		NextDate:       "2025-04-01",
		Deactivate:     true,
	})
	if !errors.Is(err, store.ErrDuplicateTransaction) {
		t.Fatalf("Expected ErrDuplicateTransaction, got %v", err)
	}

	due, err := service.GetDueRecurring(ctx, "user1", "2099-01-01")
	if err != nil {
		t.Fatalf("GetDueRecurring failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("Expected deactivated rule to no longer be due, got %+v", due)
	}
}
