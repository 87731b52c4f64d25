package database

import (
	"context"
	"errors"
	"testing"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"github.com/shopspring/decimal"
)

func insertTestTransaction(t *testing.T, service *Service, userId string, txnType models.TransactionType, amount, externalId string) *models.Transaction {
	t.Helper()
	txn, err := service.InsertTransaction(context.Background(), store.InsertTransactionParams{
		UserId:     userId,
		Type:       txnType,
		Amount:     decimal.RequireFromString(amount),
		ExternalId: externalId,
	})
	if err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}
	return txn
}

func TestInsertTransaction_SequenceOrder(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	latest, err := service.GetLatestTransactionSeq(ctx)
	if err != nil {
		t.Fatalf("GetLatestTransactionSeq failed: %v", err)
	}
	if latest != 0 {
		t.Errorf("Expected latest seq 0 on empty table, got %d", latest)
	}

	first := insertTestTransaction(t, service, "user1", models.TransactionTypeIncome, "100", "")
	second := insertTestTransaction(t, service, "user2", models.TransactionTypeExpense, "20", "")
	third := insertTestTransaction(t, service, "user1", models.TransactionTypeExpense, "5.5", "")

	if !(first.Seq < second.Seq && second.Seq < third.Seq) {
		t.Fatalf("Expected increasing seq, got %d %d %d", first.Seq, second.Seq, third.Seq)
	}
	if first.TransactionDate != "2025-03-14" {
		t.Errorf("Expected default transaction date 2025-03-14, got %s", first.TransactionDate)
	}

	after, err := service.ListTransactionsAfter(ctx, first.Seq, 10)
	if err != nil {
		t.Fatalf("ListTransactionsAfter failed: %v", err)
	}
	if len(after) != 2 || after[0].Id != second.Id || after[1].Id != third.Id {
		t.Fatalf("Unexpected transactions after seq %d: %+v", first.Seq, after)
	}
	if !after[1].Amount.Equal(decimal.RequireFromString("5.5")) {
		t.Errorf("Expected amount 5.5, got %s", after[1].Amount)
	}

	limited, err := service.ListTransactionsAfter(ctx, 0, 1)
	if err != nil {
		t.Fatalf("ListTransactionsAfter failed: %v", err)
	}
	if len(limited) != 1 || limited[0].Id != first.Id {
		t.Errorf("Expected only the first transaction, got %+v", limited)
	}

	latest, err = service.GetLatestTransactionSeq(ctx)
	if err != nil {
		t.Fatalf("GetLatestTransactionSeq failed: %v", err)
	}
	if latest != third.Seq {
		t.Errorf("Expected latest seq %d, got %d", third.Seq, latest)
	}
}

func TestInsertTransaction_DuplicateExternalId(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	insertTestTransaction(t, service, "user1", models.TransactionTypeIncome, "100", "bank-ref-1")

	_, err := service.InsertTransaction(context.Background(), store.InsertTransactionParams{
		UserId:     "user1",
		Type:       models.TransactionTypeIncome,
		Amount:     decimal.NewFromInt(100),
		ExternalId: "bank-ref-1",
	})
	if !errors.Is(err, store.ErrDuplicateTransaction) {
		t.Fatalf("Expected ErrDuplicateTransaction, got %v", err)
	}

	// Empty external ids never collide
	insertTestTransaction(t, service, "user1", models.TransactionTypeIncome, "1", "")
	insertTestTransaction(t, service, "user1", models.TransactionTypeIncome, "1", "")
}

func TestListUserTransactionsAfter(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	first := insertTestTransaction(t, service, "user1", models.TransactionTypeIncome, "100", "")
	insertTestTransaction(t, service, "user2", models.TransactionTypeIncome, "7", "")
	third := insertTestTransaction(t, service, "user1", models.TransactionTypeExpense, "20", "")

	txns, err := service.ListUserTransactionsAfter(ctx, "user1", 0, 10)
	if err != nil {
		t.Fatalf("ListUserTransactionsAfter failed: %v", err)
	}
	if len(txns) != 2 || txns[0].Id != first.Id || txns[1].Id != third.Id {
		t.Fatalf("Expected only user1 transactions in order, got %+v", txns)
	}

	txns, err = service.ListUserTransactionsAfter(ctx, "user1", first.Seq, 10)
	if err != nil {
		t.Fatalf("ListUserTransactionsAfter failed: %v", err)
	}
	if len(txns) != 1 || txns[0].Id != third.Id {
		t.Errorf("Expected only the transaction after seq %d, got %+v", first.Seq, txns)
	}
}

func TestFeedCursor(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.GetFeedCursor(ctx, "user1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound before the first save, got %v", err)
	}

	if err := service.SaveFeedCursor(ctx, "user1", 5); err != nil {
		t.Fatalf("SaveFeedCursor failed: %v", err)
	}
	if err := service.SaveFeedCursor(ctx, "user1", 3); err != nil {
		t.Fatalf("SaveFeedCursor failed: %v", err)
	}

	seq, err := service.GetFeedCursor(ctx, "user1")
	if err != nil {
		t.Fatalf("GetFeedCursor failed: %v", err)
	}
	if seq != 5 {
		t.Errorf("Expected cursor to stay at 5, got %d", seq)
	}

	if _, err := service.GetFeedCursor(ctx, "user2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected cursors to be per user, got %v", err)
	}
}
