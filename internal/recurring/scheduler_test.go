package recurring

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"balance-sheet-go/internal/database"
	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"github.com/shopspring/decimal"
)

func setupScheduler(t *testing.T) (*Scheduler, *database.Service, *int) {
	t.Helper()

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "balance-sheet.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(db.Close)

	for _, id := range []string{"user1", "user2"} {
		if _, err := db.CreateUser(context.Background(), id, id, id+"@example.com"); err != nil {
			t.Fatalf("Failed to insert test user: %v", err)
		}
	}

	pokes := 0
	scheduler := NewScheduler(SchedulerConfig{
		Store:          db,
		Location:       time.UTC,
		OnMaterialized: func() { pokes++ },
	})
	scheduler.now = func() time.Time {
		return time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	}
	return scheduler, db, &pokes
}

func createRule(t *testing.T, s *Scheduler, params store.CreateRecurringParams) *models.RecurringTransaction {
	t.Helper()
	rule, err := s.CreateRule(context.Background(), params)
	if err != nil {
		t.Fatalf("CreateRule failed: %v", err)
	}
	return rule
}

func allTransactions(t *testing.T, db *database.Service) []models.Transaction {
	t.Helper()
	txns, err := db.ListTransactionsAfter(context.Background(), 0, 10000)
	if err != nil {
		t.Fatalf("ListTransactionsAfter failed: %v", err)
	}
	return txns
}

func TestCreateRule_Validation(t *testing.T) {
	scheduler, _, _ := setupScheduler(t)

	valid := store.CreateRecurringParams{
		UserId:    "user1",
		Type:      models.TransactionTypeIncome,
		Amount:    decimal.NewFromInt(100),
		Frequency: models.FrequencyMonthly,
		StartDate: "2025-01-01",
	}

	tests := []struct {
		name   string
		mutate func(p *store.CreateRecurringParams)
	}{
		{"no user", func(p *store.CreateRecurringParams) { p.UserId = "" }},
		{"bad type", func(p *store.CreateRecurringParams) { p.Type = "bonus" }},
		{"zero amount", func(p *store.CreateRecurringParams) { p.Amount = decimal.Zero }},
		{"bad frequency", func(p *store.CreateRecurringParams) { p.Frequency = "hourly" }},
		{"bad start", func(p *store.CreateRecurringParams) { p.StartDate = "2025-13-01" }},
		{"end before start", func(p *store.CreateRecurringParams) { p.EndDate = "2024-12-31" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)
			_, err := scheduler.CreateRule(context.Background(), params)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if params.UserId != "" && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}

	params := valid
	params.StartDate = ""
	rule := createRule(t, scheduler, params)
	if rule.StartDate != "2025-03-14" || rule.NextDate != "2025-03-14" {
		t.Errorf("Expected start and next date to default to today, got %s / %s", rule.StartDate, rule.NextDate)
	}
	if !rule.Active {
		t.Error("Expected new rule to be active")
	}
}

func TestMaterializeDueTransactions_CatchUp(t *testing.T) {
	scheduler, db, pokes := setupScheduler(t)
	ctx := context.Background()

	rule := createRule(t, scheduler, store.CreateRecurringParams{
		UserId:      "user1",
		Type:        models.TransactionTypeExpense,
		Amount:      decimal.RequireFromString("1200.00"),
		Description: "Rent",
		Frequency:   models.FrequencyMonthly,
		StartDate:   "2025-01-31",
	})

	created, err := scheduler.MaterializeDueTransactions(ctx, "user1", "2025-03-31")
	if err != nil {
		t.Fatalf("MaterializeDueTransactions failed: %v", err)
	}

	want := []string{"2025-01-31", "2025-02-28", "2025-03-31"}
	if len(created) != len(want) {
		t.Fatalf("Expected %d transactions, got %d", len(want), len(created))
	}
	for i, txn := range created {
		if txn.TransactionDate != want[i] {
			t.Errorf("Occurrence %d: expected date %s, got %s", i, want[i], txn.TransactionDate)
		}
		if txn.RecurringId != rule.Id {
			t.Errorf("Occurrence %d: expected recurring id %s, got %s", i, rule.Id, txn.RecurringId)
		}
		if !strings.HasPrefix(txn.ExternalId, "recurring:"+rule.Id+":") {
			t.Errorf("Occurrence %d: unexpected external id %s", i, txn.ExternalId)
		}
		if !txn.Amount.Equal(decimal.RequireFromString("1200")) || txn.Type != models.TransactionTypeExpense {
			t.Errorf("Occurrence %d: unexpected amount or type: %s %s", i, txn.Amount, txn.Type)
		}
	}
	if *pokes != 1 {
		t.Errorf("Expected one materialized notification, got %d", *pokes)
	}

	due, err := db.GetDueRecurring(ctx, "user1", "2025-04-29")
	if err != nil {
		t.Fatalf("GetDueRecurring failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("Expected rule to advance past 2025-04-29, got %d due", len(due))
	}
	due, err = db.GetDueRecurring(ctx, "user1", "2025-04-30")
	if err != nil {
		t.Fatalf("GetDueRecurring failed: %v", err)
	}
	if len(due) != 1 || due[0].NextDate != "2025-04-30" || due[0].LastDate != "2025-03-31" {
		t.Errorf("Expected next 2025-04-30 after 2025-03-31, got %+v", due)
	}
}

func TestMaterializeDueTransactions_Idempotent(t *testing.T) {
	scheduler, db, pokes := setupScheduler(t)
	ctx := context.Background()

	createRule(t, scheduler, store.CreateRecurringParams{
		UserId:    "user1",
		Type:      models.TransactionTypeIncome,
		Amount:    decimal.NewFromInt(50),
		Frequency: models.FrequencyWeekly,
		StartDate: "2025-03-01",
	})

	first, err := scheduler.MaterializeDueTransactions(ctx, "user1", "2025-03-14")
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("Expected 2 transactions on first run, got %d", len(first))
	}

	second, err := scheduler.MaterializeDueTransactions(ctx, "user1", "2025-03-14")
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("Expected no transactions on second run, got %d", len(second))
	}
	if got := len(allTransactions(t, db)); got != 2 {
		t.Errorf("Expected 2 stored transactions, got %d", got)
	}
	if *pokes != 1 {
		t.Errorf("Expected one materialized notification, got %d", *pokes)
	}
}

func TestMaterializeDueTransactions_StaleRuleSkipsExisting(t *testing.T) {
	scheduler, db, _ := setupScheduler(t)
	ctx := context.Background()

	rule := createRule(t, scheduler, store.CreateRecurringParams{
		UserId:    "user1",
		Type:      models.TransactionTypeIncome,
		Amount:    decimal.NewFromInt(10),
		Frequency: models.FrequencyDaily,
		StartDate: "2025-03-10",
	})

	// The first occurrence exists but the rule was not advanced
	if _, err := db.InsertTransaction(ctx, store.InsertTransactionParams{
		UserId:          "user1",
		Type:            models.TransactionTypeIncome,
		Amount:          decimal.NewFromInt(10),
		TransactionDate: "2025-03-10",
		ExternalId:      "recurring:" + rule.Id + ":2025-03-10",
		RecurringId:     rule.Id,
	}); err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}

	created, err := scheduler.MaterializeDueTransactions(ctx, "user1", "2025-03-12")
	if err != nil {
		t.Fatalf("MaterializeDueTransactions failed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("Expected 2 new transactions, got %d", len(created))
	}
	if created[0].TransactionDate != "2025-03-11" {
		t.Errorf("Expected first new occurrence 2025-03-11, got %s", created[0].TransactionDate)
	}
	if got := len(allTransactions(t, db)); got != 3 {
		t.Errorf("Expected 3 stored transactions, got %d", got)
	}
}

func TestMaterializeDueTransactions_EndDateDeactivates(t *testing.T) {
	scheduler, db, _ := setupScheduler(t)
	ctx := context.Background()

	createRule(t, scheduler, store.CreateRecurringParams{
		UserId:    "user1",
		Type:      models.TransactionTypeExpense,
		Amount:    decimal.NewFromInt(5),
		Frequency: models.FrequencyDaily,
		StartDate: "2025-03-01",
		EndDate:   "2025-03-03",
	})

	created, err := scheduler.MaterializeDueTransactions(ctx, "user1", "2025-03-10")
	if err != nil {
		t.Fatalf("MaterializeDueTransactions failed: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("Expected 3 transactions before end date, got %d", len(created))
	}

	due, err := db.GetDueRecurring(ctx, "user1", "2025-12-31")
	if err != nil {
		t.Fatalf("GetDueRecurring failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("Expected rule to be inactive, got %d due", len(due))
	}
}

func TestMaterializeDueTransactions_AllUsers(t *testing.T) {
	scheduler, _, _ := setupScheduler(t)
	ctx := context.Background()

	for _, userId := range []string{"user1", "user2"} {
		createRule(t, scheduler, store.CreateRecurringParams{
			UserId:    userId,
			Type:      models.TransactionTypeIncome,
			Amount:    decimal.NewFromInt(1),
			Frequency: models.FrequencyMonthly,
			StartDate: "2025-03-01",
		})
	}

	created, err := scheduler.MaterializeDueTransactions(ctx, "", "")
	if err != nil {
		t.Fatalf("MaterializeDueTransactions failed: %v", err)
	}
	users := map[string]int{}
	for _, txn := range created {
		users[txn.UserId]++
	}
	if users["user1"] != 1 || users["user2"] != 1 {
		t.Errorf("Expected one occurrence per user, got %v", users)
	}

	if _, err := scheduler.MaterializeDueTransactions(ctx, "user1", "March 14"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for malformed as-of date, got %v", err)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler, db, _ := setupScheduler(t)
	scheduler.interval = 10 * time.Millisecond

	createRule(t, scheduler, store.CreateRecurringParams{
		UserId:    "user1",
		Type:      models.TransactionTypeIncome,
		Amount:    decimal.NewFromInt(1),
		Frequency: models.FrequencyYearly,
		StartDate: "2025-01-01",
	})

	scheduler.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for len(allTransactions(t, db)) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for scheduler run")
		}
		time.Sleep(5 * time.Millisecond)
	}
	scheduler.Stop()
	scheduler.Stop()

	if got := len(allTransactions(t, db)); got != 1 {
		t.Errorf("Expected 1 transaction, got %d", got)
	}
}
