package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"github.com/shopspring/decimal"
)

func createTestAsset(t *testing.T, service *Service, userId, name string, assetType models.AssetType, value string) *models.Asset {
	t.Helper()
	asset, err := service.CreateAsset(context.Background(), store.CreateAssetParams{
		UserId: userId,
		AssetFields: models.AssetFields{
			Name:         name,
			Type:         assetType,
			CurrentValue: decimal.RequireFromString(value),
			Currency:     "USD",
		},
	})
	if err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}
	return asset
}

func TestAssetLifecycle(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	checking := createTestAsset(t, service, "user1", "Checking", models.AssetTypeBank, "1200.50")
	createTestAsset(t, service, "user1", "Brokerage", models.AssetTypeInvestment, "8000")
	createTestAsset(t, service, "user2", "Cash", models.AssetTypeCash, "40")

	assets, err := service.GetAssets(ctx, "user1")
	if err != nil {
		t.Fatalf("GetAssets failed: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("Expected 2 assets for user1, got %d", len(assets))
	}

	got, err := service.GetAsset(ctx, "user1", checking.Id)
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if !got.CurrentValue.Equal(decimal.RequireFromString("1200.50")) {
		t.Errorf("Expected value 1200.50, got %s", got.CurrentValue)
	}
	if got.Version != 1 {
		t.Errorf("Expected version 1, got %d", got.Version)
	}

	newValue := decimal.NewFromInt(1500)
	newName := "Main checking"
	updated, err := service.UpdateAsset(ctx, "user1", checking.Id, models.AssetPatch{Name: &newName, CurrentValue: &newValue})
	if err != nil {
		t.Fatalf("UpdateAsset failed: %v", err)
	}
	if updated.Name != newName || !updated.CurrentValue.Equal(newValue) {
		t.Errorf("Unexpected updated asset: %+v", updated)
	}
	if updated.Version != 2 {
		t.Errorf("Expected version 2 after update, got %d", updated.Version)
	}
	if updated.Type != models.AssetTypeBank {
		t.Errorf("Expected type to be untouched, got %s", updated.Type)
	}

	// Another user's asset is invisible
	if _, err := service.GetAsset(ctx, "user2", checking.Id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign asset, got %v", err)
	}
	if _, err := service.UpdateAsset(ctx, "user2", checking.Id, models.AssetPatch{Name: &newName}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound updating foreign asset, got %v", err)
	}

	if err := service.DeleteAsset(ctx, "user1", checking.Id); err != nil {
		t.Fatalf("DeleteAsset failed: %v", err)
	}
	if err := service.DeleteAsset(ctx, "user1", checking.Id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestGetAssets_Empty(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	assets, err := service.GetAssets(context.Background(), "user1")
	if err != nil {
		t.Fatalf("GetAssets failed: %v", err)
	}
	if assets == nil || len(assets) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", assets)
	}
}

func TestLiabilityLifecycle(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	rate := decimal.RequireFromString("0.0425")
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	mortgage, err := service.CreateLiability(ctx, store.CreateLiabilityParams{
		UserId: "user1",
		LiabilityFields: models.LiabilityFields{
			Name:           "Home loan",
			Type:           models.LiabilityTypeMortgage,
			CurrentBalance: decimal.NewFromInt(250000),
			InterestRate:   &rate,
			Currency:       "USD",
			DueDate:        &due,
		},
	})
	if err != nil {
		t.Fatalf("CreateLiability failed: %v", err)
	}

	got, err := service.GetLiability(ctx, "user1", mortgage.Id)
	if err != nil {
		t.Fatalf("GetLiability failed: %v", err)
	}
	if got.InterestRate == nil || !got.InterestRate.Equal(rate) {
		t.Errorf("Expected interest rate %s, got %v", rate, got.InterestRate)
	}
	if got.MinimumPayment != nil {
		t.Errorf("Expected nil minimum payment, got %s", got.MinimumPayment)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("Expected due date %v, got %v", due, got.DueDate)
	}

	balance := decimal.NewFromInt(249000)
	updated, err := service.UpdateLiability(ctx, "user1", mortgage.Id, models.LiabilityPatch{CurrentBalance: &balance})
	if err != nil {
		t.Fatalf("UpdateLiability failed: %v", err)
	}
	if !updated.CurrentBalance.Equal(balance) {
		t.Errorf("Expected balance %s, got %s", balance, updated.CurrentBalance)
	}

	liabilities, err := service.GetLiabilities(ctx, "user1")
	if err != nil {
		t.Fatalf("GetLiabilities failed: %v", err)
	}
	if len(liabilities) != 1 {
		t.Fatalf("Expected 1 liability, got %d", len(liabilities))
	}

	if err := service.DeleteLiability(ctx, "user2", mortgage.Id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting foreign liability, got %v", err)
	}
	if err := service.DeleteLiability(ctx, "user1", mortgage.Id); err != nil {
		t.Fatalf("DeleteLiability failed: %v", err)
	}
}
