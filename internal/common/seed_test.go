package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"balance-sheet-go/internal/balancesheet"
	"balance-sheet-go/internal/database"
	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/settings"
	"balance-sheet-go/internal/snapshot"

	"github.com/shopspring/decimal"
)

const testSeed = `
auto_update: true
primary_asset: Checking
assets:
  - name: Checking
    type: bank
    value: "2500.00"
  - name: Brokerage
    type: investment
    value: "10000"
    currency: EUR
liabilities:
  - name: Mortgage
    type: mortgage
    balance: "150000"
    interest_rate: "3.5"
    minimum_payment: "900"
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}
	return path
}

func TestLoadSeedConfig(t *testing.T) {
	seed, err := LoadSeedConfig(writeSeed(t, testSeed))
	if err != nil {
		t.Fatalf("LoadSeedConfig failed: %v", err)
	}
	if len(seed.Assets) != 2 || len(seed.Liabilities) != 1 {
		t.Fatalf("Expected 2 assets and 1 liability, got %d and %d", len(seed.Assets), len(seed.Liabilities))
	}
	if !seed.AutoUpdate || seed.PrimaryAsset != "Checking" {
		t.Errorf("Unexpected settings: auto_update=%t primary=%q", seed.AutoUpdate, seed.PrimaryAsset)
	}
}

func TestLoadSeedConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing name", "assets:\n  - type: cash\n    value: \"1\"\n"},
		{"bad value", "assets:\n  - name: Cash\n    type: cash\n    value: lots\n"},
		{"bad balance", "liabilities:\n  - name: Card\n    type: credit_card\n    balance: \"\"\n"},
		{"not yaml", "assets: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSeedConfig(writeSeed(t, tt.content)); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}

	if _, err := LoadSeedConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestApplySeed(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "balance-sheet.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	if _, err := db.CreateUser(ctx, "user1", "Test User", "test@example.com"); err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}

	session := balancesheet.NewSession("user1", balancesheet.Deps{
		Store:     db,
		Settings:  settings.NewService(settings.NewMemoryStore()),
		Snapshots: snapshot.NewManager(db, time.UTC),
	})
	if err := session.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	seed, err := LoadSeedConfig(writeSeed(t, testSeed))
	if err != nil {
		t.Fatalf("LoadSeedConfig failed: %v", err)
	}
	if err := ApplySeed(ctx, session, seed); err != nil {
		t.Fatalf("ApplySeed failed: %v", err)
	}

	view := session.View()
	if !view.NetWorth.Equal(decimal.NewFromInt(-137500)) {
		t.Errorf("Expected net worth -137500, got %s", view.NetWorth)
	}
	if !view.Settings.AutoUpdateEnabled || view.Settings.PrimaryAssetId == nil {
		t.Fatalf("Expected auto-update with a primary asset, got %+v", view.Settings)
	}
	for _, asset := range view.Assets {
		if asset.Name == "Checking" && asset.Id != *view.Settings.PrimaryAssetId {
			t.Errorf("Expected Checking to be the primary asset")
		}
	}

	seed.PrimaryAsset = "Missing"
	seed.Assets = nil
	seed.Liabilities = nil
	if err := ApplySeed(ctx, session, seed); err == nil {
		t.Error("Expected error for unknown primary asset")
	}
}
