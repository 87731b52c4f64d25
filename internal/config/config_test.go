package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "balance-sheet.db" {
		t.Errorf("Expected default database path, got %s", cfg.Database.Path)
	}
	if cfg.Feed.PollingInterval != 2*time.Second {
		t.Errorf("Expected 2s feed polling interval, got %v", cfg.Feed.PollingInterval)
	}
	if cfg.BalanceSheet.DefaultCurrency != "USD" || cfg.BalanceSheet.ApplyMaxRetries != 3 {
		t.Errorf("Unexpected balance sheet defaults: %+v", cfg.BalanceSheet)
	}
	if cfg.BalanceSheet.Location != time.Local {
		t.Errorf("Expected local timezone, got %v", cfg.BalanceSheet.Location)
	}
	if cfg.Recurring.Interval != time.Hour {
		t.Errorf("Expected hourly recurring interval, got %v", cfg.Recurring.Interval)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/custom.db")
	t.Setenv("FEED_BATCH_SIZE", "10")
	t.Setenv("APPLY_MAX_RETRIES", "not-a-number")
	t.Setenv("SNAPSHOT_TIMEZONE", "UTC")
	t.Setenv("RECURRING_INTERVAL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("Expected overridden path, got %s", cfg.Database.Path)
	}
	if cfg.Feed.BatchSize != 10 {
		t.Errorf("Expected batch size 10, got %d", cfg.Feed.BatchSize)
	}
	if cfg.BalanceSheet.ApplyMaxRetries != 3 {
		t.Errorf("Expected invalid int to fall back to 3, got %d", cfg.BalanceSheet.ApplyMaxRetries)
	}
	if cfg.BalanceSheet.Location.String() != "UTC" {
		t.Errorf("Expected UTC, got %v", cfg.BalanceSheet.Location)
	}
	if cfg.Recurring.Interval != 30*time.Minute {
		t.Errorf("Expected 30m, got %v", cfg.Recurring.Interval)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"FEED_POLLING_INTERVAL", "often"},
		{"DB_BUSY_TIMEOUT", "5"},
		{"SNAPSHOT_TIMEZONE", "Mars/Olympus"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
