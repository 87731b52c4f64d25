package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"
)

func setupTestDB(t *testing.T) (*Service, func()) {
	t.Helper()

	cfg := models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "balance-sheet.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
		PingTimeout:     5 * time.Second,
		BusyTimeout:     5 * time.Second,
	}

	service, err := NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	service.now = func() time.Time {
		return time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	}

	for _, u := range []struct{ id, name, email string }{
		{"user1", "Test User", "test@example.com"},
		{"user2", "Other User", "other@example.com"},
	} {
		if _, err := service.CreateUser(context.Background(), u.id, u.name, u.email); err != nil {
			t.Fatalf("Failed to insert test user: %v", err)
		}
	}

	return service, service.Close
}

func TestNewService_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.DatabaseConfig
	}{
		{"empty path", models.DatabaseConfig{MaxOpenConns: 1, PingTimeout: time.Second}},
		{"zero open conns", models.DatabaseConfig{Path: "x.db", PingTimeout: time.Second}},
		{"negative idle conns", models.DatabaseConfig{Path: "x.db", MaxOpenConns: 1, MaxIdleConns: -1, PingTimeout: time.Second}},
		{"zero ping timeout", models.DatabaseConfig{Path: "x.db", MaxOpenConns: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(context.Background(), tt.cfg); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestUsers(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	users, err := service.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}

	user, err := service.GetUserByEmail(ctx, "other@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if user.Id != "user2" {
		t.Errorf("Expected user2, got %s", user.Id)
	}

	if _, err := service.GetUserById(ctx, "missing"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}

	if _, err := service.CreateUser(ctx, "user3", "Dup", "test@example.com"); err == nil {
		t.Error("Expected error for duplicate email")
	}
}
