package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestService_Defaults(t *testing.T) {
	svc := NewService(NewMemoryStore())

	settings, err := svc.Load("user1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.AutoUpdateEnabled {
		t.Error("Expected auto-update disabled by default")
	}
	if settings.PrimaryAssetId != nil {
		t.Errorf("Expected no primary asset by default, got %s", *settings.PrimaryAssetId)
	}
}

func TestService_PerUserKeys(t *testing.T) {
	kv := NewMemoryStore()
	svc := NewService(kv)

	assetId := "asset-123"
	if err := svc.SetAutoUpdateEnabled("user1", true); err != nil {
		t.Fatalf("SetAutoUpdateEnabled failed: %v", err)
	}
	if err := svc.SetPrimaryAssetId("user1", &assetId); err != nil {
		t.Fatalf("SetPrimaryAssetId failed: %v", err)
	}

	if value, ok, _ := kv.GetItem("balance_sheet.user1.auto_update_enabled"); !ok || value != "true" {
		t.Errorf("Expected stored auto-update key, got %q (present=%v)", value, ok)
	}

	settings, err := svc.Load("user1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !settings.AutoUpdateEnabled || settings.PrimaryAssetId == nil || *settings.PrimaryAssetId != assetId {
		t.Errorf("Unexpected settings for user1: %+v", settings)
	}

	other, err := svc.Load("user2")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if other.AutoUpdateEnabled || other.PrimaryAssetId != nil {
		t.Errorf("Expected user2 to keep defaults, got %+v", other)
	}

	if err := svc.SetPrimaryAssetId("user1", nil); err != nil {
		t.Fatalf("Clearing primary asset failed: %v", err)
	}
	settings, _ = svc.Load("user1")
	if settings.PrimaryAssetId != nil {
		t.Errorf("Expected primary asset to be cleared, got %s", *settings.PrimaryAssetId)
	}
}

func TestService_MalformedBoolFallsBackToDefault(t *testing.T) {
	kv := NewMemoryStore()
	_ = kv.SetItem("balance_sheet.user1.auto_update_enabled", "yes please")

	settings, err := NewService(kv).Load("user1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.AutoUpdateEnabled {
		t.Error("Expected malformed value to be treated as disabled")
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	first, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := first.SetItem("balance_sheet.user1.primary_asset_id", "asset-9"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	if err := first.SetItem("balance_sheet.user1.auto_update_enabled", "true"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	if err := first.RemoveItem("balance_sheet.user1.auto_update_enabled"); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}

	second, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("Reopening file store failed: %v", err)
	}
	value, ok, err := second.GetItem("balance_sheet.user1.primary_asset_id")
	if err != nil || !ok || value != "asset-9" {
		t.Errorf("Expected persisted value asset-9, got %q (present=%v, err=%v)", value, ok, err)
	}
	if _, ok, _ := second.GetItem("balance_sheet.user1.auto_update_enabled"); ok {
		t.Error("Expected removed key to stay removed")
	}
}

func TestFileStore_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("items: [not, a, map"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := NewFileStore(path); err == nil {
		t.Error("Expected parse error for malformed settings file")
	}
}

type failingStore struct{ *MemoryStore }

func (f *failingStore) SetItem(string, string) error { return errors.New("read-only filesystem") }

func TestService_SurfacesWriteErrors(t *testing.T) {
	svc := NewService(&failingStore{MemoryStore: NewMemoryStore()})

	if err := svc.SetAutoUpdateEnabled("user1", true); err == nil {
		t.Error("Expected write error to surface")
	}
}
