package settings

import (
	"fmt"
	"strconv"

	"balance-sheet-go/internal/models"

	"go.uber.org/zap"
)

const keyPrefix = "balance_sheet."

func autoUpdateKey(userId string) string {
	return keyPrefix + userId + ".auto_update_enabled"
}

func primaryAssetKey(userId string) string {
	return keyPrefix + userId + ".primary_asset_id"
}

// Service maps per-user balance sheet settings onto a KeyValueStore
type Service struct {
	kv KeyValueStore
}

func NewService(kv KeyValueStore) *Service {
	return &Service{kv: kv}
}

// Load returns the user's settings. Missing keys yield the defaults:
// auto-update disabled and no primary asset.
func (s *Service) Load(userId string) (models.BalanceSheetSettings, error) {
	var settings models.BalanceSheetSettings

	raw, ok, err := s.kv.GetItem(autoUpdateKey(userId))
	if err != nil {
		return settings, fmt.Errorf("unable to read auto-update setting: %w", err)
	}
	if ok {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			zap.L().Warn("Ignoring malformed auto-update setting",
				zap.String("user_id", userId),
				zap.String("value", raw))
		} else {
			settings.AutoUpdateEnabled = enabled
		}
	}

	primary, ok, err := s.kv.GetItem(primaryAssetKey(userId))
	if err != nil {
		return settings, fmt.Errorf("unable to read primary asset setting: %w", err)
	}
	if ok && primary != "" {
		settings.PrimaryAssetId = &primary
	}

	return settings, nil
}

func (s *Service) SetAutoUpdateEnabled(userId string, enabled bool) error {
	if err := s.kv.SetItem(autoUpdateKey(userId), strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("unable to persist auto-update setting: %w", err)
	}
	return nil
}

// SetPrimaryAssetId stores the primary asset, or clears it when assetId is nil
func (s *Service) SetPrimaryAssetId(userId string, assetId *string) error {
	if assetId == nil || *assetId == "" {
		if err := s.kv.RemoveItem(primaryAssetKey(userId)); err != nil {
			return fmt.Errorf("unable to clear primary asset setting: %w", err)
		}
		return nil
	}
	if err := s.kv.SetItem(primaryAssetKey(userId), *assetId); err != nil {
		return fmt.Errorf("unable to persist primary asset setting: %w", err)
	}
	return nil
}
