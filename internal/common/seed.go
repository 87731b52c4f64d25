package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"balance-sheet-go/internal/balancesheet"
	"balance-sheet-go/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type SeedAsset struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Value       string `yaml:"value"`
	Currency    string `yaml:"currency"`
	Description string `yaml:"description"`
}

type SeedLiability struct {
	Name           string `yaml:"name"`
	Type           string `yaml:"type"`
	Balance        string `yaml:"balance"`
	InterestRate   string `yaml:"interest_rate"`
	MinimumPayment string `yaml:"minimum_payment"`
	Currency       string `yaml:"currency"`
	Description    string `yaml:"description"`
}

// SeedConfig is the YAML layout of a starting balance sheet
type SeedConfig struct {
	AutoUpdate   bool            `yaml:"auto_update"`
	PrimaryAsset string          `yaml:"primary_asset"`
	Assets       []SeedAsset     `yaml:"assets"`
	Liabilities  []SeedLiability `yaml:"liabilities"`
}

func LoadSeedConfig(seedFile string) (*SeedConfig, error) {
	var seedPath string
	if filepath.IsAbs(seedFile) {
		seedPath = seedFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		seedPath = filepath.Join(wd, seedFile)
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", seedFile, err)
	}

	var config SeedConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", seedFile, err)
	}

	for i, asset := range config.Assets {
		if asset.Name == "" {
			return nil, fmt.Errorf("asset at index %d missing name", i)
		}
		if _, err := decimal.NewFromString(asset.Value); err != nil {
			return nil, fmt.Errorf("asset %q has invalid value %q", asset.Name, asset.Value)
		}
	}
	for i, liability := range config.Liabilities {
		if liability.Name == "" {
			return nil, fmt.Errorf("liability at index %d missing name", i)
		}
		if _, err := decimal.NewFromString(liability.Balance); err != nil {
			return nil, fmt.Errorf("liability %q has invalid balance %q", liability.Name, liability.Balance)
		}
	}

	return &config, nil
}

// ApplySeed creates the seeded assets and liabilities through the session so
// they are validated and snapshotted like any other mutation
func ApplySeed(ctx context.Context, session *balancesheet.Session, config *SeedConfig) error {
	var primaryId *string
	for _, asset := range config.Assets {
		result := session.CreateAsset(ctx, models.AssetFields{
			Name:         asset.Name,
			Type:         models.AssetType(asset.Type),
			CurrentValue: decimal.RequireFromString(asset.Value),
			Currency:     asset.Currency,
			Description:  asset.Description,
		})
		if !result.Success {
			return fmt.Errorf("asset %q: %s", asset.Name, result.Error)
		}
		if config.PrimaryAsset != "" && asset.Name == config.PrimaryAsset {
			id := result.Asset.Id
			primaryId = &id
		}
	}

	for _, liability := range config.Liabilities {
		fields := models.LiabilityFields{
			Name:           liability.Name,
			Type:           models.LiabilityType(liability.Type),
			CurrentBalance: decimal.RequireFromString(liability.Balance),
			Currency:       liability.Currency,
			Description:    liability.Description,
		}
		if liability.InterestRate != "" {
			rate, err := decimal.NewFromString(liability.InterestRate)
			if err != nil {
				return fmt.Errorf("liability %q has invalid interest rate %q", liability.Name, liability.InterestRate)
			}
			fields.InterestRate = &rate
		}
		if liability.MinimumPayment != "" {
			payment, err := decimal.NewFromString(liability.MinimumPayment)
			if err != nil {
				return fmt.Errorf("liability %q has invalid minimum payment %q", liability.Name, liability.MinimumPayment)
			}
			fields.MinimumPayment = &payment
		}

		result := session.CreateLiability(ctx, fields)
		if !result.Success {
			return fmt.Errorf("liability %q: %s", liability.Name, result.Error)
		}
	}

	if config.PrimaryAsset != "" && primaryId == nil {
		return fmt.Errorf("primary asset %q is not one of the seeded assets", config.PrimaryAsset)
	}
	if primaryId != nil {
		if result := session.SetPrimaryAssetId(primaryId); !result.Success {
			return fmt.Errorf("primary asset: %s", result.Error)
		}
	}
	if config.AutoUpdate {
		if result := session.SetAutoUpdateEnabled(true); !result.Success {
			return fmt.Errorf("auto update: %s", result.Error)
		}
	}

	return nil
}
