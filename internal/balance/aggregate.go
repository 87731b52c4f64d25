package balance

import (
	"balance-sheet-go/internal/models"

	"github.com/shopspring/decimal"
)

// Aggregate sums asset values and liability balances. Values are not clamped:
// an overdrawn asset reduces the total.
func Aggregate(assets []models.Asset, liabilities []models.Liability) models.Totals {
	totalAssets := decimal.Zero
	for _, asset := range assets {
		totalAssets = totalAssets.Add(asset.CurrentValue)
	}

	totalLiabilities := decimal.Zero
	for _, liability := range liabilities {
		totalLiabilities = totalLiabilities.Add(liability.CurrentBalance)
	}

	return models.Totals{
		TotalAssets:      totalAssets,
		TotalLiabilities: totalLiabilities,
		NetWorth:         totalAssets.Sub(totalLiabilities),
	}
}

// TotalsByAssetType groups asset values by type. Types with no assets are omitted.
func TotalsByAssetType(assets []models.Asset) map[models.AssetType]decimal.Decimal {
	totals := make(map[models.AssetType]decimal.Decimal)
	for _, asset := range assets {
		totals[asset.Type] = totals[asset.Type].Add(asset.CurrentValue)
	}
	return totals
}

func TotalsByLiabilityType(liabilities []models.Liability) map[models.LiabilityType]decimal.Decimal {
	totals := make(map[models.LiabilityType]decimal.Decimal)
	for _, liability := range liabilities {
		totals[liability.Type] = totals[liability.Type].Add(liability.CurrentBalance)
	}
	return totals
}
