package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"balance-sheet-go/internal/balance"
	"balance-sheet-go/internal/common"
	"balance-sheet-go/internal/config"
	"balance-sheet-go/internal/database"
	"balance-sheet-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type reportStats struct {
	totalUsers       int
	usersWithEntries int
	netWorth         decimal.Decimal
}

func printAsset(asset models.Asset, isLast bool) {
	fmt.Println(common.TreeItem(isLast, fmt.Sprintf("%-24s %-12s %20s",
		asset.Name, asset.Type, common.FormatMoney(asset.CurrentValue, asset.Currency))))
}

func printLiability(liability models.Liability, isLast bool) {
	fmt.Println(common.TreeItem(isLast, fmt.Sprintf("%-24s %-12s %20s  apr %s",
		liability.Name, liability.Type,
		common.FormatMoney(liability.CurrentBalance, liability.Currency),
		common.FormatRate(liability.InterestRate))))
}

func printBreakdown[K ~string](title string, totals map[K]decimal.Decimal) {
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, totals[K(k)].StringFixed(2)))
	}
	fmt.Println(common.TreeItem(false, title+": "+strings.Join(parts, " ")))
}

func printHistory(snapshots []models.BalanceSnapshot) {
	fmt.Println(common.TreeItem(false, "History:"))
	var previous *models.BalanceSnapshot
	for i := range snapshots {
		snap := snapshots[i]
		change := ""
		if previous != nil {
			change = "  (" + common.FormatChange(snap.NetWorth.Sub(previous.NetWorth)) + ")"
		}
		fmt.Println(common.TreeItem(false, fmt.Sprintf("  %s  net worth %s%s",
			snap.SnapshotDate, snap.NetWorth.StringFixed(2), change)))
		previous = &snap
	}
}

func processUser(ctx context.Context, user common.UserInfo, dbService *database.Service, historyFrom string) (models.Totals, int, error) {
	assets, err := dbService.GetAssets(ctx, user.Id)
	if err != nil {
		return models.Totals{}, 0, fmt.Errorf("failed to get assets: %w", err)
	}
	liabilities, err := dbService.GetLiabilities(ctx, user.Id)
	if err != nil {
		return models.Totals{}, 0, fmt.Errorf("failed to get liabilities: %w", err)
	}

	entries := len(assets) + len(liabilities)
	if entries == 0 {
		return models.Totals{}, 0, nil
	}

	totals := balance.Aggregate(assets, liabilities)

	common.PrintSection(fmt.Sprintf("User: %s (%s)", user.Name, user.Email),
		"ID: "+user.Id,
		fmt.Sprintf("Assets: %s   Liabilities: %s   Net worth: %s",
			totals.TotalAssets.StringFixed(2),
			totals.TotalLiabilities.StringFixed(2),
			totals.NetWorth.StringFixed(2)))

	for i, asset := range assets {
		printAsset(asset, i == len(assets)-1 && len(liabilities) == 0)
	}
	for i, liability := range liabilities {
		printLiability(liability, i == len(liabilities)-1)
	}
	printBreakdown("Assets by type", balance.TotalsByAssetType(assets))
	printBreakdown("Liabilities by type", balance.TotalsByLiabilityType(liabilities))

	if historyFrom != "" {
		snapshots, err := dbService.GetSnapshots(ctx, user.Id, historyFrom, "")
		if err != nil {
			return totals, entries, fmt.Errorf("failed to get snapshots: %w", err)
		}
		printHistory(snapshots)
	}

	return totals, entries, nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userIdFlag := flag.String("user", "", "Filter by user id (optional)")
	emailFlag := flag.String("email", "", "Filter by user email (optional)")
	historyFlag := flag.String("history-from", "", "Print snapshot history from this date, YYYY-MM-DD (optional)")
	flag.Parse()

	zap.L().Info("Starting net worth report")

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	users, err := common.InitializeUsers(ctx, dbService, *userIdFlag, *emailFlag)
	if err != nil {
		zap.L().Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("NET WORTH REPORT", common.WideWidth)

	stats := reportStats{netWorth: decimal.Zero}
	for _, user := range users {
		stats.totalUsers++

		totals, entries, err := processUser(ctx, user, dbService, *historyFlag)
		if err != nil {
			zap.L().Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}
		if entries > 0 {
			stats.usersWithEntries++
			stats.netWorth = stats.netWorth.Add(totals.NetWorth)
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d of %d users have a balance sheet, combined net worth %s",
		stats.usersWithEntries, stats.totalUsers, stats.netWorth.StringFixed(2))
	common.PrintFooter(summary, common.WideWidth)

	zap.L().Info("Net worth report completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_entries", stats.usersWithEntries))
}
