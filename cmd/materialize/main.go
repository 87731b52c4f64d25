package main

import (
	"context"
	"flag"
	"fmt"

	"balance-sheet-go/internal/common"
	"balance-sheet-go/internal/config"
	"balance-sheet-go/internal/recurring"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userIdFlag := flag.String("user", "", "Only materialize rules of this user id (default: all users)")
	asOfFlag := flag.String("as-of", "", "Materialize occurrences up to this date, YYYY-MM-DD (default: today)")
	dryRun := flag.Bool("dry-run", false, "List due rules without inserting transactions")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	scheduler := recurring.NewScheduler(recurring.SchedulerConfig{
		Store:    dbService,
		Location: cfg.BalanceSheet.Location,
	})

	asOf := *asOfFlag
	if asOf == "" {
		asOf = scheduler.Today()
	}

	if *dryRun {
		rules, err := dbService.GetDueRecurring(ctx, *userIdFlag, asOf)
		if err != nil {
			zap.L().Fatal("Failed to load due rules", zap.Error(err))
		}
		common.PrintHeader(fmt.Sprintf("DUE RECURRING RULES AS OF %s", asOf), common.DefaultWidth)
		for i, rule := range rules {
			fmt.Println(common.TreeItem(i == len(rules)-1, fmt.Sprintf("%-10s %-9s %12s  next %s  %s",
				rule.Frequency, rule.Type, rule.Amount.StringFixed(2), rule.NextDate, rule.Description)))
		}
		common.PrintFooter(fmt.Sprintf("%d rules due", len(rules)), common.DefaultWidth)
		return
	}

	created, err := scheduler.MaterializeDueTransactions(ctx, *userIdFlag, asOf)
	if err != nil {
		zap.L().Error("Some recurring rules failed", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("MATERIALIZED RECURRING TRANSACTIONS AS OF %s", asOf), common.DefaultWidth)
	for i, txn := range created {
		fmt.Println(common.TreeItem(i == len(created)-1, fmt.Sprintf("%s  %-8s %12s  user %s  %s",
			txn.TransactionDate, txn.Type, txn.Amount.StringFixed(2), txn.UserId, txn.Description)))
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d transactions inserted", len(created)), common.DefaultWidth)

	if err != nil {
		zap.L().Fatal("Materialization finished with errors")
	}
}
