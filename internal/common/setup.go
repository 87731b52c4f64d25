package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"balance-sheet-go/internal/balancesheet"
	"balance-sheet-go/internal/database"
	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/settings"
	"balance-sheet-go/internal/snapshot"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService *database.Service
	Settings  *settings.Service
	Snapshots *snapshot.Manager
	cfg       models.BalanceSheetConfig
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the database and the settings file and builds the
// snapshot manager shared by every balance sheet session
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Loading balance sheet settings", zap.String("path", cfg.BalanceSheet.SettingsFile))
	fileStore, err := settings.NewFileStore(cfg.BalanceSheet.SettingsFile)
	if err != nil {
		dbService.Close()
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}

	zap.L().Info("Using snapshot timezone", zap.String("location", cfg.BalanceSheet.Location.String()))

	return &Services{
		DbService: dbService,
		Settings:  settings.NewService(fileStore),
		Snapshots: snapshot.NewManager(dbService, cfg.BalanceSheet.Location),
		cfg:       cfg.BalanceSheet,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service
// Useful for read-only operations like net worth reports
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

// SessionDeps returns the collaborators for balancesheet sessions
func (cs *Services) SessionDeps() balancesheet.Deps {
	return balancesheet.Deps{
		Store:           cs.DbService,
		Settings:        cs.Settings,
		Snapshots:       cs.Snapshots,
		DefaultCurrency: cs.cfg.DefaultCurrency,
	}
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
