/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"balance-sheet-go/internal/api"
	"balance-sheet-go/internal/balancesheet"
	"balance-sheet-go/internal/common"
	"balance-sheet-go/internal/config"
	"balance-sheet-go/internal/listener"
	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/realtime"
	"balance-sheet-go/internal/recurring"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func main() {
	addr := flag.String("addr", "", "Listen address (overrides SERVER_ADDR)")
	noRecurring := flag.Bool("no-recurring", false, "Disable the periodic recurring transaction scheduler")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting balance sheet server")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	feed := listener.NewTransactionFeed(listener.TransactionFeedConfig{
		Source:           services.DbService,
		PollingInterval:  cfg.Feed.PollingInterval,
		BatchSize:        cfg.Feed.BatchSize,
		SubscriberBuffer: cfg.Feed.SubscriberBuffer,
	})
	if err := feed.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start transaction feed", zap.Error(err))
	}

	hub := realtime.NewHub()
	registry := balancesheet.NewRegistry(balancesheet.RegistryConfig{
		Deps:            services.SessionDeps(),
		Feed:            feed,
		ApplyMaxRetries: cfg.BalanceSheet.ApplyMaxRetries,
		OnChange: func(userId string, view models.BalanceSheetView) {
			hub.BroadcastJSON(userId, view)
		},
	})

	scheduler := recurring.NewScheduler(recurring.SchedulerConfig{
		Store:          services.DbService,
		Location:       cfg.BalanceSheet.Location,
		Interval:       cfg.Recurring.Interval,
		OnMaterialized: feed.Poke,
	})
	if !*noRecurring {
		scheduler.Start(ctx)
	}

	server := api.NewServer(api.ServerConfig{
		Store:     services.DbService,
		Registry:  registry,
		Scheduler: scheduler,
		Hub:       hub,
		Feed:      feed,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      h2c.NewHandler(server.Handler(), &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received, stopping server...")
	case err := <-serverErr:
		zap.L().Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Forced HTTP shutdown after timeout", zap.Error(err))
	}
	hub.CloseAll()

	done := make(chan struct{})
	go func() {
		if !*noRecurring {
			scheduler.Stop()
		}
		registry.CloseAll()
		feed.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Server stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}
