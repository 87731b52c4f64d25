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

package autoupdate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 3
	retryBackoff      = 20 * time.Millisecond
	catchUpBatchSize  = 100
)

// Target is the balance sheet session the reactor mutates
type Target interface {
	UserId() string
	Settings() models.BalanceSheetSettings
	Assets() []models.Asset
	CreateDefaultCashAsset(ctx context.Context) (*models.Asset, error)
	ApplyAssetDelta(ctx context.Context, assetId string, delta decimal.Decimal, transactionId string) (*models.Asset, error)
	Refresh(ctx context.Context) error
	TriggerDailySnapshot(ctx context.Context)
}

// Cursor persists the last transaction seq the user's reactor has handled,
// so transactions inserted while the user has no session are handled on the
// next login
type Cursor interface {
	GetFeedCursor(ctx context.Context, userId string) (int64, error)
	SaveFeedCursor(ctx context.Context, userId string, seq int64) error
	ListUserTransactionsAfter(ctx context.Context, userId string, afterSeq int64, limit int) ([]models.Transaction, error)
	GetLatestTransactionSeq(ctx context.Context) (int64, error)
}

// Outcome describes what the reactor did with one transaction
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeDisabled        Outcome = "disabled"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeForeignUser     Outcome = "foreign_user"
	OutcomeIgnoredType     Outcome = "ignored_type"
	OutcomeResolveFailed   Outcome = "resolve_failed"
	OutcomeStaleAsset      Outcome = "stale_asset"
	OutcomeDuplicate       Outcome = "duplicate"
	OutcomeFailed          Outcome = "failed"
)

// Reactor consumes inserted transactions one at a time and applies their
// signed effect to the user's primary asset
type Reactor struct {
	target     Target
	events     <-chan models.Transaction
	maxRetries int

	// Set before Start; only touched by the consuming goroutine afterwards
	cursor  Cursor
	lastSeq int64

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

func NewReactor(target Target, events <-chan models.Transaction, maxRetries int) *Reactor {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Reactor{
		target:     target,
		events:     events,
		maxRetries: maxRetries,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
}

// WithCursor makes the reactor record every handled seq in cursor and skip
// events at or below the last recorded one. Call before CatchUp and Start.
func (r *Reactor) WithCursor(cursor Cursor) *Reactor {
	r.cursor = cursor
	return r
}

// CatchUp handles the user's transactions inserted since the stored cursor,
// in insertion order. On the user's first session there is no cursor yet and
// it is positioned at the latest existing transaction instead.
func (r *Reactor) CatchUp(ctx context.Context) error {
	if r.cursor == nil {
		return nil
	}
	userId := r.target.UserId()

	seq, err := r.cursor.GetFeedCursor(ctx, userId)
	if errors.Is(err, store.ErrNotFound) {
		latest, err := r.cursor.GetLatestTransactionSeq(ctx)
		if err != nil {
			return err
		}
		r.lastSeq = latest
		return r.cursor.SaveFeedCursor(ctx, userId, latest)
	}
	if err != nil {
		return err
	}
	r.lastSeq = seq

	handled := 0
	for {
		batch, err := r.cursor.ListUserTransactionsAfter(ctx, userId, r.lastSeq, catchUpBatchSize)
		if err != nil {
			return err
		}
		for _, txn := range batch {
			r.handle(ctx, txn)
			handled++
		}
		if len(batch) < catchUpBatchSize {
			break
		}
	}

	if handled > 0 {
		zap.L().Info("Auto-update caught up",
			zap.String("user_id", userId),
			zap.Int("transactions", handled),
			zap.Int64("last_seq", r.lastSeq))
	}
	return nil
}

// Start begins consuming events in a single goroutine
func (r *Reactor) Start(ctx context.Context) {
	zap.L().Info("Starting auto-update reactor", zap.String("user_id", r.target.UserId()))
	go r.run(ctx)
}

// Stop ends consumption and waits for the in-flight event to finish
func (r *Reactor) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		<-r.doneChan
		zap.L().Info("Auto-update reactor stopped", zap.String("user_id", r.target.UserId()))
	})
}

func (r *Reactor) run(ctx context.Context) {
	defer close(r.doneChan)

	for {
		select {
		case txn, ok := <-r.events:
			if !ok {
				return
			}
			r.handle(ctx, txn)
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handle runs txn unless the cursor already covers it, then advances the cursor
func (r *Reactor) handle(ctx context.Context, txn models.Transaction) {
	if r.cursor != nil && txn.Seq > 0 && txn.Seq <= r.lastSeq {
		return
	}

	r.HandleTransaction(ctx, txn)

	if r.cursor == nil || txn.Seq <= 0 {
		return
	}
	r.lastSeq = txn.Seq
	userId := r.target.UserId()
	if err := r.cursor.SaveFeedCursor(ctx, userId, txn.Seq); err != nil {
		zap.L().Warn("Failed to save feed cursor",
			zap.String("user_id", userId),
			zap.Int64("seq", txn.Seq),
			zap.Error(err))
	}
}

// HandleTransaction runs one inserted transaction through the auto-update
// steps. Failures are logged and never returned to the event source.
func (r *Reactor) HandleTransaction(ctx context.Context, txn models.Transaction) Outcome {
	userId := r.target.UserId()
	log := zap.L().With(
		zap.String("user_id", userId),
		zap.String("transaction_id", txn.Id),
		zap.String("type", string(txn.Type)),
		zap.String("amount", txn.Amount.String()))

	// Guard
	if userId == "" {
		return OutcomeUnauthenticated
	}
	if txn.UserId != userId {
		log.Warn("Ignoring transaction for another user", zap.String("transaction_user_id", txn.UserId))
		return OutcomeForeignUser
	}
	settings := r.target.Settings()
	if !settings.AutoUpdateEnabled {
		return OutcomeDisabled
	}

	delta, ok := signedEffect(txn)
	if !ok {
		log.Debug("Ignoring transaction type without a balance effect")
		return OutcomeIgnoredType
	}

	// Resolve target asset
	assetId, created, err := r.resolveTargetAsset(ctx, settings)
	if err != nil {
		log.Error("Failed to create default cash asset, skipping transaction", zap.Error(err))
		return OutcomeResolveFailed
	}

	// Stale reference check against the in-memory collection
	current, found := findAsset(r.target.Assets(), assetId)
	if !found {
		log.Warn("Resolved asset is not in the balance sheet, skipping", zap.String("asset_id", assetId))
		return OutcomeStaleAsset
	}

	updated, outcome := r.apply(ctx, log, assetId, delta, txn.Id)
	if outcome != OutcomeApplied {
		return outcome
	}

	log.Info("Auto-update applied",
		zap.String("asset_id", assetId),
		zap.Bool("created_cash_asset", created),
		zap.String("old_value", current.CurrentValue.String()),
		zap.String("new_value", updated.CurrentValue.String()))

	if err := r.target.Refresh(ctx); err != nil {
		log.Warn("Failed to refresh balance sheet after auto-update", zap.Error(err))
	}
	r.target.TriggerDailySnapshot(ctx)

	return OutcomeApplied
}

// resolveTargetAsset picks the primary asset, else an existing Cash asset,
// else creates one. A primary id that no longer matches any asset falls
// through to the Cash lookup.
func (r *Reactor) resolveTargetAsset(ctx context.Context, settings models.BalanceSheetSettings) (string, bool, error) {
	assets := r.target.Assets()

	if settings.PrimaryAssetId != nil {
		if _, ok := findAsset(assets, *settings.PrimaryAssetId); ok {
			return *settings.PrimaryAssetId, false, nil
		}
		zap.L().Warn("Primary asset no longer exists, falling back to cash",
			zap.String("user_id", r.target.UserId()),
			zap.String("primary_asset_id", *settings.PrimaryAssetId))
	}

	if cash, ok := findCashAsset(assets); ok {
		return cash.Id, false, nil
	}

	asset, err := r.target.CreateDefaultCashAsset(ctx)
	if err != nil {
		return "", false, err
	}
	return asset.Id, true, nil
}

// apply persists the delta, retrying lost compare-and-swaps up to maxRetries times
func (r *Reactor) apply(ctx context.Context, log *zap.Logger, assetId string, delta decimal.Decimal, transactionId string) (*models.Asset, Outcome) {
	for attempt := 0; ; attempt++ {
		updated, err := r.target.ApplyAssetDelta(ctx, assetId, delta, transactionId)
		switch {
		case err == nil:
			return updated, OutcomeApplied
		case errors.Is(err, store.ErrDuplicateTransaction):
			log.Info("Transaction already applied, skipping", zap.String("asset_id", assetId))
			return nil, OutcomeDuplicate
		case errors.Is(err, store.ErrNotFound):
			log.Warn("Asset disappeared before update, skipping", zap.String("asset_id", assetId))
			return nil, OutcomeStaleAsset
		case errors.Is(err, store.ErrConcurrentModification) && attempt < r.maxRetries:
			log.Debug("Asset changed concurrently, retrying", zap.Int("attempt", attempt+1))
			select {
			case <-time.After(retryBackoff * time.Duration(attempt+1)):
			case <-ctx.Done():
				log.Warn("Context cancelled during auto-update retry", zap.Error(ctx.Err()))
				return nil, OutcomeFailed
			}
		default:
			log.Error("Failed to apply auto-update", zap.String("asset_id", assetId), zap.Int("attempts", attempt+1), zap.Error(err))
			return nil, OutcomeFailed
		}
	}
}

// signedEffect is +amount for income and -amount for expense
func signedEffect(txn models.Transaction) (decimal.Decimal, bool) {
	switch txn.Type {
	case models.TransactionTypeIncome:
		return txn.Amount, true
	case models.TransactionTypeExpense:
		return txn.Amount.Neg(), true
	}
	return decimal.Zero, false
}

func findAsset(assets []models.Asset, assetId string) (models.Asset, bool) {
	for _, asset := range assets {
		if asset.Id == assetId {
			return asset, true
		}
	}
	return models.Asset{}, false
}

// findCashAsset prefers an asset named "Cash" (any case) over one typed cash
func findCashAsset(assets []models.Asset) (models.Asset, bool) {
	for _, asset := range assets {
		if strings.EqualFold(strings.TrimSpace(asset.Name), "cash") {
			return asset, true
		}
	}
	for _, asset := range assets {
		if asset.Type == models.AssetTypeCash {
			return asset, true
		}
	}
	return models.Asset{}, false
}
