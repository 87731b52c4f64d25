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

package balancesheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"balance-sheet-go/internal/balance"
	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/settings"
	"balance-sheet-go/internal/snapshot"
	"balance-sheet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotAuthenticated     = errors.New("user not authenticated")
	ErrSnapshotsUnavailable = errors.New("unable to access snapshots: no snapshot manager configured")
)

const (
	defaultCashName = "Cash"
	defaultCurrency = "USD"
)

// Deps are the collaborators shared by every session
type Deps struct {
	Store           store.LedgerStore
	Settings        *settings.Service
	Snapshots       *snapshot.Manager
	DefaultCurrency string
}

// Session is the balance sheet of one authenticated user. Mutations are
// serialized by opMu so the in-memory mirror follows call order; mu guards
// the mirror for concurrent readers.
type Session struct {
	userId string
	deps   Deps

	opMu sync.Mutex

	mu          sync.RWMutex
	assets      []models.Asset
	liabilities []models.Liability
	settings    models.BalanceSheetSettings
	loading     bool
	lastErr     string
	onChange    func(models.BalanceSheetView)
}

func NewSession(userId string, deps Deps) *Session {
	if deps.DefaultCurrency == "" {
		deps.DefaultCurrency = defaultCurrency
	}
	return &Session{
		userId:      userId,
		deps:        deps,
		assets:      []models.Asset{},
		liabilities: []models.Liability{},
	}
}

func (s *Session) UserId() string {
	return s.userId
}

// OnChange registers an observer that receives the session view after every
// successful mutation or refresh
func (s *Session) OnChange(fn func(models.BalanceSheetView)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Load reads the locally persisted settings and fetches both collections
func (s *Session) Load(ctx context.Context) error {
	if s.userId == "" {
		return ErrNotAuthenticated
	}

	loaded, err := s.deps.Settings.Load(s.userId)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.settings = loaded
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// Refresh re-fetches assets and liabilities and replaces the in-memory
// collections wholesale. On failure the previous collections are kept.
func (s *Session) Refresh(ctx context.Context) error {
	if s.userId == "" {
		return ErrNotAuthenticated
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	var assets []models.Asset
	var liabilities []models.Liability

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assets, err = s.deps.Store.GetAssets(gctx, s.userId)
		return err
	})
	g.Go(func() error {
		var err error
		liabilities, err = s.deps.Store.GetLiabilities(gctx, s.userId)
		return err
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("Failed to refresh balance sheet", zap.String("user_id", s.userId), zap.Error(err))
		s.mu.Lock()
		s.loading = false
		s.lastErr = fmt.Sprintf("failed to load balance sheet: %v", err)
		s.mu.Unlock()
		return fmt.Errorf("failed to refresh balance sheet: %w", err)
	}

	s.mu.Lock()
	s.assets = assets
	s.liabilities = liabilities
	s.loading = false
	s.lastErr = ""
	s.mu.Unlock()

	zap.L().Debug("Balance sheet refreshed",
		zap.String("user_id", s.userId),
		zap.Int("assets", len(assets)),
		zap.Int("liabilities", len(liabilities)))

	s.notify()
	return nil
}

func (s *Session) CreateAsset(ctx context.Context, fields models.AssetFields) models.AssetResult {
	if s.userId == "" {
		return models.AssetResult{Success: false, Error: ErrNotAuthenticated.Error()}
	}
	if err := validateAssetFields(fields); err != nil {
		return models.AssetResult{Success: false, Error: err.Error()}
	}
	fields.Name = strings.TrimSpace(fields.Name)
	if fields.Currency == "" {
		fields.Currency = s.deps.DefaultCurrency
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	asset, err := s.deps.Store.CreateAsset(ctx, store.CreateAssetParams{UserId: s.userId, AssetFields: fields})
	if err != nil {
		return models.AssetResult{Success: false, Error: s.storeFailure("failed to create asset", err)}
	}

	s.mu.Lock()
	s.assets = append(s.assets, *asset)
	s.lastErr = ""
	s.mu.Unlock()

	s.afterMutation(ctx)
	return models.AssetResult{Success: true, Asset: asset}
}

func (s *Session) UpdateAsset(ctx context.Context, assetId string, patch models.AssetPatch) models.AssetResult {
	if s.userId == "" {
		return models.AssetResult{Success: false, Error: ErrNotAuthenticated.Error()}
	}
	if err := validateAssetPatch(patch); err != nil {
		return models.AssetResult{Success: false, Error: err.Error()}
	}
	patch.Name = trimmedName(patch.Name)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	asset, err := s.deps.Store.UpdateAsset(ctx, s.userId, assetId, patch)
	if err != nil {
		return models.AssetResult{Success: false, Error: s.storeFailure("failed to update asset", err)}
	}

	s.mu.Lock()
	s.replaceAsset(*asset)
	s.lastErr = ""
	s.mu.Unlock()

	s.afterMutation(ctx)
	return models.AssetResult{Success: true, Asset: asset}
}

func (s *Session) DeleteAsset(ctx context.Context, assetId string) models.DeleteResult {
	if s.userId == "" {
		return models.DeleteResult{Success: false, Error: ErrNotAuthenticated.Error()}
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.deps.Store.DeleteAsset(ctx, s.userId, assetId); err != nil {
		return models.DeleteResult{Success: false, Error: s.storeFailure("failed to delete asset", err)}
	}

	s.mu.Lock()
	for i := range s.assets {
		if s.assets[i].Id == assetId {
			s.assets = append(s.assets[:i:i], s.assets[i+1:]...)
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()

	s.afterMutation(ctx)
	return models.DeleteResult{Success: true}
}

func (s *Session) CreateLiability(ctx context.Context, fields models.LiabilityFields) models.LiabilityResult {
	if s.userId == "" {
		return models.LiabilityResult{Success: false, Error: ErrNotAuthenticated.Error()}
	}
	if err := validateLiabilityFields(fields); err != nil {
		return models.LiabilityResult{Success: false, Error: err.Error()}
	}
	fields.Name = strings.TrimSpace(fields.Name)
	if fields.Currency == "" {
		fields.Currency = s.deps.DefaultCurrency
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	liability, err := s.deps.Store.CreateLiability(ctx, store.CreateLiabilityParams{UserId: s.userId, LiabilityFields: fields})
	if err != nil {
		return models.LiabilityResult{Success: false, Error: s.storeFailure("failed to create liability", err)}
	}

	s.mu.Lock()
	s.liabilities = append(s.liabilities, *liability)
	s.lastErr = ""
	s.mu.Unlock()

	s.afterMutation(ctx)
	return models.LiabilityResult{Success: true, Liability: liability}
}

func (s *Session) UpdateLiability(ctx context.Context, liabilityId string, patch models.LiabilityPatch) models.LiabilityResult {
	if s.userId == "" {
		return models.LiabilityResult{Success: false, Error: ErrNotAuthenticated.Error()}
	}
	if err := validateLiabilityPatch(patch); err != nil {
		return models.LiabilityResult{Success: false, Error: err.Error()}
	}
	patch.Name = trimmedName(patch.Name)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	liability, err := s.deps.Store.UpdateLiability(ctx, s.userId, liabilityId, patch)
	if err != nil {
		return models.LiabilityResult{Success: false, Error: s.storeFailure("failed to update liability", err)}
	}

	s.mu.Lock()
	for i := range s.liabilities {
		if s.liabilities[i].Id == liability.Id {
			s.liabilities[i] = *liability
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()

	s.afterMutation(ctx)
	return models.LiabilityResult{Success: true, Liability: liability}
}

func (s *Session) DeleteLiability(ctx context.Context, liabilityId string) models.DeleteResult {
	if s.userId == "" {
		return models.DeleteResult{Success: false, Error: ErrNotAuthenticated.Error()}
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.deps.Store.DeleteLiability(ctx, s.userId, liabilityId); err != nil {
		return models.DeleteResult{Success: false, Error: s.storeFailure("failed to delete liability", err)}
	}

	s.mu.Lock()
	for i := range s.liabilities {
		if s.liabilities[i].Id == liabilityId {
			s.liabilities = append(s.liabilities[:i:i], s.liabilities[i+1:]...)
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()

	s.afterMutation(ctx)
	return models.DeleteResult{Success: true}
}

// SetAutoUpdateEnabled persists the flag locally. No store round-trip and no snapshot.
func (s *Session) SetAutoUpdateEnabled(enabled bool) models.SettingsResult {
	if s.userId == "" {
		return models.SettingsResult{Success: false, Error: ErrNotAuthenticated.Error()}
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.deps.Settings.SetAutoUpdateEnabled(s.userId, enabled); err != nil {
		zap.L().Error("Failed to persist auto-update setting", zap.String("user_id", s.userId), zap.Error(err))
		return models.SettingsResult{Success: false, Settings: s.Settings(), Error: err.Error()}
	}

	s.mu.Lock()
	s.settings.AutoUpdateEnabled = enabled
	s.mu.Unlock()

	zap.L().Info("Auto-update setting changed", zap.String("user_id", s.userId), zap.Bool("enabled", enabled))
	s.notify()
	return models.SettingsResult{Success: true, Settings: s.Settings()}
}

// SetPrimaryAssetId selects the asset auto-update applies to. A nil id clears
// the selection; a non-nil id must name one of the session's assets.
func (s *Session) SetPrimaryAssetId(assetId *string) models.SettingsResult {
	if s.userId == "" {
		return models.SettingsResult{Success: false, Error: ErrNotAuthenticated.Error()}
	}
	if assetId != nil && *assetId == "" {
		assetId = nil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if assetId != nil {
		if _, ok := s.findAsset(*assetId); !ok {
			return models.SettingsResult{Success: false, Settings: s.Settings(), Error: fmt.Sprintf("asset %s not found", *assetId)}
		}
	}

	if err := s.deps.Settings.SetPrimaryAssetId(s.userId, assetId); err != nil {
		zap.L().Error("Failed to persist primary asset setting", zap.String("user_id", s.userId), zap.Error(err))
		return models.SettingsResult{Success: false, Settings: s.Settings(), Error: err.Error()}
	}

	s.mu.Lock()
	if assetId == nil {
		s.settings.PrimaryAssetId = nil
	} else {
		id := *assetId
		s.settings.PrimaryAssetId = &id
	}
	s.mu.Unlock()

	s.notify()
	return models.SettingsResult{Success: true, Settings: s.Settings()}
}

// RecordTransaction appends an income or expense transaction. The balance
// sheet reacts to it through the insert feed, not here.
func (s *Session) RecordTransaction(ctx context.Context, params store.InsertTransactionParams) models.TransactionResult {
	if s.userId == "" {
		return models.TransactionResult{Success: false, Error: ErrNotAuthenticated.Error()}
	}
	if err := validateTransaction(params.Type, params.Amount, params.TransactionDate); err != nil {
		return models.TransactionResult{Success: false, Error: err.Error()}
	}
	params.UserId = s.userId

	txn, err := s.deps.Store.InsertTransaction(ctx, params)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			return models.TransactionResult{Success: false, Error: err.Error()}
		}
		return models.TransactionResult{Success: false, Error: fmt.Sprintf("failed to record transaction: %v", err)}
	}
	return models.TransactionResult{Success: true, Transaction: txn}
}

// CreateDefaultCashAsset creates the zero-valued Cash asset auto-update falls
// back to. Unlike CreateAsset it returns the error instead of a result.
func (s *Session) CreateDefaultCashAsset(ctx context.Context) (*models.Asset, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	asset, err := s.deps.Store.CreateAsset(ctx, store.CreateAssetParams{
		UserId: s.userId,
		AssetFields: models.AssetFields{
			Name:         defaultCashName,
			Type:         models.AssetTypeCash,
			CurrentValue: decimal.Zero,
			Currency:     s.deps.DefaultCurrency,
		},
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.assets = append(s.assets, *asset)
	s.mu.Unlock()

	zap.L().Info("Created default cash asset", zap.String("user_id", s.userId), zap.String("asset_id", asset.Id))
	return asset, nil
}

// ApplyAssetDelta adds delta to an asset at the store, once per transactionId
func (s *Session) ApplyAssetDelta(ctx context.Context, assetId string, delta decimal.Decimal, transactionId string) (*models.Asset, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	asset, err := s.deps.Store.ApplyAssetDelta(ctx, store.ApplyAssetDeltaParams{
		UserId:        s.userId,
		AssetId:       assetId,
		Delta:         delta,
		TransactionId: transactionId,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.replaceAsset(*asset)
	s.mu.Unlock()
	return asset, nil
}

// TriggerDailySnapshot records today's totals. Failures are logged only.
func (s *Session) TriggerDailySnapshot(ctx context.Context) {
	if s.userId == "" || s.deps.Snapshots == nil {
		return
	}
	s.deps.Snapshots.TriggerDailySnapshot(ctx, s.userId, s.Totals())
}

func (s *Session) CreateSnapshot(ctx context.Context, date, notes string) models.SnapshotResult {
	if s.userId == "" {
		return models.SnapshotResult{Success: false, Error: ErrNotAuthenticated.Error()}
	}
	if s.deps.Snapshots == nil {
		return models.SnapshotResult{Success: false, Error: ErrSnapshotsUnavailable.Error()}
	}
	return s.deps.Snapshots.CreateSnapshot(ctx, s.userId, s.Totals(), date, notes)
}

func (s *Session) SnapshotHistory(ctx context.Context, fromDate, toDate string) ([]models.BalanceSnapshot, error) {
	if s.userId == "" {
		return nil, ErrNotAuthenticated
	}
	if s.deps.Snapshots == nil {
		return nil, ErrSnapshotsUnavailable
	}
	return s.deps.Snapshots.History(ctx, s.userId, fromDate, toDate)
}

func (s *Session) Reconcile(ctx context.Context, date string) (*models.ReconcileResult, error) {
	if s.userId == "" {
		return nil, ErrNotAuthenticated
	}
	if s.deps.Snapshots == nil {
		return nil, ErrSnapshotsUnavailable
	}
	return s.deps.Snapshots.Reconcile(ctx, s.userId, s.Totals(), date)
}

func (s *Session) Assets() []models.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Asset(nil), s.assets...)
}

func (s *Session) Liabilities() []models.Liability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Liability(nil), s.liabilities...)
}

// Totals is recomputed from the current collections on every call
func (s *Session) Totals() models.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return balance.Aggregate(s.assets, s.liabilities)
}

func (s *Session) Settings() models.BalanceSheetSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySettings(s.settings)
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError is the message of the most recent failed refresh or store call, or empty
func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// View returns every read-only field of the balance sheet in one consistent copy
func (s *Session) View() models.BalanceSheetView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := balance.Aggregate(s.assets, s.liabilities)
	return models.BalanceSheetView{
		UserId:           s.userId,
		Assets:           append([]models.Asset{}, s.assets...),
		Liabilities:      append([]models.Liability{}, s.liabilities...),
		TotalAssets:      totals.TotalAssets,
		TotalLiabilities: totals.TotalLiabilities,
		NetWorth:         totals.NetWorth,
		Settings:         copySettings(s.settings),
		Loading:          s.loading,
		Error:            s.lastErr,
	}
}

func (s *Session) afterMutation(ctx context.Context) {
	s.TriggerDailySnapshot(ctx)
	s.notify()
}

func (s *Session) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn(s.View())
	}
}

func (s *Session) storeFailure(msg string, err error) string {
	zap.L().Error(msg, zap.String("user_id", s.userId), zap.Error(err))

	text := fmt.Sprintf("%s: %v", msg, err)
	if errors.Is(err, store.ErrNotFound) {
		text = fmt.Sprintf("%s: not found", msg)
	}

	s.mu.Lock()
	s.lastErr = text
	s.mu.Unlock()
	return text
}

// replaceAsset must be called with mu held
func (s *Session) replaceAsset(asset models.Asset) {
	for i := range s.assets {
		if s.assets[i].Id == asset.Id {
			s.assets[i] = asset
			return
		}
	}
}

func (s *Session) findAsset(assetId string) (models.Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, asset := range s.assets {
		if asset.Id == assetId {
			return asset, true
		}
	}
	return models.Asset{}, false
}

func copySettings(in models.BalanceSheetSettings) models.BalanceSheetSettings {
	out := models.BalanceSheetSettings{AutoUpdateEnabled: in.AutoUpdateEnabled}
	if in.PrimaryAssetId != nil {
		id := *in.PrimaryAssetId
		out.PrimaryAssetId = &id
	}
	return out
}
