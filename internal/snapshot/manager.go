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

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"go.uber.org/zap"
)

// Store is the subset of store.LedgerStore the manager needs
type Store interface {
	GetSnapshot(ctx context.Context, userId, snapshotDate string) (*models.BalanceSnapshot, error)
	InsertSnapshot(ctx context.Context, params store.InsertSnapshotParams) (*models.BalanceSnapshot, error)
	UpdateSnapshotTotals(ctx context.Context, userId, snapshotDate string, totals models.Totals) (*models.BalanceSnapshot, error)
	GetSnapshots(ctx context.Context, userId, fromDate, toDate string) ([]models.BalanceSnapshot, error)
}

// Manager keeps at most one snapshot per user per calendar day. A re-trigger
// for today refreshes today's row in place; rows of past days are never
// rewritten.
type Manager struct {
	store    Store
	location *time.Location
	now      func() time.Time
}

func NewManager(s Store, location *time.Location) *Manager {
	if location == nil {
		location = time.Local
	}
	return &Manager{store: s, location: location, now: time.Now}
}

// Today returns the current calendar day in the manager's timezone
func (m *Manager) Today() string {
	return m.now().In(m.location).Format(models.DateLayout)
}

// EnsureDailySnapshot records totals for (userId, date). It returns true when
// a new row was written and false when a row already existed for the day.
// An empty date means today.
func (m *Manager) EnsureDailySnapshot(ctx context.Context, userId string, totals models.Totals, date string) (bool, error) {
	snap, created, err := m.upsert(ctx, userId, totals, date, "")
	if err != nil {
		return false, err
	}

	zap.L().Debug("Daily snapshot ensured",
		zap.String("user_id", userId),
		zap.String("snapshot_date", snap.SnapshotDate),
		zap.Bool("created", created))
	return created, nil
}

// TriggerDailySnapshot is the background path used after mutations. Failures
// are logged and never returned.
func (m *Manager) TriggerDailySnapshot(ctx context.Context, userId string, totals models.Totals) {
	if _, err := m.EnsureDailySnapshot(ctx, userId, totals, ""); err != nil {
		zap.L().Warn("Daily snapshot failed",
			zap.String("user_id", userId),
			zap.String("net_worth", totals.NetWorth.String()),
			zap.Error(err))
	}
}

// CreateSnapshot is the explicit user-triggered variant of EnsureDailySnapshot.
// Notes are stored only when the row is first written.
func (m *Manager) CreateSnapshot(ctx context.Context, userId string, totals models.Totals, date, notes string) models.SnapshotResult {
	if userId == "" {
		return models.SnapshotResult{Success: false, Error: "user not authenticated"}
	}
	if date != "" {
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			return models.SnapshotResult{Success: false, Error: fmt.Sprintf("invalid snapshot date %q, expected YYYY-MM-DD", date)}
		}
	}

	snap, created, err := m.upsert(ctx, userId, totals, date, notes)
	if err != nil {
		zap.L().Error("Failed to create snapshot", zap.String("user_id", userId), zap.Error(err))
		return models.SnapshotResult{Success: false, Error: fmt.Sprintf("failed to create snapshot: %v", err)}
	}

	return models.SnapshotResult{Success: true, Created: created, Snapshot: snap}
}

func (m *Manager) upsert(ctx context.Context, userId string, totals models.Totals, date, notes string) (*models.BalanceSnapshot, bool, error) {
	if date == "" {
		date = m.Today()
	}

	existing, err := m.store.GetSnapshot(ctx, userId, date)
	switch {
	case err == nil:
		return m.refreshExisting(ctx, existing, totals)
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, fmt.Errorf("unable to check snapshot %s: %w", date, err)
	}

	snap, err := m.store.InsertSnapshot(ctx, store.InsertSnapshotParams{
		UserId:       userId,
		SnapshotDate: date,
		Totals:       totals,
		Notes:        notes,
	})
	if errors.Is(err, store.ErrDuplicateSnapshot) {
		// Lost the insert race to a concurrent trigger for the same day
		existing, err := m.store.GetSnapshot(ctx, userId, date)
		if err != nil {
			return nil, false, fmt.Errorf("unable to check snapshot %s: %w", date, err)
		}
		return m.refreshExisting(ctx, existing, totals)
	}
	if err != nil {
		return nil, false, fmt.Errorf("unable to insert snapshot %s: %w", date, err)
	}
	return snap, true, nil
}

// refreshExisting updates the totals of today's row and leaves any other day untouched
func (m *Manager) refreshExisting(ctx context.Context, existing *models.BalanceSnapshot, totals models.Totals) (*models.BalanceSnapshot, bool, error) {
	if existing.SnapshotDate != m.Today() {
		return existing, false, nil
	}
	snap, err := m.store.UpdateSnapshotTotals(ctx, existing.UserId, existing.SnapshotDate, totals)
	if err != nil {
		return nil, false, fmt.Errorf("unable to refresh snapshot %s: %w", existing.SnapshotDate, err)
	}
	return snap, false, nil
}

// History returns the user's snapshots between fromDate and toDate inclusive,
// oldest first. Empty bounds are open.
func (m *Manager) History(ctx context.Context, userId, fromDate, toDate string) ([]models.BalanceSnapshot, error) {
	if fromDate != "" && toDate != "" && fromDate > toDate {
		return nil, fmt.Errorf("from date %s is after to date %s", fromDate, toDate)
	}
	return m.store.GetSnapshots(ctx, userId, fromDate, toDate)
}

// Reconcile compares the stored snapshot for date (today when empty) with
// the live totals.
func (m *Manager) Reconcile(ctx context.Context, userId string, live models.Totals, date string) (*models.ReconcileResult, error) {
	if date == "" {
		date = m.Today()
	}

	result := &models.ReconcileResult{
		SnapshotDate: date,
		Live:         live,
		Difference:   live.NetWorth,
	}

	snap, err := m.store.GetSnapshot(ctx, userId, date)
	if errors.Is(err, store.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load snapshot %s: %w", date, err)
	}

	result.Found = true
	result.Snapshot = &models.Totals{
		TotalAssets:      snap.TotalAssets,
		TotalLiabilities: snap.TotalLiabilities,
		NetWorth:         snap.NetWorth,
	}
	result.Difference = live.NetWorth.Sub(snap.NetWorth)
	result.InSync = result.Difference.IsZero() &&
		live.TotalAssets.Equal(snap.TotalAssets) &&
		live.TotalLiabilities.Equal(snap.TotalLiabilities)
	return result, nil
}
