package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanSnapshot(row rowScanner) (*models.BalanceSnapshot, error) {
	var snap models.BalanceSnapshot
	var assetsStr, liabilitiesStr, netWorthStr string
	err := row.Scan(&snap.Id, &snap.UserId, &snap.SnapshotDate, &assetsStr, &liabilitiesStr, &netWorthStr,
		&snap.Notes, &snap.CreatedAt, &snap.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if snap.TotalAssets, err = parseDecimal("total_assets", assetsStr); err != nil {
		return nil, err
	}
	if snap.TotalLiabilities, err = parseDecimal("total_liabilities", liabilitiesStr); err != nil {
		return nil, err
	}
	if snap.NetWorth, err = parseDecimal("net_worth", netWorthStr); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetSnapshot returns the snapshot for (userId, snapshotDate) or store.ErrNotFound
func (s *Service) GetSnapshot(ctx context.Context, userId, snapshotDate string) (*models.BalanceSnapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRowContext(ctx, queryGetSnapshot, userId, snapshotDate))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", snapshotDate, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query snapshot: %w", err)
	}
	return snap, nil
}

// InsertSnapshot writes a new row. The UNIQUE(user_id, snapshot_date)
// constraint turns a second insert for the same day into store.ErrDuplicateSnapshot.
func (s *Service) InsertSnapshot(ctx context.Context, params store.InsertSnapshotParams) (*models.BalanceSnapshot, error) {
	now := s.now().UTC()
	snap := &models.BalanceSnapshot{
		Id:               uuid.New().String(),
		UserId:           params.UserId,
		SnapshotDate:     params.SnapshotDate,
		TotalAssets:      params.Totals.TotalAssets,
		TotalLiabilities: params.Totals.TotalLiabilities,
		NetWorth:         params.Totals.NetWorth,
		Notes:            params.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err := s.db.ExecContext(ctx, queryInsertSnapshot,
		snap.Id, snap.UserId, snap.SnapshotDate,
		snap.TotalAssets.String(), snap.TotalLiabilities.String(), snap.NetWorth.String(),
		snap.Notes, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateSnapshot, params.SnapshotDate)
		}
		return nil, fmt.Errorf("unable to insert snapshot: %w", err)
	}

	zap.L().Info("Balance snapshot created",
		zap.String("user_id", snap.UserId),
		zap.String("snapshot_date", snap.SnapshotDate),
		zap.String("net_worth", snap.NetWorth.String()))
	return snap, nil
}

// UpdateSnapshotTotals refreshes the totals of an existing same-day snapshot
func (s *Service) UpdateSnapshotTotals(ctx context.Context, userId, snapshotDate string, totals models.Totals) (*models.BalanceSnapshot, error) {
	result, err := s.db.ExecContext(ctx, queryUpdateSnapshotTotals,
		totals.TotalAssets.String(), totals.TotalLiabilities.String(), totals.NetWorth.String(),
		s.now().UTC(), userId, snapshotDate)
	if err != nil {
		return nil, fmt.Errorf("unable to update snapshot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("snapshot %s: %w", snapshotDate, store.ErrNotFound)
	}

	return s.GetSnapshot(ctx, userId, snapshotDate)
}

// GetSnapshots returns snapshots with fromDate <= snapshot_date <= toDate, oldest first
func (s *Service) GetSnapshots(ctx context.Context, userId, fromDate, toDate string) ([]models.BalanceSnapshot, error) {
	if fromDate == "" {
		fromDate = "0000-01-01"
	}
	if toDate == "" {
		toDate = "9999-12-31"
	}

	rows, err := s.db.QueryContext(ctx, queryGetSnapshotsInRange, userId, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("unable to query snapshots: %w", err)
	}
	defer closeRows(rows)

	snapshots := make([]models.BalanceSnapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, *snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return snapshots, nil
}
