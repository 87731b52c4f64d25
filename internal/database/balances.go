package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"go.uber.org/zap"
)

// ApplyAssetDelta atomically adds params.Delta to the asset value and records
// the application against params.TransactionId. The value is not floored at
// zero: an expense may overdraw the tracked asset.
func (s *Service) ApplyAssetDelta(ctx context.Context, params store.ApplyAssetDeltaParams) (*models.Asset, error) {
	zap.L().Info("Applying asset delta",
		zap.String("user_id", params.UserId),
		zap.String("asset_id", params.AssetId),
		zap.String("delta", params.Delta.String()),
		zap.String("transaction_id", params.TransactionId))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	// Check whether this transaction was already applied
	if params.TransactionId != "" {
		var appliedTo string
		err := tx.QueryRowContext(ctx, queryCheckApplication, params.TransactionId).Scan(&appliedTo)
		if err == nil {
			zap.L().Warn("Transaction already applied, skipping",
				zap.String("transaction_id", params.TransactionId),
				zap.String("applied_to_asset", appliedTo))
			return nil, fmt.Errorf("%w: transaction %s already applied", store.ErrDuplicateTransaction, params.TransactionId)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check for applied transaction: %w", err)
		}
	}

	var currentValueStr string
	var version int64
	err = tx.QueryRowContext(ctx, queryGetAssetValue, params.UserId, params.AssetId).Scan(&currentValueStr, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %s: %w", params.AssetId, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current asset value: %w", err)
	}

	currentValue, err := parseDecimal("current_value", currentValueStr)
	if err != nil {
		return nil, err
	}
	newValue := currentValue.Add(params.Delta)
	now := s.now().UTC()

	// Update asset value (with optimistic locking)
	result, err := tx.ExecContext(ctx, queryCompareAndSwapAssetValue, newValue.String(), now, params.UserId, params.AssetId, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update asset value: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("asset value update failed - %w", store.ErrConcurrentModification)
	}

	if params.TransactionId != "" {
		_, err = tx.ExecContext(ctx, queryInsertApplication,
			params.TransactionId, params.UserId, params.AssetId,
			params.Delta.String(), currentValue.String(), newValue.String(), now)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: transaction %s already applied", store.ErrDuplicateTransaction, params.TransactionId)
			}
			return nil, fmt.Errorf("failed to record application: %w", err)
		}
	}

	asset, err := scanAsset(tx.QueryRowContext(ctx, queryGetAsset, params.UserId, params.AssetId))
	if err != nil {
		return nil, fmt.Errorf("failed to read updated asset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Asset delta applied",
		zap.String("asset_id", params.AssetId),
		zap.String("old_value", currentValue.String()),
		zap.String("new_value", newValue.String()))

	return asset, nil
}
