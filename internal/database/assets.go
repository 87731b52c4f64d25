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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*models.Asset, error) {
	var asset models.Asset
	var assetType, valueStr string
	err := row.Scan(&asset.Id, &asset.UserId, &asset.Name, &assetType, &valueStr,
		&asset.Currency, &asset.Description, &asset.Version, &asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return nil, err
	}
	asset.Type = models.AssetType(assetType)

	asset.CurrentValue, err = parseDecimal("current_value", valueStr)
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (s *Service) CreateAsset(ctx context.Context, params store.CreateAssetParams) (*models.Asset, error) {
	now := s.now().UTC()
	asset := &models.Asset{
		Id:           uuid.New().String(),
		UserId:       params.UserId,
		Name:         params.Name,
		Type:         params.Type,
		CurrentValue: params.CurrentValue,
		Currency:     params.Currency,
		Description:  params.Description,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.ExecContext(ctx, queryInsertAsset,
		asset.Id, asset.UserId, asset.Name, string(asset.Type), asset.CurrentValue.String(),
		asset.Currency, asset.Description, now, now)
	if err != nil {
		zap.L().Error("Failed to insert asset", zap.String("user_id", params.UserId), zap.String("name", params.Name), zap.Error(err))
		return nil, fmt.Errorf("unable to insert asset: %w", err)
	}

	zap.L().Info("Asset created",
		zap.String("asset_id", asset.Id),
		zap.String("user_id", asset.UserId),
		zap.String("type", string(asset.Type)),
		zap.String("value", asset.CurrentValue.String()))
	return asset, nil
}

func (s *Service) GetAssets(ctx context.Context, userId string) ([]models.Asset, error) {
	zap.L().Debug("Querying assets", zap.String("user_id", userId))

	rows, err := s.db.QueryContext(ctx, queryGetAssets, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query assets: %w", err)
	}
	defer closeRows(rows)

	assets := make([]models.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan asset row: %w", err)
		}
		assets = append(assets, *asset)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during asset row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating asset rows: %w", err)
	}

	return assets, nil
}

func (s *Service) GetAsset(ctx context.Context, userId, assetId string) (*models.Asset, error) {
	asset, err := scanAsset(s.db.QueryRowContext(ctx, queryGetAsset, userId, assetId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %s: %w", assetId, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query asset: %w", err)
	}
	return asset, nil
}

// UpdateAsset applies a partial update. Every update bumps the row version so
// an in-flight auto-update compare-and-swap observes the manual edit.
func (s *Service) UpdateAsset(ctx context.Context, userId, assetId string, patch models.AssetPatch) (*models.Asset, error) {
	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*patch.Type))
	}
	if patch.CurrentValue != nil {
		sets = append(sets, "current_value = ?")
		args = append(args, patch.CurrentValue.String())
	}
	if patch.Currency != nil {
		sets = append(sets, "currency = ?")
		args = append(args, *patch.Currency)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	sets = append(sets, "version = version + 1", "updated_at = ?")
	args = append(args, s.now().UTC(), userId, assetId)

	query := "UPDATE assets SET " + strings.Join(sets, ", ") + " WHERE user_id = ? AND id = ?"
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		zap.L().Error("Failed to update asset", zap.String("asset_id", assetId), zap.Error(err))
		return nil, fmt.Errorf("unable to update asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("asset %s: %w", assetId, store.ErrNotFound)
	}

	return s.GetAsset(ctx, userId, assetId)
}

func (s *Service) DeleteAsset(ctx context.Context, userId, assetId string) error {
	result, err := s.db.ExecContext(ctx, queryDeleteAsset, userId, assetId)
	if err != nil {
		zap.L().Error("Failed to delete asset", zap.String("asset_id", assetId), zap.Error(err))
		return fmt.Errorf("unable to delete asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("asset %s: %w", assetId, store.ErrNotFound)
	}

	zap.L().Info("Asset deleted", zap.String("asset_id", assetId), zap.String("user_id", userId))
	return nil
}
