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

func scanLiability(row rowScanner) (*models.Liability, error) {
	var liability models.Liability
	var liabilityType, balanceStr string
	var interestRate, minimumPayment sql.NullString
	var dueDate sql.NullTime
	err := row.Scan(&liability.Id, &liability.UserId, &liability.Name, &liabilityType, &balanceStr,
		&interestRate, &liability.Currency, &liability.Description, &dueDate, &minimumPayment,
		&liability.CreatedAt, &liability.UpdatedAt)
	if err != nil {
		return nil, err
	}
	liability.Type = models.LiabilityType(liabilityType)

	liability.CurrentBalance, err = parseDecimal("current_balance", balanceStr)
	if err != nil {
		return nil, err
	}
	liability.InterestRate, err = parseNullDecimal("interest_rate", interestRate)
	if err != nil {
		return nil, err
	}
	liability.MinimumPayment, err = parseNullDecimal("minimum_payment", minimumPayment)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		due := dueDate.Time
		liability.DueDate = &due
	}
	return &liability, nil
}

func (s *Service) CreateLiability(ctx context.Context, params store.CreateLiabilityParams) (*models.Liability, error) {
	now := s.now().UTC()
	liability := &models.Liability{
		Id:             uuid.New().String(),
		UserId:         params.UserId,
		Name:           params.Name,
		Type:           params.Type,
		CurrentBalance: params.CurrentBalance,
		InterestRate:   params.InterestRate,
		Currency:       params.Currency,
		Description:    params.Description,
		DueDate:        params.DueDate,
		MinimumPayment: params.MinimumPayment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.db.ExecContext(ctx, queryInsertLiability,
		liability.Id, liability.UserId, liability.Name, string(liability.Type), liability.CurrentBalance.String(),
		nullDecimal(liability.InterestRate), liability.Currency, liability.Description,
		nullTime(liability.DueDate), nullDecimal(liability.MinimumPayment), now, now)
	if err != nil {
		zap.L().Error("Failed to insert liability", zap.String("user_id", params.UserId), zap.String("name", params.Name), zap.Error(err))
		return nil, fmt.Errorf("unable to insert liability: %w", err)
	}

	zap.L().Info("Liability created",
		zap.String("liability_id", liability.Id),
		zap.String("user_id", liability.UserId),
		zap.String("type", string(liability.Type)),
		zap.String("balance", liability.CurrentBalance.String()))
	return liability, nil
}

func (s *Service) GetLiabilities(ctx context.Context, userId string) ([]models.Liability, error) {
	zap.L().Debug("Querying liabilities", zap.String("user_id", userId))

	rows, err := s.db.QueryContext(ctx, queryGetLiabilities, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query liabilities: %w", err)
	}
	defer closeRows(rows)

	liabilities := make([]models.Liability, 0)
	for rows.Next() {
		liability, err := scanLiability(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan liability row: %w", err)
		}
		liabilities = append(liabilities, *liability)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating liability rows: %w", err)
	}

	return liabilities, nil
}

func (s *Service) GetLiability(ctx context.Context, userId, liabilityId string) (*models.Liability, error) {
	liability, err := scanLiability(s.db.QueryRowContext(ctx, queryGetLiability, userId, liabilityId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("liability %s: %w", liabilityId, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query liability: %w", err)
	}
	return liability, nil
}

func (s *Service) UpdateLiability(ctx context.Context, userId, liabilityId string, patch models.LiabilityPatch) (*models.Liability, error) {
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
	if patch.CurrentBalance != nil {
		sets = append(sets, "current_balance = ?")
		args = append(args, patch.CurrentBalance.String())
	}
	if patch.InterestRate != nil {
		sets = append(sets, "interest_rate = ?")
		args = append(args, patch.InterestRate.String())
	}
	if patch.Currency != nil {
		sets = append(sets, "currency = ?")
		args = append(args, *patch.Currency)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, patch.DueDate.UTC())
	}
	if patch.MinimumPayment != nil {
		sets = append(sets, "minimum_payment = ?")
		args = append(args, patch.MinimumPayment.String())
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.now().UTC(), userId, liabilityId)

	query := "UPDATE liabilities SET " + strings.Join(sets, ", ") + " WHERE user_id = ? AND id = ?"
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		zap.L().Error("Failed to update liability", zap.String("liability_id", liabilityId), zap.Error(err))
		return nil, fmt.Errorf("unable to update liability: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("liability %s: %w", liabilityId, store.ErrNotFound)
	}

	return s.GetLiability(ctx, userId, liabilityId)
}

func (s *Service) DeleteLiability(ctx context.Context, userId, liabilityId string) error {
	result, err := s.db.ExecContext(ctx, queryDeleteLiability, userId, liabilityId)
	if err != nil {
		zap.L().Error("Failed to delete liability", zap.String("liability_id", liabilityId), zap.Error(err))
		return fmt.Errorf("unable to delete liability: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("liability %s: %w", liabilityId, store.ErrNotFound)
	}

	zap.L().Info("Liability deleted", zap.String("liability_id", liabilityId), zap.String("user_id", userId))
	return nil
}
