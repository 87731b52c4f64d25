package database

import (
	"context"
	"errors"
	"fmt"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanRecurring(row rowScanner) (*models.RecurringTransaction, error) {
	var rule models.RecurringTransaction
	var ruleType, frequency, amountStr string
	err := row.Scan(&rule.Id, &rule.UserId, &ruleType, &amountStr, &rule.Description, &rule.Category,
		&frequency, &rule.StartDate, &rule.EndDate, &rule.NextDate, &rule.LastDate, &rule.Active,
		&rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rule.Type = models.TransactionType(ruleType)
	rule.Frequency = models.Frequency(frequency)

	rule.Amount, err = parseDecimal("amount", amountStr)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *Service) CreateRecurring(ctx context.Context, params store.CreateRecurringParams) (*models.RecurringTransaction, error) {
	now := s.now().UTC()
	rule := &models.RecurringTransaction{
		Id:          uuid.New().String(),
		UserId:      params.UserId,
		Type:        params.Type,
		Amount:      params.Amount,
		Description: params.Description,
		Category:    params.Category,
		Frequency:   params.Frequency,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		NextDate:    params.StartDate,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, queryInsertRecurring,
		rule.Id, rule.UserId, string(rule.Type), rule.Amount.String(), rule.Description, rule.Category,
		string(rule.Frequency), rule.StartDate, rule.EndDate, rule.NextDate, now, now)
	if err != nil {
		return nil, fmt.Errorf("unable to insert recurring transaction: %w", err)
	}

	zap.L().Info("Recurring transaction created",
		zap.String("recurring_id", rule.Id),
		zap.String("user_id", rule.UserId),
		zap.String("frequency", string(rule.Frequency)),
		zap.String("next_date", rule.NextDate))
	return rule, nil
}

// GetDueRecurring returns active rules whose next date is on or before asOfDate.
// An empty userId selects rules of every user.
func (s *Service) GetDueRecurring(ctx context.Context, userId, asOfDate string) ([]models.RecurringTransaction, error) {
	rows, err := s.db.QueryContext(ctx, queryGetDueRecurring, asOfDate, userId, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query due recurring transactions: %w", err)
	}
	defer closeRows(rows)

	var rules []models.RecurringTransaction
	for rows.Next() {
		rule, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan recurring row: %w", err)
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring rows: %w", err)
	}

	return rules, nil
}

// MaterializeRecurring inserts one occurrence of a rule and advances the rule in
// a single transaction. An occurrence that already exists still advances the
// rule and returns store.ErrDuplicateTransaction.
func (s *Service) MaterializeRecurring(ctx context.Context, params store.MaterializeParams) (*models.Transaction, error) {
	rule := params.Rule

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	txn, insertErr := s.insertTransaction(ctx, tx, store.InsertTransactionParams{
		UserId:          rule.UserId,
		Type:            rule.Type,
		Amount:          rule.Amount,
		Description:     rule.Description,
		Category:        rule.Category,
		TransactionDate: params.OccurrenceDate,
		ExternalId:      fmt.Sprintf("recurring:%s:%s", rule.Id, params.OccurrenceDate),
		RecurringId:     rule.Id,
	})
	if insertErr != nil && !errors.Is(insertErr, store.ErrDuplicateTransaction) {
		return nil, insertErr
	}

	active := !params.Deactivate
	result, err := tx.ExecContext(ctx, queryAdvanceRecurring,
		params.NextDate, params.OccurrenceDate, active, s.now().UTC(), rule.Id, rule.NextDate)
	if err != nil {
		return nil, fmt.Errorf("failed to advance recurring transaction: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("recurring advance failed - %w", store.ErrConcurrentModification)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if insertErr != nil {
		return nil, insertErr
	}

	zap.L().Info("Recurring occurrence materialized",
		zap.String("recurring_id", rule.Id),
		zap.String("transaction_id", txn.Id),
		zap.String("occurrence_date", params.OccurrenceDate),
		zap.String("next_date", params.NextDate))
	return txn, nil
}
