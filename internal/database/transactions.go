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

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var txn models.Transaction
	var txnType, amountStr string
	err := row.Scan(&txn.Seq, &txn.Id, &txn.UserId, &txnType, &amountStr, &txn.Description, &txn.Category,
		&txn.TransactionDate, &txn.ExternalId, &txn.RecurringId, &txn.CreatedAt)
	if err != nil {
		return nil, err
	}
	txn.Type = models.TransactionType(txnType)

	txn.Amount, err = parseDecimal("amount", amountStr)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// InsertTransaction appends a transaction. A repeated non-empty ExternalId
// returns store.ErrDuplicateTransaction.
func (s *Service) InsertTransaction(ctx context.Context, params store.InsertTransactionParams) (*models.Transaction, error) {
	zap.L().Info("Recording transaction",
		zap.String("user_id", params.UserId),
		zap.String("type", string(params.Type)),
		zap.String("amount", params.Amount.String()),
		zap.String("external_id", params.ExternalId))

	txn, err := s.insertTransaction(ctx, s.db, params)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Transaction recorded",
		zap.String("transaction_id", txn.Id),
		zap.Int64("seq", txn.Seq),
		zap.String("user_id", txn.UserId))
	return txn, nil
}

func (s *Service) insertTransaction(ctx context.Context, q queryer, params store.InsertTransactionParams) (*models.Transaction, error) {
	// Check for duplicate external Id
	if params.ExternalId != "" {
		var existingId string
		err := q.QueryRowContext(ctx, queryCheckDuplicateTransaction, params.ExternalId).Scan(&existingId)
		if err == nil {
			zap.L().Warn("Duplicate external Id detected, skipping",
				zap.String("external_id", params.ExternalId),
				zap.String("existing_transaction_id", existingId))
			return nil, fmt.Errorf("%w: external_id %s already exists", store.ErrDuplicateTransaction, params.ExternalId)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check for duplicate transaction: %w", err)
		}
	}

	now := s.now().UTC()
	txn := &models.Transaction{
		Id:              uuid.New().String(),
		UserId:          params.UserId,
		Type:            params.Type,
		Amount:          params.Amount,
		Description:     params.Description,
		Category:        params.Category,
		TransactionDate: params.TransactionDate,
		ExternalId:      params.ExternalId,
		RecurringId:     params.RecurringId,
		CreatedAt:       now,
	}
	if txn.TransactionDate == "" {
		txn.TransactionDate = now.Format(models.DateLayout)
	}

	result, err := q.ExecContext(ctx, queryInsertTransaction,
		txn.Id, txn.UserId, string(txn.Type), txn.Amount.String(), txn.Description, txn.Category,
		txn.TransactionDate, nullString(txn.ExternalId), nullString(txn.RecurringId), now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: external_id %s already exists", store.ErrDuplicateTransaction, params.ExternalId)
		}
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	txn.Seq, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction sequence: %w", err)
	}
	return txn, nil
}

// ListTransactionsAfter returns up to limit transactions with seq > afterSeq, across all users, in insertion order
func (s *Service) ListTransactionsAfter(ctx context.Context, afterSeq int64, limit int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryListTransactionsAfter, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return scanTransactions(rows)
}

// ListUserTransactionsAfter is ListTransactionsAfter restricted to one user
func (s *Service) ListUserTransactionsAfter(ctx context.Context, userId string, afterSeq int64, limit int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryListUserTransactionsAfter, userId, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user transactions: %w", err)
	}
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer closeRows(rows)

	var transactions []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// GetLatestTransactionSeq returns the highest insertion sequence, or 0 if there are no transactions
func (s *Service) GetLatestTransactionSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, queryGetLatestTransactionSeq).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to get latest transaction sequence: %w", err)
	}
	return seq, nil
}

// GetFeedCursor returns the last transaction seq handled for the user, or
// store.ErrNotFound before the user's first session
func (s *Service) GetFeedCursor(ctx context.Context, userId string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, queryGetFeedCursor, userId).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("feed cursor for %s: %w", userId, store.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get feed cursor: %w", err)
	}
	return seq, nil
}

// SaveFeedCursor records seq as handled. The stored cursor never moves backwards.
func (s *Service) SaveFeedCursor(ctx context.Context, userId string, seq int64) error {
	if _, err := s.db.ExecContext(ctx, querySaveFeedCursor, userId, seq, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to save feed cursor: %w", err)
	}
	return nil
}
