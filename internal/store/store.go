package store

import (
	"context"
	"errors"

	"balance-sheet-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound               = errors.New("record not found")
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrDuplicateSnapshot      = errors.New("snapshot already exists for date")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrUserNotFound           = errors.New("user not found")
)

// CreateAssetParams contains the parameters for inserting an asset.
type CreateAssetParams struct {
	UserId string
	models.AssetFields
}

// CreateLiabilityParams contains the parameters for inserting a liability.
type CreateLiabilityParams struct {
	UserId string
	models.LiabilityFields
}

// ApplyAssetDeltaParams applies a signed transaction effect to an asset.
// TransactionId makes the application idempotent: a second application of
// the same transaction returns ErrDuplicateTransaction.
type ApplyAssetDeltaParams struct {
	UserId        string
	AssetId       string
	Delta         decimal.Decimal
	TransactionId string
}

// InsertSnapshotParams contains the parameters for writing a snapshot row.
type InsertSnapshotParams struct {
	UserId       string
	SnapshotDate string
	Totals       models.Totals
	Notes        string
}

// InsertTransactionParams contains the parameters for appending a transaction.
type InsertTransactionParams struct {
	UserId          string
	Type            models.TransactionType
	Amount          decimal.Decimal
	Description     string
	Category        string
	TransactionDate string
	ExternalId      string
	RecurringId     string
}

// CreateRecurringParams contains the parameters for a new recurring rule.
type CreateRecurringParams struct {
	UserId      string
	Type        models.TransactionType
	Amount      decimal.Decimal
	Description string
	Category    string
	Frequency   models.Frequency
	StartDate   string
	EndDate     string
}

// MaterializeParams inserts one occurrence of a recurring rule and advances
// the rule to NextDate in the same store transaction.
type MaterializeParams struct {
	Rule           models.RecurringTransaction
	OccurrenceDate string
	NextDate       string
	Deactivate     bool
}

// LedgerStore is the Ledger Store Adapter contract consumed by the balance
// sheet core. Every read and write is scoped to one user.
type LedgerStore interface {
	// --- Users ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, userId, name, email string) (*models.User, error)

	// --- Assets ---
	CreateAsset(ctx context.Context, params CreateAssetParams) (*models.Asset, error)
	GetAssets(ctx context.Context, userId string) ([]models.Asset, error)
	GetAsset(ctx context.Context, userId, assetId string) (*models.Asset, error)
	UpdateAsset(ctx context.Context, userId, assetId string, patch models.AssetPatch) (*models.Asset, error)
	ApplyAssetDelta(ctx context.Context, params ApplyAssetDeltaParams) (*models.Asset, error)
	DeleteAsset(ctx context.Context, userId, assetId string) error

	// --- Liabilities ---
	CreateLiability(ctx context.Context, params CreateLiabilityParams) (*models.Liability, error)
	GetLiabilities(ctx context.Context, userId string) ([]models.Liability, error)
	GetLiability(ctx context.Context, userId, liabilityId string) (*models.Liability, error)
	UpdateLiability(ctx context.Context, userId, liabilityId string, patch models.LiabilityPatch) (*models.Liability, error)
	DeleteLiability(ctx context.Context, userId, liabilityId string) error

	// --- Snapshots ---
	GetSnapshot(ctx context.Context, userId, snapshotDate string) (*models.BalanceSnapshot, error)
	InsertSnapshot(ctx context.Context, params InsertSnapshotParams) (*models.BalanceSnapshot, error)
	UpdateSnapshotTotals(ctx context.Context, userId, snapshotDate string, totals models.Totals) (*models.BalanceSnapshot, error)
	GetSnapshots(ctx context.Context, userId, fromDate, toDate string) ([]models.BalanceSnapshot, error)

	// --- Transactions ---
	InsertTransaction(ctx context.Context, params InsertTransactionParams) (*models.Transaction, error)
	ListTransactionsAfter(ctx context.Context, afterSeq int64, limit int) ([]models.Transaction, error)
	ListUserTransactionsAfter(ctx context.Context, userId string, afterSeq int64, limit int) ([]models.Transaction, error)
	GetLatestTransactionSeq(ctx context.Context) (int64, error)

	// --- Reactor cursor ---
	GetFeedCursor(ctx context.Context, userId string) (int64, error)
	SaveFeedCursor(ctx context.Context, userId string, seq int64) error

	// --- Recurring ---
	CreateRecurring(ctx context.Context, params CreateRecurringParams) (*models.RecurringTransaction, error)
	GetDueRecurring(ctx context.Context, userId, asOfDate string) ([]models.RecurringTransaction, error)
	MaterializeRecurring(ctx context.Context, params MaterializeParams) (*models.Transaction, error)

	// --- Lifecycle ---
	Close()
}
