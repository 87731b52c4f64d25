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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssetType string

const (
	AssetTypeCash       AssetType = "cash"
	AssetTypeBank       AssetType = "bank"
	AssetTypeInvestment AssetType = "investment"
	AssetTypeProperty   AssetType = "property"
	AssetTypeOther      AssetType = "other"
)

// Valid reports whether t is one of the fixed asset types
func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeCash, AssetTypeBank, AssetTypeInvestment, AssetTypeProperty, AssetTypeOther:
		return true
	}
	return false
}

type LiabilityType string

const (
	LiabilityTypeCreditCard LiabilityType = "credit_card"
	LiabilityTypeLoan       LiabilityType = "loan"
	LiabilityTypeMortgage   LiabilityType = "mortgage"
	LiabilityTypeOther      LiabilityType = "other"
)

func (t LiabilityType) Valid() bool {
	switch t {
	case LiabilityTypeCreditCard, LiabilityTypeLoan, LiabilityTypeMortgage, LiabilityTypeOther:
		return true
	}
	return false
}

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// User represents an account holder; every other row is scoped to one user
type User struct {
	Id        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Asset is a tracked holding. CurrentValue is non-negative at rest except
// when auto-update overdraws it.
type Asset struct {
	Id           string          `db:"id" json:"id"`
	UserId       string          `db:"user_id" json:"user_id"`
	Name         string          `db:"name" json:"name"`
	Type         AssetType       `db:"type" json:"type"`
	CurrentValue decimal.Decimal `db:"current_value" json:"current_value"`
	Currency     string          `db:"currency" json:"currency"`
	Description  string          `db:"description" json:"description,omitempty"`
	Version      int64           `db:"version" json:"-"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Liability is a tracked obligation. It is never mutated automatically.
type Liability struct {
	Id             string           `db:"id" json:"id"`
	UserId         string           `db:"user_id" json:"user_id"`
	Name           string           `db:"name" json:"name"`
	Type           LiabilityType    `db:"type" json:"type"`
	CurrentBalance decimal.Decimal  `db:"current_balance" json:"current_balance"`
	InterestRate   *decimal.Decimal `db:"interest_rate" json:"interest_rate,omitempty"`
	Currency       string           `db:"currency" json:"currency"`
	Description    string           `db:"description" json:"description,omitempty"`
	DueDate        *time.Time       `db:"due_date" json:"due_date,omitempty"`
	MinimumPayment *decimal.Decimal `db:"minimum_payment" json:"minimum_payment,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// BalanceSnapshot is the per-day historical record of aggregated totals
type BalanceSnapshot struct {
	Id               string          `db:"id" json:"id"`
	UserId           string          `db:"user_id" json:"user_id"`
	SnapshotDate     string          `db:"snapshot_date" json:"snapshot_date"` // 2006-01-02
	TotalAssets      decimal.Decimal `db:"total_assets" json:"total_assets"`
	TotalLiabilities decimal.Decimal `db:"total_liabilities" json:"total_liabilities"`
	NetWorth         decimal.Decimal `db:"net_worth" json:"net_worth"`
	Notes            string          `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Transaction is an append-only income/expense record. Seq is the store's
// insertion sequence and orders the insert feed.
type Transaction struct {
	Id              string          `db:"id" json:"id"`
	Seq             int64           `db:"seq" json:"seq"`
	UserId          string          `db:"user_id" json:"user_id"`
	Type            TransactionType `db:"type" json:"type"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Description     string          `db:"description" json:"description,omitempty"`
	Category        string          `db:"category" json:"category,omitempty"`
	TransactionDate string          `db:"transaction_date" json:"transaction_date"`
	ExternalId      string          `db:"external_id" json:"external_id,omitempty"`
	RecurringId     string          `db:"recurring_id" json:"recurring_id,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// RecurringTransaction is a rule the scheduler materializes into transactions
type RecurringTransaction struct {
	Id          string          `db:"id" json:"id"`
	UserId      string          `db:"user_id" json:"user_id"`
	Type        TransactionType `db:"type" json:"type"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description string          `db:"description" json:"description,omitempty"`
	Category    string          `db:"category" json:"category,omitempty"`
	Frequency   Frequency       `db:"frequency" json:"frequency"`
	StartDate   string          `db:"start_date" json:"start_date"`
	EndDate     string          `db:"end_date" json:"end_date,omitempty"`
	NextDate    string          `db:"next_date" json:"next_date"`
	LastDate    string          `db:"last_date" json:"last_date,omitempty"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// DateLayout is the calendar-day format used for snapshot and transaction dates
const DateLayout = "2006-01-02"
