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

// Totals is the aggregated balance sheet. It is always derived, never stored
// as a source of truth.
type Totals struct {
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	NetWorth         decimal.Decimal `json:"net_worth"`
}

// BalanceSheetSettings is the per-user, locally persisted auto-update configuration
type BalanceSheetSettings struct {
	AutoUpdateEnabled bool    `json:"auto_update_enabled"`
	PrimaryAssetId    *string `json:"primary_asset_id"`
}

// AssetFields carries the user-supplied fields for asset creation
type AssetFields struct {
	Name         string          `json:"name"`
	Type         AssetType       `json:"type"`
	CurrentValue decimal.Decimal `json:"current_value"`
	Currency     string          `json:"currency"`
	Description  string          `json:"description"`
}

// AssetPatch is a partial update; nil fields are left untouched
type AssetPatch struct {
	Name         *string          `json:"name,omitempty"`
	Type         *AssetType       `json:"type,omitempty"`
	CurrentValue *decimal.Decimal `json:"current_value,omitempty"`
	Currency     *string          `json:"currency,omitempty"`
	Description  *string          `json:"description,omitempty"`
}

type LiabilityFields struct {
	Name           string           `json:"name"`
	Type           LiabilityType    `json:"type"`
	CurrentBalance decimal.Decimal  `json:"current_balance"`
	InterestRate   *decimal.Decimal `json:"interest_rate,omitempty"`
	Currency       string           `json:"currency"`
	Description    string           `json:"description"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	MinimumPayment *decimal.Decimal `json:"minimum_payment,omitempty"`
}

type LiabilityPatch struct {
	Name           *string          `json:"name,omitempty"`
	Type           *LiabilityType   `json:"type,omitempty"`
	CurrentBalance *decimal.Decimal `json:"current_balance,omitempty"`
	InterestRate   *decimal.Decimal `json:"interest_rate,omitempty"`
	Currency       *string          `json:"currency,omitempty"`
	Description    *string          `json:"description,omitempty"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	MinimumPayment *decimal.Decimal `json:"minimum_payment,omitempty"`
}

// AssetResult represents the result of an asset mutation
type AssetResult struct {
	Success bool   `json:"success"`
	Asset   *Asset `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LiabilityResult represents the result of a liability mutation
type LiabilityResult struct {
	Success   bool       `json:"success"`
	Liability *Liability `json:"data,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// DeleteResult represents the result of a delete operation
type DeleteResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SnapshotResult represents the result of an explicit snapshot request
type SnapshotResult struct {
	Success  bool             `json:"success"`
	Created  bool             `json:"created"`
	Snapshot *BalanceSnapshot `json:"data,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// TransactionResult represents the result of recording a transaction
type TransactionResult struct {
	Success     bool         `json:"success"`
	Transaction *Transaction `json:"data,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// RecurringResult represents the result of creating a recurring rule
type RecurringResult struct {
	Success bool                  `json:"success"`
	Rule    *RecurringTransaction `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// MaterializeResult lists the transactions inserted by a materialization run
type MaterializeResult struct {
	Success      bool          `json:"success"`
	Transactions []Transaction `json:"data"`
	Error        string        `json:"error,omitempty"`
}

// SettingsResult represents the result of a settings mutation
type SettingsResult struct {
	Success  bool                 `json:"success"`
	Settings BalanceSheetSettings `json:"data"`
	Error    string               `json:"error,omitempty"`
}

// BalanceSheetView is the read-only surface exposed to the UI/API layer
type BalanceSheetView struct {
	UserId           string               `json:"user_id"`
	Assets           []Asset              `json:"assets"`
	Liabilities      []Liability          `json:"liabilities"`
	TotalAssets      decimal.Decimal      `json:"total_assets"`
	TotalLiabilities decimal.Decimal      `json:"total_liabilities"`
	NetWorth         decimal.Decimal      `json:"net_worth"`
	Settings         BalanceSheetSettings `json:"settings"`
	Loading          bool                 `json:"loading"`
	Error            string               `json:"error,omitempty"`
}

// ReconcileResult compares a stored snapshot against the live aggregates
type ReconcileResult struct {
	SnapshotDate string          `json:"snapshot_date"`
	Found        bool            `json:"found"`
	Snapshot     *Totals         `json:"snapshot,omitempty"`
	Live         Totals          `json:"live"`
	Difference   decimal.Decimal `json:"net_worth_difference"`
	InSync       bool            `json:"in_sync"`
}
