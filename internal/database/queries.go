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

const (
	// User queries
	queryGetActiveUsers = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE active = 1
		ORDER BY created_at`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email) VALUES (?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE id = ? AND active = 1`

	queryGetUserByEmail = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE email = ? AND active = 1`

	// Asset queries
	assetColumns = `id, user_id, name, type, current_value, currency, description, version, created_at, updated_at`

	queryInsertAsset = `
		INSERT INTO assets (id, user_id, name, type, current_value, currency, description, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`

	queryGetAssets = `
		SELECT ` + assetColumns + `
		FROM assets
		WHERE user_id = ?
		ORDER BY created_at, id`

	queryGetAsset = `
		SELECT ` + assetColumns + `
		FROM assets
		WHERE user_id = ? AND id = ?`

	queryDeleteAsset = `
		DELETE FROM assets WHERE user_id = ? AND id = ?`

	// Auto-update queries
	queryGetAssetValue = `
		SELECT current_value, version
		FROM assets
		WHERE user_id = ? AND id = ?`

	queryCompareAndSwapAssetValue = `
		UPDATE assets
		SET current_value = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND id = ? AND version = ?`

	queryCheckApplication = `
		SELECT asset_id FROM asset_applications WHERE transaction_id = ?`

	queryInsertApplication = `
		INSERT INTO asset_applications (transaction_id, user_id, asset_id, delta, value_before, value_after, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	// Liability queries
	liabilityColumns = `id, user_id, name, type, current_balance, interest_rate, currency, description, due_date, minimum_payment, created_at, updated_at`

	queryInsertLiability = `
		INSERT INTO liabilities (id, user_id, name, type, current_balance, interest_rate, currency, description, due_date, minimum_payment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetLiabilities = `
		SELECT ` + liabilityColumns + `
		FROM liabilities
		WHERE user_id = ?
		ORDER BY created_at, id`

	queryGetLiability = `
		SELECT ` + liabilityColumns + `
		FROM liabilities
		WHERE user_id = ? AND id = ?`

	queryDeleteLiability = `
		DELETE FROM liabilities WHERE user_id = ? AND id = ?`

	// Snapshot queries
	snapshotColumns = `id, user_id, snapshot_date, total_assets, total_liabilities, net_worth, notes, created_at, updated_at`

	queryInsertSnapshot = `
		INSERT INTO balance_snapshots (id, user_id, snapshot_date, total_assets, total_liabilities, net_worth, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetSnapshot = `
		SELECT ` + snapshotColumns + `
		FROM balance_snapshots
		WHERE user_id = ? AND snapshot_date = ?`

	queryUpdateSnapshotTotals = `
		UPDATE balance_snapshots
		SET total_assets = ?, total_liabilities = ?, net_worth = ?, updated_at = ?
		WHERE user_id = ? AND snapshot_date = ?`

	queryGetSnapshotsInRange = `
		SELECT ` + snapshotColumns + `
		FROM balance_snapshots
		WHERE user_id = ? AND snapshot_date >= ? AND snapshot_date <= ?
		ORDER BY snapshot_date`

	// Transaction queries
	transactionColumns = `seq, id, user_id, type, amount, description, category, transaction_date, COALESCE(external_id, ''), COALESCE(recurring_id, ''), created_at`

	queryInsertTransaction = `
		INSERT INTO transactions (id, user_id, type, amount, description, category, transaction_date, external_id, recurring_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryCheckDuplicateTransaction = `
		SELECT id FROM transactions WHERE external_id = ? LIMIT 1`

	queryListTransactionsAfter = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE seq > ?
		ORDER BY seq
		LIMIT ?`

	queryListUserTransactionsAfter = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = ? AND seq > ?
		ORDER BY seq
		LIMIT ?`

	queryGetLatestTransactionSeq = `
		SELECT COALESCE(MAX(seq), 0) FROM transactions`

	// Reactor cursor queries
	queryGetFeedCursor = `
		SELECT last_seq FROM feed_cursors WHERE user_id = ?`

	querySaveFeedCursor = `
		INSERT INTO feed_cursors (user_id, last_seq, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE
		SET last_seq = MAX(feed_cursors.last_seq, excluded.last_seq), updated_at = excluded.updated_at`

	// Recurring queries
	recurringColumns = `id, user_id, type, amount, description, category, frequency, start_date, end_date, next_date, last_date, active, created_at, updated_at`

	queryInsertRecurring = `
		INSERT INTO recurring_transactions (id, user_id, type, amount, description, category, frequency, start_date, end_date, next_date, last_date, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '', 1, ?, ?)`

	queryGetDueRecurring = `
		SELECT ` + recurringColumns + `
		FROM recurring_transactions
		WHERE active = 1 AND next_date <= ? AND (? = '' OR user_id = ?)
		ORDER BY next_date, id`

	queryAdvanceRecurring = `
		UPDATE recurring_transactions
		SET next_date = ?, last_date = ?, active = ?, updated_at = ?
		WHERE id = ? AND next_date = ?`
)
