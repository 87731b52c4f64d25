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

package listener

import (
	"context"
	"fmt"
	"time"

	"balance-sheet-go/internal/models"

	"go.uber.org/zap"
)

// Start positions the feed at the latest existing transaction, so only rows
// inserted afterwards are delivered, and begins polling
func (d *TransactionFeed) Start(ctx context.Context) error {
	zap.L().Info("Starting transaction feed")

	seq, err := d.source.GetLatestTransactionSeq(ctx)
	if err != nil {
		return fmt.Errorf("failed to read latest transaction sequence: %w", err)
	}
	d.lastSeq = seq

	d.started.Store(true)
	go d.pollLoop(ctx)

	zap.L().Info("Transaction feed started",
		zap.Duration("polling_interval", d.pollingInterval),
		zap.Int("batch_size", d.batchSize),
		zap.Int64("start_seq", seq))

	return nil
}

// Stop gracefully stops the feed
func (d *TransactionFeed) Stop() {
	if !d.started.Load() {
		return
	}
	d.stopOnce.Do(func() {
		zap.L().Info("Stopping transaction feed")
		close(d.stopChan)
		<-d.doneChan
		zap.L().Info("Transaction feed stopped")
	})
}

// Poke requests an immediate poll, e.g. right after a local insert
func (d *TransactionFeed) Poke() {
	select {
	case d.pokeChan <- struct{}{}:
	default:
	}
}

// pollLoop runs the main polling loop
func (d *TransactionFeed) pollLoop(ctx context.Context) {
	defer close(d.doneChan)

	ticker := time.NewTicker(d.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.poll(ctx)
		case <-d.pokeChan:
			d.poll(ctx)
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// poll drains every transaction inserted since the last delivered sequence
func (d *TransactionFeed) poll(ctx context.Context) {
	for {
		batch, err := d.source.ListTransactionsAfter(ctx, d.lastSeq, d.batchSize)
		if err != nil {
			zap.L().Error("Failed to poll transactions", zap.Int64("after_seq", d.lastSeq), zap.Error(err))
			return
		}

		for _, txn := range batch {
			if !d.dispatch(txn) {
				return
			}
			d.lastSeq = txn.Seq
		}

		if len(batch) > 0 {
			zap.L().Debug("Dispatched transactions",
				zap.Int("count", len(batch)),
				zap.Int64("last_seq", d.lastSeq))
		}

		if len(batch) < d.batchSize {
			return
		}
	}
}

// dispatch delivers txn to every subscriber of its user. It blocks on a full
// subscriber until that subscriber drains or unsubscribes, and returns false
// once the feed is stopping.
func (d *TransactionFeed) dispatch(txn models.Transaction) bool {
	for _, sub := range d.subscribersFor(txn.UserId) {
		select {
		case sub.ch <- txn:
		case <-sub.done:
		case <-d.stopChan:
			return false
		}
	}
	return true
}
