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
	"sync"
	"sync/atomic"
	"time"

	"balance-sheet-go/internal/models"
)

const (
	defaultPollingInterval  = 2 * time.Second
	defaultBatchSize        = 100
	defaultSubscriberBuffer = 64
)

// TransactionSource is the part of store.LedgerStore the feed reads from
type TransactionSource interface {
	ListTransactionsAfter(ctx context.Context, afterSeq int64, limit int) ([]models.Transaction, error)
	GetLatestTransactionSeq(ctx context.Context) (int64, error)
}

// TransactionFeedConfig contains configuration for TransactionFeed
type TransactionFeedConfig struct {
	Source           TransactionSource
	PollingInterval  time.Duration
	BatchSize        int
	SubscriberBuffer int
}

type subscription struct {
	id     int
	userId string
	ch     chan models.Transaction
	done   chan struct{}
	once   sync.Once
}

// TransactionFeed polls the transactions table by insertion sequence and
// fans new rows out to per-user subscribers
type TransactionFeed struct {
	source TransactionSource

	pollingInterval  time.Duration
	batchSize        int
	subscriberBuffer int

	// Subscriber registry, keyed by user
	mutex       sync.RWMutex
	subscribers map[string]map[int]*subscription
	nextId      int

	// Only touched by the poll goroutine after Start
	lastSeq int64

	// Control channels
	started  atomic.Bool
	pokeChan chan struct{}
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewTransactionFeed creates a new transaction feed
func NewTransactionFeed(cfg TransactionFeedConfig) *TransactionFeed {
	if cfg.PollingInterval <= 0 {
		cfg.PollingInterval = defaultPollingInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = defaultSubscriberBuffer
	}

	return &TransactionFeed{
		source:           cfg.Source,
		pollingInterval:  cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		subscriberBuffer: cfg.SubscriberBuffer,
		subscribers:      make(map[string]map[int]*subscription),
		pokeChan:         make(chan struct{}, 1),
		stopChan:         make(chan struct{}),
		doneChan:         make(chan struct{}),
	}
}

// Subscribe returns a channel receiving the user's newly inserted
// transactions in insertion order, and a func that ends the subscription.
// The channel is never closed.
func (d *TransactionFeed) Subscribe(userId string) (<-chan models.Transaction, func()) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.nextId++
	sub := &subscription{
		id:     d.nextId,
		userId: userId,
		ch:     make(chan models.Transaction, d.subscriberBuffer),
		done:   make(chan struct{}),
	}
	if d.subscribers[userId] == nil {
		d.subscribers[userId] = make(map[int]*subscription)
	}
	d.subscribers[userId][sub.id] = sub

	return sub.ch, func() { d.unsubscribe(sub) }
}

func (d *TransactionFeed) unsubscribe(sub *subscription) {
	// Release a dispatcher blocked on this subscriber before taking the lock
	sub.once.Do(func() { close(sub.done) })

	d.mutex.Lock()
	defer d.mutex.Unlock()
	delete(d.subscribers[sub.userId], sub.id)
	if len(d.subscribers[sub.userId]) == 0 {
		delete(d.subscribers, sub.userId)
	}
}

func (d *TransactionFeed) subscribersFor(userId string) []*subscription {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	subs := make([]*subscription, 0, len(d.subscribers[userId]))
	for _, sub := range d.subscribers[userId] {
		subs = append(subs, sub)
	}
	return subs
}

// SubscriberCount returns the number of live subscriptions for a user
func (d *TransactionFeed) SubscriberCount(userId string) int {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return len(d.subscribers[userId])
}
