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

package recurring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"go.uber.org/zap"
)

// maxCatchUp bounds the occurrences materialized for one rule in one run
const maxCatchUp = 1000

// ErrInvalidInput marks rule and date validation failures
var ErrInvalidInput = errors.New("invalid recurring input")

// Store is the part of store.LedgerStore the scheduler uses
type Store interface {
	CreateRecurring(ctx context.Context, params store.CreateRecurringParams) (*models.RecurringTransaction, error)
	GetDueRecurring(ctx context.Context, userId, asOfDate string) ([]models.RecurringTransaction, error)
	MaterializeRecurring(ctx context.Context, params store.MaterializeParams) (*models.Transaction, error)
}

// SchedulerConfig contains configuration for Scheduler
type SchedulerConfig struct {
	Store    Store
	Location *time.Location
	Interval time.Duration
	// OnMaterialized is called after a run inserted at least one transaction
	OnMaterialized func()
}

// Scheduler materializes due recurring rules into ordinary transactions
type Scheduler struct {
	store          Store
	location       *time.Location
	interval       time.Duration
	onMaterialized func()
	now            func() time.Time

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Scheduler{
		store:          cfg.Store,
		location:       cfg.Location,
		interval:       cfg.Interval,
		onMaterialized: cfg.OnMaterialized,
		now:            time.Now,
		stopChan:       make(chan struct{}),
		doneChan:       make(chan struct{}),
	}
}

// Today returns the current calendar day in the scheduler's timezone
func (s *Scheduler) Today() string {
	return s.now().In(s.location).Format(models.DateLayout)
}

// CreateRule validates and stores a new rule. Its first occurrence is StartDate.
func (s *Scheduler) CreateRule(ctx context.Context, params store.CreateRecurringParams) (*models.RecurringTransaction, error) {
	if params.UserId == "" {
		return nil, errors.New("user not authenticated")
	}
	if params.StartDate == "" {
		params.StartDate = s.Today()
	}
	if err := validateRule(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.store.CreateRecurring(ctx, params)
}

func validateRule(params store.CreateRecurringParams) error {
	if !params.Type.Valid() {
		return fmt.Errorf("invalid transaction type %q", params.Type)
	}
	if !params.Amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero, got %s", params.Amount.String())
	}
	if !params.Frequency.Valid() {
		return fmt.Errorf("unknown frequency %q", params.Frequency)
	}
	if _, err := time.Parse(models.DateLayout, params.StartDate); err != nil {
		return fmt.Errorf("invalid start date %q, expected YYYY-MM-DD", params.StartDate)
	}
	if params.EndDate != "" {
		if _, err := time.Parse(models.DateLayout, params.EndDate); err != nil {
			return fmt.Errorf("invalid end date %q, expected YYYY-MM-DD", params.EndDate)
		}
		if params.EndDate < params.StartDate {
			return fmt.Errorf("end date %s is before start date %s", params.EndDate, params.StartDate)
		}
	}
	return nil
}

// MaterializeDueTransactions inserts one transaction for every missed
// occurrence up to and including asOfDate, for one user or, when userId is
// empty, for all users. Occurrences that already exist are skipped, so
// running twice for the same date inserts nothing new.
func (s *Scheduler) MaterializeDueTransactions(ctx context.Context, userId, asOfDate string) ([]models.Transaction, error) {
	if asOfDate == "" {
		asOfDate = s.Today()
	}
	if _, err := time.Parse(models.DateLayout, asOfDate); err != nil {
		return nil, fmt.Errorf("%w: as-of date %q, expected YYYY-MM-DD", ErrInvalidInput, asOfDate)
	}

	rules, err := s.store.GetDueRecurring(ctx, userId, asOfDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load due recurring transactions: %w", err)
	}

	created := make([]models.Transaction, 0)
	var errs []error
	for _, rule := range rules {
		txns, err := s.materializeRule(ctx, rule, asOfDate)
		created = append(created, txns...)
		if err != nil {
			zap.L().Error("Failed to materialize recurring transaction",
				zap.String("recurring_id", rule.Id),
				zap.String("user_id", rule.UserId),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("rule %s: %w", rule.Id, err))
		}
	}

	if len(created) > 0 {
		zap.L().Info("Materialized recurring transactions",
			zap.String("user_id", userId),
			zap.String("as_of", asOfDate),
			zap.Int("rules", len(rules)),
			zap.Int("transactions", len(created)))
		if s.onMaterialized != nil {
			s.onMaterialized()
		}
	}

	return created, errors.Join(errs...)
}

func (s *Scheduler) materializeRule(ctx context.Context, rule models.RecurringTransaction, asOfDate string) ([]models.Transaction, error) {
	start, err := time.Parse(models.DateLayout, rule.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", rule.StartDate, err)
	}

	var created []models.Transaction
	for i := 0; rule.Active && rule.NextDate <= asOfDate; i++ {
		if i >= maxCatchUp {
			zap.L().Warn("Recurring catch-up limit reached",
				zap.String("recurring_id", rule.Id),
				zap.String("next_date", rule.NextDate))
			break
		}

		occurrence, err := time.Parse(models.DateLayout, rule.NextDate)
		if err != nil {
			return created, fmt.Errorf("invalid next date %q: %w", rule.NextDate, err)
		}
		next, err := nextOccurrence(rule.Frequency, occurrence, start.Day())
		if err != nil {
			return created, err
		}
		nextDate := next.Format(models.DateLayout)
		deactivate := rule.EndDate != "" && nextDate > rule.EndDate

		txn, err := s.store.MaterializeRecurring(ctx, store.MaterializeParams{
			Rule:           rule,
			OccurrenceDate: rule.NextDate,
			NextDate:       nextDate,
			Deactivate:     deactivate,
		})
		switch {
		case err == nil:
			created = append(created, *txn)
		case errors.Is(err, store.ErrDuplicateTransaction):
			zap.L().Debug("Recurring occurrence already exists",
				zap.String("recurring_id", rule.Id),
				zap.String("occurrence_date", rule.NextDate))
		case errors.Is(err, store.ErrConcurrentModification):
			// Another run advanced this rule first
			return created, nil
		default:
			return created, err
		}

		rule.LastDate = rule.NextDate
		rule.NextDate = nextDate
		rule.Active = !deactivate
	}

	return created, nil
}

// Start runs MaterializeDueTransactions for all users every interval
func (s *Scheduler) Start(ctx context.Context) {
	zap.L().Info("Starting recurring scheduler", zap.Duration("interval", s.interval))
	go s.loop(ctx)
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		<-s.doneChan
		zap.L().Info("Recurring scheduler stopped")
	})
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.MaterializeDueTransactions(ctx, "", ""); err != nil {
		zap.L().Error("Recurring materialization run failed", zap.Error(err))
	}
}
