package balancesheet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"balance-sheet-go/internal/autoupdate"
	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/store"

	"go.uber.org/zap"
)

// Feed delivers newly inserted transactions for one user
type Feed interface {
	Subscribe(userId string) (<-chan models.Transaction, func())
}

// RegistryConfig contains configuration for Registry
type RegistryConfig struct {
	Deps            Deps
	Feed            Feed
	ApplyMaxRetries int
	// OnChange, when set, observes every session's view changes
	OnChange func(userId string, view models.BalanceSheetView)
}

type entry struct {
	session     *Session
	reactor     *autoupdate.Reactor
	unsubscribe func()
	cancel      context.CancelFunc
}

// Registry owns one Session per logged-in user
type Registry struct {
	cfg RegistryConfig

	mutex    sync.Mutex
	sessions map[string]*entry
}

func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{cfg: cfg, sessions: make(map[string]*entry)}
}

// Open returns the user's session, constructing it on first use: the user
// must exist, collections are loaded, the daily snapshot check runs, the
// user's transactions inserted since the last session are run through
// auto-update, and the reactor starts consuming the user's transaction feed.
func (r *Registry) Open(ctx context.Context, userId string) (*Session, error) {
	if userId == "" {
		return nil, ErrNotAuthenticated
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if e, ok := r.sessions[userId]; ok {
		return e.session, nil
	}

	if _, err := r.cfg.Deps.Store.GetUserById(ctx, userId); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}

	session := NewSession(userId, r.cfg.Deps)
	if err := session.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load balance sheet: %w", err)
	}
	session.TriggerDailySnapshot(ctx)

	if r.cfg.OnChange != nil {
		onChange := r.cfg.OnChange
		session.OnChange(func(view models.BalanceSheetView) { onChange(userId, view) })
	}

	e := &entry{session: session}
	if r.cfg.Feed != nil {
		// Subscribe before catching up so nothing inserted in between is missed;
		// the reactor skips feed events the catch-up already handled
		events, unsubscribe := r.cfg.Feed.Subscribe(userId)
		reactorCtx, cancel := context.WithCancel(context.Background())
		e.reactor = autoupdate.NewReactor(session, events, r.cfg.ApplyMaxRetries).WithCursor(r.cfg.Deps.Store)
		e.unsubscribe = unsubscribe
		e.cancel = cancel
		if err := e.reactor.CatchUp(ctx); err != nil {
			zap.L().Warn("Failed to catch up auto-update", zap.String("user_id", userId), zap.Error(err))
		}
		e.reactor.Start(reactorCtx)
	}
	r.sessions[userId] = e

	zap.L().Info("Balance sheet session opened",
		zap.String("user_id", userId),
		zap.Int("assets", len(session.Assets())),
		zap.Int("liabilities", len(session.Liabilities())))
	return session, nil
}

// Get returns an already open session
func (r *Registry) Get(userId string) (*Session, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	e, ok := r.sessions[userId]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Close tears the user's session down
func (r *Registry) Close(userId string) {
	r.mutex.Lock()
	e, ok := r.sessions[userId]
	delete(r.sessions, userId)
	r.mutex.Unlock()

	if ok {
		e.stop()
		zap.L().Info("Balance sheet session closed", zap.String("user_id", userId))
	}
}

func (r *Registry) CloseAll() {
	r.mutex.Lock()
	entries := r.sessions
	r.sessions = make(map[string]*entry)
	r.mutex.Unlock()

	for _, e := range entries {
		e.stop()
	}
	zap.L().Info("All balance sheet sessions closed", zap.Int("count", len(entries)))
}

func (e *entry) stop() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	if e.reactor != nil {
		e.reactor.Stop()
	}
	if e.cancel != nil {
		e.cancel()
	}
}
