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

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"balance-sheet-go/internal/balancesheet"
	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/realtime"
	"balance-sheet-go/internal/recurring"
	"balance-sheet-go/internal/store"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const userIdHeader = "X-User-Id"

// FeedNotifier is poked after local inserts so subscribers see them without
// waiting for the next poll
type FeedNotifier interface {
	Poke()
}

// ServerConfig contains the collaborators of Server
type ServerConfig struct {
	Store     store.LedgerStore
	Registry  *balancesheet.Registry
	Scheduler *recurring.Scheduler
	Hub       *realtime.Hub
	Feed      FeedNotifier
}

// Server is the HTTP surface over the balance sheet sessions
type Server struct {
	db        store.LedgerStore
	registry  *balancesheet.Registry
	scheduler *recurring.Scheduler
	hub       *realtime.Hub
	feed      FeedNotifier
	router    *mux.Router
	upgrader  websocket.Upgrader
}

func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		db:        cfg.Store,
		registry:  cfg.Registry,
		scheduler: cfg.Scheduler,
		hub:       cfg.Hub,
		feed:      cfg.Feed,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.Use(corsMiddleware, userMiddleware)

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/session", s.withSession(s.handleOpenSession)).Methods(http.MethodPost)
	r.HandleFunc("/api/session", s.handleCloseSession).Methods(http.MethodDelete)
	r.HandleFunc("/api/balance-sheet", s.withSession(s.handleBalanceSheet)).Methods(http.MethodGet)
	r.HandleFunc("/api/refresh", s.withSession(s.handleRefresh)).Methods(http.MethodPost)

	r.HandleFunc("/api/assets", s.withSession(s.handleCreateAsset)).Methods(http.MethodPost)
	r.HandleFunc("/api/assets/{id}", s.withSession(s.handleUpdateAsset)).Methods(http.MethodPatch)
	r.HandleFunc("/api/assets/{id}", s.withSession(s.handleDeleteAsset)).Methods(http.MethodDelete)
	r.HandleFunc("/api/liabilities", s.withSession(s.handleCreateLiability)).Methods(http.MethodPost)
	r.HandleFunc("/api/liabilities/{id}", s.withSession(s.handleUpdateLiability)).Methods(http.MethodPatch)
	r.HandleFunc("/api/liabilities/{id}", s.withSession(s.handleDeleteLiability)).Methods(http.MethodDelete)

	r.HandleFunc("/api/settings", s.withSession(s.handleUpdateSettings)).Methods(http.MethodPut)

	r.HandleFunc("/api/snapshots", s.withSession(s.handleSnapshotHistory)).Methods(http.MethodGet)
	r.HandleFunc("/api/snapshots", s.withSession(s.handleCreateSnapshot)).Methods(http.MethodPost)
	r.HandleFunc("/api/snapshots/reconcile", s.withSession(s.handleReconcile)).Methods(http.MethodGet)

	r.HandleFunc("/api/transactions", s.withSession(s.handleRecordTransaction)).Methods(http.MethodPost)
	r.HandleFunc("/api/recurring", s.withSession(s.handleCreateRecurring)).Methods(http.MethodPost)
	r.HandleFunc("/api/recurring/materialize", s.withSession(s.handleMaterialize)).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.withSession(s.handleWebSocket)).Methods(http.MethodGet)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) HealthCheck(ctx context.Context) error {
	_, err := s.db.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, session *balancesheet.Session)

// withSession resolves the caller from the X-User-Id header and opens the
// user's session on first use
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId := models.UserIdFromContext(r.Context())
		if userId == "" {
			writeMessage(w, http.StatusUnauthorized, balancesheet.ErrNotAuthenticated.Error())
			return
		}

		session, err := s.registry.Open(r.Context(), userId)
		if err != nil {
			if errors.Is(err, balancesheet.ErrNotAuthenticated) {
				writeMessage(w, http.StatusUnauthorized, balancesheet.ErrNotAuthenticated.Error())
				return
			}
			zap.L().Error("Failed to open balance sheet session", zap.String("user_id", userId), zap.Error(err))
			writeMessage(w, http.StatusInternalServerError, "failed to open balance sheet")
			return
		}

		next(w, r, session)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.HealthCheck(r.Context()); err != nil {
		zap.L().Error("Health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOpenSession(w http.ResponseWriter, _ *http.Request, session *balancesheet.Session) {
	writeJSON(w, http.StatusOK, session.View())
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if userId := models.UserIdFromContext(r.Context()); userId != "" {
		s.registry.Close(userId)
	}
	w.WriteHeader(http.StatusNoContent)
}

// userMiddleware attaches the caller's user id to the request context. The
// query parameter serves websocket clients, which cannot set headers.
func userMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userId := r.Header.Get(userIdHeader)
		if userId == "" {
			userId = r.URL.Query().Get("user_id")
		}
		if userId != "" {
			r = r.WithContext(models.WithUserId(r.Context(), userId))
		}
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+userIdHeader)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
