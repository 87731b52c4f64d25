package api

import (
	"errors"
	"net/http"

	"balance-sheet-go/internal/balancesheet"
	"balance-sheet-go/internal/models"
	"balance-sheet-go/internal/recurring"
	"balance-sheet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type transactionRequest struct {
	Type            models.TransactionType `json:"type"`
	Amount          decimal.Decimal        `json:"amount"`
	Description     string                 `json:"description"`
	Category        string                 `json:"category"`
	TransactionDate string                 `json:"transaction_date"`
	ExternalId      string                 `json:"external_id"`
}

type recurringRequest struct {
	Type        models.TransactionType `json:"type"`
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Frequency   models.Frequency       `json:"frequency"`
	StartDate   string                 `json:"start_date"`
	EndDate     string                 `json:"end_date"`
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid transaction payload: "+err.Error())
		return
	}

	result := session.RecordTransaction(r.Context(), store.InsertTransactionParams{
		Type:            req.Type,
		Amount:          req.Amount,
		Description:     req.Description,
		Category:        req.Category,
		TransactionDate: req.TransactionDate,
		ExternalId:      req.ExternalId,
	})
	if !result.Success {
		writeJSON(w, resultStatus(result.Error), result)
		return
	}

	s.pokeFeed()
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	var req recurringRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid recurring payload: "+err.Error())
		return
	}

	rule, err := s.scheduler.CreateRule(r.Context(), store.CreateRecurringParams{
		UserId:      session.UserId(),
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Frequency:   req.Frequency,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, recurring.ErrInvalidInput) {
			zap.L().Error("Failed to create recurring transaction", zap.String("user_id", session.UserId()), zap.Error(err))
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, models.RecurringResult{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, models.RecurringResult{Success: true, Rule: rule})
}

func (s *Server) handleMaterialize(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	var req struct {
		AsOf string `json:"as_of"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid materialize payload: "+err.Error())
			return
		}
	}

	created, err := s.scheduler.MaterializeDueTransactions(r.Context(), session.UserId(), req.AsOf)
	if created == nil {
		created = []models.Transaction{}
	}
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, recurring.ErrInvalidInput) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, models.MaterializeResult{Success: false, Transactions: created, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, models.MaterializeResult{Success: true, Transactions: created})
}

func (s *Server) pokeFeed() {
	if s.feed != nil {
		s.feed.Poke()
	}
}
