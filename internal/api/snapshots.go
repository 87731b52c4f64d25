package api

import (
	"net/http"

	"balance-sheet-go/internal/balancesheet"

	"go.uber.org/zap"
)

func (s *Server) handleSnapshotHistory(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	query := r.URL.Query()
	snapshots, err := session.SnapshotHistory(r.Context(), query.Get("from"), query.Get("to"))
	if err != nil {
		zap.L().Error("Failed to load snapshot history", zap.String("user_id", session.UserId()), zap.Error(err))
		writeMessage(w, resultStatus(err.Error()), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": snapshots})
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	var req struct {
		Date  string `json:"date"`
		Notes string `json:"notes"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid snapshot payload: "+err.Error())
			return
		}
	}

	result := session.CreateSnapshot(r.Context(), req.Date, req.Notes)
	switch {
	case !result.Success:
		writeJSON(w, resultStatus(result.Error), result)
	case result.Created:
		writeJSON(w, http.StatusCreated, result)
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	result, err := session.Reconcile(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		zap.L().Error("Failed to reconcile snapshot", zap.String("user_id", session.UserId()), zap.Error(err))
		writeMessage(w, resultStatus(err.Error()), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}
