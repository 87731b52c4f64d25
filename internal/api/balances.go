package api

import (
	"encoding/json"
	"net/http"

	"balance-sheet-go/internal/balancesheet"
	"balance-sheet-go/internal/models"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (s *Server) handleBalanceSheet(w http.ResponseWriter, _ *http.Request, session *balancesheet.Session) {
	writeJSON(w, http.StatusOK, session.View())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	if err := session.Refresh(r.Context()); err != nil {
		writeMessage(w, http.StatusInternalServerError, session.LastError())
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	var fields models.AssetFields
	if err := decodeBody(r, &fields); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid asset payload: "+err.Error())
		return
	}

	result := session.CreateAsset(r.Context(), fields)
	if !result.Success {
		writeJSON(w, resultStatus(result.Error), result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	var patch models.AssetPatch
	if err := decodeBody(r, &patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid asset payload: "+err.Error())
		return
	}

	result := session.UpdateAsset(r.Context(), mux.Vars(r)["id"], patch)
	if !result.Success {
		writeJSON(w, resultStatus(result.Error), result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	result := session.DeleteAsset(r.Context(), mux.Vars(r)["id"])
	if !result.Success {
		writeJSON(w, resultStatus(result.Error), result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateLiability(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	var fields models.LiabilityFields
	if err := decodeBody(r, &fields); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid liability payload: "+err.Error())
		return
	}

	result := session.CreateLiability(r.Context(), fields)
	if !result.Success {
		writeJSON(w, resultStatus(result.Error), result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleUpdateLiability(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	var patch models.LiabilityPatch
	if err := decodeBody(r, &patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid liability payload: "+err.Error())
		return
	}

	result := session.UpdateLiability(r.Context(), mux.Vars(r)["id"], patch)
	if !result.Success {
		writeJSON(w, resultStatus(result.Error), result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteLiability(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	result := session.DeleteLiability(r.Context(), mux.Vars(r)["id"])
	if !result.Success {
		writeJSON(w, resultStatus(result.Error), result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// settingsRequest distinguishes an absent primary_asset_id from an explicit
// null, which clears the selection
type settingsRequest struct {
	AutoUpdateEnabled *bool          `json:"auto_update_enabled"`
	PrimaryAssetId    optionalString `json:"primary_asset_id"`
}

type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	var req settingsRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid settings payload: "+err.Error())
		return
	}

	result := models.SettingsResult{Success: true, Settings: session.Settings()}
	if req.PrimaryAssetId.Set {
		result = session.SetPrimaryAssetId(req.PrimaryAssetId.Value)
		if !result.Success {
			writeJSON(w, resultStatus(result.Error), result)
			return
		}
	}
	if req.AutoUpdateEnabled != nil {
		result = session.SetAutoUpdateEnabled(*req.AutoUpdateEnabled)
		if !result.Success {
			zap.L().Warn("Settings update failed", zap.String("user_id", session.UserId()), zap.String("error", result.Error))
			writeJSON(w, http.StatusInternalServerError, result)
			return
		}
	}
	writeJSON(w, http.StatusOK, result)
}
