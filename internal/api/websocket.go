package api

import (
	"net/http"

	"balance-sheet-go/internal/balancesheet"

	"go.uber.org/zap"
)

// handleWebSocket pushes the current view on connect; later views arrive
// through the hub when the session changes
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, session *balancesheet.Session) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Debug("Websocket upgrade failed", zap.String("user_id", session.UserId()), zap.Error(err))
		return
	}

	userId := session.UserId()
	s.hub.AddClient(userId, conn)
	if err := s.hub.SendJSON(userId, conn, session.View()); err != nil {
		s.hub.RemoveClient(userId, conn)
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.RemoveClient(userId, conn)
			return
		}
	}
}
