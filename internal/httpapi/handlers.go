package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/EGORIUMAS/ZmeykaOnline/internal/room"
)

// ConnectionInfo is the slice of the transport session the debug endpoint
// reports on.
type ConnectionInfo interface {
	Connected() bool
	ID() string
}

// RoomInfo supplies a race-free view of the room session.
type RoomInfo interface {
	CurrentView() room.View
}

type statusResponse struct {
	SessionID string    `json:"session_id"`
	Connected bool      `json:"connected"`
	SID       string    `json:"sid,omitempty"`
	Room      room.View `json:"room"`
}

func DebugState(sessionID string, conn ConnectionInfo, rm RoomInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statusResponse{
			SessionID: sessionID,
			Connected: conn.Connected(),
			SID:       conn.ID(),
			Room:      rm.CurrentView(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
