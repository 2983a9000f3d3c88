package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes builds the local debug router. It binds to loopback only; it
// exists for poking at client state while the game runs, not for serving
// anything to other machines.
func SetupRoutes(sessionID string, conn ConnectionInfo, rm RoomInfo) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/debug/state", DebugState(sessionID, conn, rm))
	return r
}
