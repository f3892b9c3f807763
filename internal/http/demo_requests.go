package http

import (
	"net/http"

	"github.com/newtuple/dialogtuple/internal/commands"
)

type demoRequestResponse struct {
	Success bool `json:"success"`
}

func (api *API) registerDemoRequestRoutes(mux *http.ServeMux, base string) {
	mux.HandleFunc("POST "+joinPath(base, "demo-requests"), api.handleDemoRequest)
}

// handleDemoRequest never echoes the message back; the body only reports
// success.
func (api *API) handleDemoRequest(w http.ResponseWriter, r *http.Request) {
	if api.demoRequests == nil {
		serviceUnavailable(w)
		return
	}
	var payload commands.SendDemoRequestCommand
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := api.demoRequests.Execute(r.Context(), payload); err != nil {
		api.logger.WithContext(r.Context()).Error("demo request failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, demoRequestResponse{Success: true})
}
