package server

import (
	"net/http"

	"design-drop/internal/logging"
)

// handleAdmin serves GET /admin: every logged submission, oldest first.
// An empty or missing log is an empty array. The endpoint is
// unauthenticated and exposes submitter names, emails and addresses, so it
// should only be reachable from trusted networks.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		logging.Error("admin: read submission log failed", map[string]any{
			"request_id": RequestIDFromContext(r.Context()),
		}, err)
		http.Error(w, "Error reading log", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}
