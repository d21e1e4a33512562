package api

import "net/http"

// handleStatus returns the full system status snapshot.
//
// GET /status
// Response: status JSON (timestamp, metrics, scheduler, system_health,
// emergency_stop, actuators_in_error)
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Status())
}
