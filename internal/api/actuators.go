package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/habitatworks/habitat-core/internal/actuator"
)

// activateRequest is the body for manual actuator activation.
type activateRequest struct {
	// Power is the requested level in [0.0, 1.0]. The governor clamps
	// it to the device's safe range.
	Power float64 `json:"power"`

	// DurationSeconds is the run time; zero means the device's maximum.
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// handleListActuators returns all registered devices with their safety state.
//
// GET /actuators
// Response: {"actuators": [...], "count": N}
func (s *Server) handleListActuators(w http.ResponseWriter, _ *http.Request) {
	list := s.controller.Actuators()
	writeJSON(w, http.StatusOK, map[string]any{"actuators": list, "count": len(list)})
}

// handleActuatorsInError returns the IDs of devices in the error state.
//
// GET /actuators/errors
// Response: {"actuators": [...], "count": N}
func (s *Server) handleActuatorsInError(w http.ResponseWriter, _ *http.Request) {
	ids := s.controller.ActuatorsInError()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"actuators": ids, "count": len(ids)})
}

// handleActuatorState returns one device's safety state.
//
// GET /actuators/{id}/state
func (s *Server) handleActuatorState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	state, err := s.controller.ActuatorState(id)
	if err != nil {
		if errors.Is(err, actuator.ErrActuatorNotFound) {
			writeNotFound(w, "actuator not found")
			return
		}
		s.logger.Error("failed to get actuator state", "error", err, "id", id)
		writeInternalError(w, "failed to get actuator state")
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// handleActivateActuator runs a device through the safety governor.
//
// POST /actuators/{id}/activate
// Body: {"power": 0.8, "duration_seconds": 30}
// Response: 200 OK with the accepted activation, 409 on safety rejection
func (s *Server) handleActivateActuator(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Power <= 0 || req.Power > 1.0 {
		writeBadRequest(w, "power must be in (0.0, 1.0]")
		return
	}
	if req.DurationSeconds < 0 {
		writeBadRequest(w, "duration_seconds must not be negative")
		return
	}

	duration := time.Duration(req.DurationSeconds * float64(time.Second))
	act, err := s.controller.ActivateActuator(r.Context(), id, req.Power, duration)
	if err != nil {
		writeActuatorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, act)
}

// handleDeactivateActuator stops a running device.
//
// POST /actuators/{id}/deactivate
// Response: 204 No Content
func (s *Server) handleDeactivateActuator(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.controller.DeactivateActuator(r.Context(), id); err != nil {
		writeActuatorError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// handleEmergencyStop halts every actuator and latches the stop flag.
//
// POST /emergency-stop
// Response: 200 OK with {"emergency_stop": true}
func (s *Server) handleEmergencyStop(w http.ResponseWriter, r *http.Request) {
	s.controller.EmergencyStop(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"emergency_stop": true})
}

// handleResetEmergencyStop clears the stop flag.
//
// POST /emergency-stop/reset
// Response: 200 OK with {"emergency_stop": false}
func (s *Server) handleResetEmergencyStop(w http.ResponseWriter, _ *http.Request) {
	s.controller.ResetEmergencyStop()
	writeJSON(w, http.StatusOK, map[string]any{"emergency_stop": false})
}

// writeActuatorError maps governor errors to HTTP responses. Safety
// rejections are 409: the device exists, the command was understood,
// but the current state forbids it.
func writeActuatorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, actuator.ErrActuatorNotFound):
		writeNotFound(w, "actuator not found")
	case errors.Is(err, actuator.ErrEmergencyStop),
		errors.Is(err, actuator.ErrDisabled),
		errors.Is(err, actuator.ErrInErrorState),
		errors.Is(err, actuator.ErrMaintenance),
		errors.Is(err, actuator.ErrCooldownActive),
		errors.Is(err, actuator.ErrDailyLimitReached):
		writeSafetyRejection(w, err.Error())
	default:
		writeInternalError(w, "actuator command failed")
	}
}
