package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/habitatworks/habitat-core/internal/scheduler"
)

// scheduleTaskRequest describes an ad-hoc run of a built-in action.
type scheduleTaskRequest struct {
	ID     string `json:"id"`
	Action string `json:"action"`

	// At is the first execution time in RFC 3339. Empty means now.
	At string `json:"at,omitempty"`

	// Clock is a local "HH:MM" time of day; mutually exclusive with At.
	Clock string `json:"clock,omitempty"`

	// RepeatSeconds makes the task recurring; zero means one-shot.
	RepeatSeconds int `json:"repeat_seconds,omitempty"`
}

// handleScheduleTask schedules a named action.
//
// POST /tasks
// Body: {"id": "...", "action": "activate_fan", "at": "...", "repeat_seconds": 0}
// Response: 201 Created with {"id": "...", "at": "..."}
func (s *Server) handleScheduleTask(w http.ResponseWriter, r *http.Request) {
	var req scheduleTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.ID == "" {
		writeBadRequest(w, "id is required")
		return
	}
	if req.Action == "" {
		writeBadRequest(w, "action is required")
		return
	}
	if req.RepeatSeconds < 0 {
		writeBadRequest(w, "repeat_seconds must not be negative")
		return
	}

	if req.At != "" && req.Clock != "" {
		writeBadRequest(w, "at and clock are mutually exclusive")
		return
	}

	repeat := time.Duration(req.RepeatSeconds) * time.Second

	if req.Clock != "" {
		id, err := s.controller.ScheduleActionAtClock(req.ID, req.Action, req.Clock, repeat)
		if err != nil {
			if errors.Is(err, scheduler.ErrInvalidClockTime) {
				writeBadRequest(w, "clock must be HH:MM")
				return
			}
			if errors.Is(err, scheduler.ErrTaskExists) {
				writeConflict(w, "task id already scheduled")
				return
			}
			writeBadRequest(w, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id, "clock": req.Clock})
		return
	}

	at := time.Now()
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			writeBadRequest(w, "at must be RFC 3339")
			return
		}
		at = parsed
	}

	id, err := s.controller.ScheduleAction(req.ID, req.Action, at, repeat)
	if err != nil {
		if errors.Is(err, scheduler.ErrTaskExists) {
			writeConflict(w, "task id already scheduled")
			return
		}
		writeBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "at": at})
}

// handleCancelTask cancels a pending task.
//
// DELETE /tasks/{id}
// Response: 204 No Content
func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.controller.CancelTask(id); err != nil {
		if errors.Is(err, scheduler.ErrTaskNotFound) {
			writeNotFound(w, "task not found")
			return
		}
		s.logger.Error("failed to cancel task", "error", err, "id", id)
		writeInternalError(w, "failed to cancel task")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
