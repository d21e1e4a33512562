package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		// Rule administration
		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.handleListRules)
			r.Post("/", s.handleCreateRule)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRule)
				r.Delete("/", s.handleDeleteRule)
			})
		})

		// Ad-hoc task scheduling
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", s.handleScheduleTask)
			r.Delete("/{id}", s.handleCancelTask)
		})

		// Actuator control
		r.Route("/actuators", func(r chi.Router) {
			r.Get("/", s.handleListActuators)
			r.Get("/errors", s.handleActuatorsInError)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/state", s.handleActuatorState)
				r.Post("/activate", s.handleActivateActuator)
				r.Post("/deactivate", s.handleDeactivateActuator)
			})
		})

		// Emergency stop
		r.Post("/emergency-stop", s.handleEmergencyStop)
		r.Post("/emergency-stop/reset", s.handleResetEmergencyStop)

		// Sensor calibration
		r.Post("/sensors/calibrate", s.handleCalibrateSensors)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
