package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/habitatworks/habitat-core/internal/rules"
)

// ruleResponse is the wire form of a rule: its persistable definition
// plus runtime counters.
type ruleResponse struct {
	rules.StoredRule
	TriggerCount  int        `json:"trigger_count"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
}

func toRuleResponse(r rules.Rule) ruleResponse {
	resp := ruleResponse{
		StoredRule:   r.Stored(),
		TriggerCount: r.TriggerCount,
	}
	if !r.LastTriggered.IsZero() {
		t := r.LastTriggered
		resp.LastTriggered = &t
	}
	return resp
}

// handleListRules returns all rules sorted by ID.
//
// GET /rules
// Response: {"rules": [...], "count": N}
func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	list := s.controller.ListRules()
	out := make([]ruleResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toRuleResponse(r))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": out, "count": len(out)})
}

// handleCreateRule installs and persists a new rule.
//
// POST /rules
// Body: StoredRule JSON (conditions plus action names)
// Response: 201 Created with the created rule
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var sr rules.StoredRule
	if err := json.NewDecoder(r.Body).Decode(&sr); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if sr.ID == "" {
		writeBadRequest(w, "id is required")
		return
	}
	if sr.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}
	if len(sr.ActionNames) == 0 {
		writeBadRequest(w, "at least one action is required")
		return
	}

	if err := s.controller.AddRule(r.Context(), sr); err != nil {
		switch {
		case errors.Is(err, rules.ErrUnknownAction):
			writeBadRequest(w, "unknown action name")
		case errors.Is(err, rules.ErrRuleExists):
			writeConflict(w, "a rule with this ID already exists")
		default:
			s.logger.Error("failed to create rule", "error", err, "id", sr.ID)
			writeInternalError(w, "failed to create rule")
		}
		return
	}

	created, err := s.controller.GetRule(sr.ID)
	if err != nil {
		s.logger.Error("failed to fetch created rule", "error", err, "id", sr.ID)
		writeInternalError(w, "failed to create rule")
		return
	}
	writeJSON(w, http.StatusCreated, toRuleResponse(created))
}

// handleGetRule returns a single rule by ID.
//
// GET /rules/{id}
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rule, err := s.controller.GetRule(id)
	if err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			writeNotFound(w, "rule not found")
			return
		}
		s.logger.Error("failed to get rule", "error", err, "id", id)
		writeInternalError(w, "failed to get rule")
		return
	}

	writeJSON(w, http.StatusOK, toRuleResponse(rule))
}

// handleDeleteRule removes a rule from the engine and the store.
//
// DELETE /rules/{id}
// Response: 204 No Content
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.controller.RemoveRule(r.Context(), id); err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			writeNotFound(w, "rule not found")
			return
		}
		s.logger.Error("failed to delete rule", "error", err, "id", id)
		writeInternalError(w, "failed to delete rule")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
