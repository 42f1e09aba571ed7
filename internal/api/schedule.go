package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lumina-io/lumina-core/internal/autopilot"
)

// handleGetSchedule returns the active week's schedule for a profile.
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	items := s.autopilot.Schedule(id)
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// handleListSuggestions returns the items currently awaiting a decision.
func (s *Server) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	items := s.autopilot.Pending(id)
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": items, "count": len(items)})
}

// handleApproveSuggestion accepts one pending suggestion.
func (s *Server) handleApproveSuggestion(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")

	if err := s.autopilot.Approve(r.Context(), profileID, itemID); err != nil {
		writeAutopilotError(w, err)
		return
	}

	s.logger.Info("suggestion approved", "profile_id", profileID, "item_id", itemID)
	writeJSON(w, http.StatusOK, map[string]any{"status": "approved", "item_id": itemID})
}

// handleRejectSuggestion declines one pending suggestion.
func (s *Server) handleRejectSuggestion(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")

	if err := s.autopilot.Reject(r.Context(), profileID, itemID); err != nil {
		writeAutopilotError(w, err)
		return
	}

	s.logger.Info("suggestion rejected", "profile_id", profileID, "item_id", itemID)
	writeJSON(w, http.StatusOK, map[string]any{"status": "rejected", "item_id": itemID})
}

// handleRegenerate forces a fresh weekly schedule for a profile.
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.autopilot.ForceRegenerate(r.Context(), id); err != nil {
		if errors.Is(err, autopilot.ErrNoProfile) {
			writeNotFound(w, "profile not found")
			return
		}
		s.logger.Error("forced regeneration failed", "profile_id", id, "error", err)
		writeInternalError(w, "failed to regenerate schedule")
		return
	}

	items := s.autopilot.Schedule(id)
	writeJSON(w, http.StatusOK, map[string]any{"status": "regenerated", "items": items, "count": len(items)})
}

// handleGetPreferences returns the learned preference snapshot for a profile.
func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if s.learner == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	prefs, err := s.learner.Preferences(r.Context(), id)
	if err != nil {
		s.logger.Error("loading preferences failed", "profile_id", id, "error", err)
		writeInternalError(w, "failed to load preferences")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// handleListRuns returns recent regeneration runs for a profile.
//
// Query parameters:
//   - limit: maximum number of runs (default 10)
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		limit = n
	}

	if s.runs == nil {
		writeJSON(w, http.StatusOK, map[string]any{"runs": []autopilot.Run{}, "count": 0})
		return
	}
	runs, err := s.runs.ListRecent(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("listing runs failed", "profile_id", id, "error", err)
		writeInternalError(w, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// writeAutopilotError maps orchestrator sentinel errors onto HTTP statuses.
func writeAutopilotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, autopilot.ErrItemNotFound):
		writeNotFound(w, "schedule item not found")
	case errors.Is(err, autopilot.ErrNotPending):
		writeConflict(w, "item is not awaiting a decision")
	default:
		writeInternalError(w, "operation failed")
	}
}
