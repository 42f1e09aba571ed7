package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumina-io/lumina-core/internal/profile"
)

// handleListProfiles returns all profiles.
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.profiles.List(r.Context())
	if err != nil {
		s.logger.Error("listing profiles failed", "error", err)
		writeInternalError(w, "failed to list profiles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles, "count": len(profiles)})
}

// handleGetProfile returns a single profile by ID.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.profiles.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			writeNotFound(w, "profile not found")
			return
		}
		s.logger.Error("getting profile failed", "profile_id", id, "error", err)
		writeInternalError(w, "failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleCreateProfile creates a new profile. A missing ID is generated.
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := p.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.profiles.Create(r.Context(), &p); err != nil {
		if errors.Is(err, profile.ErrExists) {
			writeConflict(w, "profile already exists")
			return
		}
		s.logger.Error("creating profile failed", "profile_id", p.ID, "error", err)
		writeInternalError(w, "failed to create profile")
		return
	}

	s.logger.Info("profile created", "profile_id", p.ID, "name", p.Name)
	writeJSON(w, http.StatusCreated, p)
}

// handleUpdateProfile replaces the mutable fields of an existing profile.
// A settings change invalidates the current week, so the schedule is
// regenerated immediately.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.profiles.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			writeNotFound(w, "profile not found")
			return
		}
		s.logger.Error("getting profile failed", "profile_id", id, "error", err)
		writeInternalError(w, "failed to get profile")
		return
	}

	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.LastScheduleGenerated = existing.LastScheduleGenerated
	p.UpdatedAt = time.Now().UTC()

	if err := p.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.profiles.Update(r.Context(), &p); err != nil {
		s.logger.Error("updating profile failed", "profile_id", id, "error", err)
		writeInternalError(w, "failed to update profile")
		return
	}

	if err := s.autopilot.ForceRegenerate(r.Context(), id); err != nil {
		s.logger.Warn("regeneration after settings change failed", "profile_id", id, "error", err)
	}

	s.logger.Info("profile updated", "profile_id", id)
	writeJSON(w, http.StatusOK, p)
}

// handleDeleteProfile removes a profile.
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.profiles.Delete(r.Context(), id); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			writeNotFound(w, "profile not found")
			return
		}
		s.logger.Error("deleting profile failed", "profile_id", id, "error", err)
		writeInternalError(w, "failed to delete profile")
		return
	}

	s.logger.Info("profile deleted", "profile_id", id)
	w.WriteHeader(http.StatusNoContent)
}
