package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lumina-io/lumina-core/internal/device"
)

// handleListControllers returns all registered controllers.
//
// Query parameters:
//   - profile_id: filter by owning profile
func (s *Server) handleListControllers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		controllers []device.Controller
		err         error
	)
	if profileID := r.URL.Query().Get("profile_id"); profileID != "" {
		controllers, err = s.controllers.ListByProfile(ctx, profileID)
	} else {
		controllers, err = s.controllers.List(ctx)
	}
	if err != nil {
		s.logger.Error("listing controllers failed", "error", err)
		writeInternalError(w, "failed to list controllers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"controllers": controllers, "count": len(controllers)})
}

// handleGetController returns one controller by ID.
func (s *Server) handleGetController(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.controllers.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "controller not found")
			return
		}
		s.logger.Error("getting controller failed", "controller_id", id, "error", err)
		writeInternalError(w, "failed to get controller")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleCreateController registers a new controller.
func (s *Server) handleCreateController(w http.ResponseWriter, r *http.Request) {
	var c device.Controller
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := c.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.controllers.Create(r.Context(), &c); err != nil {
		if errors.Is(err, device.ErrExists) {
			writeConflict(w, "controller already exists")
			return
		}
		s.logger.Error("creating controller failed", "controller_id", c.ID, "error", err)
		writeInternalError(w, "failed to create controller")
		return
	}

	s.logger.Info("controller registered", "controller_id", c.ID, "name", c.Name)
	writeJSON(w, http.StatusCreated, c)
}

// handleUpdateController replaces the mutable fields of a controller.
func (s *Server) handleUpdateController(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.controllers.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "controller not found")
			return
		}
		s.logger.Error("getting controller failed", "controller_id", id, "error", err)
		writeInternalError(w, "failed to get controller")
		return
	}

	var c device.Controller
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	if err := c.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.controllers.Update(r.Context(), &c); err != nil {
		s.logger.Error("updating controller failed", "controller_id", id, "error", err)
		writeInternalError(w, "failed to update controller")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// handleDeleteController removes a controller from the registry.
func (s *Server) handleDeleteController(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.controllers.Delete(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "controller not found")
			return
		}
		s.logger.Error("deleting controller failed", "controller_id", id, "error", err)
		writeInternalError(w, "failed to delete controller")
		return
	}

	s.logger.Info("controller removed", "controller_id", id)
	w.WriteHeader(http.StatusNoContent)
}
