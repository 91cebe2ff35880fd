package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/sidak/internal/store"
)

// UnitsHandler handles organisational unit endpoints.
type UnitsHandler struct {
	DB *sql.DB
}

type createUnitRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/units.
func (h *UnitsHandler) List(w http.ResponseWriter, r *http.Request) {
	units, err := store.ListUnits(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list units", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list units")
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(units))
}

// Create handles POST /api/units.
func (h *UnitsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUnitRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	unit, err := store.CreateUnit(r.Context(), h.DB, name)
	if errors.Is(err, store.ErrUnitExists) {
		jsonError(w, http.StatusConflict, "unit already exists")
		return
	}
	if err != nil {
		slog.Error("failed to create unit", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create unit")
		return
	}

	slog.Info("unit created", "user", GetUser(r.Context()).Username, "unit", unit.Name)
	jsonResponse(w, http.StatusCreated, unit)
}

// Delete handles DELETE /api/units/{id}.
func (h *UnitsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid unit id")
		return
	}

	unit, err := store.GetUnit(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get unit", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete unit")
		return
	}
	if unit == nil || unit.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "unit not found")
		return
	}

	err = store.DeleteUnit(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrUnitInUse) {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to delete unit", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete unit")
		return
	}

	slog.Info("unit deleted", "user", GetUser(r.Context()).Username, "unit", unit.Name)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "unit deleted"})
}
