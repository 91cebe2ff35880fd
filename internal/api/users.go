package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/sidak/internal/model"
	"github.com/erazemk/sidak/internal/store"
)

// UsersHandler manages accounts and their unit grants. Routes are admin only.
type UsersHandler struct {
	DB *sql.DB
}

type userRequest struct {
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	Role         string   `json:"role"`
	AllowedUnits []string `json:"allowed_units"`
}

// grants trims the requested unit names and drops blanks and repeats,
// keeping the first-seen order.
func (req *userRequest) grants() []string {
	units := make([]string, 0, len(req.AllowedUnits))
	for _, u := range req.AllowedUnits {
		u = strings.TrimSpace(u)
		if u != "" && !slices.Contains(units, u) {
			units = append(units, u)
		}
	}
	return units
}

func hashPassword(password string) (string, error) {
	if err := model.ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.New("failed to hash password")
	}
	return string(hash), nil
}

// ensureUnits registers every granted unit so it shows up in the unit list.
func (h *UsersHandler) ensureUnits(ctx context.Context, units []string) error {
	for _, u := range units {
		if _, err := store.EnsureUnit(ctx, h.DB, u); err != nil {
			return err
		}
	}
	return nil
}

// target loads the live user named in the path. It writes the error
// response itself and returns nil when the request should stop.
func (h *UsersHandler) target(w http.ResponseWriter, r *http.Request) *model.User {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return nil
	}
	u, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return nil
	}
	if u == nil || u.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return nil
	}
	return u
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(users))
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	switch {
	case req.Username == "" || req.Password == "" || req.Role == "":
		jsonError(w, http.StatusBadRequest, "username, password, and role required")
		return
	case !model.ValidRole(req.Role):
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if existing, err := store.GetUserByUsername(ctx, h.DB, req.Username); err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	} else if existing != nil {
		jsonError(w, http.StatusConflict, "username already exists")
		return
	}

	units := req.grants()
	if err := h.ensureUnits(ctx, units); err != nil {
		slog.Error("failed to register units", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	user, err := store.CreateUser(ctx, h.DB, req.Username, hash, req.Role, units)
	if err != nil {
		slog.Error("failed to create user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	slog.Info("user created", "user", GetUser(ctx).Username,
		"new_user", user.Username, "role", user.Role, "units", user.AllowedUnits)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	if u := h.target(w, r); u != nil {
		jsonResponse(w, http.StatusOK, u)
	}
}

// Update handles PUT /api/users/{id}. It replaces the role and the unit
// grants; an empty grant list leaves the user unscoped.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	u := h.target(w, r)
	if u == nil {
		return
	}
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	ctx := r.Context()
	units := req.grants()
	err := h.ensureUnits(ctx, units)
	if err == nil {
		err = store.UpdateUser(ctx, h.DB, u.ID, req.Role, units)
	}
	if err != nil {
		slog.Error("failed to update user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	u.Role, u.AllowedUnits = req.Role, units

	slog.Info("user updated", "user", GetUser(ctx).Username,
		"target_user", u.Username, "new_role", u.Role, "units", u.AllowedUnits)
	jsonResponse(w, http.StatusOK, u)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	u := h.target(w, r)
	if u == nil {
		return
	}
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" {
		jsonError(w, http.StatusBadRequest, "password required")
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, u.ID, hash); err != nil {
		slog.Error("failed to reset password", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}
	slog.Info("user password reset", "user", GetUser(r.Context()).Username, "target_user", u.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /api/users/{id}. Admins cannot delete themselves.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u := h.target(w, r)
	if u == nil {
		return
	}
	current := GetUser(r.Context())
	if current.ID == u.ID {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, u.ID); err != nil {
		slog.Error("failed to delete user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	slog.Info("user deleted", "user", current.Username, "deleted_user", u.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
