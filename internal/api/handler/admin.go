package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/shorebreak-ai/shorebreak/internal/api/middleware"
	"github.com/shorebreak-ai/shorebreak/internal/api/response"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

// NewListUsersHandler returns the handler for GET /api/v1/admin/users.
func NewListUsersHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := st.ListUsers(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users", nil)
			return
		}
		if users == nil {
			users = []*models.User{}
		}
		response.JSON(w, users)
	}
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// NewUpdateUserRoleHandler returns the handler for
// PATCH /api/v1/admin/users/{userID}/role.
func NewUpdateUserRoleHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
			return
		}

		var req updateRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Role != models.RoleAdmin && req.Role != models.RoleUser {
			response.Error(w, http.StatusBadRequest, "INVALID_ROLE", "Role must be 'admin' or 'user'", nil)
			return
		}
		if userID == session.UserID && req.Role != models.RoleAdmin {
			response.Error(w, http.StatusBadRequest, "SELF_DEMOTION", "Cannot remove your own admin role", nil)
			return
		}

		if err := st.UpdateUserRole(r.Context(), userID, req.Role); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update role", nil)
			return
		}

		recordActivity(r, st, &session.UserID, session.Email, "role_changed", map[string]any{
			"target_user_id": userID.String(),
			"new_role":       req.Role,
		})

		user, err := st.GetUser(r.Context(), userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user", nil)
			return
		}
		response.JSON(w, user)
	}
}

// NewDeleteUserHandler returns the handler for
// DELETE /api/v1/admin/users/{userID}.
func NewDeleteUserHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
			return
		}
		if userID == session.UserID {
			response.Error(w, http.StatusBadRequest, "SELF_DELETION", "Use DELETE /account to remove your own account", nil)
			return
		}

		if err := st.DeleteUser(r.Context(), userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete user", nil)
			return
		}

		recordActivity(r, st, &session.UserID, session.Email, "user_deleted", map[string]any{
			"target_user_id": userID.String(),
		})
		response.NoContent(w)
	}
}

// NewAdminStatsHandler returns the handler for GET /api/v1/admin/stats.
func NewAdminStatsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := st.AdminStats(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load stats", nil)
			return
		}
		response.JSON(w, stats)
	}
}
