package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	mw "github.com/shorebreak-ai/shorebreak/internal/api/middleware"
	"github.com/shorebreak-ai/shorebreak/internal/api/response"
	"github.com/shorebreak-ai/shorebreak/internal/auth"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
)

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// NewRegisterHandler returns the handler for POST /api/v1/auth/register.
func NewRegisterHandler(svc *auth.Service, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email                string  `json:"email"`
			Password             string  `json:"password"`
			FullName             string  `json:"full_name"`
			GoogleMapsURL        *string `json:"google_maps_url"`
			WebsiteURL           *string `json:"website_url"`
			DataRetentionConsent bool    `json:"data_retention_consent"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Email == "" || req.FullName == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "email and full_name are required", nil)
			return
		}

		user, session, err := svc.Register(r.Context(), auth.RegisterParams{
			Email:                req.Email,
			Password:             req.Password,
			FullName:             req.FullName,
			GoogleMapsURL:        req.GoogleMapsURL,
			WebsiteURL:           req.WebsiteURL,
			DataRetentionConsent: req.DataRetentionConsent,
		})
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrEmailTaken):
				response.Error(w, http.StatusConflict, "EMAIL_TAKEN", "Email already registered", nil)
			case errors.Is(err, auth.ErrPasswordTooShort):
				response.Error(w, http.StatusBadRequest, "WEAK_PASSWORD", err.Error(), nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Registration failed", nil)
			}
			return
		}

		recordActivity(r, st, &user.ID, user.Email, "user_registered", nil)
		response.Created(w, sessionResponse{Token: session.Token, User: user})
	}
}

// NewLoginHandler returns the handler for POST /api/v1/auth/login.
func NewLoginHandler(svc *auth.Service, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		user, session, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", nil)
			return
		}

		recordActivity(r, st, &user.ID, user.Email, "user_login", nil)
		response.JSON(w, sessionResponse{Token: session.Token, User: user})
	}
}

// NewLogoutHandler returns the handler for POST /api/v1/auth/logout.
func NewLogoutHandler(svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}
		if err := svc.Logout(r.Context(), session.Token); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Logout failed", nil)
			return
		}
		response.NoContent(w)
	}
}

// NewMeHandler returns the handler for GET /api/v1/auth/me.
func NewMeHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}
		user, err := st.GetUser(r.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load profile", nil)
			return
		}
		response.JSON(w, user)
	}
}

// recordActivity appends an audit entry without blocking the request path.
func recordActivity(r *http.Request, st store.Store, userID *uuid.UUID, email, action string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	ip := r.RemoteAddr
	ua := r.UserAgent()
	entry := &models.ActivityLog{
		ID:        uuid.New(),
		UserID:    userID,
		UserEmail: &email,
		Action:    action,
		Details:   details,
		IPAddress: &ip,
		UserAgent: &ua,
		CreatedAt: time.Now().UTC(),
	}
	go st.InsertActivity(context.Background(), entry)
}
