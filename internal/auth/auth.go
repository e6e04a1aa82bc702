// Package auth owns accounts and sessions. Sessions are explicit objects
// resolved from opaque bearer tokens held in redis; nothing here relies on
// process-global state.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shorebreak-ai/shorebreak/internal/cache"
	"github.com/shorebreak-ai/shorebreak/internal/store"
	"github.com/shorebreak-ai/shorebreak/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionNotFound    = errors.New("session not found")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
)

const minPasswordLen = 8
const sessionTokenBytes = 32

// Service handles registration, login, and session resolution.
type Service struct {
	store      store.Store
	cache      cache.Cache
	sessionTTL time.Duration
	bcryptCost int
}

// NewService creates an auth Service.
func NewService(s store.Store, c cache.Cache, sessionTTL time.Duration, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: s, cache: c, sessionTTL: sessionTTL, bcryptCost: bcryptCost}
}

// RegisterParams holds the sign-up form fields.
type RegisterParams struct {
	Email                string
	Password             string
	FullName             string
	GoogleMapsURL        *string
	WebsiteURL           *string
	DataRetentionConsent bool
}

// Register creates a user with a bcrypt password hash plus its default
// settings row, then opens a session.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, *models.Session, error) {
	if len(params.Password) < minPasswordLen {
		return nil, nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:            uuid.New(),
		Email:         params.Email,
		FullName:      params.FullName,
		Role:          models.RoleUser,
		PasswordHash:  string(hash),
		GoogleMapsURL: params.GoogleMapsURL,
		WebsiteURL:    params.WebsiteURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, err
	}

	settings := &models.UserSettings{
		UserID:               user.ID,
		NotificationsEnabled: true,
		DataRetentionConsent: params.DataRetentionConsent,
	}
	if params.DataRetentionConsent {
		settings.DataRetentionConsentDate = &now
	}
	if err := s.store.UpdateUserSettings(ctx, settings); err != nil {
		slog.Error("creating default settings", "user_id", user.ID, "error", err)
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, *models.Session, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout revokes a session token. Revoking an unknown token is a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, cache.SessionKey(token))
}

// Resolve returns the session for a bearer token, or ErrSessionNotFound if
// the token is unknown or expired.
func (s *Service) Resolve(ctx context.Context, token string) (*models.Session, error) {
	raw, found, err := s.cache.Get(ctx, cache.SessionKey(token))
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	session.Token = token
	return &session, nil
}

// ChangePassword verifies the current password before storing a new hash.
// Existing sessions stay valid.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if len(next) < minPasswordLen {
		return ErrPasswordTooShort
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.store.UpdatePasswordHash(ctx, userID, string(hash))
}

func (s *Service) openSession(ctx context.Context, user *models.User) (*models.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		Token:     token,
		UserID:    user.ID,
		Role:      user.Role,
		Email:     user.Email,
		CreatedAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	if err := s.cache.Set(ctx, cache.SessionKey(token), raw, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	return session, nil
}

func newToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
