package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/models"
	"github.com/ternarybob/refero/internal/services/auth"
)

// LoginRequest is the credential payload for POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=1"`
}

// CreateUserRequest is the admin payload for POST /api/auth/users
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=admin analyst viewer"`
}

// AuthHandler serves login, logout, session info and user administration
type AuthHandler struct {
	auth       *auth.Service
	cookieName string
	ttl        time.Duration
	validate   *validator.Validate
	logger     arbor.ILogger
}

func NewAuthHandler(svc *auth.Service, cookieName string, ttl time.Duration, logger arbor.ILogger) *AuthHandler {
	return &AuthHandler{
		auth:       svc,
		cookieName: cookieName,
		ttl:        ttl,
		validate:   validator.New(),
		logger:     logger,
	}
}

// SessionFromRequest resolves the session cookie, or nil when absent or expired
func (h *AuthHandler) SessionFromRequest(r *http.Request) *auth.Session {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	session, ok := h.auth.Validate(cookie.Value)
	if !ok {
		return nil
	}
	return session
}

// LoginHandler handles POST /api/auth/login
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info().Str("username", session.Username).Str("role", string(session.Role)).Msg("User logged in")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"username":  session.Username,
		"role":      session.Role,
		"expiresAt": session.ExpiresAt,
	})
}

// LogoutHandler handles POST /api/auth/logout
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if cookie, err := r.Cookie(h.cookieName); err == nil && cookie.Value != "" {
		h.auth.Logout(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	WriteSuccess(w, "Logged out")
}

// MeHandler handles GET /api/auth/me
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	session := h.SessionFromRequest(r)
	if session == nil {
		WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"username":  session.Username,
		"role":      session.Role,
		"expiresAt": session.ExpiresAt,
	})
}

// UsersHandler handles GET and POST /api/auth/users (admin only, enforced in routing)
func (h *AuthHandler) UsersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listUsers(w, r)
	case http.MethodPost:
		h.createUser(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AuthHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list users")
		WriteError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

func (h *AuthHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.auth.CreateUser(r.Context(), req.Username, req.Password, req.Email, models.UserRole(req.Role))
	if err != nil {
		h.logger.Error().Err(err).Str("username", req.Username).Msg("Failed to create user")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("User created")
	WriteJSON(w, http.StatusCreated, user)
}
