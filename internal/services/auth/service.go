// -----------------------------------------------------------------------
// Auth Service - bcrypt accounts with in-memory sessions
// -----------------------------------------------------------------------

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/common"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Session is an authenticated browser session
type Session struct {
	Token     string
	Username  string
	Role      models.UserRole
	ExpiresAt time.Time
}

// Service authenticates users and tracks sessions. Sessions live in
// memory; a restart signs everyone out, which is acceptable for a
// dashboard behind its own login.
type Service struct {
	users    interfaces.UserStorage
	ttl      time.Duration
	logger   arbor.ILogger
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates the auth service
func NewService(users interfaces.UserStorage, ttl time.Duration, logger arbor.ILogger) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		users:    users,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// EnsureDefaultUsers seeds the standard accounts when the store is empty
func (s *Service) EnsureDefaultUsers(ctx context.Context) error {
	existing, err := s.users.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	defaults := []struct {
		username string
		password string
		email    string
		role     models.UserRole
	}{
		{"admin", "Admin_123", "admin@refero.local", models.RoleAdmin},
		{"analyst", "Analyst_123", "analyst@refero.local", models.RoleAnalyst},
		{"viewer", "Viewer_123", "viewer@refero.local", models.RoleViewer},
	}

	for _, d := range defaults {
		hash, err := bcrypt.GenerateFromPassword([]byte(d.password), bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash default password: %w", err)
		}
		user := &models.User{
			Username:     d.username,
			Email:        d.email,
			PasswordHash: string(hash),
			Role:         d.role,
			IsActive:     true,
			CreatedAt:    time.Now(),
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return err
		}
	}

	s.logger.Warn().Msg("Seeded default user accounts - change the passwords before exposing the service")
	return nil
}

// Login verifies credentials and opens a session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.GetUser(ctx, username)
	if err != nil {
		// Equalize timing between unknown user and bad password
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$12$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return nil, interfaces.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, interfaces.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, interfaces.ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.users.UpdateUser(ctx, user); err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("Failed to record last login")
	}

	session := &Session{
		Token:     common.NewSessionToken(),
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	s.logger.Info().Str("username", username).Str("role", string(user.Role)).Msg("User logged in")
	return session, nil
}

// Logout closes a session
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Validate resolves a session token, expiring stale entries
func (s *Service) Validate(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}

	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, false
	}
	return session, true
}

// CreateUser registers a new account (admin operation)
func (s *Service) CreateUser(ctx context.Context, username, password, email string, role models.UserRole) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns all accounts (admin operation)
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.ListUsers(ctx)
}
