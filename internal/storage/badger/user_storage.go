package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// UserStorage implements interfaces.UserStorage backed by badgerhold
type UserStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewUserStorage creates a new user storage instance
func NewUserStorage(db *BadgerDB, logger arbor.ILogger) interfaces.UserStorage {
	return &UserStorage{
		db:     db,
		logger: logger,
	}
}

// CreateUser stores a new account
func (s *UserStorage) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.Store().Insert(user.Username, user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Username, err)
	}
	return nil
}

// GetUser returns an account by username
func (s *UserStorage) GetUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.Store().Get(username, &user); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	return &user, nil
}

// UpdateUser overwrites a stored account
func (s *UserStorage) UpdateUser(ctx context.Context, user *models.User) error {
	if err := s.db.Store().Update(user.Username, user); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrUserNotFound
		}
		return fmt.Errorf("failed to update user %s: %w", user.Username, err)
	}
	return nil
}

// ListUsers returns all accounts ordered by username
func (s *UserStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	if err := s.db.Store().Find(&users, badgerhold.Where("Username").Ne("").SortBy("Username")); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
