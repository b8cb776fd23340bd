package user

import (
	"context"
	"fmt"

	"github.com/clinic/clinic/internal/platform/auth"
)

type Service struct {
	users Repository
}

func NewService(users Repository) *Service {
	return &Service{users: users}
}

// Register creates a new account with a hashed password.
func (s *Service) Register(ctx context.Context, username, password, role string) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if !auth.KnownRole(role) {
		return nil, fmt.Errorf("invalid role: %s", role)
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username already taken: %s", username)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{Username: username, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies the credentials and returns the matching user.
// The same error is returned for an unknown username and a wrong password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, fmt.Errorf("invalid username or password")
	}
	return u, nil
}

// FirstByRole returns the longest-standing account holding the given role.
func (s *Service) FirstByRole(ctx context.Context, role string) (*User, error) {
	return s.users.FirstByRole(ctx, role)
}
