package user

import "context"

// Repository provides access to user records.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	FirstByRole(ctx context.Context, role string) (*User, error)
}
