package users

import "context"

// UserRepo is the credential store.
// Lookups that find nothing return errors.ErrNotFound; inserting a second user
// with an existing email returns errors.ErrUserExists.
type UserRepo interface {
	Upsert(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
