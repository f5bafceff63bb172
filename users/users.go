package users

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// RoleType is a role label carried by a user and embedded in issued tokens
type RoleType string

const (
	RoleUser  RoleType = "USER"
	RoleAdmin RoleType = "ADMIN"
)

type User struct {
	ID           string     `json:"id,omitempty"`          // Unique identifier for the user
	Email        string     `json:"email,omitempty"`       // User's email address, the login key
	PasswordHash string     `json:"-"`                     // Hashed version of the user's password - never serialize
	Roles        []RoleType `json:"roles,omitempty"`       // Role labels
	DateJoined   time.Time  `json:"date_joined,omitempty"` // Date and time when the user registered
}

// Profile is the public view of a user returned to callers
type Profile struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Roles []RoleType `json:"roles,omitempty"`
}

func (u *User) Profile() *Profile {
	return &Profile{
		ID:    u.ID,
		Email: u.Email,
		Roles: u.Roles,
	}
}

// RoleNames returns the roles as plain strings, in order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, string(r))
	}
	return names
}

// PasswordHasher hashes and verifies passwords. Stores only ever see the hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(password, hash string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

var _ PasswordHasher = BcryptHasher{}

func NewBcryptHasher(cost int) BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{cost: cost}
}

func (h BcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "[BcryptHasher.Hash] bcrypt.GenerateFromPassword")
	}
	return string(bytes), nil
}

func (h BcryptHasher) Matches(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
