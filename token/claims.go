package token

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-auth/internal/utils"
	"github.com/pkg/errors"
)

// Claim keys. expiryAt is not the registered "exp" claim, so JWT parsers never enforce it.
const (
	claimID        = "jti"
	claimEmail     = "email"
	claimRoles     = "roles"
	claimCreatedAt = "createdAt"
	claimExpiryAt  = "expiryAt"
)

// Claims is the claim set carried by a session token.
type Claims struct {
	ID        string    // Random token ID, keeps tokens unique when issued in the same second
	Email     string    // User's email address
	Roles     []string  // User's roles
	CreatedAt time.Time // Issued at
	ExpiryAt  time.Time // Informational expiry, not enforced
}

// NewClaims builds the claim set for a login at now.
func NewClaims(email string, roles []string, now time.Time, ttl time.Duration) Claims {
	return Claims{
		ID:        uuid.New().String(),
		Email:     email,
		Roles:     roles,
		CreatedAt: now,
		ExpiryAt:  now.Add(ttl),
	}
}

func (c Claims) MapClaims() jwt.MapClaims {
	roles := c.Roles
	if roles == nil {
		roles = []string{}
	}
	return jwt.MapClaims{
		claimID:        c.ID,
		claimEmail:     c.Email,
		claimRoles:     roles,
		claimCreatedAt: c.CreatedAt.Unix(),
		claimExpiryAt:  c.ExpiryAt.Unix(),
	}
}

func claimsFromMap(m jwt.MapClaims) (*Claims, error) {
	email, ok := m[claimEmail].(string)
	if !ok {
		return nil, errors.New("email claim missing")
	}
	id, _ := m[claimID].(string)

	var roles []string
	if raw, ok := m[claimRoles].([]any); ok {
		roles = utils.ToStringSlice(raw)
	}

	createdAt, err := unixClaim(m, claimCreatedAt)
	if err != nil {
		return nil, err
	}
	expiryAt, err := unixClaim(m, claimExpiryAt)
	if err != nil {
		return nil, err
	}

	return &Claims{
		ID:        id,
		Email:     email,
		Roles:     roles,
		CreatedAt: createdAt,
		ExpiryAt:  expiryAt,
	}, nil
}

func unixClaim(m jwt.MapClaims, key string) (time.Time, error) {
	switch v := m[key].(type) {
	case float64:
		return time.Unix(int64(v), 0), nil
	case int64:
		return time.Unix(v, 0), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "%s claim", key)
		}
		return time.Unix(n, 0), nil
	case nil:
		return time.Time{}, errors.Errorf("%s claim missing", key)
	default:
		return time.Time{}, errors.Errorf("%s claim has unexpected type %T", key, v)
	}
}
