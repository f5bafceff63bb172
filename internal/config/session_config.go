package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	tokenSecretVar       = "TOKEN_SECRET"
	maxActiveSessionsVar = "MAX_ACTIVE_SESSIONS"
	sessionTTLVar        = "SESSION_TTL"
	claimsTTLVar         = "CLAIMS_TTL"
	bcryptCostVar        = "BCRYPT_COST"
	reaperIntervalVar    = "REAPER_INTERVAL"
)

type SessionConfig interface {
	GetTokenSecret() string
	GetMaxActiveSessions() int
	GetSessionTTL() time.Duration
	GetClaimsTTL() time.Duration
	GetBcryptCost() int
	GetReaperInterval() time.Duration
}

type Sessions struct {
	v *viper.Viper
}

var _ SessionConfig = Sessions{}

// GetTokenSecret returns the HMAC key used to sign and verify tokens.
func (s Sessions) GetTokenSecret() string {
	return s.v.GetString(tokenSecretVar)
}

func (s Sessions) GetMaxActiveSessions() int {
	return s.v.GetInt(maxActiveSessionsVar)
}

// GetSessionTTL is the lifetime of a session record. This is the expiry that Validate enforces.
func (s Sessions) GetSessionTTL() time.Duration {
	return s.v.GetDuration(sessionTTLVar)
}

// GetClaimsTTL is the expiry hint embedded in the token claims. It is informational only.
func (s Sessions) GetClaimsTTL() time.Duration {
	return s.v.GetDuration(claimsTTLVar)
}

func (s Sessions) GetBcryptCost() int {
	return s.v.GetInt(bcryptCostVar)
}

// GetReaperInterval is how often expired sessions are swept. Zero disables the reaper.
func (s Sessions) GetReaperInterval() time.Duration {
	return s.v.GetDuration(reaperIntervalVar)
}
