package config

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config interface {
	EnvConfig
	SessionConfig
	StoreConfig
	LogConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDev() bool
}

type mainConfig struct {
	EnvVars
	Sessions
	Stores
	Logging
	Cors
}

// New loads configuration from the environment and an optional .env file in the
// working directory. Environment variables take precedence over .env values.
func New() Config {
	return FromViper(load())
}

// FromViper builds a Config over an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	return mainConfig{
		EnvVars:  EnvVars{v: v},
		Sessions: Sessions{v: v},
		Stores:   Stores{v: v},
		Logging:  Logging{v: v},
		Cors:     Cors{v: v},
	}
}

func load() *viper.Viper {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default value of every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(portEnvVar, "8080")
	v.SetDefault(appNameVar, "Session Auth Server")
	v.SetDefault(envVar, devEnv)

	v.SetDefault(maxActiveSessionsVar, 2)
	v.SetDefault(sessionTTLVar, 2*time.Minute)
	v.SetDefault(claimsTTLVar, 5*24*time.Hour)
	v.SetDefault(bcryptCostVar, bcrypt.DefaultCost)
	v.SetDefault(reaperIntervalVar, time.Duration(0))

	v.SetDefault(storeVar, string(StoreMemory))
	v.SetDefault(sqlitePathVar, "./data/auth.db")
	v.SetDefault(redisAddrVar, "localhost:6379")
	v.SetDefault(redisPrefixVar, "auth")

	v.SetDefault(logLevelVar, "info")
	v.SetDefault(logFileVar, "")

	v.SetDefault(allowedOriginsVar, "")

	// Development gets a throwaway signing key so the server starts without setup.
	// Tokens issued with it do not survive a restart.
	if strings.EqualFold(v.GetString(envVar), devEnv) {
		v.SetDefault(tokenSecretVar, randomSecret())
	}
}

// Validate reports configuration that would prevent the server from running correctly.
func Validate(c Config) error {
	if c.GetTokenSecret() == "" {
		return errors.New("[config.Validate] TOKEN_SECRET is required outside DEV")
	}
	if c.GetMaxActiveSessions() < 1 {
		return errors.New("[config.Validate] MAX_ACTIVE_SESSIONS must be at least 1")
	}
	if c.GetSessionTTL() <= 0 {
		return errors.New("[config.Validate] SESSION_TTL must be positive")
	}
	cost := c.GetBcryptCost()
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return errors.Errorf("[config.Validate] BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.GetStore() {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		return errors.Errorf("[config.Validate] unknown STORE %q", c.GetStore())
	}
	return nil
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("config: unable to generate development token secret: " + err.Error())
	}
	return hex.EncodeToString(b)
}
