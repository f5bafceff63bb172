package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	storeVar       = "STORE"
	sqlitePathVar  = "SQLITE_PATH"
	redisAddrVar   = "REDIS_ADDR"
	redisPrefixVar = "REDIS_PREFIX"
)

type StoreType string

const (
	StoreMemory StoreType = "memory"
	StoreSQLite StoreType = "sqlite"
	StoreRedis  StoreType = "redis"
)

type StoreConfig interface {
	GetStore() StoreType
	GetSQLitePath() string
	GetRedisAddr() string
	GetRedisPrefix() string
}

type Stores struct {
	v *viper.Viper
}

var _ StoreConfig = Stores{}

func (s Stores) GetStore() StoreType {
	return StoreType(strings.ToLower(s.v.GetString(storeVar)))
}

func (s Stores) GetSQLitePath() string {
	return s.v.GetString(sqlitePathVar)
}

func (s Stores) GetRedisAddr() string {
	return s.v.GetString(redisAddrVar)
}

func (s Stores) GetRedisPrefix() string {
	return s.v.GetString(redisPrefixVar)
}
