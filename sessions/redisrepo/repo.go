package redisrepo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ sessions.Repo = (*RedisRepo)(nil)

// Keys:
//
//	<prefix>:session:<userID>:<sha256(token)>  HASH  one session
//	<prefix>:active:<userID>                   SET   session keys of the user's ACTIVE sessions
//	<prefix>:expiry                            ZSET  ACTIVE session keys scored by expiry (unix ms)

const createScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return -1
end
if redis.call("SCARD", KEYS[2]) >= tonumber(ARGV[1]) then
  return 0
end
redis.call("HSET", KEYS[1], "id", ARGV[2], "user_id", ARGV[3], "token", ARGV[4], "status", ARGV[5], "expires_at", ARGV[6], "created_at", ARGV[7])
redis.call("SADD", KEYS[2], KEYS[1])
redis.call("ZADD", KEYS[3], ARGV[8], KEYS[1])
return 1
`

const saveScript = `
local current = redis.call("HGET", KEYS[1], "status")
if not current then
  return 0
end
if current == "ENDED" and ARGV[1] ~= "ENDED" then
  return -1
end
redis.call("HSET", KEYS[1], "status", ARGV[1], "expires_at", ARGV[2])
if ARGV[1] == "ACTIVE" then
  redis.call("SADD", KEYS[2], KEYS[1])
  redis.call("ZADD", KEYS[3], ARGV[3], KEYS[1])
else
  redis.call("SREM", KEYS[2], KEYS[1])
  redis.call("ZREM", KEYS[3], KEYS[1])
end
return 1
`

const endScript = `
local status = redis.call("HGET", KEYS[1], "status")
redis.call("ZREM", KEYS[2], KEYS[1])
if status ~= "ACTIVE" then
  return 0
end
local user = redis.call("HGET", KEYS[1], "user_id")
redis.call("HSET", KEYS[1], "status", "ENDED")
redis.call("SREM", ARGV[1] .. user, KEYS[1])
return 1
`

var (
	createLua = redis.NewScript(createScript)
	saveLua   = redis.NewScript(saveScript)
	endLua    = redis.NewScript(endScript)
)

// RedisRepo stores sessions in Redis. The cap check and insert run as one Lua script.
type RedisRepo struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRepo(client redis.UniversalClient, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = "auth"
	}
	return &RedisRepo{client: client, prefix: prefix}
}

func (r *RedisRepo) CreateCapped(ctx context.Context, session *sessions.Session, limit int) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	result, err := createLua.Run(ctx, r.client,
		[]string{r.sessionKey(session.UserID, session.Token), r.activeKey(session.UserID), r.expiryKey()},
		limit,
		session.ID,
		session.UserID,
		session.Token,
		string(session.Status),
		session.ExpiresAt.UnixNano(),
		session.CreatedAt.UnixNano(),
		session.ExpiresAt.UnixMilli(),
	).Int()
	if err != nil {
		return errors.Wrap(err, "[RedisRepo.CreateCapped] script")
	}

	switch result {
	case 1:
		return nil
	case 0:
		return autherrors.ErrSessionLimitExceeded
	default:
		return errors.New("[RedisRepo.CreateCapped] token already in use")
	}
}

func (r *RedisRepo) FindByTokenAndUserID(ctx context.Context, token, userID string) (*sessions.Session, error) {
	fields, err := r.client.HGetAll(ctx, r.sessionKey(userID, token)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.FindByTokenAndUserID] HGETALL")
	}
	if len(fields) == 0 {
		return nil, autherrors.ErrNotFound
	}
	session, err := decodeSession(fields)
	if err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.FindByTokenAndUserID] decode")
	}
	return session, nil
}

func (r *RedisRepo) CountActiveByUserID(ctx context.Context, userID string) (int, error) {
	count, err := r.client.SCard(ctx, r.activeKey(userID)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "[RedisRepo.CountActiveByUserID] SCARD")
	}
	return int(count), nil
}

func (r *RedisRepo) Save(ctx context.Context, session *sessions.Session) error {
	result, err := saveLua.Run(ctx, r.client,
		[]string{r.sessionKey(session.UserID, session.Token), r.activeKey(session.UserID), r.expiryKey()},
		string(session.Status),
		session.ExpiresAt.UnixNano(),
		session.ExpiresAt.UnixMilli(),
	).Int()
	if err != nil {
		return errors.Wrap(err, "[RedisRepo.Save] script")
	}

	switch result {
	case 1:
		return nil
	case 0:
		return autherrors.ErrNotFound
	default:
		return sessions.ErrIllegalTransition
	}
}

// EndExpired ends sessions whose expiry, truncated to the millisecond, is before now.
func (r *RedisRepo) EndExpired(ctx context.Context, now time.Time) (int, error) {
	// Scores are unix milliseconds, so a session expiring in the same millisecond as now
	// waits for the next sweep. Validate still ends it on use.
	keys, err := r.client.ZRangeByScore(ctx, r.expiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, errors.Wrap(err, "[RedisRepo.EndExpired] ZRANGEBYSCORE")
	}

	ended := 0
	for _, key := range keys {
		changed, err := endLua.Run(ctx, r.client, []string{key, r.expiryKey()}, r.activeKey("")).Int()
		if err != nil {
			return ended, errors.Wrapf(err, "[RedisRepo.EndExpired] end %s", key)
		}
		ended += changed
	}
	return ended, nil
}

func (r *RedisRepo) sessionKey(userID, token string) string {
	sum := sha256.Sum256([]byte(token))
	return r.prefix + ":session:" + userID + ":" + hex.EncodeToString(sum[:])
}

func (r *RedisRepo) activeKey(userID string) string {
	return r.prefix + ":active:" + userID
}

func (r *RedisRepo) expiryKey() string {
	return r.prefix + ":expiry"
}

func decodeSession(fields map[string]string) (*sessions.Session, error) {
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "expires_at")
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "created_at")
	}
	return &sessions.Session{
		ID:        fields["id"],
		UserID:    fields["user_id"],
		Token:     fields["token"],
		Status:    sessions.Status(fields["status"]),
		ExpiresAt: time.Unix(0, expiresAt).UTC(),
		CreatedAt: time.Unix(0, createdAt).UTC(),
	}, nil
}
