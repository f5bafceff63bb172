package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// AuthCookieName prefixes the token in the value returned to the client: "auth-token:<token>"
	AuthCookieName = "auth-token"

	DefaultMaxActiveSessions = 2
	DefaultSessionTTL        = 2 * time.Minute
	DefaultClaimsTTL         = 5 * 24 * time.Hour
)

// Repos holds all repository dependencies for the SessionManager
type Repos struct {
	Users    users.UserRepo // Credential store
	Sessions sessions.Repo  // Session store
}

// SessionManager runs the session lifecycle: sign up, login, logout and validation.
type SessionManager struct {
	repos             Repos                // All repository dependencies
	codec             *token.Codec         // Signs the claim set into a token
	hasher            users.PasswordHasher // Hashes and checks passwords
	validator         *Validator           // Checks caller input
	dummyHash         string               // Checked against for unknown emails
	maxActiveSessions int                  // ACTIVE sessions allowed per user
	sessionTTL        time.Duration        // Enforced session lifetime
	claimsTTL         time.Duration        // Informational expiry written into the claims
	nowTime           func() time.Time     // nowTime function (injectable for testing)
}

// SessionManagerOption defines a function type to modify the SessionManager instance.
type SessionManagerOption func(*SessionManager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SessionManagerOption {
	return func(sm *SessionManager) {
		sm.nowTime = nowFunc
	}
}

func WithPasswordHasher(hasher users.PasswordHasher) SessionManagerOption {
	return func(sm *SessionManager) {
		sm.hasher = hasher
	}
}

func WithMaxActiveSessions(limit int) SessionManagerOption {
	return func(sm *SessionManager) {
		sm.maxActiveSessions = limit
	}
}

// WithTTLs sets the enforced session lifetime and the claims expiry hint.
// Zero values keep the defaults.
func WithTTLs(sessionTTL, claimsTTL time.Duration) SessionManagerOption {
	return func(sm *SessionManager) {
		if sessionTTL > 0 {
			sm.sessionTTL = sessionTTL
		}
		if claimsTTL > 0 {
			sm.claimsTTL = claimsTTL
		}
	}
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Profile   *users.Profile
	Token     string
	SessionID string
	ExpiresAt time.Time
}

// Cookie is the value delivered to the client in the Set-Cookie header.
func (r *LoginResult) Cookie() string {
	return AuthCookieName + ":" + r.Token
}

// NewSessionManager initializes a new SessionManager with required dependencies.
func NewSessionManager(repos Repos, codec *token.Codec, options ...SessionManagerOption) (*SessionManager, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewSessionManager] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewSessionManager] Sessions repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewSessionManager] token codec is required")
	}

	sm := &SessionManager{
		repos:             repos,
		codec:             codec,
		hasher:            users.NewBcryptHasher(0),
		validator:         NewValidator(),
		maxActiveSessions: DefaultMaxActiveSessions,
		sessionTTL:        DefaultSessionTTL,
		claimsTTL:         DefaultClaimsTTL,
		nowTime:           time.Now,
	}

	for _, opt := range options {
		opt(sm)
	}

	if sm.maxActiveSessions < 1 {
		return nil, errors.New("[NewSessionManager] max active sessions must be at least 1")
	}

	dummyHash, err := sm.hasher.Hash(uuid.New().String())
	if err != nil {
		return nil, errors.Wrap(err, "[NewSessionManager] hash dummy password")
	}
	sm.dummyHash = dummyHash
	return sm, nil
}

// SignUp registers a new user with the default role. Only the password hash is stored.
func (sm *SessionManager) SignUp(ctx context.Context, email, password string) (*users.Profile, error) {
	if err := sm.validator.ValidateUserCredentials(email, password); err != nil {
		return nil, errors.Wrap(err, "[SignUp]")
	}
	email = strings.TrimSpace(email)

	if _, err := sm.repos.Users.GetByEmail(ctx, email); err == nil {
		return nil, autherrors.ErrUserExists
	} else if !errors.Is(err, autherrors.ErrNotFound) {
		return nil, errors.Wrap(err, "[SignUp] Users.GetByEmail")
	}

	hash, err := sm.hasher.Hash(password)
	if err != nil {
		return nil, errors.Wrap(err, "[SignUp] hash password")
	}

	user := &users.User{
		Email:        email,
		PasswordHash: hash,
		Roles:        []users.RoleType{users.RoleUser},
		DateJoined:   sm.nowTime(),
	}
	if err := sm.repos.Users.Upsert(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[SignUp] Users.Upsert")
	}

	log.Info().Str("user_id", user.ID).Msg("user signed up")
	return user.Profile(), nil
}

// Login checks the credentials, enforces the active session cap and issues a session token.
// Unknown emails and wrong passwords both fail with errors.ErrAuthentication.
func (sm *SessionManager) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := sm.repos.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			sm.hasher.Matches(password, sm.dummyHash)
			return nil, errors.Wrap(autherrors.ErrAuthentication, "[Login] unknown user")
		}
		return nil, errors.Wrap(err, "[Login] Users.GetByEmail")
	}

	if !sm.hasher.Matches(password, user.PasswordHash) {
		return nil, errors.Wrap(autherrors.ErrAuthentication, "[Login] wrong password")
	}

	// Cheap early exit; CreateCapped below is the authoritative check
	active, err := sm.repos.Sessions.CountActiveByUserID(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] Sessions.CountActiveByUserID")
	}
	if active >= sm.maxActiveSessions {
		return nil, sm.limitExceeded(user.ID)
	}

	now := sm.nowTime()
	signed, err := sm.codec.Issue(token.NewClaims(user.Email, user.RoleNames(), now, sm.claimsTTL))
	if err != nil {
		return nil, errors.Wrap(err, "[Login] issue token")
	}

	session := sessions.New(user.ID, signed, now, sm.sessionTTL)
	if err := sm.repos.Sessions.CreateCapped(ctx, session, sm.maxActiveSessions); err != nil {
		if errors.Is(err, autherrors.ErrSessionLimitExceeded) {
			return nil, sm.limitExceeded(user.ID)
		}
		return nil, errors.Wrap(err, "[Login] Sessions.CreateCapped")
	}

	log.Info().Str("user_id", user.ID).Str("session_id", session.ID).Time("expires_at", session.ExpiresAt).Msg("session created")
	return &LoginResult{
		Profile:   user.Profile(),
		Token:     signed,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout ends the session issued with token to userID.
func (sm *SessionManager) Logout(ctx context.Context, token, userID string) error {
	if err := sm.validator.ValidateSessionRequest(token, userID); err != nil {
		return errors.Wrap(err, "[Logout]")
	}

	session, err := sm.findSession(ctx, token, userID)
	if err != nil {
		return errors.Wrap(err, "[Logout]")
	}

	session.End()
	if err := sm.repos.Sessions.Save(ctx, session); err != nil {
		return errors.Wrap(err, "[Logout] Sessions.Save")
	}

	log.Info().Str("user_id", userID).Str("session_id", session.ID).Msg("session ended by logout")
	return nil
}

// Validate reports whether the token still authenticates userID.
// An ACTIVE session past its expiry is moved to ENDED and reported as errors.ErrTokenExpired;
// an ENDED session is reported as errors.ErrInvalidSession.
func (sm *SessionManager) Validate(ctx context.Context, rawToken, userID string) (sessions.Status, error) {
	if err := sm.validator.ValidateSessionRequest(rawToken, userID); err != nil {
		return "", errors.Wrap(err, "[Validate]")
	}

	if _, err := sm.codec.Verify(rawToken); err != nil {
		return "", errors.Wrap(err, "[Validate]")
	}

	session, err := sm.findSession(ctx, rawToken, userID)
	if err != nil {
		return "", errors.Wrap(err, "[Validate]")
	}

	if !session.IsActive() {
		return "", errors.Wrap(autherrors.ErrInvalidSession, "[Validate] session ended")
	}

	if session.IsExpired(sm.nowTime()) {
		session.End()
		if err := sm.repos.Sessions.Save(ctx, session); err != nil {
			return "", errors.Wrap(err, "[Validate] Sessions.Save")
		}
		log.Info().Str("user_id", userID).Str("session_id", session.ID).Msg("session expired")
		return "", autherrors.ErrTokenExpired
	}

	return sessions.StatusActive, nil
}

func (sm *SessionManager) findSession(ctx context.Context, token, userID string) (*sessions.Session, error) {
	session, err := sm.repos.Sessions.FindByTokenAndUserID(ctx, token, userID)
	if err != nil {
		if errors.Is(err, autherrors.ErrNotFound) {
			return nil, autherrors.ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "Sessions.FindByTokenAndUserID")
	}
	return session, nil
}

func (sm *SessionManager) limitExceeded(userID string) error {
	log.Warn().Str("user_id", userID).Int("limit", sm.maxActiveSessions).Msg("active session limit reached")
	return errors.Wrapf(autherrors.ErrSessionLimitExceeded, "[Login] already %d active sessions", sm.maxActiveSessions)
}
