package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/server"
	"github.com/jrsteele09/go-session-auth/sessions"
	fakesessionrepo "github.com/jrsteele09/go-session-auth/sessions/repofakes"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
	fakeuserrepo "github.com/jrsteele09/go-session-auth/users/repofake"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "pw1"
	testOrigin   = "https://app.example.com"
)

type testClock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *testClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

type testFixture struct {
	server *server.Server
	clock  *testClock
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	v := viper.New()
	v.Set("ENV", "TEST")
	v.Set("TOKEN_SECRET", "1234")
	v.Set("ALLOWED_ORIGINS", testOrigin)
	config.SetDefaults(v)
	cfg := config.FromViper(v)

	clock := &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	manager, err := auth.NewSessionManager(
		auth.Repos{Users: fakeuserrepo.NewFakeUserRepo(), Sessions: fakesessionrepo.NewFakeSessionRepo()},
		token.NewCodec(token.NewHMACSigner(cfg.GetTokenSecret())),
		auth.WithNowTime(clock.Now),
		auth.WithPasswordHasher(users.NewBcryptHasher(bcrypt.MinCost)),
	)
	require.NoError(t, err)

	return &testFixture{server: server.New(cfg, manager), clock: clock}
}

func (f *testFixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) signUp(t *testing.T) users.Profile {
	t.Helper()
	rec := f.post(t, server.RouteSignup, map[string]string{"email": testEmail, "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profile users.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	return profile
}

// login returns the raw token taken from the Set-Cookie header
func (f *testFixture) login(t *testing.T) string {
	t.Helper()
	rec := f.post(t, server.RouteLogin, map[string]string{"email": testEmail, "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := rec.Header().Get("Set-Cookie")
	require.True(t, strings.HasPrefix(cookie, auth.AuthCookieName+":"), cookie)
	return strings.TrimPrefix(cookie, auth.AuthCookieName+":")
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestHealth(t *testing.T) {
	f := setupTestFixture(t)
	rec := httptest.NewRecorder()

	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.RouteHealth, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSignUp(t *testing.T) {
	f := setupTestFixture(t)

	profile := f.signUp(t)

	require.NotEmpty(t, profile.ID)
	require.Equal(t, testEmail, profile.Email)
	require.Equal(t, []users.RoleType{users.RoleUser}, profile.Roles)

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		rec := f.post(t, server.RouteSignup, map[string]string{"email": testEmail, "password": "other"})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("password hash is never returned", func(t *testing.T) {
		rec := f.post(t, server.RouteSignup, map[string]string{"email": "bob@example.com", "password": "pw2"})
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotContains(t, strings.ToLower(rec.Body.String()), "password")
	})
}

func TestBadRequests(t *testing.T) {
	f := setupTestFixture(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed json", server.RouteLogin, `{"email":`},
		{"unknown field", server.RouteSignup, `{"email":"a@b.c","password":"x","admin":true}`},
		{"missing credentials", server.RouteSignup, `{"email":"","password":""}`},
		{"password too long", server.RouteSignup, `{"email":"long@example.com","password":"` + strings.Repeat("a", 73) + `"}`},
		{"missing user id", server.RouteValidate, `{"token":"abc"}`},
		{"missing token", server.RouteLogout, `{"userId":"u1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t)
	f.signUp(t)

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		rec := f.post(t, server.RouteLogin, map[string]string{"email": testEmail, "password": "nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, rec.Header().Get("Set-Cookie"))
	})

	t.Run("unknown email is unauthorized", func(t *testing.T) {
		rec := f.post(t, server.RouteLogin, map[string]string{"email": "nobody@example.com", "password": testPassword})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("third active session is not acceptable", func(t *testing.T) {
		f.login(t)
		f.login(t)

		rec := f.post(t, server.RouteLogin, map[string]string{"email": testEmail, "password": testPassword})
		require.Equal(t, http.StatusNotAcceptable, rec.Code)
		require.Equal(t, "number of active sessions exceeded", message(t, rec))
	})
}

func TestValidateAndLogout(t *testing.T) {
	f := setupTestFixture(t)
	profile := f.signUp(t)
	tok := f.login(t)
	session := map[string]string{"token": tok, "userId": profile.ID}

	rec := f.post(t, server.RouteValidate, session)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `"ACTIVE"`, rec.Body.String())

	rec = f.post(t, server.RouteLogout, session)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.post(t, server.RouteValidate, session)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	t.Run("unknown session is not found", func(t *testing.T) {
		rec := f.post(t, server.RouteLogout, map[string]string{"token": tok, "userId": "someone-else"})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("forged token is unauthorized", func(t *testing.T) {
		rec := f.post(t, server.RouteValidate, map[string]string{"token": tok + "x", "userId": profile.ID})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestValidate_Expired(t *testing.T) {
	f := setupTestFixture(t)
	profile := f.signUp(t)
	session := map[string]string{"token": f.login(t), "userId": profile.ID}

	f.clock.Advance(auth.DefaultSessionTTL + time.Second)

	rec := f.post(t, server.RouteValidate, session)
	require.Equal(t, http.StatusNotAcceptable, rec.Code)
	require.Equal(t, "token has expired", message(t, rec))

	rec = f.post(t, server.RouteValidate, session)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	f := setupTestFixture(t)
	rec := httptest.NewRecorder()

	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.RouteLogin, nil))

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCors(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, server.RouteLogin, nil)
		req.Header.Set("Origin", testOrigin)
		rec := httptest.NewRecorder()

		f.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("preflight from unknown origin gets no cors headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, server.RouteLogin, nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()

		f.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

// failingService returns an unmapped error from every operation
type failingService struct{}

var errBackend = errors.New("database is on fire")

func (failingService) SignUp(context.Context, string, string) (*users.Profile, error) {
	return nil, errBackend
}

func (failingService) Login(context.Context, string, string) (*auth.LoginResult, error) {
	return nil, errBackend
}

func (failingService) Logout(context.Context, string, string) error {
	return errBackend
}

func (failingService) Validate(context.Context, string, string) (sessions.Status, error) {
	return "", errBackend
}

func TestUnmappedErrorIsHidden(t *testing.T) {
	v := viper.New()
	v.Set("ENV", "TEST")
	config.SetDefaults(v)
	srv := server.New(config.FromViper(v), failingService{})

	body := `{"email":"a@b.c","password":"x"}`
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, server.RouteLogin, strings.NewReader(body)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "An error occurred. Please try again.", message(t, rec))
	require.NotContains(t, rec.Body.String(), errBackend.Error())
}
