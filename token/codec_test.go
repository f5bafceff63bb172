package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestIssue_ProducesCompactJWS(t *testing.T) {
	codec := token.NewCodec(token.NewHMACSigner(testSecret))

	signed, err := codec.Issue(token.NewClaims("alice@example.com", []string{"USER"}, testNow, 5*24*time.Hour))

	require.NoError(t, err)
	require.Len(t, strings.Split(signed, "."), 3)
	require.NotContains(t, signed, "+")
	require.NotContains(t, signed, "/")
	require.NotContains(t, signed, "=")
}

func TestIssueDecode_RoundTrip(t *testing.T) {
	codec := token.NewCodec(token.NewHMACSigner(testSecret))
	claims := token.NewClaims("alice@example.com", []string{"ADMIN", "USER"}, testNow, 5*24*time.Hour)

	signed, err := codec.Issue(claims)
	require.NoError(t, err)

	decoded, err := codec.Decode(signed)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", decoded.Email)
	require.Equal(t, []string{"ADMIN", "USER"}, decoded.Roles)
	require.Equal(t, claims.ID, decoded.ID)
	require.True(t, testNow.Equal(decoded.CreatedAt))
	require.True(t, testNow.Add(5*24*time.Hour).Equal(decoded.ExpiryAt))
}

func TestDecode_IgnoresSignature(t *testing.T) {
	issuer := token.NewCodec(token.NewHMACSigner(testSecret))
	other := token.NewCodec(token.NewHMACSigner("a-different-secret"))

	signed, err := issuer.Issue(token.NewClaims("bob@example.com", nil, testNow, time.Hour))
	require.NoError(t, err)

	decoded, err := other.Decode(signed)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", decoded.Email)
	require.Empty(t, decoded.Roles)
}

func TestIssue_UniquePerCall(t *testing.T) {
	codec := token.NewCodec(token.NewHMACSigner(testSecret))

	first, err := codec.Issue(token.NewClaims("alice@example.com", []string{"USER"}, testNow, time.Hour))
	require.NoError(t, err)
	second, err := codec.Issue(token.NewClaims("alice@example.com", []string{"USER"}, testNow, time.Hour))
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestIssue_NoSecretIsSigningError(t *testing.T) {
	codec := token.NewCodec(token.NewHMACSigner(""))

	_, err := codec.Issue(token.NewClaims("alice@example.com", nil, testNow, time.Hour))

	require.ErrorIs(t, err, autherrors.ErrSigning)
}

func TestVerify(t *testing.T) {
	codec := token.NewCodec(token.NewHMACSigner(testSecret))
	signed, err := codec.Issue(token.NewClaims("alice@example.com", []string{"USER"}, testNow, time.Hour))
	require.NoError(t, err)

	t.Run("valid signature", func(t *testing.T) {
		claims, err := codec.Verify(signed)
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", claims.Email)
	})

	t.Run("claims expiry is not enforced", func(t *testing.T) {
		old, err := codec.Issue(token.NewClaims("alice@example.com", nil, testNow.AddDate(-1, 0, 0), time.Hour))
		require.NoError(t, err)
		_, err = codec.Verify(old)
		require.NoError(t, err)
	})

	t.Run("wrong key", func(t *testing.T) {
		_, err := token.NewCodec(token.NewHMACSigner("wrong")).Verify(signed)
		require.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(signed, ".")
		forged, err := token.NewCodec(token.NewHMACSigner("attacker")).Issue(token.NewClaims("mallory@example.com", []string{"ADMIN"}, testNow, time.Hour))
		require.NoError(t, err)
		tampered := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

		_, err = codec.Verify(tampered)
		require.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("unsigned token", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"email": "x@example.com"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = codec.Verify(unsigned)
		require.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := codec.Verify("not-a-token")
		require.ErrorIs(t, err, autherrors.ErrInvalidToken)
	})
}
