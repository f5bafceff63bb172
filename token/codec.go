package token

import (
	"github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

// Codec issues session tokens and reads them back.
type Codec struct {
	signer Signer
}

func NewCodec(signer Signer) *Codec {
	return &Codec{signer: signer}
}

// Issue signs claims into a compact JWS. Failures wrap errors.ErrSigning.
func (c *Codec) Issue(claims Claims) (string, error) {
	if c.signer == nil {
		return "", autherrors.Wrapf(autherrors.ErrSigning, "[Codec.Issue] no signer")
	}
	signed, err := c.signer.Sign(claims.MapClaims())
	if err != nil {
		return "", autherrors.Wrapf(autherrors.ErrSigning, "[Codec.Issue] %s", err.Error())
	}
	return signed, nil
}

// Decode reads the claims of a token without checking its signature.
func (c *Codec) Decode(raw string) (*Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, autherrors.Wrapf(autherrors.ErrInvalidToken, "[Codec.Decode] %s", err.Error())
	}
	return c.claims(parsed, "[Codec.Decode]")
}

// Verify checks the token's signature and algorithm before returning its claims.
// Failures wrap errors.ErrInvalidToken.
func (c *Codec) Verify(raw string) (*Claims, error) {
	if c.signer == nil {
		return nil, autherrors.Wrapf(autherrors.ErrInvalidToken, "[Codec.Verify] no signer")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}))
	parsed, err := parser.Parse(raw, c.signer.GetVerificationKey)
	if err != nil || !parsed.Valid {
		return nil, autherrors.Wrapf(autherrors.ErrInvalidToken, "[Codec.Verify] %v", err)
	}
	return c.claims(parsed, "[Codec.Verify]")
}

func (c *Codec) claims(parsed *jwt.Token, op string) (*Claims, error) {
	m, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, autherrors.Wrapf(autherrors.ErrInvalidToken, "%s unexpected claims type", op)
	}
	claims, err := claimsFromMap(m)
	if err != nil {
		return nil, autherrors.Wrapf(autherrors.ErrInvalidToken, "%s %s", op, err.Error())
	}
	return claims, nil
}
