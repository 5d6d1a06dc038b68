// Package auth issues and verifies the signed identity tokens carried in
// session cookies.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes access tokens from refresh tokens so one can never
// be replayed as the other.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the registered JWT claims plus the token type.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
}

// Codec signs and verifies HS256 tokens of a single type and lifetime.
type Codec struct {
	secret []byte
	ttl    time.Duration
	kind   TokenType
	now    func() time.Time
}

// NewCodec returns a codec for tokens of kind. A ttl of zero produces tokens
// without an exp claim.
func NewCodec(secret []byte, ttl time.Duration, kind TokenType) *Codec {
	return &Codec{secret: secret, ttl: ttl, kind: kind, now: time.Now}
}

// TTL reports the lifetime of issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for subject.
func (c *Codec) Issue(subject string) (string, error) {
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
		TokenType: c.kind,
	}
	if c.ttl > 0 {
		// exp has whole-second precision; round up so the token never dies
		// before its ttl.
		exp := now.Add(c.ttl)
		if t := exp.Truncate(time.Second); !t.Equal(exp) {
			exp = t.Add(time.Second)
		}
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify returns the subject of a valid token. Expired tokens yield
// common.ErrTokenExpired; every other failure yields common.ErrInvalidToken.
func (c *Codec) Verify(token string) (string, error) {
	if token == "" {
		return "", common.ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !parsed.Valid || claims.Subject == "" || claims.TokenType != c.kind {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
