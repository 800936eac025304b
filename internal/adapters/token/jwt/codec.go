package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taskhub/api/internal/core/domain"
	"github.com/taskhub/api/internal/core/ports"
)

type claims struct {
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 tokens. The kind selects the expiry horizon
// and is embedded in the claims so a refresh token can never pass as an
// access token.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewCodec(secret []byte, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

var _ ports.TokenCodec = (*Codec)(nil)

func (c *Codec) Issue(subject string, kind domain.TokenKind) (string, error) {
	ttl := c.accessTTL
	if kind == domain.TokenKindRefresh {
		ttl = c.refreshTTL
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Kind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(c.secret)
}

func (c *Codec) Verify(tokenString string) (string, domain.TokenKind, error) {
	parsed := &claims{}
	_, err := jwt.ParseWithClaims(tokenString, parsed, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", "", domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", "", domain.ErrTokenSignatureInvalid
		default:
			return "", "", domain.ErrTokenMalformed
		}
	}
	if parsed.Subject == "" {
		return "", "", domain.ErrTokenMalformed
	}
	return parsed.Subject, domain.TokenKind(parsed.Kind), nil
}

func (c *Codec) ExtractUnverified(tokenString string) (string, domain.TokenKind, error) {
	// Structural parse only. The result identifies whose refresh token to
	// look up and carries no trust.
	parsed := &claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, parsed); err != nil {
		return "", "", domain.ErrTokenMalformed
	}
	if parsed.Subject == "" {
		return "", "", domain.ErrTokenMalformed
	}
	return parsed.Subject, domain.TokenKind(parsed.Kind), nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.secret, nil
}
