// Package auth issues and decodes the signed access and refresh tokens.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType separates access tokens from refresh tokens. Each type is signed
// with its own secret.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the payload carried by every token. ID (jti) is set on refresh
// tokens only.
type Claims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

// IssuedToken is a freshly signed token together with the facts the caller
// needs to persist it.
type IssuedToken struct {
	Value     string
	JTI       string
	ExpiresAt time.Time
}

// Settings configures a Codec.
type Settings struct {
	AccessSecret  string
	RefreshSecret string
	Algorithm     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Codec signs and verifies tokens. It is safe for concurrent use.
type Codec struct {
	method     jwt.SigningMethod
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewCodec validates s and returns a ready Codec.
func NewCodec(s Settings) (*Codec, error) {
	if s.AccessSecret == "" || s.RefreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if s.AccessSecret == s.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if s.AccessTTL <= 0 || s.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	var method jwt.SigningMethod
	switch strings.ToUpper(s.Algorithm) {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", s.Algorithm)
	}

	return &Codec{
		method:     method,
		accessKey:  []byte(s.AccessSecret),
		refreshKey: []byte(s.RefreshSecret),
		accessTTL:  s.AccessTTL,
		refreshTTL: s.RefreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) keyFor(t TokenType) ([]byte, time.Duration, error) {
	switch t {
	case TokenTypeAccess:
		return c.accessKey, c.accessTTL, nil
	case TokenTypeRefresh:
		return c.refreshKey, c.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token type %q", t)
	}
}

// Issue signs a token of the given type for subject.
func (c *Codec) Issue(subject string, t TokenType) (IssuedToken, error) {
	key, ttl, err := c.keyFor(t)
	if err != nil {
		return IssuedToken{}, err
	}

	now := c.now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	claims := Claims{
		Type: t,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if t == TokenTypeRefresh {
		claims.ID = newJTI()
	}

	value, err := jwt.NewWithClaims(c.method, claims).SignedString(key)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}

	return IssuedToken{Value: value, JTI: claims.ID, ExpiresAt: expiresAt}, nil
}

// Decode verifies token as the expected type and returns its claims.
// Any failure is reported as common.ErrInvalidToken.
func (c *Codec) Decode(token string, expected TokenType) (*Claims, error) {
	key, _, err := c.keyFor(expected)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	return c.parse(token, key, expected)
}

func (c *Codec) parse(token string, key []byte, expected TokenType) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return nil, common.ErrInvalidToken
	}

	if claims.Type != expected {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// newJTI returns a version 4 UUID without dashes: 32 lowercase hex
// characters, 122 of its bits random.
func newJTI() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
