package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

var (
	ErrNoSecret     = errors.New("jwt secret not configured")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the access token issued by the hosted auth backend.
type Claims struct {
	Email       string      `json:"email"`
	AppMetadata AppMetadata `json:"app_metadata"`
	UserMeta    UserMeta    `json:"user_metadata"`
	jwt.RegisteredClaims
}

type AppMetadata struct {
	Role string `json:"role"`
}

type UserMeta struct {
	FullName string `json:"full_name"`
	Name     string `json:"name"`
}

func (c *Claims) IsAdmin() bool { return strings.EqualFold(c.AppMetadata.Role, RoleAdmin) }

// DisplayName prefers the full name the user signed up with.
func (c *Claims) DisplayName() string {
	if n := strings.TrimSpace(c.UserMeta.FullName); n != "" {
		return n
	}
	return strings.TrimSpace(c.UserMeta.Name)
}

// Verifier checks HS256 tokens against one shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Configured() bool { return v != nil && len(v.secret) > 0 }

func (v *Verifier) Parse(tokenStr string) (*Claims, error) {
	if !v.Configured() {
		return nil, ErrNoSecret
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Sign issues a token; used by tooling and tests.
func (v *Verifier) Sign(c Claims, ttl time.Duration) (string, error) {
	if !v.Configured() {
		return "", ErrNoSecret
	}
	now := time.Now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
