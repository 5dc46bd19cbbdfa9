package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin    = "admin"
	RoleAnalyst  = "analyst"
	RoleCustomer = "customer"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the caller identity carried in bearer tokens.
type Claims struct {
	Org   string   `json:"org"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) HasRole(role ...string) bool {
	if c == nil {
		return false
	}

	for _, r := range role {
		if slices.Contains(c.Roles, r) {
			return true
		}
	}

	return false
}

func (c *Claims) User() string {
	if c == nil {
		return ""
	}

	return c.Subject
}

func Sign(secret []byte, sub, org string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		Org:   org,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func Parse(secret []byte, token string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Org == "" {
		return nil, ErrInvalidToken
	}

	return c, nil
}
