package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/healthq/healthq/models"
)

// Token errors map to HTTP 401 and must not leak which check failed beyond
// the three documented cases.
var (
	ErrMissingToken = models.Auth("Token is missing")
	ErrExpiredToken = models.Auth("Token has expired")
	ErrInvalidToken = models.Auth("Token is invalid")
)

const tokenTTL = 7 * 24 * time.Hour

// Claims carries the authenticated user identity inside the bearer token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Tokens signs and verifies bearer tokens with a symmetric HMAC secret.
type Tokens struct {
	secret string

	// now is swappable for expiry tests.
	now func() time.Time
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: secret, now: time.Now}
}

// Issue creates a signed token for the user, expiring after seven days.
func (t *Tokens) Issue(user *models.User) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})

	signed, err := token.SignedString([]byte(t.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Parse verifies a token string and returns the embedded user ID.
func (t *Tokens) Parse(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return []byte(t.secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return t.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}

// Authenticate extracts the bearer token from a request and parses it.
func (t *Tokens) Authenticate(r *http.Request) (string, error) {
	return t.Parse(extractBearer(r))
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
