// Package middleware carries the identity boundary for the API. Tokens are
// issued elsewhere; this layer only validates them and exposes the acting
// participant to handlers.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// participantIDKey is the context key for the authenticated participant id.
const participantIDKey contextKey = "participant_id"

// Claims are the session token claims the API cares about.
type Claims struct {
	ParticipantID string `json:"participant_id"`
	jwt.RegisteredClaims
}

// ParticipantID extracts the authenticated participant id from the context.
// Returns uuid.Nil if the request was not authenticated.
func ParticipantID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(participantIDKey).(uuid.UUID)
	return id
}

// RequireAuth validates the Bearer token on every request and places the
// participant id in the request context. Requests without a valid token
// get 401.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, ErrMissingToken.Error(), http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := validate(parts[1], key)
			if err != nil {
				http.Error(w, ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			participantID, err := uuid.Parse(claims.ParticipantID)
			if err != nil {
				http.Error(w, ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), participantIDKey, participantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validate parses the token and checks its signature and expiry.
func validate(tokenString string, key []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
