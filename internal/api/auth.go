package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

type contextKey string

const userIDKey contextKey = "user_id"

// MintToken signs a bearer token carrying the user's ID. The account
// service mints these on login; this helper also backs tests and the
// seed tool's demo output.
func MintToken(secret string, userID int64, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// parseToken validates a bearer token and extracts the user ID.
func parseToken(secret, tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token claims")
	}
	uid, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("token missing user_id")
	}
	return int64(uid), nil
}

// authRequired wraps a handler to require a valid bearer token and puts
// the caller's user ID on the request context.
func (s *Server) authRequired(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "No Auth Token!")
			return
		}
		userID, err := parseToken(s.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			writeError(w, http.StatusForbidden, "Invalid Auth Token!")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

// callerID returns the authenticated user ID placed by authRequired.
func callerID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

// adminOnly wraps a handler to require the static admin bearer key.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin endpoints disabled (no NATIONSIM_ADMIN_KEY set)")
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}
