package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const subjectKey = contextKey("subject")

// RejectFunc writes the response for a refused request.
type RejectFunc func(w http.ResponseWriter, status int, message string)

// RequireRole admits requests carrying a valid bearer token with the given role.
func (s *Service) RequireRole(role string, reject RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				reject(w, http.StatusUnauthorized, "Missing or invalid token.")
				return
			}

			claims, err := s.ParseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				reject(w, http.StatusUnauthorized, "Missing or invalid token.")
				return
			}
			if got, _ := claims["role"].(string); got != role {
				reject(w, http.StatusForbidden, "Forbidden.")
				return
			}

			sub, _ := claims["sub"].(string)
			ctx := context.WithValue(r.Context(), subjectKey, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject returns the token subject stored by RequireRole.
func Subject(r *http.Request) string {
	sub, _ := r.Context().Value(subjectKey).(string)
	return sub
}
