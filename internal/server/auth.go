package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// withAuth guards every route except /health. Requests authenticate with
// either an X-API-Key header (service calls) or a Bearer JWT signed with the
// configured secret. With neither credential configured the API is open; that
// is a local-development mode and New logs it.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		if s.apiKey == "" && s.jwtSecret == "" {
			next.ServeHTTP(w, r)
			return
		}

		if key := r.Header.Get("X-API-Key"); key != "" && s.apiKey != "" {
			if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}

		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") && s.jwtSecret != "" {
			token := strings.TrimPrefix(auth, "Bearer ")
			if err := s.validateToken(token); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
	})
}

// validateToken checks the signature and standard claims of a bearer token.
func (s *Server) validateToken(tokenString string) error {
	_, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	return nil
}
