package transport

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) error
}

// StaticToken accepts a single configured token. Only its hash is kept.
type StaticToken struct {
	hash [sha256.Size]byte
}

// NewStaticToken creates a verifier for token.
func NewStaticToken(token string) *StaticToken {
	return &StaticToken{hash: sha256.Sum256([]byte(token))}
}

// VerifyToken compares the token hash in constant time.
func (s *StaticToken) VerifyToken(_ context.Context, token string) error {
	sum := sha256.Sum256([]byte(token))
	if subtle.ConstantTimeCompare(sum[:], s.hash[:]) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			if err := verifier.VerifyToken(r.Context(), token); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
