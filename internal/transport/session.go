package transport

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	// SessionCookie carries the workspace session id for browsers.
	SessionCookie = "easybi_session"
	// SessionHeader carries the workspace session id for API clients.
	SessionHeader = "X-Session-Id"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

type sessionKey struct{}

// SessionIDFromContext returns the session ID from context, if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionKey{}).(string)
	return sessionID, ok && sessionID != ""
}

// WithSessionID stores a session ID in ctx.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionMiddleware resolves the session from the header or cookie. Requests
// without a usable session get a new one, returned as a cookie and header.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(SessionHeader)
		if sessionID == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				sessionID = c.Value
			}
		}

		if !sessionIDPattern.MatchString(sessionID) {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(SessionHeader, sessionID)

		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
	})
}
