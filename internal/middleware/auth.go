package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pliu/roomchat/internal/objectid"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// SessionCookie carries the session token set at login.
const SessionCookie = "jwt"

// TokenVerifier resolves a session token to the user it was issued for.
type TokenVerifier interface {
	Verify(token string) (objectid.ID, error)
}

// Auth rejects requests without a valid session token and stores the
// caller's identity in the request context. The token is read from the
// session cookie or an "Authorization: Bearer" header.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the identity stored by Auth.
func UserID(ctx context.Context) (objectid.ID, bool) {
	id, ok := ctx.Value(UserIDKey).(objectid.ID)
	return id, ok
}

// WithUserID is used by tests and internal callers that authenticate by
// other means.
func WithUserID(ctx context.Context, id objectid.ID) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
