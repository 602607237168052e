package auth

import (
	"context"
	"net/http"

	"github.com/stocklist-app/stocklist/internal/platform/httpx"
)

type userContextKey struct{}

// ContextWithUserID stores the authenticated user id in context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey{}, userID)
}

// UserIDFromContext extracts the authenticated user id from context.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userContextKey{}).(string)
	return id
}

// Middleware guards routes that require an authenticated caller.
type Middleware struct {
	tokens       *TokenManager
	includeStack bool
}

// NewMiddleware constructs the auth middleware.
func NewMiddleware(tokens *TokenManager, includeStack bool) *Middleware {
	return &Middleware{tokens: tokens, includeStack: includeStack}
}

// RequireAuth extracts the session cookie, verifies it, and attaches the
// resolved user id to the request. Absent or invalid tokens are rejected.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			httpx.RespondError(w, httpx.Unauthorized("Not authorized, please login"), m.includeStack)
			return
		}
		userID, err := m.tokens.Verify(cookie.Value)
		if err != nil {
			httpx.RespondError(w, httpx.Unauthorized("Not authorized, please login"), m.includeStack)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	})
}
