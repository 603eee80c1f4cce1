package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/grantshandy/starify/internal/auth"
	"github.com/grantshandy/starify/internal/session"
)

// Resolver turns a session's user id into a principal.
type Resolver interface {
	ResolveSession(ctx context.Context, userID string) (*auth.Principal, error)
}

// Sessions resolves the request's session into an [auth.Principal] bound to the request context.
//
// Requests without a valid session pass through anonymously. A store failure also degrades to anonymous;
// the error is kept on the context for [SessionErrorFromContext].
func Sessions(issuer *session.Issuer, resolver Resolver, timeout time.Duration, logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := issuer.Parse(token)
			if err != nil {
				logger.Debug("ignoring session", "err", err, "request_id", RequestIDFromContext(r.Context()))
				next.ServeHTTP(w, r)
				return
			}

			resolveCtx, cancel := context.WithTimeout(r.Context(), timeout)
			principal, err := resolver.ResolveSession(resolveCtx, userID)
			cancel()

			ctx := r.Context()
			switch {
			case err != nil:
				logger.Warn("session resolution failed", "user_id", userID, "err", err)
				ctx = context.WithValue(ctx, sessionErrKey, err)
			case principal != nil:
				ctx = WithPrincipal(ctx, principal)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithPrincipal binds p to ctx.
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal bound by [Sessions], if any.
func PrincipalFromContext(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*auth.Principal)
	return p, ok && p != nil
}

// SessionErrorFromContext returns the store error that made the request anonymous, if any.
func SessionErrorFromContext(ctx context.Context) error {
	err, _ := ctx.Value(sessionErrKey).(error)
	return err
}

// sessionToken reads the session cookie, falling back to a bearer token.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
