package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/grantshandy/starify/internal/auth"
	"github.com/grantshandy/starify/internal/session"
	"github.com/grantshandy/starify/internal/shared"
)

// AuthHandler serves the login flow: /login, /login/url, /callback and /logout.
//
// Every outcome of /callback is a 303; success lands on the authenticated route, anything else on the
// anonymous route. The login state cookie is cleared on every callback.
type AuthHandler struct {
	backend  *auth.Backend
	sessions *session.Issuer
	cookies  cookies
	limiter  *RateLimiter
	config   shared.ServerConfig
	logger   *log.Logger
}

// NewAuthHandler creates an [AuthHandler].
func NewAuthHandler(backend *auth.Backend, sessions *session.Issuer, limiter *RateLimiter, cfg shared.ServerConfig, logger *log.Logger) *AuthHandler {
	return &AuthHandler{
		backend:  backend,
		sessions: sessions,
		cookies:  newCookies(cfg),
		limiter:  limiter,
		config:   cfg,
		logger:   logger,
	}
}

// Routes implements [Handler].
func (h *AuthHandler) Routes() []string {
	return []string{"GET /login", "GET /login/url", "GET /callback", "GET /logout", "POST /logout"}
}

// ServeHTTP implements [Handler].
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		h.limiter.Limit(h.logger, h.login)(w, r)
	case "/login/url":
		h.limiter.Limit(h.logger, h.loginURL)(w, r)
	case "/callback":
		h.limiter.Limit(h.logger, h.callback)(w, r)
	case "/logout":
		h.logout(w, r)
	default:
		http.NotFound(w, r)
	}
}

// begin starts a login and binds the state cookie to the response.
func (h *AuthHandler) begin(w http.ResponseWriter, r *http.Request) (string, auth.StateToken, bool) {
	url, tok, err := h.backend.BeginLogin(r.Context())
	if err != nil {
		h.logger.Error("failed to begin login", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return "", auth.StateToken{}, false
	}
	h.cookies.set(w, StateCookieName, tok.Value, tok.Expiry(), tok.TTL)
	return url, tok, true
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	url, _, ok := h.begin(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (h *AuthHandler) loginURL(w http.ResponseWriter, r *http.Request) {
	url, tok, ok := h.begin(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":        url,
		"expires_at": tok.Expiry().UTC().Format(time.RFC3339),
	})
}

func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	state := query.Get("state")

	var stored string
	if c, err := r.Cookie(StateCookieName); err == nil {
		stored = c.Value
	}
	h.cookies.clear(w, StateCookieName)

	if reason := query.Get("error"); reason != "" {
		if auth.ValidateState(state, stored) == nil {
			h.backend.AbandonLogin(stored)
		}
		h.logger.Info("login declined", "reason", reason, "request_id", RequestIDFromContext(r.Context()))
		h.anonymous(w, r)
		return
	}

	principal, err := h.backend.HandleCallback(r.Context(), query.Get("code"), state, stored)
	if err != nil {
		h.logger.Warn("login failed", "reason", callbackReason(err), "err", err, "request_id", RequestIDFromContext(r.Context()))
		h.anonymous(w, r)
		return
	}

	token, expires, err := h.sessions.Issue(principal.UserID)
	if err != nil {
		h.logger.Error("failed to issue session", "user_id", principal.UserID, "err", err)
		h.anonymous(w, r)
		return
	}
	h.cookies.set(w, session.CookieName, token, expires, h.sessions.TTL())

	h.logger.Info("login completed", "user_id", principal.UserID)
	http.Redirect(w, r, h.config.AuthenticatedRoute, http.StatusSeeOther)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if userID, err := h.sessions.Parse(token); err == nil {
			if err := h.backend.Logout(r.Context(), userID); err != nil {
				h.logger.Error("failed to remove credential", "user_id", userID, "err", err)
			} else {
				h.logger.Info("logged out", "user_id", userID)
			}
		}
	}
	h.cookies.clear(w, session.CookieName)
	h.anonymous(w, r)
}

func (h *AuthHandler) anonymous(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.config.AnonymousRoute, http.StatusSeeOther)
}

// callbackReason names the failure class for the log line.
func callbackReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrStateMissing):
		return "state_missing"
	case errors.Is(err, shared.ErrStateMismatch):
		return "state_mismatch"
	case errors.Is(err, shared.ErrStateExpired):
		return "state_expired"
	case errors.Is(err, shared.ErrStateConsumed):
		return "state_consumed"
	case errors.Is(err, shared.ErrMissingCode):
		return "missing_code"
	case errors.Is(err, shared.ErrExchangeFailed):
		return "exchange_failed"
	case errors.Is(err, shared.ErrProfileFetchFailed):
		return "profile_failed"
	default:
		return "store_failed"
	}
}
