package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/grantshandy/starify/internal/auth"
	"github.com/grantshandy/starify/internal/shared"
)

const maxTopArtists = 50

// APIHandler serves JSON endpoints for the signed-in user.
type APIHandler struct {
	backend *auth.Backend
	logger  *log.Logger
}

// NewAPIHandler creates an [APIHandler].
func NewAPIHandler(backend *auth.Backend, logger *log.Logger) *APIHandler {
	return &APIHandler{backend: backend, logger: logger}
}

// Routes implements [Handler].
func (h *APIHandler) Routes() []string {
	return []string{"GET /api/me", "GET /api/top-artists"}
}

// ServeHTTP implements [Handler].
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	switch r.URL.Path {
	case "/api/me":
		h.me(w, r, principal)
	case "/api/top-artists":
		h.topArtists(w, r, principal)
	default:
		http.NotFound(w, r)
	}
}

// principal writes 401 for anonymous requests and 503 when the session could not be resolved.
func (h *APIHandler) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return p, true
	}
	if err := SessionErrorFromContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, shared.ErrCacheUnavailable)
		return nil, false
	}
	writeError(w, http.StatusUnauthorized, shared.ErrSessionNotFound)
	return nil, false
}

func (h *APIHandler) me(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	profile, err := h.backend.CurrentProfile(r.Context(), p)
	if err != nil {
		h.logger.Warn("failed to load profile", "user_id", p.UserID, "err", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *APIHandler) topArtists(w http.ResponseWriter, r *http.Request, p *auth.Principal) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTopArtists {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: limit must be between 1 and %d", shared.ErrInvalidArgument, maxTopArtists))
			return
		}
		limit = n
	}

	artists, err := p.Client.TopArtists(r.Context(), limit)
	if err != nil {
		h.logger.Warn("failed to load top artists", "user_id", p.UserID, "err", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": artists})
}

func healthHandler(backend *auth.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":             "ok",
			"outstanding_logins": backend.OutstandingLogins(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": ...} using the sentinel's message, never the wrapped detail.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": publicMessage(err)})
}

func publicMessage(err error) string {
	for _, sentinel := range []error{
		shared.ErrSessionNotFound,
		shared.ErrRateLimited,
		shared.ErrInvalidArgument,
		shared.ErrCacheUnavailable,
		shared.ErrProfileFetchFailed,
		shared.ErrAPIRequest,
		shared.ErrExchangeFailed,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return http.StatusText(http.StatusInternalServerError)
}
