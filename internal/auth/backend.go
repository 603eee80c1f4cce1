package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/grantshandy/starify/internal/credentials"
	"github.com/grantshandy/starify/internal/models"
	"github.com/grantshandy/starify/internal/shared"
)

const (
	tracerName = "github.com/grantshandy/starify/internal/auth"

	// DefaultRefreshLeeway treats access tokens this close to expiry as expired.
	DefaultRefreshLeeway = 30 * time.Second

	// DefaultRefreshTimeout bounds a shared refresh, which outlives the request that started it.
	DefaultRefreshTimeout = 15 * time.Second
)

// Principal is the authenticated user bound to a request. It is derived per lookup and never stored.
type Principal struct {
	UserID     string
	Credential models.Credential
	Client     models.API
}

// Options tunes a [Backend]. Zero values select defaults.
type Options struct {
	StateTTL       time.Duration
	RefreshLeeway  time.Duration
	RefreshTimeout time.Duration
	Logger         *log.Logger
	Tracer         trace.Tracer
	Now            func() time.Time
}

// Backend drives the login state machine: Anonymous, LoginIssued, CallbackPending, Authenticated, LoggedOut.
type Backend struct {
	provider models.Provider
	store    credentials.Store
	ledger   *stateLedger
	flight   singleflight.Group

	// writeMu orders refresh writes against logouts; generations counts logouts per user.
	writeMu     sync.Mutex
	generations map[string]uint64

	stateTTL       time.Duration
	leeway         time.Duration
	refreshTimeout time.Duration
	logger         *log.Logger
	tracer         trace.Tracer
	now            func() time.Time
}

// NewBackend wires provider and store into a [Backend].
func NewBackend(provider models.Provider, store credentials.Store, opts Options) *Backend {
	b := &Backend{
		provider:       provider,
		store:          store,
		ledger:         newStateLedger(),
		generations:    make(map[string]uint64),
		stateTTL:       ClampTTL(opts.StateTTL),
		leeway:         opts.RefreshLeeway,
		refreshTimeout: opts.RefreshTimeout,
		logger:         opts.Logger,
		tracer:         opts.Tracer,
		now:            opts.Now,
	}
	if b.leeway <= 0 {
		b.leeway = DefaultRefreshLeeway
	}
	if b.refreshTimeout <= 0 {
		b.refreshTimeout = DefaultRefreshTimeout
	}
	if b.logger == nil {
		b.logger = shared.NewLogger(nil)
	}
	if b.tracer == nil {
		b.tracer = otel.Tracer(tracerName)
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// StateTTL is the lifetime given to every issued login state.
func (b *Backend) StateTTL() time.Duration {
	return b.stateTTL
}

// BeginLogin issues a login state and the provider URL carrying it.
//
// The caller binds state.Value to the client (the login_state cookie) for this attempt only.
func (b *Backend) BeginLogin(ctx context.Context) (string, StateToken, error) {
	now := b.now()
	tok, err := NewStateToken(now, b.stateTTL)
	if err != nil {
		return "", StateToken{}, err
	}

	b.ledger.issue(tok, now)
	b.logger.Debug("login issued", "expires", tok.Expiry())

	return b.provider.AuthURL(tok.Value), tok, nil
}

// AbandonLogin forgets an outstanding state, e.g. when the user denied consent.
func (b *Backend) AbandonLogin(state string) {
	b.ledger.forget(state)
}

// HandleCallback completes a login.
//
// state is the value echoed by the provider and storedState the client's copy. Every state check runs before
// any network call. A transient exchange failure releases the state for a retry within its TTL; any other
// failure after the state is consumed leaves it consumed. A retry needs the client's copy of the state; the
// HTTP callback clears its login_state cookie on every outcome, so over HTTP a released state is only usable
// by a caller that kept its own copy, and a browser retries by starting a new login.
func (b *Backend) HandleCallback(ctx context.Context, code, state, storedState string) (*Principal, error) {
	ctx, span := b.tracer.Start(ctx, "auth.callback")
	defer span.End()

	p, err := b.handleCallback(ctx, code, state, storedState)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.logger.Warn("login failed", "err", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", p.UserID))
	span.SetStatus(codes.Ok, "")
	b.logger.Info("login succeeded", "user_id", p.UserID)
	return p, nil
}

func (b *Backend) handleCallback(ctx context.Context, code, state, storedState string) (*Principal, error) {
	if err := ValidateState(state, storedState); err != nil {
		return nil, err
	}
	if code == "" {
		b.ledger.forget(state)
		return nil, shared.ErrMissingCode
	}

	tok, err := b.ledger.consume(state, b.now())
	if err != nil {
		return nil, err
	}

	flightCtx, cancel := context.WithTimeout(ctx, tok.Expiry().Sub(b.now()))
	defer cancel()

	cred, err := b.provider.Exchange(flightCtx, code)
	if err != nil {
		if tok.Expired(b.now()) {
			return nil, fmt.Errorf("%w: exchange outlived the login state", shared.ErrStateExpired)
		}
		if IsTransient(err) {
			b.ledger.release(state)
		}
		return nil, exchangeFailed(err)
	}

	profile, err := b.provider.Profile(flightCtx, cred)
	if err != nil {
		if tok.Expired(b.now()) {
			return nil, fmt.Errorf("%w: profile fetch outlived the login state", shared.ErrStateExpired)
		}
		return nil, profileFailed(err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("%w: profile has no user id", shared.ErrProfileFetchFailed)
	}

	now := b.now()
	if tok.Expired(now) {
		return nil, fmt.Errorf("%w: callback completed after the login state expired", shared.ErrStateExpired)
	}

	cred.UserID = profile.ID
	cred.UpdatedAt = now
	if err := b.store.Put(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	profile.FetchedAt = now
	if err := b.store.PutProfile(ctx, cred.UserID, *profile); err != nil {
		b.logger.Warn("failed to cache profile", "user_id", cred.UserID, "err", err)
	}

	return b.principal(cred), nil
}

// ResolveSession maps a session's user id to a live principal.
//
// A missing credential is the anonymous outcome (nil, nil). Store failures are returned so callers can tell
// "anonymous" from "store broken". Expired tokens are refreshed lazily, at most once concurrently per user.
func (b *Backend) ResolveSession(ctx context.Context, userID string) (*Principal, error) {
	if userID == "" {
		return nil, nil
	}

	cred, err := b.store.Get(ctx, userID)
	if errors.Is(err, shared.ErrCredentialNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if cred.Expired(b.now(), b.leeway) {
		cred, err = b.refresh(ctx, userID)
		if err != nil {
			return nil, err
		}
		if cred == nil {
			return nil, nil
		}
	}

	return b.principal(*cred), nil
}

// refresh renews the credential for userID. Concurrent callers for the same user share one exchange.
//
// The shared exchange runs detached from any one caller's cancellation, bounded by the refresh timeout;
// each caller still stops waiting when its own ctx is done. A nil credential with a nil error means the
// grant was revoked, the user logged out meanwhile, or the credential is gone.
func (b *Backend) refresh(ctx context.Context, userID string) (*models.Credential, error) {
	flightCtx := context.WithoutCancel(ctx)
	results := b.flight.DoChan(userID, func() (any, error) {
		ctx, cancel := context.WithTimeout(flightCtx, b.refreshTimeout)
		defer cancel()

		ctx, span := b.tracer.Start(ctx, "auth.refresh", trace.WithAttributes(attribute.String("user_id", userID)))
		defer span.End()

		cred, err := b.refreshOnce(ctx, userID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return cred, err
	})

	select {
	case <-ctx.Done():
		return nil, exchangeFailed(ctx.Err())
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			b.logger.Debug("shared in-flight refresh", "user_id", userID)
		}
		return res.Val.(*models.Credential), nil
	}
}

func (b *Backend) refreshOnce(ctx context.Context, userID string) (*models.Credential, error) {
	gen := b.generation(userID)

	// Another flight may have finished between the caller's read and this one.
	cred, err := b.store.Get(ctx, userID)
	if errors.Is(err, shared.ErrCredentialNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !cred.Expired(b.now(), b.leeway) {
		return cred, nil
	}

	if cred.RefreshToken == "" {
		b.logger.Warn("expired credential has no refresh token, removing", "user_id", userID)
		return nil, b.store.Remove(ctx, userID)
	}

	fresh, err := b.provider.Refresh(ctx, *cred)
	if err != nil {
		if IsTransient(err) {
			return nil, exchangeFailed(err)
		}
		b.logger.Warn("refresh rejected, removing credential", "user_id", userID, "err", err)
		if err := b.store.Remove(ctx, userID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	fresh.UserID = userID
	fresh.UpdatedAt = b.now()
	if fresh.ClientID == "" {
		fresh.ClientID = cred.ClientID
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = cred.RefreshToken
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.generations[userID] != gen {
		b.logger.Info("logged out during refresh, discarding token", "user_id", userID)
		return nil, nil
	}
	if err := b.store.Put(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to store refreshed credential: %w", err)
	}

	b.logger.Info("credential refreshed", "user_id", userID, "expires", fresh.ExpiresAt)
	return &fresh, nil
}

// Logout removes the credential for userID. Logging out an unknown user succeeds.
func (b *Backend) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}

	b.writeMu.Lock()
	b.generations[userID]++
	err := b.store.Remove(ctx, userID)
	b.writeMu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	b.flight.Forget(userID)
	b.logger.Info("logged out", "user_id", userID)
	return nil
}

// CurrentProfile returns the cached profile for p, fetching and caching it on a miss.
func (b *Backend) CurrentProfile(ctx context.Context, p *Principal) (*models.Profile, error) {
	if p == nil {
		return nil, shared.ErrSessionNotFound
	}

	cached, err := b.store.Profile(ctx, p.UserID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, shared.ErrCredentialNotFound) {
		b.logger.Warn("profile cache read failed, fetching", "user_id", p.UserID, "err", err)
	}

	profile, err := p.Client.Profile(ctx)
	if err != nil {
		return nil, profileFailed(err)
	}

	profile.FetchedAt = b.now()
	if err := b.store.PutProfile(ctx, p.UserID, *profile); err != nil {
		b.logger.Warn("failed to cache profile", "user_id", p.UserID, "err", err)
	}
	return profile, nil
}

func (b *Backend) generation(userID string) uint64 {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.generations[userID]
}

// OutstandingLogins counts issued states that have been neither consumed nor expired.
func (b *Backend) OutstandingLogins() int {
	return b.ledger.outstanding(b.now())
}

func (b *Backend) principal(cred models.Credential) *Principal {
	return &Principal{
		UserID:     cred.UserID,
		Credential: cred,
		Client:     b.provider.NewClient(cred),
	}
}

// IsTransient reports whether err is worth retrying: it says so itself (Temporary() bool) or it is a context
// deadline or cancellation.
func IsTransient(err error) bool {
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func exchangeFailed(err error) error {
	if errors.Is(err, shared.ErrExchangeFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", shared.ErrExchangeFailed, err)
}

func profileFailed(err error) error {
	if errors.Is(err, shared.ErrProfileFetchFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", shared.ErrProfileFetchFailed, err)
}
