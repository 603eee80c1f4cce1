package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grantshandy/starify/internal/credentials"
	"github.com/grantshandy/starify/internal/models"
	"github.com/grantshandy/starify/internal/shared"
	tu "github.com/grantshandy/starify/internal/testing"
)

const testTTL = 5 * time.Minute

// countingStore counts credential writes on top of a real store.
type countingStore struct {
	credentials.Store
	puts atomic.Int32
}

func (s *countingStore) Put(ctx context.Context, cred models.Credential) error {
	s.puts.Add(1)
	return s.Store.Put(ctx, cred)
}

// brokenStore fails every read with err.
type brokenStore struct {
	credentials.Store
	err error
}

func (s *brokenStore) Get(context.Context, string) (*models.Credential, error) {
	return nil, s.err
}

type fixture struct {
	backend  *Backend
	provider *tu.StubProvider
	store    *countingStore
	clock    *tu.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := tu.NewClock(epoch)
	provider := tu.NewStubProvider("U")
	provider.Now = clock.Now
	store := &countingStore{Store: credentials.NewMemoryStore()}

	backend := NewBackend(provider, store, Options{
		StateTTL: testTTL,
		Logger:   shared.NewLogger(io.Discard),
		Now:      clock.Now,
	})

	return &fixture{backend: backend, provider: provider, store: store, clock: clock}
}

func (f *fixture) begin(t *testing.T) StateToken {
	t.Helper()
	_, tok, err := f.backend.BeginLogin(context.Background())
	if err != nil {
		t.Fatalf("BeginLogin failed: %v", err)
	}
	return tok
}

func (f *fixture) login(t *testing.T) *Principal {
	t.Helper()
	tok := f.begin(t)
	p, err := f.backend.HandleCallback(context.Background(), "C1", tok.Value, tok.Value)
	if err != nil {
		t.Fatalf("HandleCallback failed: %v", err)
	}
	return p
}

func (f *fixture) assertNoCredential(t *testing.T, userID string) {
	t.Helper()
	if _, err := f.store.Get(context.Background(), userID); !errors.Is(err, shared.ErrCredentialNotFound) {
		t.Errorf("expected no credential for %s, got %v", userID, err)
	}
}

func TestBeginLogin(t *testing.T) {
	f := newFixture(t)

	url, tok, err := f.backend.BeginLogin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(url, "state="+tok.Value) {
		t.Errorf("authorize url %q does not carry the state", url)
	}
	if tok.TTL != testTTL || !tok.IssuedAt.Equal(epoch) {
		t.Errorf("unexpected token timing: %+v", tok)
	}
	if got := f.backend.OutstandingLogins(); got != 1 {
		t.Errorf("expected 1 outstanding login, got %d", got)
	}
}

func TestNewBackendClampsTTL(t *testing.T) {
	b := NewBackend(tu.NewStubProvider("U"), credentials.NewMemoryStore(), Options{StateTTL: 24 * time.Hour, Logger: shared.NewLogger(io.Discard)})
	if b.StateTTL() != shared.MaxStateTTL {
		t.Errorf("expected %v, got %v", shared.MaxStateTTL, b.StateTTL())
	}
}

func TestHandleCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("within ttl authenticates and stores the credential", func(t *testing.T) {
		f := newFixture(t)
		tok := f.begin(t)
		f.clock.Advance(testTTL - time.Second)

		p, err := f.backend.HandleCallback(ctx, "C1", tok.Value, tok.Value)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.UserID != "U" {
			t.Errorf("expected user U, got %s", p.UserID)
		}
		if p.Client == nil {
			t.Error("expected a live client")
		}

		stored, err := f.store.Get(ctx, "U")
		if err != nil {
			t.Fatalf("credential not stored: %v", err)
		}
		if stored.UserID != "U" || !strings.HasPrefix(stored.AccessToken, "access-C1") {
			t.Errorf("unexpected stored credential %+v", *stored)
		}
		if !stored.UpdatedAt.Equal(f.clock.Now()) {
			t.Errorf("expected UpdatedAt %v, got %v", f.clock.Now(), stored.UpdatedAt)
		}

		if _, err := f.store.Profile(ctx, "U"); err != nil {
			t.Errorf("expected profile to be cached: %v", err)
		}
	})

	t.Run("after ttl is expired and writes nothing", func(t *testing.T) {
		f := newFixture(t)
		tok := f.begin(t)
		f.clock.Advance(testTTL)

		_, err := f.backend.HandleCallback(ctx, "C1", tok.Value, tok.Value)
		if !errors.Is(err, shared.ErrStateExpired) {
			t.Fatalf("expected ErrStateExpired, got %v", err)
		}
		if f.provider.Exchanges() != 0 {
			t.Errorf("expected no exchange, got %d", f.provider.Exchanges())
		}
		if f.store.puts.Load() != 0 {
			t.Errorf("expected no store writes, got %d", f.store.puts.Load())
		}
		f.assertNoCredential(t, "U")
	})

	t.Run("ttl elapsing mid-exchange is expired", func(t *testing.T) {
		f := newFixture(t)
		f.provider.OnExchange = func(context.Context) error {
			f.clock.Advance(testTTL)
			return nil
		}
		tok := f.begin(t)

		_, err := f.backend.HandleCallback(ctx, "C1", tok.Value, tok.Value)
		if !errors.Is(err, shared.ErrStateExpired) {
			t.Fatalf("expected ErrStateExpired, got %v", err)
		}
		f.assertNoCredential(t, "U")
	})

	t.Run("mismatch never reaches the provider", func(t *testing.T) {
		tc := []struct {
			name   string
			state  func(tok StateToken) (string, string)
			expect error
		}{
			{
				name:   "state differs from stored copy",
				state:  func(tok StateToken) (string, string) { return "forged", tok.Value },
				expect: shared.ErrStateMismatch,
			},
			{
				name:   "state issued for another attempt",
				state:  func(StateToken) (string, string) { return "other-attempt", "other-attempt" },
				expect: shared.ErrStateMismatch,
			},
			{
				name:   "no stored copy",
				state:  func(tok StateToken) (string, string) { return tok.Value, "" },
				expect: shared.ErrStateMissing,
			},
			{
				name:   "no state echoed",
				state:  func(tok StateToken) (string, string) { return "", tok.Value },
				expect: shared.ErrStateMismatch,
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)
				tok := f.begin(t)
				state, stored := tt.state(tok)

				_, err := f.backend.HandleCallback(ctx, "C1", state, stored)
				if !errors.Is(err, tt.expect) {
					t.Fatalf("expected %v, got %v", tt.expect, err)
				}
				if f.provider.Exchanges() != 0 {
					t.Errorf("expected no exchange, got %d", f.provider.Exchanges())
				}
			})
		}
	})

	t.Run("missing code ends the attempt", func(t *testing.T) {
		f := newFixture(t)
		tok := f.begin(t)

		if _, err := f.backend.HandleCallback(ctx, "", tok.Value, tok.Value); !errors.Is(err, shared.ErrMissingCode) {
			t.Fatalf("expected ErrMissingCode, got %v", err)
		}
		if _, err := f.backend.HandleCallback(ctx, "C1", tok.Value, tok.Value); !errors.Is(err, shared.ErrStateMismatch) {
			t.Fatalf("expected the state to be gone, got %v", err)
		}
		if f.provider.Exchanges() != 0 {
			t.Errorf("expected no exchange, got %d", f.provider.Exchanges())
		}
	})

	t.Run("replay fails without a second write", func(t *testing.T) {
		f := newFixture(t)
		tok := f.begin(t)

		if _, err := f.backend.HandleCallback(ctx, "C1", tok.Value, tok.Value); err != nil {
			t.Fatalf("first callback failed: %v", err)
		}
		for range 3 {
			if _, err := f.backend.HandleCallback(ctx, "C1", tok.Value, tok.Value); !errors.Is(err, shared.ErrStateConsumed) {
				t.Fatalf("expected ErrStateConsumed, got %v", err)
			}
		}

		if f.provider.Exchanges() != 1 {
			t.Errorf("expected 1 exchange, got %d", f.provider.Exchanges())
		}
		if f.store.puts.Load() != 1 {
			t.Errorf("expected 1 credential write, got %d", f.store.puts.Load())
		}
	})

	t.Run("concurrent callbacks for one state succeed once", func(t *testing.T) {
		f := newFixture(t)
		tok := f.begin(t)

		var (
			wg   sync.WaitGroup
			wins atomic.Int32
		)
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := f.backend.HandleCallback(ctx, "C1", tok.Value, tok.Value); err == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		if wins.Load() != 1 {
			t.Errorf("expected one success, got %d", wins.Load())
		}
		if f.provider.Exchanges() != 1 {
			t.Errorf("expected 1 exchange, got %d", f.provider.Exchanges())
		}
	})

	t.Run("transient exchange failure can be retried", func(t *testing.T) {
		f := newFixture(t)
		f.provider.SetExchangeErr(&tu.TemporaryError{Err: fmt.Errorf("spotify returned 503"), Transient: true})
		tok := f.begin(t)

		_, err := f.backend.HandleCallback(ctx, "C1", tok.Value, tok.Value)
		if !errors.Is(err, shared.ErrExchangeFailed) {
			t.Fatalf("expected ErrExchangeFailed, got %v", err)
		}
		if !IsTransient(err) {
			t.Error("expected the failure to stay transient")
		}

		f.provider.SetExchangeErr(nil)
		if _, err := f.backend.HandleCallback(ctx, "C2", tok.Value, tok.Value); err != nil {
			t.Fatalf("retry failed: %v", err)
		}
	})

	t.Run("terminal exchange failure invalidates the state", func(t *testing.T) {
		f := newFixture(t)
		f.provider.SetExchangeErr(&tu.TemporaryError{Err: fmt.Errorf("invalid_grant")})
		tok := f.begin(t)

		if _, err := f.backend.HandleCallback(ctx, "C1", tok.Value, tok.Value); !errors.Is(err, shared.ErrExchangeFailed) {
			t.Fatalf("expected ErrExchangeFailed, got %v", err)
		}

		f.provider.SetExchangeErr(nil)
		if _, err := f.backend.HandleCallback(ctx, "C1", tok.Value, tok.Value); !errors.Is(err, shared.ErrStateConsumed) {
			t.Fatalf("expected ErrStateConsumed, got %v", err)
		}
		f.assertNoCredential(t, "U")
	})

	t.Run("profile failure stores nothing", func(t *testing.T) {
		f := newFixture(t)
		f.provider.ProfileErr = errors.New("401 from /me")
		tok := f.begin(t)

		if _, err := f.backend.HandleCallback(ctx, "C1", tok.Value, tok.Value); !errors.Is(err, shared.ErrProfileFetchFailed) {
			t.Fatalf("expected ErrProfileFetchFailed, got %v", err)
		}
		f.assertNoCredential(t, "U")
	})

	t.Run("abandoned login cannot complete", func(t *testing.T) {
		f := newFixture(t)
		tok := f.begin(t)
		f.backend.AbandonLogin(tok.Value)

		if _, err := f.backend.HandleCallback(ctx, "C1", tok.Value, tok.Value); !errors.Is(err, shared.ErrStateMismatch) {
			t.Fatalf("expected ErrStateMismatch, got %v", err)
		}
		if f.backend.OutstandingLogins() != 0 {
			t.Error("expected no outstanding logins")
		}
	})
}

func TestResolveSession(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user is anonymous", func(t *testing.T) {
		f := newFixture(t)

		p, err := f.backend.ResolveSession(ctx, "nobody")
		if err != nil || p != nil {
			t.Fatalf("expected (nil, nil), got (%v, %v)", p, err)
		}
		if p, err := f.backend.ResolveSession(ctx, ""); err != nil || p != nil {
			t.Fatalf("expected (nil, nil) for empty id, got (%v, %v)", p, err)
		}
	})

	t.Run("live credential resolves without refresh", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		p, err := f.backend.ResolveSession(ctx, "U")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p == nil || p.UserID != "U" || p.Client == nil {
			t.Fatalf("unexpected principal %+v", p)
		}
		if f.provider.Refreshes() != 0 {
			t.Errorf("expected no refresh, got %d", f.provider.Refreshes())
		}
	})

	t.Run("expired credential is refreshed lazily", func(t *testing.T) {
		f := newFixture(t)
		before := f.login(t)
		f.clock.Advance(2 * time.Hour)

		p, err := f.backend.ResolveSession(ctx, "U")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Credential.AccessToken != "refreshed-1" {
			t.Errorf("expected refreshed token, got %s", p.Credential.AccessToken)
		}
		if p.Credential.RefreshToken != before.Credential.RefreshToken {
			t.Errorf("refresh token should carry over, got %q", p.Credential.RefreshToken)
		}
		if p.Credential.ClientID != before.Credential.ClientID {
			t.Errorf("client id should carry over, got %q", p.Credential.ClientID)
		}

		stored, _ := f.store.Get(ctx, "U")
		if !stored.Equal(p.Credential) {
			t.Error("refreshed credential was not persisted")
		}
	})

	t.Run("token inside the leeway is refreshed", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		f.clock.Advance(time.Hour - 10*time.Second)

		if _, err := f.backend.ResolveSession(ctx, "U"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.provider.Refreshes() != 1 {
			t.Errorf("expected 1 refresh, got %d", f.provider.Refreshes())
		}
	})

	t.Run("concurrent resolves share one refresh", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		f.clock.Advance(2 * time.Hour)

		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		f.provider.OnRefresh = func(context.Context) error {
			once.Do(func() { close(started) })
			<-release
			return nil
		}

		const callers = 24
		var (
			wg      sync.WaitGroup
			results = make([]*Principal, callers)
			errs    = make([]error, callers)
		)
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = f.backend.ResolveSession(ctx, "U")
			}()
		}

		<-started
		close(release)
		wg.Wait()

		if f.provider.Refreshes() != 1 {
			t.Fatalf("expected exactly 1 refresh, got %d", f.provider.Refreshes())
		}
		for i := range callers {
			if errs[i] != nil {
				t.Fatalf("caller %d failed: %v", i, errs[i])
			}
			if results[i].Credential.AccessToken != "refreshed-1" {
				t.Errorf("caller %d got token %s", i, results[i].Credential.AccessToken)
			}
		}
	})

	t.Run("cancelled caller does not fail the shared refresh", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		f.clock.Advance(2 * time.Hour)

		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		f.provider.OnRefresh = func(ctx context.Context) error {
			once.Do(func() { close(started) })
			<-release
			return ctx.Err()
		}

		leaderCtx, cancelLeader := context.WithCancel(ctx)
		leaderErr := make(chan error, 1)
		go func() {
			_, err := f.backend.ResolveSession(leaderCtx, "U")
			leaderErr <- err
		}()
		<-started

		type result struct {
			p   *Principal
			err error
		}
		follower := make(chan result, 1)
		go func() {
			p, err := f.backend.ResolveSession(ctx, "U")
			follower <- result{p, err}
		}()

		cancelLeader()
		if err := <-leaderErr; !errors.Is(err, context.Canceled) {
			t.Fatalf("cancelled caller should stop waiting with its own error, got %v", err)
		}

		close(release)
		got := <-follower
		if got.err != nil {
			t.Fatalf("live caller failed: %v", got.err)
		}
		if got.p == nil || got.p.Credential.AccessToken != "refreshed-1" {
			t.Fatalf("expected refreshed principal, got %+v", got.p)
		}
		if f.provider.Refreshes() != 1 {
			t.Errorf("expected 1 refresh, got %d", f.provider.Refreshes())
		}
		stored, _ := f.store.Get(ctx, "U")
		if stored == nil || stored.AccessToken != "refreshed-1" {
			t.Error("refresh should be persisted after the starting caller left")
		}
	})

	t.Run("revoked grant removes the credential", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		f.clock.Advance(2 * time.Hour)
		f.provider.SetRefreshErr(&tu.TemporaryError{Err: errors.New("invalid_grant")})

		p, err := f.backend.ResolveSession(ctx, "U")
		if err != nil || p != nil {
			t.Fatalf("expected anonymous, got (%v, %v)", p, err)
		}
		f.assertNoCredential(t, "U")
	})

	t.Run("transient refresh failure keeps the credential", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		f.clock.Advance(2 * time.Hour)
		f.provider.SetRefreshErr(&tu.TemporaryError{Err: errors.New("502"), Transient: true})

		_, err := f.backend.ResolveSession(ctx, "U")
		if !errors.Is(err, shared.ErrExchangeFailed) {
			t.Fatalf("expected ErrExchangeFailed, got %v", err)
		}
		if _, err := f.store.Get(ctx, "U"); err != nil {
			t.Errorf("credential should survive a transient failure: %v", err)
		}
	})

	t.Run("expired credential without refresh token is dropped", func(t *testing.T) {
		f := newFixture(t)
		cred := models.Credential{UserID: "U", AccessToken: "a", ExpiresAt: epoch.Add(-time.Minute)}
		if err := f.store.Put(ctx, cred); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}

		p, err := f.backend.ResolveSession(ctx, "U")
		if err != nil || p != nil {
			t.Fatalf("expected anonymous, got (%v, %v)", p, err)
		}
		if f.provider.Refreshes() != 0 {
			t.Error("no refresh should be attempted without a refresh token")
		}
		f.assertNoCredential(t, "U")
	})

	t.Run("store failure is an error, not anonymous", func(t *testing.T) {
		for _, want := range []error{shared.ErrCacheCorrupt, shared.ErrCacheUnavailable} {
			t.Run(want.Error(), func(t *testing.T) {
				b := NewBackend(tu.NewStubProvider("U"), &brokenStore{Store: credentials.NewMemoryStore(), err: want}, Options{Logger: shared.NewLogger(io.Discard)})

				p, err := b.ResolveSession(ctx, "U")
				if !errors.Is(err, want) {
					t.Fatalf("expected %v, got %v", want, err)
				}
				if p != nil {
					t.Error("expected no principal")
				}
			})
		}
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("then resolve is anonymous", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		if err := f.backend.Logout(ctx, "U"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		p, err := f.backend.ResolveSession(ctx, "U")
		if err != nil || p != nil {
			t.Fatalf("expected anonymous, got (%v, %v)", p, err)
		}
		if _, err := f.store.Profile(ctx, "U"); !errors.Is(err, shared.ErrCredentialNotFound) {
			t.Errorf("expected cached profile to be removed, got %v", err)
		}
	})

	t.Run("during an in-flight refresh is not undone", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		f.clock.Advance(2 * time.Hour)

		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		f.provider.OnRefresh = func(context.Context) error {
			once.Do(func() { close(started) })
			<-release
			return nil
		}

		type result struct {
			p   *Principal
			err error
		}
		resolved := make(chan result, 1)
		go func() {
			p, err := f.backend.ResolveSession(ctx, "U")
			resolved <- result{p, err}
		}()
		<-started

		if err := f.backend.Logout(ctx, "U"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		close(release)

		got := <-resolved
		if got.err != nil || got.p != nil {
			t.Fatalf("refresh racing logout should resolve anonymous, got (%v, %v)", got.p, got.err)
		}
		f.assertNoCredential(t, "U")

		p, err := f.backend.ResolveSession(ctx, "U")
		if err != nil || p != nil {
			t.Fatalf("expected anonymous after logout, got (%v, %v)", p, err)
		}
	})

	t.Run("later login still refreshes", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)
		if err := f.backend.Logout(ctx, "U"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}

		f.login(t)
		f.clock.Advance(2 * time.Hour)

		p, err := f.backend.ResolveSession(ctx, "U")
		if err != nil || p == nil {
			t.Fatalf("expected refreshed principal, got (%v, %v)", p, err)
		}
		if p.Credential.AccessToken != "refreshed-1" {
			t.Errorf("expected refreshed token, got %s", p.Credential.AccessToken)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := newFixture(t)
		for range 2 {
			if err := f.backend.Logout(ctx, "U"); err != nil {
				t.Fatalf("logout failed: %v", err)
			}
		}
	})
}

func TestCurrentProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("uses the profile cached at login", func(t *testing.T) {
		f := newFixture(t)
		p := f.login(t)
		fetched := f.provider.Profiles()

		profile, err := f.backend.CurrentProfile(ctx, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if profile.ID != "U" {
			t.Errorf("unexpected profile %+v", profile)
		}
		if f.provider.Profiles() != fetched {
			t.Error("expected no fetch when cached")
		}
	})

	t.Run("fetches and caches on a miss", func(t *testing.T) {
		f := newFixture(t)
		cred := models.Credential{UserID: "U", AccessToken: "a", RefreshToken: "r", ExpiresAt: epoch.Add(time.Hour)}
		if err := f.store.Put(ctx, cred); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
		p, err := f.backend.ResolveSession(ctx, "U")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}

		for range 2 {
			if _, err := f.backend.CurrentProfile(ctx, p); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if f.provider.Profiles() != 1 {
			t.Errorf("expected 1 fetch, got %d", f.provider.Profiles())
		}

		cached, err := f.store.Profile(ctx, "U")
		if err != nil {
			t.Fatalf("profile not cached: %v", err)
		}
		if !cached.FetchedAt.Equal(epoch) {
			t.Errorf("expected FetchedAt %v, got %v", epoch, cached.FetchedAt)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.backend.CurrentProfile(ctx, nil); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestIsTransient(t *testing.T) {
	tc := []struct {
		name string
		err  error
		want bool
	}{
		{name: "temporary", err: &tu.TemporaryError{Err: errors.New("x"), Transient: true}, want: true},
		{name: "terminal", err: &tu.TemporaryError{Err: errors.New("x")}, want: false},
		{name: "wrapped temporary", err: fmt.Errorf("%w: %w", shared.ErrExchangeFailed, &tu.TemporaryError{Err: errors.New("x"), Transient: true}), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}
