// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grantshandy/starify/internal/models"
)

var _ models.Provider = (*StubProvider)(nil)

// StubProvider is a call-counting test double for [models.Provider].
//
// Set the Err fields to fail the matching call and the On hooks to block or advance a clock mid-call.
type StubProvider struct {
	UserID    string
	ExpiresIn time.Duration
	Artists   []models.Artist
	Now       func() time.Time

	ExchangeErr error
	RefreshErr  error
	ProfileErr  error

	OnExchange func(ctx context.Context) error
	OnRefresh  func(ctx context.Context) error

	mu        sync.Mutex
	exchanges atomic.Int32
	refreshes atomic.Int32
	profiles  atomic.Int32
}

// NewStubProvider returns a provider that authenticates everyone as userID with hour-long tokens.
func NewStubProvider(userID string) *StubProvider {
	return &StubProvider{UserID: userID, ExpiresIn: time.Hour, Now: time.Now}
}

func (p *StubProvider) AuthURL(state string) string {
	return "https://accounts.example.test/authorize?state=" + url.QueryEscape(state)
}

func (p *StubProvider) Exchange(ctx context.Context, code string) (models.Credential, error) {
	n := p.exchanges.Add(1)
	if p.OnExchange != nil {
		if err := p.OnExchange(ctx); err != nil {
			return models.Credential{}, err
		}
	}

	p.mu.Lock()
	err := p.ExchangeErr
	p.mu.Unlock()
	if err != nil {
		return models.Credential{}, err
	}

	return models.Credential{
		AccessToken:  fmt.Sprintf("access-%s-%d", code, n),
		RefreshToken: "refresh-" + code,
		TokenType:    "Bearer",
		ExpiresAt:    p.Now().Add(p.ExpiresIn),
		Scopes:       []string{"user-top-read", "user-follow-read"},
		ClientID:     "stub-client",
	}, nil
}

// Refresh issues a new access token without rotating the refresh token.
func (p *StubProvider) Refresh(ctx context.Context, cred models.Credential) (models.Credential, error) {
	n := p.refreshes.Add(1)
	if p.OnRefresh != nil {
		if err := p.OnRefresh(ctx); err != nil {
			return models.Credential{}, err
		}
	}

	p.mu.Lock()
	err := p.RefreshErr
	p.mu.Unlock()
	if err != nil {
		return models.Credential{}, err
	}

	return models.Credential{
		AccessToken: fmt.Sprintf("refreshed-%d", n),
		TokenType:   "Bearer",
		ExpiresAt:   p.Now().Add(p.ExpiresIn),
		Scopes:      cred.Scopes,
	}, nil
}

func (p *StubProvider) Profile(ctx context.Context, cred models.Credential) (*models.Profile, error) {
	p.profiles.Add(1)

	p.mu.Lock()
	err := p.ProfileErr
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &models.Profile{ID: p.UserID, DisplayName: "User " + p.UserID}, nil
}

func (p *StubProvider) NewClient(cred models.Credential) models.API {
	return &StubClient{Credential: cred, provider: p}
}

// SetExchangeErr changes the exchange error while calls may be in flight.
func (p *StubProvider) SetExchangeErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ExchangeErr = err
}

// SetRefreshErr changes the refresh error while calls may be in flight.
func (p *StubProvider) SetRefreshErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RefreshErr = err
}

func (p *StubProvider) Exchanges() int { return int(p.exchanges.Load()) }
func (p *StubProvider) Refreshes() int { return int(p.refreshes.Load()) }
func (p *StubProvider) Profiles() int  { return int(p.profiles.Load()) }

// StubClient is the [models.API] handed out by [StubProvider.NewClient].
type StubClient struct {
	Credential models.Credential
	provider   *StubProvider
}

func (c *StubClient) Profile(ctx context.Context) (*models.Profile, error) {
	return c.provider.Profile(ctx, c.Credential)
}

func (c *StubClient) TopArtists(_ context.Context, limit int) ([]models.Artist, error) {
	artists := c.provider.Artists
	if limit > 0 && limit < len(artists) {
		artists = artists[:limit]
	}
	return artists, nil
}

// TemporaryError reports itself as transient or terminal through Temporary.
type TemporaryError struct {
	Err       error
	Transient bool
}

func (e *TemporaryError) Error() string   { return e.Err.Error() }
func (e *TemporaryError) Unwrap() error   { return e.Err }
func (e *TemporaryError) Temporary() bool { return e.Transient }

// Clock is a manually advanced clock safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
