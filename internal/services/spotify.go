// Spotify implementation of [models.Provider]
//
// Token endpoints follow https://developer.spotify.com/documentation/web-api/tutorials/code-flow
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/grantshandy/starify/internal/models"
	"github.com/grantshandy/starify/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1/"

	defaultTopArtists = 20
	maxTopArtists     = 50
)

// DefaultScopes are requested when the configuration names none.
var DefaultScopes = []string{spotifyauth.ScopeUserTopRead, spotifyauth.ScopeUserFollowRead}

var _ models.Provider = (*SpotifyService)(nil)

// SpotifyService exchanges and refreshes Spotify OAuth tokens and builds API clients from stored credentials.
type SpotifyService struct {
	config     *oauth2.Config
	apiURL     string
	httpClient *http.Client
}

// NewSpotifyService creates a service from cfg. cfg.RedirectURI must already be resolved.
//
// httpClient carries token and API requests; nil selects a client with a 10 second timeout.
func NewSpotifyService(cfg shared.SpotifyConfig, httpClient *http.Client) (*SpotifyService, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("%w: missing redirect_uri", shared.ErrMissingConfig)
	}

	scopes := slices.Clone(cfg.Scopes)
	if len(scopes) == 0 {
		scopes = slices.Clone(DefaultScopes)
	}

	endpoint := oauth2.Endpoint{
		AuthURL:   spotifyauth.AuthURL,
		TokenURL:  spotifyauth.TokenURL,
		AuthStyle: oauth2.AuthStyleInHeader,
	}
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	apiURL := spotifyBaseURL
	if cfg.APIURL != "" {
		apiURL = strings.TrimSuffix(cfg.APIURL, "/") + "/"
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &SpotifyService{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		apiURL:     apiURL,
		httpClient: httpClient,
	}, nil
}

// AuthURL returns the authorize redirect for state with response_type=code, client_id, scope and redirect_uri.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens. The returned credential has no UserID yet.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (models.Credential, error) {
	tok, err := s.config.Exchange(s.clientContext(ctx), code)
	if err != nil {
		return models.Credential{}, classify("exchange", err)
	}
	return s.credential(tok), nil
}

// Refresh trades cred's refresh token for a new access token, keeping the old refresh token unless Spotify rotates it.
func (s *SpotifyService) Refresh(ctx context.Context, cred models.Credential) (models.Credential, error) {
	if cred.RefreshToken == "" {
		return models.Credential{}, &ExchangeError{Op: "refresh", Err: errors.New("credential has no refresh token")}
	}

	src := s.config.TokenSource(s.clientContext(ctx), &oauth2.Token{RefreshToken: cred.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return models.Credential{}, classify("refresh", err)
	}

	fresh := s.credential(tok)
	fresh.UserID = cred.UserID
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = cred.RefreshToken
	}
	return fresh, nil
}

// Profile fetches the /me profile for cred.
func (s *SpotifyService) Profile(ctx context.Context, cred models.Credential) (*models.Profile, error) {
	return s.client(cred).Profile(ctx)
}

// NewClient rehydrates a client from cred without any I/O.
//
// The client sends cred's access token as is; refreshing is the caller's job.
func (s *SpotifyService) NewClient(cred models.Credential) models.API {
	return s.client(cred)
}

func (s *SpotifyService) client(cred models.Credential) *SpotifyClient {
	tok := &oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   cred.TokenType,
		Expiry:      cred.ExpiresAt,
	}
	httpClient := oauth2.NewClient(s.clientContext(context.Background()), oauth2.StaticTokenSource(tok))

	return &SpotifyClient{
		userID: cred.UserID,
		client: spotify.New(httpClient, spotify.WithBaseURL(s.apiURL)),
	}
}

// clientContext makes the oauth2 package use the service's HTTP client.
func (s *SpotifyService) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *SpotifyService) credential(tok *oauth2.Token) models.Credential {
	return models.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
		Scopes:       s.grantedScopes(tok),
		ClientID:     s.config.ClientID,
	}
}

// grantedScopes prefers the scope Spotify reports over the scope requested.
func (s *SpotifyService) grantedScopes(tok *oauth2.Token) []string {
	if granted, ok := tok.Extra("scope").(string); ok && granted != "" {
		return strings.Fields(granted)
	}
	return slices.Clone(s.config.Scopes)
}

// SpotifyClient is a Spotify Web API client bound to one credential.
type SpotifyClient struct {
	userID string
	client *spotify.Client
}

// Profile fetches the current user's profile.
func (c *SpotifyClient) Profile(ctx context.Context) (*models.Profile, error) {
	u, err := c.client.CurrentUser(ctx)
	if err != nil {
		return nil, apiError(shared.ErrProfileFetchFailed, "profile", err)
	}

	p := &models.Profile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Country:     u.Country,
		Product:     u.Product,
	}
	if len(u.Images) > 0 {
		p.ImageURL = u.Images[0].URL
	}
	return p, nil
}

// TopArtists fetches up to limit of the user's top artists (1 to 50, default 20).
func (c *SpotifyClient) TopArtists(ctx context.Context, limit int) ([]models.Artist, error) {
	switch {
	case limit <= 0:
		limit = defaultTopArtists
	case limit > maxTopArtists:
		limit = maxTopArtists
	}

	page, err := c.client.CurrentUsersTopArtists(ctx, spotify.Limit(limit))
	if err != nil {
		return nil, apiError(shared.ErrAPIRequest, "top artists", err)
	}

	artists := make([]models.Artist, 0, len(page.Artists))
	for _, a := range page.Artists {
		artist := models.Artist{
			ID:         string(a.ID),
			Name:       a.Name,
			Genres:     a.Genres,
			Popularity: int(a.Popularity),
			URI:        string(a.URI),
		}
		if len(a.Images) > 0 {
			artist.ImageURL = a.Images[0].URL
		}
		artists = append(artists, artist)
	}
	return artists, nil
}
