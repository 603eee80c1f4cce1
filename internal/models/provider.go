package models

import "context"

// Provider is the OAuth provider contract the authentication backend consumes.
//
// Exchange and Refresh are network calls. Their errors should say whether a retry can succeed
// (see services.ExchangeError).
type Provider interface {
	// AuthURL builds the authorize redirect for state.
	AuthURL(state string) string
	// Exchange trades an authorization code for a credential. The returned UserID is empty until the profile is known.
	Exchange(ctx context.Context, code string) (Credential, error)
	// Refresh trades cred's refresh token for a new access token.
	Refresh(ctx context.Context, cred Credential) (Credential, error)
	// Profile fetches the profile of the user cred belongs to.
	Profile(ctx context.Context, cred Credential) (*Profile, error)
	// NewClient rehydrates a live API client from cred. It does no I/O.
	NewClient(cred Credential) API
}

// API is a Spotify Web API client bound to one credential.
type API interface {
	Profile(ctx context.Context) (*Profile, error)
	TopArtists(ctx context.Context, limit int) ([]Artist, error)
}
