// Package services talks to Spotify: the OAuth token endpoint and the Web API.
//
// # Token Exchange
//
// [SpotifyService] implements [models.Provider] over [oauth2.Config] with Spotify's endpoints. Exchange and
// Refresh return an [ExchangeError] on failure, which matches [shared.ErrExchangeFailed] and reports through
// Temporary whether a retry can help:
//   - transient : transport errors, timeouts, HTTP 5xx and 429
//   - terminal : other 4xx, e.g. invalid_grant for a revoked or already used code
//
// # API Client
//
// [SpotifyService.NewClient] rehydrates a [SpotifyClient] from a stored credential without I/O. The client
// sends the stored access token as is. It never refreshes on its own; the auth backend does that before
// handing the client out.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrExchangeFailed] : token exchange or refresh failed
//   - [shared.ErrProfileFetchFailed] : /me failed
//   - [shared.ErrAPIRequest] : any other Web API call failed
//   - [shared.ErrMissingCredentials] : client id or secret not configured
package services
