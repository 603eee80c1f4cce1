package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Login state errors
	ErrStateMissing  = fmt.Errorf("login state missing")
	ErrStateMismatch = fmt.Errorf("login state mismatch")
	ErrStateExpired  = fmt.Errorf("login state expired")
	ErrStateConsumed = fmt.Errorf("login state already consumed")
	ErrMissingCode   = fmt.Errorf("authorization code missing")

	// Provider errors
	ErrExchangeFailed     = fmt.Errorf("token exchange failed")
	ErrProfileFetchFailed = fmt.Errorf("profile fetch failed")
	ErrAPIRequest         = fmt.Errorf("API request failed")

	// Credential store errors
	ErrCredentialNotFound = fmt.Errorf("credential not found")
	ErrCacheCorrupt       = fmt.Errorf("credential cache corrupt")
	ErrCacheUnavailable   = fmt.Errorf("credential cache unavailable")

	// Session errors
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrRateLimited     = fmt.Errorf("rate limit exceeded")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
