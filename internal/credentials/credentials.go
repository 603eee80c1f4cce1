package credentials

import (
	"context"

	"github.com/grantshandy/starify/internal/models"
)

// Store persists credentials and cached profiles keyed by Spotify user id.
//
// Implementations are safe for concurrent use. Operations on different users are independent.
type Store interface {
	// Get returns the credential for userID or an error wrapping [shared.ErrCredentialNotFound].
	Get(ctx context.Context, userID string) (*models.Credential, error)
	// Put creates or replaces the credential for cred.UserID.
	Put(ctx context.Context, cred models.Credential) error
	// Remove deletes the credential and cached profile for userID. Removing an absent user is not an error.
	Remove(ctx context.Context, userID string) error
	// List returns every stored credential ordered by user id.
	List(ctx context.Context) ([]models.Credential, error)

	// Profile returns the cached profile for userID or an error wrapping [shared.ErrCredentialNotFound].
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	// PutProfile caches profile for userID.
	PutProfile(ctx context.Context, userID string, profile models.Profile) error

	Close() error
}
