package credentials

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/grantshandy/starify/internal/models"
	"github.com/grantshandy/starify/internal/shared"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps credentials for the lifetime of the process.
type MemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]models.Credential
	profiles    map[string]models.Profile
}

// NewMemoryStore constructs an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		credentials: make(map[string]models.Credential),
		profiles:    make(map[string]models.Profile),
	}
}

// Get returns a copy of the credential stored for userID.
func (s *MemoryStore) Get(_ context.Context, userID string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, userID)
	}
	cred = cred.Clone()
	return &cred, nil
}

// Put stores a copy of cred, replacing any previous credential for the same user.
func (s *MemoryStore) Put(_ context.Context, cred models.Credential) error {
	if cred.UserID == "" {
		return fmt.Errorf("%w: credential without user id", shared.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[cred.UserID] = cred.Clone()
	return nil
}

// Remove deletes the credential and cached profile for userID.
func (s *MemoryStore) Remove(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.credentials, userID)
	delete(s.profiles, userID)
	return nil
}

// List returns copies of all credentials ordered by user id.
func (s *MemoryStore) List(_ context.Context) ([]models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Credential, 0, len(s.credentials))
	for _, cred := range s.credentials {
		out = append(out, cred.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Profile returns the cached profile for userID.
func (s *MemoryStore) Profile(_ context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s", shared.ErrCredentialNotFound, userID)
	}
	return &p, nil
}

// PutProfile caches profile for userID.
func (s *MemoryStore) PutProfile(_ context.Context, userID string, profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = profile
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
