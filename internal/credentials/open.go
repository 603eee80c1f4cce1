package credentials

import (
	"context"
	"fmt"

	"github.com/grantshandy/starify/internal/shared"
)

// Open constructs the [Store] backing named by cfg.Backend.
func Open(ctx context.Context, cfg shared.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case shared.StoreMemory, "":
		return NewMemoryStore(), nil
	case shared.StoreSQLite:
		key, err := cfg.DecodeEncryptionKey()
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(ctx, cfg.Path, key)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}
