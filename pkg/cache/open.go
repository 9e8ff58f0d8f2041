package cache

import (
	"context"

	"github.com/jingkaihe/skillgate/pkg/db"
	"github.com/pkg/errors"
)

// Backends accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open returns the store for backend together with a function that releases
// it. An empty sqlite path selects db.DefaultDBPath.
func Open(ctx context.Context, backend, path string) (Store, func() error, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), func() error { return nil }, nil
	case BackendSQLite, "":
		if path == "" {
			p, err := db.DefaultDBPath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		store, err := NewSQLiteStore(ctx, path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to open cache database %s", path)
		}
		return store, store.Close, nil
	default:
		return nil, nil, errors.Errorf("unsupported cache backend %q", backend)
	}
}
