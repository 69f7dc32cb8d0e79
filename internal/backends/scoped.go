package backends

import (
	"context"
	"time"

	"xcdash/internal/ports"
)

// Scoped returns a view of cache where every key is prefixed with scope.
// Sessions get private cache namespaces this way: the handler derives the
// scope from the credential blob, so two sessions never see each other's
// entries even on a shared backend.
func Scoped(cache ports.Cache, scope string) ports.Cache {
	return &scopedCache{inner: cache, scope: scope}
}

type scopedCache struct {
	inner ports.Cache
	scope string
}

func (s *scopedCache) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.scope+key, ttl)
}

func (s *scopedCache) Set(ctx context.Context, key string, payload []byte) error {
	return s.inner.Set(ctx, s.scope+key, payload)
}

func (s *scopedCache) Clear(ctx context.Context, prefix string) error {
	return s.inner.Clear(ctx, s.scope+prefix)
}
