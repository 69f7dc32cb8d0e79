package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xcdash/internal/types"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const cacheKeyNameTemplate = "_xcdash_cache_%s"

// hardExpiry caps how long any entry survives in Redis regardless of the
// caller-side ttl, so abandoned session keys do not accumulate.
const hardExpiry = 24 * time.Hour

var enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
var dec, _ = zstd.NewReader(nil)

// envelope wraps a payload with its store time. The caller's ttl is applied
// against At on read; Redis expiry is only the hard cap above.
type envelope struct {
	At      int64           `json:"at"`
	Payload json.RawMessage `json:"p"`
}

// Cache is the Redis cache backend. Payload envelopes are zstd-compressed;
// inventory trees in particular compress well.
type Cache struct {
	cli *redis.Client
}

func NewCache(cli *redis.Client) *Cache {
	return &Cache{cli: cli}
}

func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	out := c.cli.Get(ctx, cacheKeyName(key))
	if out.Err() != nil {
		if errors.Is(out.Err(), redis.Nil) {
			return nil, false, nil
		}
		return nil, false, out.Err()
	}
	raw, err := dec.DecodeAll([]byte(out.Val()), nil)
	if err != nil {
		return nil, false, c.purgeCorrupt(ctx, key, err)
	}
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, c.purgeCorrupt(ctx, key, err)
	}
	if time.Since(time.Unix(e.At, 0)) > ttl {
		c.cli.Del(ctx, cacheKeyName(key))
		return nil, false, nil
	}
	return e.Payload, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, payload []byte) error {
	b, err := json.Marshal(envelope{At: time.Now().Unix(), Payload: payload})
	if err != nil {
		return err
	}
	compressed := enc.EncodeAll(b, nil)
	return c.cli.Set(ctx, cacheKeyName(key), compressed, hardExpiry).Err()
}

func (c *Cache) Clear(ctx context.Context, prefix string) error {
	out := c.cli.Keys(ctx, cacheKeyName(prefix)+"*")
	if out.Err() != nil {
		return out.Err()
	}
	keys := out.Val()
	if len(keys) == 0 {
		return nil
	}
	return c.cli.Del(ctx, keys...).Err()
}

// purgeCorrupt drops an undecodable entry and reports a miss to the caller.
func (c *Cache) purgeCorrupt(ctx context.Context, key string, err error) error {
	log.WithError(types.Err(types.ErrCacheCorruption, err, "key %s", key)).Warn("purging corrupt cache entry")
	c.cli.Del(ctx, cacheKeyName(key))
	return nil
}

func cacheKeyName(key string) string {
	return fmt.Sprintf(cacheKeyNameTemplate, key)
}
