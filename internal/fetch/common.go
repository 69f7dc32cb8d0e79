package fetch

import (
	"context"
	"fmt"
	"time"

	"xcdash/internal/creds"
	"xcdash/internal/metrics"
	"xcdash/internal/ports"
	"xcdash/internal/types"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// Default freshness windows per resource class. The caller-side ttl model
// (ports.Cache) means shortening one of these takes effect immediately on
// already-stored entries.
const (
	DefaultTTLInventory        = 6 * time.Hour
	DefaultTTLStats            = time.Hour
	DefaultTTLTenantAge        = time.Hour
	DefaultTTLSecurityEvents   = 10 * time.Minute
	DefaultTTLNamespaceDetails = 10 * time.Minute
	DefaultTTLTenantUsers      = 30 * time.Minute
	DefaultTTLLatency          = 10 * time.Minute
)

// Cache key stems. Parameterized keys append the fully-qualified parameter
// tuple, time window included, so windows never collide.
const (
	keyInventory        = "dataInventory"
	keyInventorySummary = "dataInventorySummary"
	keyStatsPrefix      = "dataStats_"
	keySecEventsPrefix  = "dataSecEvents_"
	keyTenantUsers      = "dataTenantUsers_"
	keyNSDetailsPrefix  = "dataNSDetails_"
	keyTenantAgePrefix  = "dataTenantAge_"
	keyLatencyPrefix    = "dataLatency_"
	keyConfigPrefix     = "dataConfig_"
)

// TTLSet carries the effective freshness windows.
type TTLSet struct {
	Inventory        time.Duration
	Stats            time.Duration
	TenantAge        time.Duration
	SecurityEvents   time.Duration
	NamespaceDetails time.Duration
	TenantUsers      time.Duration
	Latency          time.Duration
}

func DefaultTTLs() TTLSet {
	return TTLSet{
		Inventory:        DefaultTTLInventory,
		Stats:            DefaultTTLStats,
		TenantAge:        DefaultTTLTenantAge,
		SecurityEvents:   DefaultTTLSecurityEvents,
		NamespaceDetails: DefaultTTLNamespaceDetails,
		TenantUsers:      DefaultTTLTenantUsers,
		Latency:          DefaultTTLLatency,
	}
}

// TTLsFromConfig applies non-zero overrides from the app config.
func TTLsFromConfig(o types.TTLSeconds) TTLSet {
	t := DefaultTTLs()
	override := func(dst *time.Duration, seconds int) {
		if seconds > 0 {
			*dst = time.Duration(seconds) * time.Second
		}
	}
	override(&t.Inventory, o.Inventory)
	override(&t.Stats, o.Stats)
	override(&t.TenantAge, o.TenantAge)
	override(&t.SecurityEvents, o.SecurityEvents)
	override(&t.NamespaceDetails, o.NamespaceDetails)
	override(&t.TenantUsers, o.TenantUsers)
	override(&t.Latency, o.Latency)
	return t
}

// Client runs the cache-or-fetch cycle for every resource. Credentials are
// session state and arrive per call; Client itself holds only the shared
// collaborators.
type Client struct {
	cache ports.Cache
	up    ports.Upstream
	ttl   TTLSet
}

func New(cache ports.Cache, up ports.Upstream, ttl TTLSet) *Client {
	return &Client{cache: cache, up: up, ttl: ttl}
}

// ClearCache drops cached entries under prefix; empty prefix drops everything
// in the session's scope.
func (c *Client) ClearCache(ctx context.Context, prefix string) error {
	return c.cache.Clear(ctx, prefix)
}

func statsKey(q ports.StatsQuery) string {
	return fmt.Sprintf("%s%s_%s_%s_%s_%d", keyStatsPrefix, q.Tenant, q.Namespace, q.LBType, q.LBName, q.SecondsBack)
}

func secEventsKey(q ports.EventsQuery) string {
	return fmt.Sprintf("%s%s_%s_%d_%d", keySecEventsPrefix, q.Tenant, q.Namespace, q.SecondsBack, q.Limit)
}

func latencyKey(q ports.EventsQuery) string {
	return fmt.Sprintf("%s%s_%s_%d_%d", keyLatencyPrefix, q.Tenant, q.Namespace, q.SecondsBack, q.Limit)
}

func configKey(ref ports.ObjectRef) string {
	return fmt.Sprintf("%s%s_%s_%s_%s", keyConfigPrefix, ref.Tenant, ref.Namespace, ref.Kind, ref.Name)
}

// cached loads key into out when a fresh entry exists. An entry that fails to
// decode counts as corrupt: it is purged and reported as a miss.
func (c *Client) cached(ctx context.Context, resource, key string, ttl time.Duration, out any) bool {
	b, ok, err := c.cache.Get(ctx, key, ttl)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("cache read failed")
		return false
	}
	if !ok {
		metrics.RecordCacheMiss(resource)
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		log.WithError(types.Err(types.ErrCacheCorruption, err, "key %s", key)).Warn("purging corrupt cache entry")
		_ = c.cache.Clear(ctx, key)
		metrics.RecordCacheMiss(resource)
		return false
	}
	metrics.RecordCacheHit(resource)
	return true
}

// store writes v under key. A failed write is logged, not surfaced: the fetch
// already succeeded and the next call simply misses.
func (c *Client) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("cache encode failed")
		return
	}
	if err := c.cache.Set(ctx, key, b); err != nil {
		log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

// resolveRead resolves a read-capability credential, counting failures.
func resolveRead(list []types.Credential, tenant, namespace string) (types.ResolvedCredential, error) {
	rc, err := creds.Resolve(list, tenant, namespace, types.CapabilityRead)
	if err != nil {
		metrics.RecordResolveFailure(types.CapabilityRead)
	}
	return rc, err
}
