package fetch

import (
	"context"
	"errors"
	"time"

	"xcdash/internal/creds"
	"xcdash/internal/metrics"
	"xcdash/internal/ports"
	"xcdash/internal/types"
)

// Every fetcher below follows the same cycle: build the cache key from the
// fully-qualified parameter tuple, try the cache at the resource-class ttl,
// on a miss resolve a credential, call upstream, store, return.

func (c *Client) Stats(ctx context.Context, credList []types.Credential, q ports.StatsQuery) (map[string]any, error) {
	key := statsKey(q)
	var out map[string]any
	if c.cached(ctx, "stats", key, c.ttl.Stats, &out) {
		return out, nil
	}
	rc, err := resolveRead(credList, q.Tenant, q.Namespace)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err = c.up.Stats(ctx, rc, q)
	metrics.RecordUpstream("stats", time.Since(start))
	if err != nil {
		return nil, types.Err(types.ErrUpstreamFetch, err, "stats for tenant %q", q.Tenant)
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *Client) SecurityEvents(ctx context.Context, credList []types.Credential, q ports.EventsQuery) ([]map[string]any, error) {
	key := secEventsKey(q)
	var out []map[string]any
	if c.cached(ctx, "security_events", key, c.ttl.SecurityEvents, &out) {
		return out, nil
	}
	rc, err := resolveRead(credList, q.Tenant, q.Namespace)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err = c.up.SecurityEvents(ctx, rc, q)
	metrics.RecordUpstream("security_events", time.Since(start))
	if err != nil {
		return nil, types.Err(types.ErrUpstreamFetch, err, "security events for tenant %q", q.Tenant)
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *Client) LatencyLogs(ctx context.Context, credList []types.Credential, q ports.EventsQuery) ([]map[string]any, error) {
	key := latencyKey(q)
	var out []map[string]any
	if c.cached(ctx, "latency", key, c.ttl.Latency, &out) {
		return out, nil
	}
	rc, err := resolveRead(credList, q.Tenant, q.Namespace)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err = c.up.LatencyLogs(ctx, rc, q)
	metrics.RecordUpstream("latency", time.Since(start))
	if err != nil {
		return nil, types.Err(types.ErrUpstreamFetch, err, "latency logs for tenant %q", q.Tenant)
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *Client) TenantUsers(ctx context.Context, credList []types.Credential, tenant string) ([]map[string]any, error) {
	key := keyTenantUsers + tenant
	var out []map[string]any
	if c.cached(ctx, "tenant_users", key, c.ttl.TenantUsers, &out) {
		return out, nil
	}
	rc, err := resolveRead(credList, tenant, "")
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err = c.up.TenantUsers(ctx, rc, tenant)
	metrics.RecordUpstream("tenant_users", time.Since(start))
	if err != nil {
		return nil, types.Err(types.ErrUpstreamFetch, err, "users for tenant %q", tenant)
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *Client) NamespaceDetails(ctx context.Context, credList []types.Credential, tenant, namespace string) (map[string]any, error) {
	key := keyNSDetailsPrefix + tenant + "_" + namespace
	var out map[string]any
	if c.cached(ctx, "namespace_details", key, c.ttl.NamespaceDetails, &out) {
		return out, nil
	}
	rc, err := resolveRead(credList, tenant, namespace)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err = c.up.NamespaceDetails(ctx, rc, tenant, namespace)
	metrics.RecordUpstream("namespace_details", time.Since(start))
	if err != nil {
		return nil, types.Err(types.ErrUpstreamFetch, err, "namespace %q of tenant %q", namespace, tenant)
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *Client) TenantAge(ctx context.Context, credList []types.Credential, tenant string) (map[string]any, error) {
	key := keyTenantAgePrefix + tenant
	var out map[string]any
	if c.cached(ctx, "tenant_age", key, c.ttl.TenantAge, &out) {
		return out, nil
	}
	rc, err := resolveRead(credList, tenant, "")
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err = c.up.TenantAge(ctx, rc, tenant)
	metrics.RecordUpstream("tenant_age", time.Since(start))
	if err != nil {
		return nil, types.Err(types.ErrUpstreamFetch, err, "settings for tenant %q", tenant)
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *Client) GetConfig(ctx context.Context, credList []types.Credential, ref ports.ObjectRef) (types.LBConfig, error) {
	key := configKey(ref)
	var out types.LBConfig
	if c.cached(ctx, "config", key, c.ttl.NamespaceDetails, &out) {
		return out, nil
	}
	rc, err := resolveRead(credList, ref.Tenant, ref.Namespace)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err = c.up.GetConfigObject(ctx, rc, ref)
	metrics.RecordUpstream("config", time.Since(start))
	if err != nil {
		return nil, types.Err(types.ErrUpstreamFetch, err, "%s/%s in tenant %q", ref.Kind, ref.Name, ref.Tenant)
	}
	c.store(ctx, key, out)
	return out, nil
}

// PutConfig writes a configuration object upstream. It never touches the
// cache (beyond dropping the stale object entry) and always requires a write
// credential: a set that only resolves to read gets
// ErrInsufficientCapability, not a silent downgrade.
func (c *Client) PutConfig(ctx context.Context, credList []types.Credential, ref ports.ObjectRef, obj types.LBConfig) error {
	rc, err := creds.Resolve(credList, ref.Tenant, ref.Namespace, types.CapabilityWrite)
	if err != nil {
		metrics.RecordResolveFailure(types.CapabilityWrite)
		if errors.Is(err, types.ErrNoSuitableCredential) {
			if _, readErr := creds.Resolve(credList, ref.Tenant, ref.Namespace, types.CapabilityRead); readErr == nil {
				return types.Err(types.ErrInsufficientCapability, nil,
					"tenant %q namespace %q: only a read credential is available", ref.Tenant, ref.Namespace)
			}
		}
		return err
	}
	start := time.Now()
	err = c.up.PutConfigObject(ctx, rc, ref, obj)
	metrics.RecordUpstream("config_put", time.Since(start))
	if err != nil {
		return types.Err(types.ErrUpstreamFetch, err, "put %s/%s in tenant %q", ref.Kind, ref.Name, ref.Tenant)
	}
	// The stored copy is stale now.
	_ = c.cache.Clear(ctx, configKey(ref))
	return nil
}

// Backup bundles every config object in a namespace, keyed "kind/name".
// Always fetched live — a backup of cached data would be a backup of the
// cache. Archive assembly is the transport layer's concern.
func (c *Client) Backup(ctx context.Context, credList []types.Credential, tenant, namespace string) (map[string]types.LBConfig, error) {
	rc, err := resolveRead(credList, tenant, namespace)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	inv, err := c.up.TenantInventory(ctx, rc, tenant)
	metrics.RecordUpstream("backup", time.Since(start))
	if err != nil {
		return nil, types.Err(types.ErrUpstreamFetch, err, "backup of tenant %q", tenant)
	}
	bundle := make(map[string]types.LBConfig)
	for ns, nsInv := range inv {
		if namespace != "" && ns != namespace {
			continue
		}
		for name, cfg := range nsInv.HTTPLoadBalancers {
			bundle["http_loadbalancers/"+name] = cfg
		}
		for name, cfg := range nsInv.TCPLoadBalancers {
			bundle["tcp_loadbalancers/"+name] = cfg
		}
	}
	return bundle, nil
}
