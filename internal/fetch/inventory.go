package fetch

import (
	"context"
	"sync"
	"time"

	"xcdash/internal/creds"
	"xcdash/internal/metrics"
	"xcdash/internal/types"

	log "github.com/sirupsen/logrus"
)

// Inventory returns the tenant→namespace→load-balancer tree plus its feature
// summary. Tree and summary are cached as one snapshot: either both hit or
// both are rebuilt, so the summary can never describe a different tree.
//
// On a rebuild, inventory is fetched once per tenant in the credential set,
// concurrently; the first failing tenant aborts the whole operation and is
// named in the error, since a partial tree would be inconsistent with its
// summary. tenantFilter is a projection applied after caching — a filtered
// read never stores a partial tree.
func (c *Client) Inventory(ctx context.Context, credList []types.Credential, forceRefresh bool, tenantFilter string) (types.InventoryTree, types.InventorySummary, error) {
	if !forceRefresh {
		var tree types.InventoryTree
		var summary types.InventorySummary
		if c.cached(ctx, "inventory", keyInventory, c.ttl.Inventory, &tree) &&
			c.cached(ctx, "inventory", keyInventorySummary, c.ttl.Inventory, &summary) {
			return project(tree, summary, tenantFilter)
		}
	}

	tenants := creds.Tenants(credList)
	if len(tenants) == 0 {
		return nil, nil, types.ErrMissingCredentials
	}

	tree := make(types.InventoryTree, len(tenants))
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for _, tenant := range tenants {
		rc, err := resolveRead(credList, tenant, "")
		if err != nil {
			return nil, nil, err
		}
		wg.Add(1)
		go func(tenant string, rc types.ResolvedCredential) {
			defer wg.Done()
			start := time.Now()
			inv, err := c.up.TenantInventory(ctx, rc, tenant)
			metrics.RecordUpstream("inventory", time.Since(start))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = types.Err(types.ErrUpstreamFetch, err, "tenant %q", tenant)
				}
				return
			}
			tree.Merge(tenant, inv)
		}(tenant, rc)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, nil, firstErr
	}

	summary := Summarize(tree)
	c.store(ctx, keyInventory, tree)
	c.store(ctx, keyInventorySummary, summary)
	log.WithField("tenants", len(tenants)).Debug("inventory refreshed")

	return project(tree, summary, tenantFilter)
}

// project narrows tree and summary to one tenant. An unknown tenant yields
// empty maps, not an error: absence means unobserved.
func project(tree types.InventoryTree, summary types.InventorySummary, tenantFilter string) (types.InventoryTree, types.InventorySummary, error) {
	if tenantFilter == "" {
		return tree, summary, nil
	}
	outTree := make(types.InventoryTree, 1)
	outSummary := make(types.InventorySummary, 1)
	if inv, ok := tree[tenantFilter]; ok {
		outTree[tenantFilter] = inv
	}
	if ts, ok := summary[tenantFilter]; ok {
		outSummary[tenantFilter] = ts
	}
	return outTree, outSummary, nil
}
