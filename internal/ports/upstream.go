package ports

import (
	"context"

	"xcdash/internal/types"
)

// StatsQuery identifies one stats window. SecondsBack is part of the cache
// identity: two queries differing only in window must not collide.
type StatsQuery struct {
	Tenant      string
	Namespace   string
	LBType      string
	LBName      string
	SecondsBack int
}

// EventsQuery identifies one security-event or latency-log window.
type EventsQuery struct {
	Tenant      string
	Namespace   string
	SecondsBack int
	Limit       int
}

// ObjectRef addresses one configuration object.
type ObjectRef struct {
	Tenant    string
	Namespace string
	Kind      string // e.g. "http_loadbalancers", "tcp_loadbalancers"
	Name      string
}

// Upstream is the SaaS API as consumed by the fetchers. Its URL shapes and
// field names stay behind this boundary; methods return the normalized nested
// forms the rest of the system works with.
// Every method authenticates with the resolved credential it is given and
// addresses the managed-tenant view when the credential carries a delegate.
type Upstream interface {
	// TenantInventory fetches the namespace→load-balancer tree for one
	// tenant, enumerating namespaces when the credential is all-scoped.
	TenantInventory(ctx context.Context, rc types.ResolvedCredential, tenant string) (types.TenantInventory, error)

	Stats(ctx context.Context, rc types.ResolvedCredential, q StatsQuery) (map[string]any, error)

	SecurityEvents(ctx context.Context, rc types.ResolvedCredential, q EventsQuery) ([]map[string]any, error)

	LatencyLogs(ctx context.Context, rc types.ResolvedCredential, q EventsQuery) ([]map[string]any, error)

	TenantUsers(ctx context.Context, rc types.ResolvedCredential, tenant string) ([]map[string]any, error)

	NamespaceDetails(ctx context.Context, rc types.ResolvedCredential, tenant, namespace string) (map[string]any, error)

	// TenantAge returns tenant-level settings including creation time.
	TenantAge(ctx context.Context, rc types.ResolvedCredential, tenant string) (map[string]any, error)

	GetConfigObject(ctx context.Context, rc types.ResolvedCredential, ref ObjectRef) (types.LBConfig, error)

	PutConfigObject(ctx context.Context, rc types.ResolvedCredential, ref ObjectRef, obj types.LBConfig) error
}
