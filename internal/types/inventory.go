package types

// LBConfig is one load balancer's configuration object as returned by the
// upstream API. Keys are upstream field names; boolean values drive the
// feature summary.
type LBConfig map[string]any

// NamespaceInventory holds the load balancers observed in one namespace,
// keyed by object name. A missing name means "not observed in the last
// fetch", not "does not exist".
type NamespaceInventory struct {
	HTTPLoadBalancers map[string]LBConfig `json:"http_loadbalancers"`
	TCPLoadBalancers  map[string]LBConfig `json:"tcp_loadbalancers"`
}

// TenantInventory maps namespace name to its inventory.
type TenantInventory map[string]NamespaceInventory

// InventoryTree maps tenant to its namespaces. Keys are unique within each
// level; the tree is a point-in-time snapshot of what the last fetch observed.
type InventoryTree map[string]TenantInventory

// FeatureCounts maps a feature flag name (plus "total") to the number of
// load balancers with that flag set.
type FeatureCounts map[string]int

// TenantSummary is the per-tenant feature rollup, one FeatureCounts per
// load balancer class.
type TenantSummary struct {
	HTTPLoadBalancers FeatureCounts `json:"http_loadbalancers"`
	TCPLoadBalancers  FeatureCounts `json:"tcp_loadbalancers"`
}

// InventorySummary maps tenant to its summary. It is derived deterministically
// from an InventoryTree snapshot and is only valid alongside that snapshot.
type InventorySummary map[string]TenantSummary

// Merge folds other into t, tenant by tenant. Later merges win on key
// collisions within a tenant.
func (t InventoryTree) Merge(tenant string, inv TenantInventory) {
	existing, ok := t[tenant]
	if !ok {
		t[tenant] = inv
		return
	}
	for ns, nsInv := range inv {
		existing[ns] = nsInv
	}
}
