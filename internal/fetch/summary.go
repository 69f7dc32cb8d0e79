package fetch

import (
	"xcdash/internal/types"
)

// Feature flags counted per load balancer class. Each entry maps the summary
// column to the JMESPath expression evaluated against the LB config object.
var httpLBFeatures = map[string]string{
	"waf":             "waf",
	"bot_defense":     "bot_defense",
	"api_protection":  "api_protection",
	"malicious_users": "malicious_user_detection",
	"ddos_detection":  "ddos_detection",
	"client_side_def": "client_side_defense",
}

var tcpLBFeatures = map[string]string{
	"ddos_detection": "ddos_detection",
	"tls_offload":    "tls_offload",
}

// Summarize computes the per-tenant feature rollup from an inventory snapshot.
// It is deterministic over the tree and must be recomputed whenever the tree
// is refreshed; the aggregator caches both under the same snapshot.
func Summarize(tree types.InventoryTree) types.InventorySummary {
	summary := make(types.InventorySummary, len(tree))
	for tenant, namespaces := range tree {
		ts := types.TenantSummary{
			HTTPLoadBalancers: newCounts(httpLBFeatures),
			TCPLoadBalancers:  newCounts(tcpLBFeatures),
		}
		for _, ns := range namespaces {
			countClass(ts.HTTPLoadBalancers, httpLBFeatures, ns.HTTPLoadBalancers)
			countClass(ts.TCPLoadBalancers, tcpLBFeatures, ns.TCPLoadBalancers)
		}
		summary[tenant] = ts
	}
	return summary
}

func newCounts(features map[string]string) types.FeatureCounts {
	counts := make(types.FeatureCounts, len(features)+1)
	counts["total"] = 0
	for name := range features {
		counts[name] = 0
	}
	return counts
}

func countClass(counts types.FeatureCounts, features map[string]string, objs map[string]types.LBConfig) {
	counts["total"] += len(objs)
	for _, cfg := range objs {
		for name, expr := range features {
			if EvalBool(expr, map[string]any(cfg)) {
				counts[name]++
			}
		}
	}
}
