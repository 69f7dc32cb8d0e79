package creds

import (
	"xcdash/internal/types"
)

// Resolve selects the single credential to use for an operation against
// (tenant, namespace) at the requested capability.
//
// Matching: the candidate must belong to the tenant, be enabled, and (when a
// namespace is given) be scoped to it or to all namespaces. A namespace-scoped
// match beats an all-scoped one. A read request may fall back to a write
// credential when no read credential matches; a write request never downgrades
// to read. When several candidates tie within a tier, the first in list order
// wins — list order is the client's save order, so the pick is deterministic.
func Resolve(list []types.Credential, tenant, namespace, capability string) (types.ResolvedCredential, error) {
	if len(list) == 0 {
		return types.ResolvedCredential{}, types.ErrMissingCredentials
	}

	var candidates []types.Credential
	for _, c := range list {
		if c.TenantID != tenant || !c.Enabled() {
			continue
		}
		if !c.MatchesNamespace(namespace) {
			continue
		}
		candidates = append(candidates, c)
	}

	// Preference tiers, best first. Cross-capability fallback applies to
	// read requests only.
	pick := func(ok func(types.Credential) bool) *types.Credential {
		for i := range candidates {
			if ok(candidates[i]) {
				return &candidates[i]
			}
		}
		return nil
	}
	nsSpecific := func(c types.Credential) bool {
		return namespace != "" && c.NamespaceScope == namespace
	}

	tiers := []func(types.Credential) bool{
		func(c types.Credential) bool { return c.Capability == capability && nsSpecific(c) },
		func(c types.Credential) bool { return c.Capability == capability },
	}
	if capability == types.CapabilityRead {
		tiers = append(tiers,
			func(c types.Credential) bool { return c.Capability == types.CapabilityWrite && nsSpecific(c) },
			func(c types.Credential) bool { return c.Capability == types.CapabilityWrite },
		)
	}
	for _, tier := range tiers {
		if c := pick(tier); c != nil {
			return types.ResolvedCredential{Credential: *c, Delegate: c.Delegate}, nil
		}
	}
	return types.ResolvedCredential{}, types.Err(types.ErrNoSuitableCredential, nil,
		"tenant %q namespace %q capability %q", tenant, namespace, capability)
}

// Tenants returns the tenants covered by enabled credentials, in first-seen
// list order. The aggregator fetches inventory once per entry.
func Tenants(list []types.Credential) []string {
	seen := make(map[string]struct{}, len(list))
	var out []string
	for _, c := range list {
		if !c.Enabled() {
			continue
		}
		if _, ok := seen[c.TenantID]; ok {
			continue
		}
		seen[c.TenantID] = struct{}{}
		out = append(out, c.TenantID)
	}
	return out
}
