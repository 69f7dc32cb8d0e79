package creds

import (
	"xcdash/internal/types"
)

func cred(tenant, scope, capability, state string) types.Credential {
	return types.Credential{
		TenantID:       tenant,
		NamespaceScope: scope,
		Capability:     capability,
		State:          state,
		SecretFormat:   types.SecretFormatClear,
		Secret:         "secret-" + tenant + "-" + scope + "-" + capability,
	}
}

func (s *CredsTestSuite) TestWriteFallbackForRead() {
	// A lone all-scope write credential serves a read request.
	list := []types.Credential{
		cred("acme", types.ScopeAllNamespaces, types.CapabilityWrite, types.StateEnabled),
	}
	rc, err := Resolve(list, "acme", "ns1", types.CapabilityRead)
	s.NoError(err)
	s.Equal(types.CapabilityWrite, rc.Capability)
	s.Equal("acme", rc.TenantID)
}

func (s *CredsTestSuite) TestWriteNeverDowngrades() {
	list := []types.Credential{
		cred("acme", "ns1", types.CapabilityRead, types.StateEnabled),
	}
	_, err := Resolve(list, "acme", "ns1", types.CapabilityWrite)
	s.ErrorIs(err, types.ErrNoSuitableCredential)
}

func (s *CredsTestSuite) TestNamespaceSpecificPreferredOverAllScope() {
	all := cred("acme", types.ScopeAllNamespaces, types.CapabilityRead, types.StateEnabled)
	specific := cred("acme", "ns1", types.CapabilityRead, types.StateEnabled)
	// All-scope first in list order; the namespace-specific one must still win.
	rc, err := Resolve([]types.Credential{all, specific}, "acme", "ns1", types.CapabilityRead)
	s.NoError(err)
	s.Equal("ns1", rc.NamespaceScope)
}

func (s *CredsTestSuite) TestExactCapabilityPreferredOverFallback() {
	w := cred("acme", "ns1", types.CapabilityWrite, types.StateEnabled)
	r := cred("acme", types.ScopeAllNamespaces, types.CapabilityRead, types.StateEnabled)
	rc, err := Resolve([]types.Credential{w, r}, "acme", "ns1", types.CapabilityRead)
	s.NoError(err)
	// The all-scope read beats the namespace-specific write: capability match
	// outranks scope specificity.
	s.Equal(types.CapabilityRead, rc.Capability)
}

func (s *CredsTestSuite) TestDisabledCredentialsIgnored() {
	list := []types.Credential{
		cred("acme", "ns1", types.CapabilityRead, types.StateDisabled),
	}
	_, err := Resolve(list, "acme", "ns1", types.CapabilityRead)
	s.ErrorIs(err, types.ErrNoSuitableCredential)
}

func (s *CredsTestSuite) TestOtherTenantNotConsidered() {
	list := []types.Credential{
		cred("globex", types.ScopeAllNamespaces, types.CapabilityRead, types.StateEnabled),
	}
	_, err := Resolve(list, "acme", "", types.CapabilityRead)
	s.ErrorIs(err, types.ErrNoSuitableCredential)
}

func (s *CredsTestSuite) TestNamespaceScopeExcludesOtherNamespaces() {
	list := []types.Credential{
		cred("acme", "ns1", types.CapabilityRead, types.StateEnabled),
	}
	_, err := Resolve(list, "acme", "ns2", types.CapabilityRead)
	s.ErrorIs(err, types.ErrNoSuitableCredential)
}

func (s *CredsTestSuite) TestTieBreakIsFirstInListOrder() {
	a := cred("acme", types.ScopeAllNamespaces, types.CapabilityRead, types.StateEnabled)
	a.Secret = "first"
	b := cred("acme", types.ScopeAllNamespaces, types.CapabilityRead, types.StateEnabled)
	b.Secret = "second"
	rc, err := Resolve([]types.Credential{a, b}, "acme", "ns1", types.CapabilityRead)
	s.NoError(err)
	s.Equal("first", rc.Secret)

	// Deterministic: same pick every time.
	for i := 0; i < 10; i++ {
		rc, err := Resolve([]types.Credential{a, b}, "acme", "ns1", types.CapabilityRead)
		s.NoError(err)
		s.Equal("first", rc.Secret)
	}
}

func (s *CredsTestSuite) TestDelegationSurfaced() {
	c := cred("acme", types.ScopeAllNamespaces, types.CapabilityRead, types.StateEnabled)
	c.Delegate = "msp-view"
	rc, err := Resolve([]types.Credential{c}, "acme", "", types.CapabilityRead)
	s.NoError(err)
	s.Equal("msp-view", rc.Delegate)
}

func (s *CredsTestSuite) TestResolveEmptySet() {
	_, err := Resolve(nil, "acme", "", types.CapabilityRead)
	s.ErrorIs(err, types.ErrMissingCredentials)
}

func (s *CredsTestSuite) TestTenantsDeduplicatedInOrder() {
	list := []types.Credential{
		cred("acme", "ns1", types.CapabilityRead, types.StateEnabled),
		cred("globex", types.ScopeAllNamespaces, types.CapabilityRead, types.StateEnabled),
		cred("acme", types.ScopeAllNamespaces, types.CapabilityWrite, types.StateEnabled),
		cred("initech", "ns9", types.CapabilityRead, types.StateDisabled),
	}
	s.Equal([]string{"acme", "globex"}, Tenants(list))
}
