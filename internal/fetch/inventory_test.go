package fetch

import (
	"context"
	"errors"

	"xcdash/internal/types"
)

func (s *FetchTestSuite) TestInventoryFetchesOncePerTenant() {
	ctx := context.Background()
	tree, summary, err := s.fc.Inventory(ctx, s.creds, false, "")
	s.NoError(err)
	s.Len(tree, 2)
	s.Contains(tree, "acme")
	s.Contains(tree, "globex")
	s.Equal(1, s.up.inventoryCalls["acme"])
	s.Equal(1, s.up.inventoryCalls["globex"])

	s.Equal(2, summary["acme"].HTTPLoadBalancers["total"])
	s.Equal(1, summary["acme"].HTTPLoadBalancers["waf"])
	s.Equal(1, summary["globex"].TCPLoadBalancers["ddos_detection"])
}

func (s *FetchTestSuite) TestInventoryServedFromCache() {
	ctx := context.Background()
	_, _, err := s.fc.Inventory(ctx, s.creds, false, "")
	s.NoError(err)
	_, _, err = s.fc.Inventory(ctx, s.creds, false, "")
	s.NoError(err)
	s.Equal(1, s.up.inventoryCalls["acme"])
	s.Equal(1, s.up.inventoryCalls["globex"])
}

func (s *FetchTestSuite) TestInventoryForceRefreshBypassesCache() {
	ctx := context.Background()
	_, _, err := s.fc.Inventory(ctx, s.creds, false, "")
	s.NoError(err)
	_, _, err = s.fc.Inventory(ctx, s.creds, true, "")
	s.NoError(err)
	s.Equal(2, s.up.inventoryCalls["acme"])
}

func (s *FetchTestSuite) TestTenantFilterIsAppliedAfterCaching() {
	ctx := context.Background()
	tree, summary, err := s.fc.Inventory(ctx, s.creds, false, "acme")
	s.NoError(err)
	s.Len(tree, 1)
	s.Contains(tree, "acme")
	s.Len(summary, 1)

	// The filtered read stored the full tree: an unfiltered read hits the
	// cache and still sees every tenant.
	full, _, err := s.fc.Inventory(ctx, s.creds, false, "")
	s.NoError(err)
	s.Len(full, 2)
	s.Equal(1, s.up.inventoryCalls["acme"])
	s.Equal(1, s.up.inventoryCalls["globex"])
}

func (s *FetchTestSuite) TestInventoryUnknownTenantFilterYieldsEmpty() {
	ctx := context.Background()
	tree, summary, err := s.fc.Inventory(ctx, s.creds, false, "no-such-tenant")
	s.NoError(err)
	s.Empty(tree)
	s.Empty(summary)
}

func (s *FetchTestSuite) TestInventoryFailingTenantAbortsAndIsNamed() {
	ctx := context.Background()
	s.up.failTenants["globex"] = errors.New("boom")

	_, _, err := s.fc.Inventory(ctx, s.creds, false, "")
	s.ErrorIs(err, types.ErrUpstreamFetch)
	s.Contains(err.Error(), "globex")

	// Nothing was cached; the next call goes upstream again.
	s.up.failTenants = map[string]error{}
	_, _, err = s.fc.Inventory(ctx, s.creds, false, "")
	s.NoError(err)
	s.Equal(2, s.up.inventoryCalls["acme"])
}

func (s *FetchTestSuite) TestInventoryWithoutCredentials() {
	ctx := context.Background()
	_, _, err := s.fc.Inventory(ctx, nil, false, "")
	s.ErrorIs(err, types.ErrMissingCredentials)
}
