package fetch

import (
	"context"

	"xcdash/internal/ports"
	"xcdash/internal/types"
)

func (s *FetchTestSuite) statsQuery(secondsBack int) ports.StatsQuery {
	return ports.StatsQuery{
		Tenant:      "acme",
		Namespace:   "ns1",
		LBType:      "http_loadbalancers",
		LBName:      "web-lb",
		SecondsBack: secondsBack,
	}
}

func (s *FetchTestSuite) TestStatsCachedByFullParameterTuple() {
	ctx := context.Background()
	_, err := s.fc.Stats(ctx, s.creds, s.statsQuery(3600))
	s.NoError(err)
	_, err = s.fc.Stats(ctx, s.creds, s.statsQuery(3600))
	s.NoError(err)
	s.Equal(1, s.up.statsCalls)

	// A different time window is a different cache identity.
	_, err = s.fc.Stats(ctx, s.creds, s.statsQuery(300))
	s.NoError(err)
	s.Equal(2, s.up.statsCalls)
}

func (s *FetchTestSuite) TestStatsWithoutMatchingCredential() {
	ctx := context.Background()
	q := s.statsQuery(3600)
	q.Tenant = "initech"
	_, err := s.fc.Stats(ctx, s.creds, q)
	s.ErrorIs(err, types.ErrNoSuitableCredential)
	s.Equal(0, s.up.statsCalls)
}

func (s *FetchTestSuite) TestCorruptCacheEntryIsPurgedAndRefetched() {
	ctx := context.Background()
	q := s.statsQuery(3600)
	_, err := s.fc.Stats(ctx, s.creds, q)
	s.NoError(err)

	// Overwrite the stored entry with bytes that do not decode.
	s.NoError(s.cache.Set(ctx, statsKey(q), []byte("{{{not json")))

	out, err := s.fc.Stats(ctx, s.creds, q)
	s.NoError(err)
	s.Equal(float64(3600), out["requests"])
	s.Equal(2, s.up.statsCalls)
}

func (s *FetchTestSuite) TestSecurityEventsCached() {
	ctx := context.Background()
	q := ports.EventsQuery{Tenant: "acme", Namespace: "ns1", SecondsBack: 600, Limit: 100}
	events, err := s.fc.SecurityEvents(ctx, s.creds, q)
	s.NoError(err)
	s.Len(events, 1)
	_, err = s.fc.SecurityEvents(ctx, s.creds, q)
	s.NoError(err)
	s.Equal(1, s.up.eventsCalls)
}

func (s *FetchTestSuite) TestTenantUsersCachedPerTenant() {
	ctx := context.Background()
	_, err := s.fc.TenantUsers(ctx, s.creds, "acme")
	s.NoError(err)
	_, err = s.fc.TenantUsers(ctx, s.creds, "acme")
	s.NoError(err)
	s.Equal(1, s.up.usersCalls)

	_, err = s.fc.TenantUsers(ctx, s.creds, "globex")
	s.NoError(err)
	s.Equal(2, s.up.usersCalls)
}

func (s *FetchTestSuite) TestRemainingFetchersCacheIndependently() {
	ctx := context.Background()
	q := ports.EventsQuery{Tenant: "acme", Namespace: "ns1", SecondsBack: 600, Limit: 50}

	_, err := s.fc.LatencyLogs(ctx, s.creds, q)
	s.NoError(err)
	_, err = s.fc.LatencyLogs(ctx, s.creds, q)
	s.NoError(err)
	s.Equal(1, s.up.latencyCalls)

	_, err = s.fc.NamespaceDetails(ctx, s.creds, "acme", "ns1")
	s.NoError(err)
	_, err = s.fc.NamespaceDetails(ctx, s.creds, "acme", "ns1")
	s.NoError(err)
	s.Equal(1, s.up.detailsCalls)

	_, err = s.fc.TenantAge(ctx, s.creds, "acme")
	s.NoError(err)
	_, err = s.fc.TenantAge(ctx, s.creds, "acme")
	s.NoError(err)
	s.Equal(1, s.up.ageCalls)
}

func (s *FetchTestSuite) TestPutConfigRequiresWriteCapability() {
	ctx := context.Background()
	ref := ports.ObjectRef{Tenant: "globex", Namespace: "prod", Kind: "tcp_loadbalancers", Name: "db-lb"}
	// globex only has a read credential.
	err := s.fc.PutConfig(ctx, s.creds, ref, types.LBConfig{"waf": true})
	s.ErrorIs(err, types.ErrInsufficientCapability)
	s.Equal(0, s.up.putCalls)
}

func (s *FetchTestSuite) TestPutConfigWithNoCredentialAtAll() {
	ctx := context.Background()
	ref := ports.ObjectRef{Tenant: "initech", Namespace: "prod", Kind: "http_loadbalancers", Name: "x"}
	err := s.fc.PutConfig(ctx, s.creds, ref, types.LBConfig{})
	s.ErrorIs(err, types.ErrNoSuitableCredential)
	s.NotErrorIs(err, types.ErrInsufficientCapability)
}

func (s *FetchTestSuite) TestPutConfigWritesThroughAndDropsCachedCopy() {
	ctx := context.Background()
	ref := ports.ObjectRef{Tenant: "acme", Namespace: "ns1", Kind: "http_loadbalancers", Name: "web-lb"}

	// Prime the cached object, then overwrite it upstream.
	_, err := s.fc.GetConfig(ctx, s.creds, ref)
	s.NoError(err)
	s.Equal(1, s.up.getCalls)

	err = s.fc.PutConfig(ctx, s.creds, ref, types.LBConfig{"waf": true})
	s.NoError(err)
	s.Equal(1, s.up.putCalls)
	s.Equal(types.LBConfig{"waf": true}, s.up.lastPut)

	// The stale cached copy is gone: the next read goes upstream.
	_, err = s.fc.GetConfig(ctx, s.creds, ref)
	s.NoError(err)
	s.Equal(2, s.up.getCalls)
}

func (s *FetchTestSuite) TestBackupIsNeverCached() {
	ctx := context.Background()
	bundle, err := s.fc.Backup(ctx, s.creds, "acme", "ns1")
	s.NoError(err)
	s.Len(bundle, 2)
	s.Contains(bundle, "http_loadbalancers/web-lb")

	_, err = s.fc.Backup(ctx, s.creds, "acme", "ns1")
	s.NoError(err)
	s.Equal(2, s.up.inventoryCalls["acme"])
}

func (s *FetchTestSuite) TestClearCachePrefix() {
	ctx := context.Background()
	_, err := s.fc.Stats(ctx, s.creds, s.statsQuery(3600))
	s.NoError(err)
	_, _, err = s.fc.Inventory(ctx, s.creds, false, "")
	s.NoError(err)

	s.NoError(s.fc.ClearCache(ctx, keyStatsPrefix))

	// Stats refetches, inventory still cached.
	_, err = s.fc.Stats(ctx, s.creds, s.statsQuery(3600))
	s.NoError(err)
	s.Equal(2, s.up.statsCalls)
	_, _, err = s.fc.Inventory(ctx, s.creds, false, "")
	s.NoError(err)
	s.Equal(1, s.up.inventoryCalls["acme"])
}
