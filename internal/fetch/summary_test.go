package fetch

import (
	"xcdash/internal/types"
)

func (s *FetchTestSuite) TestSummarizeCountsBooleanFeatures() {
	tree := types.InventoryTree{
		"acme": {
			"ns1": types.NamespaceInventory{
				HTTPLoadBalancers: map[string]types.LBConfig{
					"lb-a": {"waf": true, "bot_defense": true},
					"lb-b": {"waf": false},
				},
				TCPLoadBalancers: map[string]types.LBConfig{},
			},
		},
	}
	summary := Summarize(tree)

	acme := summary["acme"]
	s.Equal(2, acme.HTTPLoadBalancers["total"])
	s.Equal(1, acme.HTTPLoadBalancers["waf"])
	s.Equal(1, acme.HTTPLoadBalancers["bot_defense"])
	s.Equal(0, acme.HTTPLoadBalancers["api_protection"])
	s.Equal(0, acme.TCPLoadBalancers["total"])
}

func (s *FetchTestSuite) TestSummarizeAggregatesAcrossNamespaces() {
	tree := types.InventoryTree{
		"acme": {
			"ns1": types.NamespaceInventory{
				HTTPLoadBalancers: map[string]types.LBConfig{"a": {"waf": true}},
			},
			"ns2": types.NamespaceInventory{
				HTTPLoadBalancers: map[string]types.LBConfig{"b": {"waf": true}},
			},
		},
	}
	summary := Summarize(tree)
	s.Equal(2, summary["acme"].HTTPLoadBalancers["total"])
	s.Equal(2, summary["acme"].HTTPLoadBalancers["waf"])
}

func (s *FetchTestSuite) TestSummarizeIgnoresNonBooleanFlags() {
	tree := types.InventoryTree{
		"acme": {
			"ns1": types.NamespaceInventory{
				HTTPLoadBalancers: map[string]types.LBConfig{
					"a": {"waf": "enabled", "bot_defense": 1},
				},
			},
		},
	}
	summary := Summarize(tree)
	s.Equal(1, summary["acme"].HTTPLoadBalancers["total"])
	s.Equal(0, summary["acme"].HTTPLoadBalancers["waf"])
	s.Equal(0, summary["acme"].HTTPLoadBalancers["bot_defense"])
}

func (s *FetchTestSuite) TestSummarizeEmptyTree() {
	s.Empty(Summarize(types.InventoryTree{}))
}
