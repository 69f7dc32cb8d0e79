package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"xcdash/internal/ports"
	"xcdash/internal/types"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// Client talks to the SaaS API over HTTPS. URL shapes and field names live in
// this package only; everything is normalized before it leaves.
type Client struct {
	base string
	http *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
	}
}

// tenantPath prefixes a path with the managed-tenant view when the credential
// carries a delegate. The upstream routes delegated tenants through the
// delegate's namespace.
func (c *Client) tenantPath(rc types.ResolvedCredential, path string) string {
	if rc.Delegate != "" {
		return c.base + "/managed_tenant/" + url.PathEscape(rc.Delegate) + path
	}
	return c.base + path
}

func (c *Client) do(ctx context.Context, rc types.ResolvedCredential, method, fullURL string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "APIToken "+rc.Secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Body may carry an upstream error message; never the credential.
		log.WithFields(log.Fields{
			"status": resp.StatusCode,
			"url":    fullURL,
		}).Debug("upstream call failed")
		return fmt.Errorf("upstream returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(b, out)
}

func (c *Client) getJSON(ctx context.Context, rc types.ResolvedCredential, path string, out any) error {
	return c.do(ctx, rc, http.MethodGet, c.tenantPath(rc, path), nil, out)
}

// itemList is the upstream list envelope shared by most collection endpoints.
type itemList struct {
	Items []struct {
		Name    string         `json:"name"`
		GetSpec map[string]any `json:"get_spec"`
	} `json:"items"`
}

func (c *Client) TenantInventory(ctx context.Context, rc types.ResolvedCredential, tenant string) (types.TenantInventory, error) {
	namespaces, err := c.namespaces(ctx, rc)
	if err != nil {
		return nil, err
	}
	inv := make(types.TenantInventory, len(namespaces))
	for _, ns := range namespaces {
		httpLBs, err := c.loadBalancers(ctx, rc, ns, "http_loadbalancers")
		if err != nil {
			return nil, err
		}
		tcpLBs, err := c.loadBalancers(ctx, rc, ns, "tcp_loadbalancers")
		if err != nil {
			return nil, err
		}
		inv[ns] = types.NamespaceInventory{
			HTTPLoadBalancers: httpLBs,
			TCPLoadBalancers:  tcpLBs,
		}
	}
	return inv, nil
}

// namespaces enumerates the namespaces visible to the credential; a
// namespace-scoped credential sees exactly its own.
func (c *Client) namespaces(ctx context.Context, rc types.ResolvedCredential) ([]string, error) {
	if rc.NamespaceScope != types.ScopeAllNamespaces {
		return []string{rc.NamespaceScope}, nil
	}
	var list itemList
	if err := c.getJSON(ctx, rc, "/api/web/namespaces", &list); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		out = append(out, item.Name)
	}
	return out, nil
}

func (c *Client) loadBalancers(ctx context.Context, rc types.ResolvedCredential, namespace, kind string) (map[string]types.LBConfig, error) {
	var list itemList
	path := fmt.Sprintf("/api/config/namespaces/%s/%s?report_fields", url.PathEscape(namespace), kind)
	if err := c.getJSON(ctx, rc, path, &list); err != nil {
		return nil, err
	}
	out := make(map[string]types.LBConfig, len(list.Items))
	for _, item := range list.Items {
		out[item.Name] = types.LBConfig(item.GetSpec)
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context, rc types.ResolvedCredential, q ports.StatsQuery) (map[string]any, error) {
	path := fmt.Sprintf("/api/data/namespaces/%s/graph/service?lb_type=%s&lb_name=%s&secondsback=%d",
		url.PathEscape(q.Namespace), url.QueryEscape(q.LBType), url.QueryEscape(q.LBName), q.SecondsBack)
	var out map[string]any
	if err := c.getJSON(ctx, rc, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SecurityEvents(ctx context.Context, rc types.ResolvedCredential, q ports.EventsQuery) ([]map[string]any, error) {
	path := fmt.Sprintf("/api/data/namespaces/%s/app_security/events?secondsback=%d&limit=%d",
		url.PathEscape(q.Namespace), q.SecondsBack, q.Limit)
	return c.eventList(ctx, rc, path)
}

func (c *Client) LatencyLogs(ctx context.Context, rc types.ResolvedCredential, q ports.EventsQuery) ([]map[string]any, error) {
	path := fmt.Sprintf("/api/data/namespaces/%s/access_logs/latency?secondsback=%d&limit=%d",
		url.PathEscape(q.Namespace), q.SecondsBack, q.Limit)
	return c.eventList(ctx, rc, path)
}

func (c *Client) eventList(ctx context.Context, rc types.ResolvedCredential, path string) ([]map[string]any, error) {
	var wrapper struct {
		Events []map[string]any `json:"events"`
	}
	if err := c.getJSON(ctx, rc, path, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Events, nil
}

func (c *Client) TenantUsers(ctx context.Context, rc types.ResolvedCredential, tenant string) ([]map[string]any, error) {
	var wrapper struct {
		Items []map[string]any `json:"items"`
	}
	if err := c.getJSON(ctx, rc, "/api/web/custom/namespaces/system/user_roles", &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Items, nil
}

func (c *Client) NamespaceDetails(ctx context.Context, rc types.ResolvedCredential, tenant, namespace string) (map[string]any, error) {
	var out map[string]any
	if err := c.getJSON(ctx, rc, "/api/web/namespaces/"+url.PathEscape(namespace), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) TenantAge(ctx context.Context, rc types.ResolvedCredential, tenant string) (map[string]any, error) {
	var out map[string]any
	if err := c.getJSON(ctx, rc, "/api/web/namespaces/system/tenant/settings", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetConfigObject(ctx context.Context, rc types.ResolvedCredential, ref ports.ObjectRef) (types.LBConfig, error) {
	var out types.LBConfig
	path := fmt.Sprintf("/api/config/namespaces/%s/%s/%s",
		url.PathEscape(ref.Namespace), ref.Kind, url.PathEscape(ref.Name))
	if err := c.getJSON(ctx, rc, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PutConfigObject(ctx context.Context, rc types.ResolvedCredential, ref ports.ObjectRef, obj types.LBConfig) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/api/config/namespaces/%s/%s/%s",
		url.PathEscape(ref.Namespace), ref.Kind, url.PathEscape(ref.Name))
	return c.do(ctx, rc, http.MethodPut, c.tenantPath(rc, path), b, nil)
}
