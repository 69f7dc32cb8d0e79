package api

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strconv"

	"xcdash/internal/backends"
	"xcdash/internal/creds"
	"xcdash/internal/fetch"
	"xcdash/internal/ports"
	"xcdash/internal/types"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CredentialHdrName carries the client-held credential blob. A cookie of the
// same name works too; the header wins when both are present.
const CredentialHdrName = "X-Xcdash-Credentials"

type Handler struct {
	Store    *creds.Store
	Cache    ports.Cache
	Upstream ports.Upstream
	TTLs     fetch.TTLSet
}

func NewHandler(store *creds.Store, cache ports.Cache, up ports.Upstream, ttls fetch.TTLSet) *Handler {
	return &Handler{
		Store:    store,
		Cache:    cache,
		Upstream: up,
		TTLs:     ttls,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/credentials", h.handleCredentials)
	mux.HandleFunc("/api/inventory", h.handleInventory)
	mux.HandleFunc("/api/stats", h.handleStats)
	mux.HandleFunc("/api/secevents", h.handleSecurityEvents)
	mux.HandleFunc("/api/latency", h.handleLatency)
	mux.HandleFunc("/api/users", h.handleTenantUsers)
	mux.HandleFunc("/api/nsdetails", h.handleNamespaceDetails)
	mux.HandleFunc("/api/tenantage", h.handleTenantAge)
	mux.HandleFunc("/api/config", h.handleConfig)
	mux.HandleFunc("/api/backup", h.handleBackup)
	mux.HandleFunc("/api/cache/clear", h.handleCacheClear)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// session decodes the request's credential blob and builds a fetch client
// whose cache is scoped to this blob. The scope key is a hash of the encoded
// blob: same credential set, same cache namespace; new save, fresh namespace.
func (h *Handler) session(r *http.Request) ([]types.Credential, *fetch.Client, error) {
	blob := r.Header.Get(CredentialHdrName)
	if blob == "" {
		if c, err := r.Cookie(CredentialHdrName); err == nil {
			blob = c.Value
		}
	}
	credList, err := h.Store.Load(blob)
	if err != nil {
		return nil, nil, err
	}
	scoped := backends.Scoped(h.Cache, scopeKey(blob)+"_")
	return credList, fetch.New(scoped, h.Upstream, h.TTLs), nil
}

// scopeKey generates a quick hash of the blob with fixed length.
func scopeKey(blob string) string {
	hs := fnv.New32a()
	// hash.Hash.Write never returns an error according to the interface contract
	_, _ = hs.Write([]byte(blob))
	return fmt.Sprintf("s%d", hs.Sum32())
}

func (h *Handler) handleCredentials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		failJSON(w, http.StatusBadRequest, "read error")
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()
	var req struct {
		Credentials []types.Credential `json:"credentials"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		failJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	blob, err := h.Store.Save(req.Credentials)
	if err != nil {
		writeError(w, err)
		return
	}
	okJSON(w, "blob", blob)
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	credList, fc, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	tree, summary, err := fc.Inventory(r.Context(), credList, force, r.URL.Query().Get("tenant"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"inventory": tree,
		"summary":   summary,
	}); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	credList, fc, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q := ports.StatsQuery{
		Tenant:      r.URL.Query().Get("tenant"),
		Namespace:   r.URL.Query().Get("namespace"),
		LBType:      r.URL.Query().Get("lbtype"),
		LBName:      r.URL.Query().Get("lbname"),
		SecondsBack: intParam(r, "secondsback", 3600),
	}
	stats, err := fc.Stats(r.Context(), credList, q)
	if err != nil {
		writeError(w, err)
		return
	}
	okJSON(w, "stats", stats)
}

func (h *Handler) handleSecurityEvents(w http.ResponseWriter, r *http.Request) {
	credList, fc, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	events, err := fc.SecurityEvents(r.Context(), credList, eventsQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	okJSON(w, "events", events)
}

func (h *Handler) handleLatency(w http.ResponseWriter, r *http.Request) {
	credList, fc, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	logs, err := fc.LatencyLogs(r.Context(), credList, eventsQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	okJSON(w, "latency", logs)
}

func (h *Handler) handleTenantUsers(w http.ResponseWriter, r *http.Request) {
	credList, fc, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	users, err := fc.TenantUsers(r.Context(), credList, r.URL.Query().Get("tenant"))
	if err != nil {
		writeError(w, err)
		return
	}
	okJSON(w, "users", users)
}

func (h *Handler) handleNamespaceDetails(w http.ResponseWriter, r *http.Request) {
	credList, fc, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	details, err := fc.NamespaceDetails(r.Context(), credList,
		r.URL.Query().Get("tenant"), r.URL.Query().Get("namespace"))
	if err != nil {
		writeError(w, err)
		return
	}
	okJSON(w, "details", details)
}

func (h *Handler) handleTenantAge(w http.ResponseWriter, r *http.Request) {
	credList, fc, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	settings, err := fc.TenantAge(r.Context(), credList, r.URL.Query().Get("tenant"))
	if err != nil {
		writeError(w, err)
		return
	}
	okJSON(w, "settings", settings)
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	credList, fc, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ref := ports.ObjectRef{
		Tenant:    r.URL.Query().Get("tenant"),
		Namespace: r.URL.Query().Get("namespace"),
		Kind:      r.URL.Query().Get("kind"),
		Name:      r.URL.Query().Get("name"),
	}
	switch r.Method {
	case http.MethodGet:
		obj, err := fc.GetConfig(r.Context(), credList, ref)
		if err != nil {
			writeError(w, err)
			return
		}
		okJSON(w, "config", obj)
	case http.MethodPut:
		body, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
		if err != nil {
			failJSON(w, http.StatusBadRequest, "read error")
			return
		}
		defer func() {
			_ = r.Body.Close()
		}()
		var obj types.LBConfig
		if err := json.Unmarshal(body, &obj); err != nil {
			failJSON(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := fc.PutConfig(r.Context(), credList, ref, obj); err != nil {
			writeError(w, err)
			return
		}
		okJSON(w, "config", ref.Kind+"/"+ref.Name)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	credList, fc, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	bundle, err := fc.Backup(r.Context(), credList,
		r.URL.Query().Get("tenant"), r.URL.Query().Get("namespace"))
	if err != nil {
		writeError(w, err)
		return
	}
	okJSON(w, "backup", bundle)
}

func (h *Handler) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_, fc, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := fc.ClearCache(r.Context(), r.URL.Query().Get("prefix")); err != nil {
		writeError(w, err)
		return
	}
	okJSON(w, "cleared", true)
}

func eventsQuery(r *http.Request) ports.EventsQuery {
	return ports.EventsQuery{
		Tenant:      r.URL.Query().Get("tenant"),
		Namespace:   r.URL.Query().Get("namespace"),
		SecondsBack: intParam(r, "secondsback", 600),
		Limit:       intParam(r, "limit", 100),
	}
}

func intParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// writeError maps core errors onto status codes and generic messages.
// Credential failures are deliberately vague; upstream failures keep the
// tenant context since the aggregator is required to name the failing tenant.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrMissingCredentials):
		failJSON(w, http.StatusUnauthorized, "no credentials supplied")
	case errors.Is(err, types.ErrDecryption):
		failJSON(w, http.StatusUnauthorized, "credentials could not be decoded")
	case errors.Is(err, types.ErrNoSuitableCredential):
		failJSON(w, http.StatusForbidden, "no suitable credential for this operation")
	case errors.Is(err, types.ErrInsufficientCapability):
		failJSON(w, http.StatusForbidden, "credential lacks the required capability")
	case errors.Is(err, types.ErrUpstreamFetch):
		failJSON(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, types.ErrInvalidConfig):
		failJSON(w, http.StatusBadRequest, "invalid request")
	default:
		failJSON(w, http.StatusInternalServerError, "internal error")
	}
}

func okJSON(w http.ResponseWriter, name string, v any) {
	if err := writeJSON(w, http.StatusOK, map[string]any{"success": true, name: v}); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

func failJSON(w http.ResponseWriter, code int, msg string) {
	_ = writeJSON(w, code, map[string]any{"success": false, "message": msg})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
