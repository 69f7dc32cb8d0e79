package types

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

const (
	DefaultListenPort      = 8090
	DefaultUpstreamTimeout = 30 // seconds
)

// AppConfig is the server configuration, loaded from an optional YAML file.
// Environment variables handled in main and backends override nothing here;
// the file is the single source for these knobs.
type AppConfig struct {
	ListenPort             int        `yaml:"listen_port"`
	UpstreamBaseURL        string     `yaml:"upstream_base_url"`
	UpstreamTimeoutSeconds int        `yaml:"upstream_timeout_seconds"`
	TTL                    TTLSeconds `yaml:"ttl"`
}

// TTLSeconds overrides the per-resource cache freshness windows. Zero means
// "use the built-in default" for that resource class.
type TTLSeconds struct {
	Inventory        int `yaml:"inventory_seconds"`
	Stats            int `yaml:"stats_seconds"`
	TenantAge        int `yaml:"tenant_age_seconds"`
	SecurityEvents   int `yaml:"security_events_seconds"`
	NamespaceDetails int `yaml:"namespace_details_seconds"`
	TenantUsers      int `yaml:"tenant_users_seconds"`
	Latency          int `yaml:"latency_seconds"`
}

// LoadAppConfig reads path if it exists and fills defaults. A missing file is
// not an error; a malformed one is.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := AppConfig{
		ListenPort:             DefaultListenPort,
		UpstreamTimeoutSeconds: DefaultUpstreamTimeout,
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, Err(ErrInvalidConfig, err, "read %s", path)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, Err(ErrInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, Err(ErrInvalidConfig, err, "")
	}
	return cfg, nil
}

func (c AppConfig) Validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("listen_port out of range: %d", c.ListenPort)
	}
	if c.UpstreamTimeoutSeconds <= 0 {
		return fmt.Errorf("upstream_timeout_seconds must be positive")
	}
	ttls := []struct {
		name string
		v    int
	}{
		{"inventory_seconds", c.TTL.Inventory},
		{"stats_seconds", c.TTL.Stats},
		{"tenant_age_seconds", c.TTL.TenantAge},
		{"security_events_seconds", c.TTL.SecurityEvents},
		{"namespace_details_seconds", c.TTL.NamespaceDetails},
		{"tenant_users_seconds", c.TTL.TenantUsers},
		{"latency_seconds", c.TTL.Latency},
	}
	for _, t := range ttls {
		if t.v < 0 {
			return fmt.Errorf("ttl.%s must be non-negative", t.name)
		}
	}
	return nil
}
