package types

import "fmt"

const (
	// ScopeAllNamespaces marks a credential valid for every namespace of its tenant.
	ScopeAllNamespaces = "all"

	CapabilityRead  = "read"
	CapabilityWrite = "write"

	StateEnabled  = "enabled"
	StateDisabled = "disabled"

	SecretFormatClear     = "clear"
	SecretFormatEncrypted = "enc"
)

// Credential is one client-held API key for the upstream SaaS.
// The full set lives on the client as an opaque encoded blob; the server decodes
// it per request and never stores it. A credential is replaced as a unit when the
// client saves a new set, never mutated in place.
// Delegate names a managed-tenant view through which the tenant's resources are
// addressed; empty means no delegation.
type Credential struct {
	TenantID       string `json:"tenant_id"`
	NamespaceScope string `json:"namespace_scope"` // ScopeAllNamespaces or one namespace name
	Capability     string `json:"capability"`
	State          string `json:"state"`
	SecretFormat   string `json:"secret_format"`
	Secret         string `json:"secret"`
	Delegate       string `json:"delegate,omitempty"`
}

// ResolvedCredential is a credential selected for one operation, with the
// delegate identity surfaced for upstream addressing.
type ResolvedCredential struct {
	Credential
	Delegate string
}

func (c Credential) Enabled() bool {
	return c.State == StateEnabled
}

// MatchesNamespace reports whether the credential's scope covers ns.
// An empty ns means "tenant-level operation" and matches any scope.
func (c Credential) MatchesNamespace(ns string) bool {
	if ns == "" || c.NamespaceScope == ScopeAllNamespaces {
		return true
	}
	return c.NamespaceScope == ns
}

func (c Credential) Validate() error {
	if c.TenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if c.NamespaceScope == "" {
		return fmt.Errorf("namespace_scope is required (use %q for all namespaces)", ScopeAllNamespaces)
	}
	if c.Capability != CapabilityRead && c.Capability != CapabilityWrite {
		return fmt.Errorf("capability must be %q or %q", CapabilityRead, CapabilityWrite)
	}
	if c.State != StateEnabled && c.State != StateDisabled {
		return fmt.Errorf("state must be %q or %q", StateEnabled, StateDisabled)
	}
	if c.SecretFormat != SecretFormatClear && c.SecretFormat != SecretFormatEncrypted {
		return fmt.Errorf("secret_format must be %q or %q", SecretFormatClear, SecretFormatEncrypted)
	}
	if c.Secret == "" {
		return fmt.Errorf("secret is required")
	}
	return nil
}
