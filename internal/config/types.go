package config

import (
	"fmt"
	"strings"
	"time"
)

// Transport identifies the MCP transport the server listens on.
type Transport string

const (
	TransportStdio          Transport = "stdio"
	TransportSSE            Transport = "sse"
	TransportStreamableHTTP Transport = "streamable-http"
)

// AuthMode selects the bearer token verification strategy.
type AuthMode string

const (
	// AuthModeMock accepts a fixed allow-list of sentinel tokens and
	// grants the full scope set. Development and testing only.
	AuthModeMock AuthMode = "mock"

	// AuthModeIdentityProvider verifies JWT signatures against the
	// identity provider's published JWKS.
	AuthModeIdentityProvider AuthMode = "identity-provider"
)

// Config is the process-wide configuration, loaded once at startup and
// immutable thereafter.
type Config struct {
	ServiceNow ServiceNowConfig `yaml:"servicenow"`
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
}

// ServiceNowConfig describes the upstream ServiceNow instance and the
// OAuth2 client credentials used against it.
type ServiceNowConfig struct {
	// BaseURL is the instance base URL, e.g. https://acme.service-now.com.
	BaseURL string `yaml:"baseUrl"`

	// ClientID and ClientSecret are the OAuth2 client-credentials pair.
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`

	// TokenEndpoint overrides the token exchange path. Defaults to
	// /oauth_token.do relative to BaseURL.
	TokenEndpoint string `yaml:"tokenEndpoint"`

	// APINamespace and APIVersion form the resource path prefix
	// /api/<namespace>/<version>.
	APINamespace string `yaml:"apiNamespace"`
	APIVersion   string `yaml:"apiVersion"`

	// Timeout bounds each outbound HTTP attempt.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the total number of attempts for retriable
	// upstream failures.
	MaxRetries int `yaml:"maxRetries"`

	// VerifySSL disables TLS certificate verification when false.
	// Only meaningful against test instances.
	VerifySSL bool `yaml:"verifySsl"`
}

// APIBasePath returns the resource path prefix for ITSM endpoints.
func (c ServiceNowConfig) APIBasePath() string {
	return fmt.Sprintf("%s/api/%s/%s", strings.TrimSuffix(c.BaseURL, "/"), c.APINamespace, c.APIVersion)
}

// TokenURL returns the full OAuth2 token endpoint URL.
func (c ServiceNowConfig) TokenURL() string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	if c.TokenEndpoint != "" {
		return base + c.TokenEndpoint
	}
	return base + "/oauth_token.do"
}

// ServerConfig describes the MCP server surface.
type ServerConfig struct {
	Name      string    `yaml:"name"`
	Host      string    `yaml:"host"`
	Port      int       `yaml:"port"`
	Transport Transport `yaml:"transport"`
	LogLevel  string    `yaml:"logLevel"`
}

// AuthConfig describes inbound bearer token verification.
type AuthConfig struct {
	// Enabled gates the whole verification pipeline. When false every
	// request runs with a synthesized development identity carrying
	// all scopes.
	Enabled bool `yaml:"enabled"`

	Mode AuthMode `yaml:"mode"`

	// JWKSURI is the identity provider's key set endpoint
	// (identity-provider mode only).
	JWKSURI string `yaml:"jwksUri"`

	// APIIdentifier is the expected audience claim.
	APIIdentifier string `yaml:"apiIdentifier"`

	// MockTokens is the fixed allow-list for mock mode, compared
	// case-insensitively.
	MockTokens []string `yaml:"mockTokens"`

	Scopes ScopeConfig `yaml:"scopes"`
}

// ScopeConfig names the per-resource-category scopes gating tools.
type ScopeConfig struct {
	IncidentRead       string `yaml:"incidentRead"`
	IncidentWrite      string `yaml:"incidentWrite"`
	ChangeRequestRead  string `yaml:"changeRequestRead"`
	ChangeRequestWrite string `yaml:"changeRequestWrite"`
	IncidentTaskRead   string `yaml:"incidentTaskRead"`
	IncidentTaskWrite  string `yaml:"incidentTaskWrite"`
}

// All returns every configured scope. Used for the mock verifier's
// full grant and the development identity.
func (s ScopeConfig) All() []string {
	return []string{
		s.IncidentRead,
		s.IncidentWrite,
		s.ChangeRequestRead,
		s.ChangeRequestWrite,
		s.IncidentTaskRead,
		s.IncidentTaskWrite,
	}
}

// Validate checks the configuration for startup-fatal problems.
func (c *Config) Validate() error {
	if c.ServiceNow.BaseURL == "" {
		return fmt.Errorf("servicenow base URL is required (SERVICENOW_BASE_URL)")
	}
	if !strings.HasPrefix(c.ServiceNow.BaseURL, "http://") && !strings.HasPrefix(c.ServiceNow.BaseURL, "https://") {
		return fmt.Errorf("servicenow base URL must start with http:// or https://, got %q", c.ServiceNow.BaseURL)
	}
	if c.ServiceNow.ClientID == "" {
		return fmt.Errorf("servicenow OAuth client id is required (SERVICENOW_CLIENT_ID)")
	}
	if c.ServiceNow.ClientSecret == "" {
		return fmt.Errorf("servicenow OAuth client secret is required (SERVICENOW_CLIENT_SECRET)")
	}
	if c.ServiceNow.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1, got %d", c.ServiceNow.MaxRetries)
	}
	if c.ServiceNow.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.ServiceNow.Timeout)
	}

	switch c.Server.Transport {
	case TransportStdio, TransportSSE, TransportStreamableHTTP:
	default:
		return fmt.Errorf("unknown transport %q (expected stdio, sse, or streamable-http)", c.Server.Transport)
	}

	if c.Auth.Enabled {
		switch c.Auth.Mode {
		case AuthModeMock:
			if len(c.Auth.MockTokens) == 0 {
				return fmt.Errorf("mock auth mode requires a non-empty token allow-list")
			}
		case AuthModeIdentityProvider:
			if c.Auth.JWKSURI == "" {
				return fmt.Errorf("identity-provider auth mode requires a JWKS URI (MCP_AUTH_IDENTITY_JWKS_URI)")
			}
			if c.Auth.APIIdentifier == "" {
				return fmt.Errorf("identity-provider auth mode requires an API identifier (MCP_AUTH_API_IDENTIFIER)")
			}
		default:
			return fmt.Errorf("unknown auth mode %q (expected mock or identity-provider)", c.Auth.Mode)
		}
	}

	return nil
}
