package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load builds the effective configuration: built-in defaults, then the
// optional YAML file at path (skipped when path is empty), then
// environment variables. The result is validated before being returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
// Variable names follow the SERVICENOW_ / MCP_ / MCP_AUTH_ prefixes.
func applyEnv(cfg *Config) {
	envString("SERVICENOW_BASE_URL", &cfg.ServiceNow.BaseURL)
	envString("SERVICENOW_CLIENT_ID", &cfg.ServiceNow.ClientID)
	envString("SERVICENOW_CLIENT_SECRET", &cfg.ServiceNow.ClientSecret)
	envString("SERVICENOW_TOKEN_ENDPOINT", &cfg.ServiceNow.TokenEndpoint)
	envString("SERVICENOW_API_NAMESPACE", &cfg.ServiceNow.APINamespace)
	envString("SERVICENOW_API_VERSION", &cfg.ServiceNow.APIVersion)
	envDuration("SERVICENOW_TIMEOUT", &cfg.ServiceNow.Timeout)
	envInt("SERVICENOW_MAX_RETRIES", &cfg.ServiceNow.MaxRetries)
	envBool("SERVICENOW_VERIFY_SSL", &cfg.ServiceNow.VerifySSL)

	envString("MCP_SERVER_NAME", &cfg.Server.Name)
	envString("MCP_HOST", &cfg.Server.Host)
	envInt("MCP_PORT", &cfg.Server.Port)
	if v := os.Getenv("MCP_TRANSPORT"); v != "" {
		cfg.Server.Transport = Transport(strings.ToLower(v))
	}
	envString("MCP_LOG_LEVEL", &cfg.Server.LogLevel)

	envBool("MCP_AUTH_ENABLE_AUTH", &cfg.Auth.Enabled)
	if v := os.Getenv("MCP_AUTH_AUTH_MODE"); v != "" {
		cfg.Auth.Mode = AuthMode(strings.ToLower(v))
	}
	envString("MCP_AUTH_IDENTITY_JWKS_URI", &cfg.Auth.JWKSURI)
	envString("MCP_AUTH_API_IDENTIFIER", &cfg.Auth.APIIdentifier)
	envList("MCP_AUTH_MOCK_TOKENS", &cfg.Auth.MockTokens)

	envString("MCP_AUTH_INCIDENT_READ_SCOPE", &cfg.Auth.Scopes.IncidentRead)
	envString("MCP_AUTH_INCIDENT_WRITE_SCOPE", &cfg.Auth.Scopes.IncidentWrite)
	envString("MCP_AUTH_CHANGE_REQUEST_READ_SCOPE", &cfg.Auth.Scopes.ChangeRequestRead)
	envString("MCP_AUTH_CHANGE_REQUEST_WRITE_SCOPE", &cfg.Auth.Scopes.ChangeRequestWrite)
	envString("MCP_AUTH_INCIDENT_TASK_READ_SCOPE", &cfg.Auth.Scopes.IncidentTaskRead)
	envString("MCP_AUTH_INCIDENT_TASK_WRITE_SCOPE", &cfg.Auth.Scopes.IncidentTaskWrite)
}

func envString(name string, target *string) {
	if v := os.Getenv(name); v != "" {
		*target = v
	}
}

func envInt(name string, target *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func envBool(name string, target *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

// envDuration accepts either a Go duration string ("30s") or a bare
// number of seconds ("30"), matching the original integer-seconds
// environment convention.
func envDuration(name string, target *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*target = d
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*target = time.Duration(n) * time.Second
	}
}

func envList(name string, target *[]string) {
	if v := os.Getenv(name); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			*target = out
		}
	}
}
