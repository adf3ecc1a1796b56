package config

import "time"

// Default returns the built-in configuration. Values mirror what a
// stock ServiceNow ITSM integration expects; everything can be
// overridden by the optional config file and the environment.
func Default() *Config {
	return &Config{
		ServiceNow: ServiceNowConfig{
			APINamespace: "x_dusal_cmspapi",
			APIVersion:   "v1",
			Timeout:      30 * time.Second,
			MaxRetries:   3,
			VerifySSL:    true,
		},
		Server: ServerConfig{
			Name:      "servicenow-mcp",
			Host:      "0.0.0.0",
			Port:      8000,
			Transport: TransportStdio,
			LogLevel:  "INFO",
		},
		Auth: AuthConfig{
			Enabled:       false,
			Mode:          AuthModeMock,
			APIIdentifier: "ServiceNowMCPServerAPI",
			MockTokens:    DefaultMockTokens(),
			Scopes: ScopeConfig{
				IncidentRead:       "servicenow.incident.read",
				IncidentWrite:      "servicenow.incident.write",
				ChangeRequestRead:  "servicenow.changerequest.read",
				ChangeRequestWrite: "servicenow.changerequest.write",
				IncidentTaskRead:   "servicenow.incidenttask.read",
				IncidentTaskWrite:  "servicenow.incidenttask.write",
			},
		},
	}
}

// DefaultMockTokens is the fixed sentinel allow-list for mock auth
// mode. Matching is case-insensitive, so each value is listed once in
// its canonical lowercase form.
func DefaultMockTokens() []string {
	return []string{
		"valid_auth_token",
		"mock_token",
		"valid_read_scope_token",
		"valid_write_scope_token",
		"test_token",
		"valid_token",
		"bearer_token",
		"servicenow_token",
	}
}
