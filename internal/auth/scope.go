package auth

import (
	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
)

// RequireScope gates a tool invocation on the identity's scopes. An
// empty required scope means the tool is open to any authenticated
// caller.
func RequireScope(id *Identity, scope string) error {
	if scope == "" {
		return nil
	}
	if id == nil || !id.HasScope(scope) {
		return apierr.New(apierr.KindAuthorization, "missing required scope %q", scope)
	}
	return nil
}
