package authz

import "hms-service/pkg/jwtutil"

// Identity is the authenticated principal for one request, derived from a
// validated SuperAdmin token. It is a plain immutable value: it is never
// persisted and is discarded with the request.
type Identity struct {
	UserID         string
	Email          string
	TenantID       string
	TenantSlug     string
	IsSuperAdmin   bool
	Permissions    map[string]interface{}
	EnabledModules []string
}

// IdentityFromClaims builds an Identity from validated token claims
func IdentityFromClaims(claims *jwtutil.Claims) *Identity {
	return &Identity{
		UserID:         claims.UserID,
		Email:          claims.Email,
		TenantID:       claims.TenantID,
		TenantSlug:     claims.TenantSlug,
		IsSuperAdmin:   claims.IsSuperAdmin,
		Permissions:    claims.Permissions,
		EnabledModules: claims.EnabledModules,
	}
}

// IsAuthenticated always reports true: an Identity only exists after the
// token validated.
func (i *Identity) IsAuthenticated() bool {
	return true
}

// HasPermission reports whether the capability key is granted at all,
// regardless of scope. Superadmins are always granted.
func (i *Identity) HasPermission(key string) bool {
	return Evaluate(i, key, "")
}

// HasModulePerm reports whether the given module is enabled for the identity
func (i *Identity) HasModulePerm(module string) bool {
	if i.IsSuperAdmin {
		return true
	}
	for _, m := range i.EnabledModules {
		if m == module {
			return true
		}
	}
	return false
}
