package authz

import "gorm.io/gorm"

// Scope is the breadth of records a granted view capability covers
type Scope string

const (
	ScopeAll  Scope = "all"
	ScopeTeam Scope = "team"
	ScopeOwn  Scope = "own"
	ScopeNone Scope = "none"
)

// ScopeFor returns the visibility scope for a capability key. Absent keys and
// unrecognized values resolve to ScopeNone (default deny). Boolean true maps
// to ScopeAll so action capabilities can be queried uniformly.
func ScopeFor(ident *Identity, key string) Scope {
	if ident.IsSuperAdmin {
		return ScopeAll
	}

	value, ok := ident.Permissions[key]
	if !ok {
		return ScopeNone
	}

	switch v := value.(type) {
	case bool:
		if v {
			return ScopeAll
		}
		return ScopeNone
	case string:
		switch Scope(v) {
		case ScopeAll, ScopeTeam, ScopeOwn, ScopeNone:
			return Scope(v)
		}
	}
	return ScopeNone
}

// Evaluate decides whether the identity may act under the capability key.
// ownerID is the owner of the specific resource being checked; pass "" for
// collection-level checks, where own/team scope is granted and the actual
// restriction is applied at query time via Filter.
func Evaluate(ident *Identity, key string, ownerID string) bool {
	// Superadmin bypass: the single documented exception to default deny.
	if ident.IsSuperAdmin {
		return true
	}

	switch ScopeFor(ident, key) {
	case ScopeAll:
		return true
	case ScopeTeam, ScopeOwn:
		// Team scope is treated as own: team-graph resolution is a known
		// gap, and granting broader access than own would be wrong.
		if ownerID == "" {
			return true
		}
		return ownerID == ident.UserID
	default:
		return false
	}
}

// Filter carries a query-time scope decision for list/retrieve operations
type Filter struct {
	// All grants unrestricted visibility within the tenant store.
	All bool
	// OwnerID restricts visibility to records owned by this user.
	OwnerID string
	// Deny yields an empty result set.
	Deny bool
}

// ListFilterFor computes the query-time filter for a view capability
func ListFilterFor(ident *Identity, key string) Filter {
	switch ScopeFor(ident, key) {
	case ScopeAll:
		return Filter{All: true}
	case ScopeTeam, ScopeOwn:
		return Filter{OwnerID: ident.UserID}
	default:
		return Filter{Deny: true}
	}
}

// Allows reports whether a record with the given owner is visible under the
// filter. Used for object-level checks and by in-memory stores in tests.
func (f Filter) Allows(ownerID string) bool {
	if f.Deny {
		return false
	}
	if f.All {
		return true
	}
	return ownerID == f.OwnerID
}

// Apply narrows a query to the records visible under the filter. ownerColumn
// is the column holding the creator's user id.
func (f Filter) Apply(db *gorm.DB, ownerColumn string) *gorm.DB {
	if f.Deny {
		// Matches nothing; keeps list responses as empty sets, not errors.
		return db.Where("1 = 0")
	}
	if f.All {
		return db
	}
	return db.Where(ownerColumn+" = ?", f.OwnerID)
}
