package tenantdb

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Ownership partitions entities between the two physical store classes.
// The partition is fixed at design time: identity-independent metadata is
// Shared, every clinical/financial record is TenantScoped.
type Ownership int

const (
	// Shared entities live in the single shared store regardless of tenant.
	Shared Ownership = iota
	// TenantScoped entities live in the store of the request's tenant.
	TenantScoped
)

// ErrNoTenantContext is returned when a tenant-scoped resolution is attempted
// outside an authenticated request.
var ErrNoTenantContext = errors.New("no tenant context bound to request")

// Store is an opaque handle to one physical database
type Store struct {
	// Name identifies the store, e.g. "shared" or "tenant_<id>".
	Name string
	DB   *gorm.DB
}

// Context binds one request to its resolved tenant and store. It is created
// by the authentication gate, carried in the request context, and discarded
// with the request. It must never be cached across requests: workers are
// reused across tenants.
type Context struct {
	TenantID   string
	TenantSlug string
	Store      *Store
}

type ctxKey int

const tenantCtxKey ctxKey = iota

// WithContext binds the tenant context into a request context
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, tenantCtxKey, tc)
}

// FromContext retrieves the tenant context bound to the request, or nil
func FromContext(ctx context.Context) *Context {
	tc, _ := ctx.Value(tenantCtxKey).(*Context)
	return tc
}

// Router resolves which physical store an operation must target
type Router struct {
	shared *Store
}

// NewRouter creates a router with the given shared store
func NewRouter(shared *Store) *Router {
	return &Router{shared: shared}
}

// ResolveStore returns the store handle for the entity class. Shared entities
// always resolve to the shared store. Tenant-scoped entities resolve to the
// store bound to the request's tenant context; there is no path to another
// tenant's store from here, which is what enforces isolation.
func (r *Router) ResolveStore(class Ownership, tc *Context) (*Store, error) {
	if class == Shared {
		return r.shared, nil
	}
	if tc == nil || tc.Store == nil {
		return nil, ErrNoTenantContext
	}
	return tc.Store, nil
}

// SharedStore returns the shared store handle
func (r *Router) SharedStore() *Store {
	return r.shared
}
