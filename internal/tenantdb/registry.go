package tenantdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hms-service/pkg/config"
	"hms-service/prometheus"
)

// TenantInfo carries the tenant fields from the token claims that the
// registry needs to locate and describe a store.
type TenantInfo struct {
	ID          string
	Slug        string
	DatabaseURL string
}

// StoreConfig describes how to reach one tenant's database. Built either from
// the database_url claim in the token or from the default template with a
// tenant-specific database name.
type StoreConfig struct {
	TenantID string
	Name     string
	DSN      string
}

// OpenFunc opens a database connection for a tenant store
type OpenFunc func(cfg StoreConfig) (*gorm.DB, error)

// MigrateFunc applies the tenant schema to a freshly opened store. It must be
// idempotent: it also runs when an existing database is seen for the first
// time in this process.
type MigrateFunc func(db *gorm.DB) error

// Registry maps tenant ids to their store handles. A store is provisioned at
// most once per process; after registration the configuration is immutable.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
	locks  map[string]*sync.Mutex

	open        OpenFunc
	migrate     MigrateFunc
	onProvision func(info TenantInfo, cfg StoreConfig)
	dbCfg       *config.DBConfig
	cfg         *config.TenantConfig
	log         *zap.Logger
}

// NewRegistry creates a tenant store registry. open and migrate are injected
// so provisioning can be exercised without a live database.
func NewRegistry(dbCfg *config.DBConfig, cfg *config.TenantConfig, open OpenFunc, migrate MigrateFunc, log *zap.Logger) *Registry {
	return &Registry{
		stores:  make(map[string]*Store),
		locks:   make(map[string]*sync.Mutex),
		open:    open,
		migrate: migrate,
		dbCfg:   dbCfg,
		cfg:     cfg,
		log:     log,
	}
}

// OnProvision registers a callback invoked once per tenant, after a store is
// successfully provisioned and registered. Set it before the registry serves
// requests.
func (r *Registry) OnProvision(fn func(info TenantInfo, cfg StoreConfig)) {
	r.onProvision = fn
}

// Resolve returns the store for the tenant, provisioning it on first access.
// info.DatabaseURL is the optional connection descriptor from the token
// claims.
//
// Concurrent first access for the same tenant performs exactly one
// provisioning action; callers serialize on a per-tenant lock so unrelated
// tenants never wait on each other. A failed provisioning leaves no registry
// entry behind, so a later request can retry cleanly.
func (r *Registry) Resolve(ctx context.Context, info TenantInfo) (*Store, error) {
	tenantID := info.ID
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}

	r.mu.Lock()
	if store, ok := r.stores[tenantID]; ok {
		r.mu.Unlock()
		return store, nil
	}
	lock, ok := r.locks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[tenantID] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	// Another request may have finished provisioning while we waited.
	r.mu.Lock()
	if store, ok := r.stores[tenantID]; ok {
		r.mu.Unlock()
		return store, nil
	}
	r.mu.Unlock()

	cfg := r.buildConfig(tenantID, info.DatabaseURL)

	provisionCtx := ctx
	if r.cfg.ProvisionTimeout > 0 {
		var cancel context.CancelFunc
		provisionCtx, cancel = context.WithTimeout(ctx, r.cfg.ProvisionTimeout)
		defer cancel()
	}

	start := time.Now()
	store, err := r.provision(provisionCtx, cfg)
	if err != nil {
		prometheus.RecordTenantProvision("failure", time.Since(start))
		r.log.Error("tenant store provisioning failed",
			zap.String("tenant_id", tenantID),
			zap.String("store", cfg.Name),
			zap.Error(err))
		return nil, fmt.Errorf("provisioning store for tenant %s: %w", tenantID, err)
	}

	r.mu.Lock()
	r.stores[tenantID] = store
	r.mu.Unlock()

	prometheus.RecordTenantProvision("success", time.Since(start))
	r.log.Info("tenant store registered",
		zap.String("tenant_id", tenantID),
		zap.String("store", cfg.Name))

	if r.onProvision != nil {
		r.onProvision(info, cfg)
	}
	return store, nil
}

// Lookup returns the registered store for a tenant without provisioning
func (r *Registry) Lookup(tenantID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[tenantID]
	return store, ok
}

// StoreNames returns the names of all registered tenant stores
func (r *Registry) StoreNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.stores))
	for _, s := range r.stores {
		names = append(names, s.Name)
	}
	return names
}

func (r *Registry) buildConfig(tenantID, databaseURL string) StoreConfig {
	name := r.cfg.DBNamePrefix + tenantID
	dsn := databaseURL
	if dsn == "" {
		// Default template with a tenant-specific database name.
		dsn = r.dbCfg.DSNForDatabase(name)
	}
	return StoreConfig{TenantID: tenantID, Name: name, DSN: dsn}
}

// provision opens the connection and applies the schema, retrying transient
// failures a bounded number of times with backoff.
func (r *Registry) provision(ctx context.Context, cfg StoreConfig) (*Store, error) {
	attempts := r.cfg.ProvisionRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		db, err := r.open(cfg)
		if err == nil {
			if err := r.migrate(db); err != nil {
				return nil, err
			}
			return &Store{Name: cfg.Name, DB: db}, nil
		}
		lastErr = err

		if attempt < attempts {
			r.log.Warn("tenant store open failed, retrying",
				zap.String("tenant_id", cfg.TenantID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.cfg.ProvisionBackoff * time.Duration(attempt)):
			}
		}
	}
	return nil, lastErr
}
