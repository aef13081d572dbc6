package tenantdb

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hms-service/pkg/config"
)

func testTenantConfig() *config.TenantConfig {
	return &config.TenantConfig{
		DBNamePrefix:     "tenant_",
		ProvisionTimeout: 5 * time.Second,
		ProvisionRetries: 1,
		ProvisionBackoff: time.Millisecond,
	}
}

func testDBConfig() *config.DBConfig {
	return &config.DBConfig{
		Host:    "localhost",
		Port:    "5432",
		User:    "app",
		DBName:  "hms_shared",
		SSLMode: "disable",
	}
}

func noopMigrate(*gorm.DB) error { return nil }

func TestResolveProvisionsOnce(t *testing.T) {
	var opens int32
	open := func(cfg StoreConfig) (*gorm.DB, error) {
		atomic.AddInt32(&opens, 1)
		return &gorm.DB{}, nil
	}
	r := NewRegistry(testDBConfig(), testTenantConfig(), open, noopMigrate, zap.NewNop())

	first, err := r.Resolve(context.Background(), TenantInfo{ID: "tenant-a"})
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), TenantInfo{ID: "tenant-a"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&opens))
	assert.Equal(t, "tenant_tenant-a", first.Name)
}

func TestResolveConcurrentFirstAccess(t *testing.T) {
	var opens int32
	open := func(cfg StoreConfig) (*gorm.DB, error) {
		atomic.AddInt32(&opens, 1)
		time.Sleep(10 * time.Millisecond)
		return &gorm.DB{}, nil
	}
	r := NewRegistry(testDBConfig(), testTenantConfig(), open, noopMigrate, zap.NewNop())

	const callers = 16
	stores := make([]*Store, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store, err := r.Resolve(context.Background(), TenantInfo{ID: "tenant-a"})
			assert.NoError(t, err)
			stores[i] = store
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&opens), "exactly one provisioning action")
	for i := 1; i < callers; i++ {
		assert.Same(t, stores[0], stores[i], "all callers share one handle")
	}
}

func TestResolveDistinctTenantsDistinctStores(t *testing.T) {
	open := func(cfg StoreConfig) (*gorm.DB, error) {
		return &gorm.DB{}, nil
	}
	r := NewRegistry(testDBConfig(), testTenantConfig(), open, noopMigrate, zap.NewNop())

	a, err := r.Resolve(context.Background(), TenantInfo{ID: "tenant-a"})
	require.NoError(t, err)
	b, err := r.Resolve(context.Background(), TenantInfo{ID: "tenant-b"})
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.ElementsMatch(t, []string{"tenant_tenant-a", "tenant_tenant-b"}, r.StoreNames())
}

func TestResolveFailureLeavesNoEntry(t *testing.T) {
	fail := errors.New("connection refused")
	var healthy atomic.Bool
	open := func(cfg StoreConfig) (*gorm.DB, error) {
		if !healthy.Load() {
			return nil, fail
		}
		return &gorm.DB{}, nil
	}
	r := NewRegistry(testDBConfig(), testTenantConfig(), open, noopMigrate, zap.NewNop())

	_, err := r.Resolve(context.Background(), TenantInfo{ID: "tenant-a"})
	require.ErrorIs(t, err, fail)
	_, ok := r.Lookup("tenant-a")
	assert.False(t, ok, "failed provisioning must not register")

	// A later request retries cleanly once the database is back.
	healthy.Store(true)
	store, err := r.Resolve(context.Background(), TenantInfo{ID: "tenant-a"})
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestResolveMigrationFailureDoesNotRegister(t *testing.T) {
	open := func(cfg StoreConfig) (*gorm.DB, error) {
		return &gorm.DB{}, nil
	}
	migrate := func(*gorm.DB) error { return errors.New("migration failed") }
	r := NewRegistry(testDBConfig(), testTenantConfig(), open, migrate, zap.NewNop())

	_, err := r.Resolve(context.Background(), TenantInfo{ID: "tenant-a"})
	require.Error(t, err)
	_, ok := r.Lookup("tenant-a")
	assert.False(t, ok)
}

func TestResolveUsesDatabaseURLClaim(t *testing.T) {
	var gotDSN string
	open := func(cfg StoreConfig) (*gorm.DB, error) {
		gotDSN = cfg.DSN
		return &gorm.DB{}, nil
	}
	r := NewRegistry(testDBConfig(), testTenantConfig(), open, noopMigrate, zap.NewNop())

	custom := "host=dedicated-db port=5432 user=app dbname=hospital_a sslmode=require"
	_, err := r.Resolve(context.Background(), TenantInfo{ID: "tenant-a", DatabaseURL: custom})
	require.NoError(t, err)
	assert.Equal(t, custom, gotDSN)
}

func TestResolveDefaultDSNTemplate(t *testing.T) {
	var gotDSN string
	open := func(cfg StoreConfig) (*gorm.DB, error) {
		gotDSN = cfg.DSN
		return &gorm.DB{}, nil
	}
	r := NewRegistry(testDBConfig(), testTenantConfig(), open, noopMigrate, zap.NewNop())

	_, err := r.Resolve(context.Background(), TenantInfo{ID: "tenant-a"})
	require.NoError(t, err)
	assert.Contains(t, gotDSN, "dbname=tenant_tenant-a")
}

func TestResolveRetriesTransientFailure(t *testing.T) {
	cfg := testTenantConfig()
	cfg.ProvisionRetries = 3

	var attempts int32
	open := func(sc StoreConfig) (*gorm.DB, error) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return nil, errors.New("transient")
		}
		return &gorm.DB{}, nil
	}
	r := NewRegistry(testDBConfig(), cfg, open, noopMigrate, zap.NewNop())

	_, err := r.Resolve(context.Background(), TenantInfo{ID: "tenant-a"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestResolveRequiresTenantID(t *testing.T) {
	r := NewRegistry(testDBConfig(), testTenantConfig(), nil, nil, zap.NewNop())
	_, err := r.Resolve(context.Background(), TenantInfo{})
	assert.Error(t, err)
}

func TestResolveInvokesProvisionHookOnce(t *testing.T) {
	open := func(cfg StoreConfig) (*gorm.DB, error) {
		return &gorm.DB{}, nil
	}
	r := NewRegistry(testDBConfig(), testTenantConfig(), open, noopMigrate, zap.NewNop())

	var calls int
	var gotInfo TenantInfo
	var gotCfg StoreConfig
	r.OnProvision(func(info TenantInfo, cfg StoreConfig) {
		calls++
		gotInfo = info
		gotCfg = cfg
	})

	info := TenantInfo{ID: "tenant-a", Slug: "city-hospital"}
	_, err := r.Resolve(context.Background(), info)
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), info)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "hook fires on provisioning, not on cache hits")
	assert.Equal(t, info, gotInfo)
	assert.Equal(t, "tenant_tenant-a", gotCfg.Name)
}

func TestResolveFailedProvisionSkipsHook(t *testing.T) {
	open := func(cfg StoreConfig) (*gorm.DB, error) {
		return nil, errors.New("connection refused")
	}
	r := NewRegistry(testDBConfig(), testTenantConfig(), open, noopMigrate, zap.NewNop())

	var calls int
	r.OnProvision(func(TenantInfo, StoreConfig) { calls++ })

	_, err := r.Resolve(context.Background(), TenantInfo{ID: "tenant-a"})
	require.Error(t, err)
	assert.Zero(t, calls)
}

func TestRouterResolveStore(t *testing.T) {
	shared := &Store{Name: "shared", DB: &gorm.DB{}}
	tenant := &Store{Name: "tenant_tenant-a", DB: &gorm.DB{}}
	router := NewRouter(shared)

	got, err := router.ResolveStore(Shared, nil)
	require.NoError(t, err)
	assert.Same(t, shared, got)

	tc := &Context{TenantID: "tenant-a", Store: tenant}
	got, err = router.ResolveStore(TenantScoped, tc)
	require.NoError(t, err)
	assert.Same(t, tenant, got)

	_, err = router.ResolveStore(TenantScoped, nil)
	assert.ErrorIs(t, err, ErrNoTenantContext)
}

func TestContextRoundTrip(t *testing.T) {
	tc := &Context{TenantID: "tenant-a", TenantSlug: "city-hospital"}
	ctx := WithContext(context.Background(), tc)
	assert.Same(t, tc, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
