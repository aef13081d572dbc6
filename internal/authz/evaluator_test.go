package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func identityWith(perms map[string]interface{}) *Identity {
	return &Identity{
		UserID:      "user-1",
		Email:       "user@clinic.test",
		TenantID:    "tenant-a",
		Permissions: perms,
	}
}

func TestScopeForDefaultDeny(t *testing.T) {
	ident := identityWith(map[string]interface{}{})
	assert.Equal(t, ScopeNone, ScopeFor(ident, PatientsView))

	ident = identityWith(nil)
	assert.Equal(t, ScopeNone, ScopeFor(ident, PatientsView))
}

func TestScopeForUnknownValueDenies(t *testing.T) {
	ident := identityWith(map[string]interface{}{
		PatientsView: "everything",
	})
	assert.Equal(t, ScopeNone, ScopeFor(ident, PatientsView))

	ident = identityWith(map[string]interface{}{
		PatientsView: 42,
	})
	assert.Equal(t, ScopeNone, ScopeFor(ident, PatientsView))
}

func TestScopeForBooleanValues(t *testing.T) {
	ident := identityWith(map[string]interface{}{
		PatientsCreate: true,
		PatientsDelete: false,
	})
	assert.Equal(t, ScopeAll, ScopeFor(ident, PatientsCreate))
	assert.Equal(t, ScopeNone, ScopeFor(ident, PatientsDelete))
}

func TestScopeForScopeStrings(t *testing.T) {
	ident := identityWith(map[string]interface{}{
		PatientsView:     "all",
		DoctorsView:      "team",
		AppointmentsView: "own",
		BillingView:      "none",
	})
	assert.Equal(t, ScopeAll, ScopeFor(ident, PatientsView))
	assert.Equal(t, ScopeTeam, ScopeFor(ident, DoctorsView))
	assert.Equal(t, ScopeOwn, ScopeFor(ident, AppointmentsView))
	assert.Equal(t, ScopeNone, ScopeFor(ident, BillingView))
}

func TestScopeForSuperAdminBypass(t *testing.T) {
	ident := identityWith(nil)
	ident.IsSuperAdmin = true
	assert.Equal(t, ScopeAll, ScopeFor(ident, PatientsView))
	assert.Equal(t, ScopeAll, ScopeFor(ident, "hms.unknown.view"))
}

func TestEvaluateOwnScope(t *testing.T) {
	ident := identityWith(map[string]interface{}{
		PatientsView: "own",
	})

	// Collection-level check passes; the restriction applies per object.
	assert.True(t, Evaluate(ident, PatientsView, ""))
	assert.True(t, Evaluate(ident, PatientsView, "user-1"))
	assert.False(t, Evaluate(ident, PatientsView, "user-2"))
}

func TestEvaluateTeamBehavesAsOwn(t *testing.T) {
	ident := identityWith(map[string]interface{}{
		PatientsView: "team",
	})
	assert.True(t, Evaluate(ident, PatientsView, "user-1"))
	assert.False(t, Evaluate(ident, PatientsView, "user-2"))
}

func TestEvaluateAllScope(t *testing.T) {
	ident := identityWith(map[string]interface{}{
		PatientsView: "all",
	})
	assert.True(t, Evaluate(ident, PatientsView, "user-2"))
}

func TestEvaluateDeniesWithoutGrant(t *testing.T) {
	ident := identityWith(map[string]interface{}{})
	assert.False(t, Evaluate(ident, PatientsView, ""))
	assert.False(t, Evaluate(ident, PatientsView, "user-1"))
}

func TestListFilterFor(t *testing.T) {
	all := identityWith(map[string]interface{}{PatientsView: "all"})
	own := identityWith(map[string]interface{}{PatientsView: "own"})
	none := identityWith(map[string]interface{}{})

	assert.True(t, ListFilterFor(all, PatientsView).All)
	assert.Equal(t, "user-1", ListFilterFor(own, PatientsView).OwnerID)
	assert.True(t, ListFilterFor(none, PatientsView).Deny)
}

func TestFilterAllows(t *testing.T) {
	assert.True(t, Filter{All: true}.Allows("anyone"))
	assert.True(t, Filter{OwnerID: "user-1"}.Allows("user-1"))
	assert.False(t, Filter{OwnerID: "user-1"}.Allows("user-2"))
	assert.False(t, Filter{Deny: true}.Allows("user-1"))

	// Deny wins even when other fields are set.
	assert.False(t, Filter{Deny: true, All: true}.Allows("user-1"))
}

func TestIdentityHasModulePerm(t *testing.T) {
	ident := identityWith(nil)
	ident.EnabledModules = []string{"hms", "lab"}
	assert.True(t, ident.HasModulePerm("hms"))
	assert.False(t, ident.HasModulePerm("pharmacy_wholesale"))

	super := identityWith(nil)
	super.IsSuperAdmin = true
	assert.True(t, super.HasModulePerm("anything"))
}

func TestCapabilityKey(t *testing.T) {
	assert.Equal(t, PatientsView, CapabilityKey("patients", "view"))
	assert.Equal(t, BillingCreate, CapabilityKey("billing", "create"))
}

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=app dbname=tenant_tenant-a",
		PreferSimpleProtocol: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestFilterApplySQL(t *testing.T) {
	type patient struct {
		ID          uint
		CreatedByID string
	}
	db := dryRunDB(t)

	var dest []patient
	tx := Filter{All: true}.Apply(db.Model(&patient{}), "created_by_id").Find(&dest)
	require.NoError(t, tx.Error)
	assert.NotContains(t, tx.Statement.SQL.String(), "WHERE")

	tx = Filter{OwnerID: "user-1"}.Apply(db.Model(&patient{}), "created_by_id").Find(&dest)
	require.NoError(t, tx.Error)
	assert.Contains(t, tx.Statement.SQL.String(), "created_by_id = $1")
	assert.Equal(t, []interface{}{"user-1"}, tx.Statement.Vars)

	tx = Filter{Deny: true}.Apply(db.Model(&patient{}), "created_by_id").Find(&dest)
	require.NoError(t, tx.Error)
	assert.Contains(t, tx.Statement.SQL.String(), "1 = 0")
}
