package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hms-service/internal/authz"
)

type record struct {
	CreatedByID string
}

func (r *record) OwnerID() string        { return r.CreatedByID }
func (r *record) SetOwner(userID string) { r.CreatedByID = userID }

func ident(perms map[string]interface{}) *authz.Identity {
	return &authz.Identity{UserID: "user-1", TenantID: "tenant-a", Permissions: perms}
}

func TestCreateDeniedWithoutCapability(t *testing.T) {
	c := New("patients")

	err := c.Create(nil, ident(nil), &record{})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// A granted view scope does not imply create.
	err = c.Create(nil, ident(map[string]interface{}{
		"hms.patients.view": "all",
	}), &record{})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestCreateDeniedWhenCapabilityFalse(t *testing.T) {
	c := New("patients")
	err := c.Create(nil, ident(map[string]interface{}{
		"hms.patients.create": false,
	}), &record{})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestUpdateDeniedWithoutCapability(t *testing.T) {
	c := New("patients")
	err := c.Update(nil, ident(map[string]interface{}{
		"hms.patients.view": "all",
	}), &record{CreatedByID: "user-1"})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestUpdateDeniedOutsideViewScope(t *testing.T) {
	c := New("patients")

	// Edit capability granted, but own-scoped view cannot see the record.
	err := c.Update(nil, ident(map[string]interface{}{
		"hms.patients.view": "own",
		"hms.patients.edit": true,
	}), &record{CreatedByID: "user-2"})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestDeleteDeniedOutsideViewScope(t *testing.T) {
	c := New("patients")
	err := c.Delete(nil, ident(map[string]interface{}{
		"hms.patients.view":   "own",
		"hms.patients.delete": true,
	}), &record{CreatedByID: "user-2"})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestDeleteDeniedWhenViewDenied(t *testing.T) {
	c := New("patients")

	// Delete capability without any view grant still fails the object check.
	err := c.Delete(nil, ident(map[string]interface{}{
		"hms.patients.delete": true,
	}), &record{CreatedByID: "user-1"})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestNewDefaultsOwnerColumn(t *testing.T) {
	c := New("doctors")
	assert.Equal(t, "doctors", c.Resource)
	assert.Equal(t, "created_by_id", c.OwnerColumn)
}
