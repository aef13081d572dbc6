package collection

import (
	"errors"

	"gorm.io/gorm"

	"hms-service/internal/authz"
)

// Permission failures are distinct from absence so handlers can choose the
// response shape: direct mutations surface 403, reads outside scope surface
// 404/empty to avoid leaking existence.
var (
	ErrNotAuthorized = errors.New("not authorized")
	ErrNotFound      = errors.New("record not found")
)

// Owned is implemented by every tenant-scoped record that carries a creator
// reference. The owner id is a soft reference to a SuperAdmin identity; there
// is no foreign key, since identities live in a different physical store.
type Owned interface {
	OwnerID() string
	SetOwner(userID string)
}

// Collection wraps data access for one resource type with capability checks
// and scope-based filtering. The *gorm.DB passed to each operation must come
// from the request's tenant store, so every operation is tenant-isolated by
// construction.
type Collection struct {
	// Resource is the capability key segment, e.g. "patients".
	Resource string
	// OwnerColumn holds the creator's user id.
	OwnerColumn string
}

// New creates a collection for a resource with the default owner column
func New(resource string) Collection {
	return Collection{Resource: resource, OwnerColumn: "created_by_id"}
}

func (c Collection) viewKey() string   { return authz.CapabilityKey(c.Resource, "view") }
func (c Collection) createKey() string { return authz.CapabilityKey(c.Resource, "create") }
func (c Collection) editKey() string   { return authz.CapabilityKey(c.Resource, "edit") }
func (c Collection) deleteKey() string { return authz.CapabilityKey(c.Resource, "delete") }

// Scoped narrows a query to the records visible to the identity. A scope of
// none yields a query matching nothing, so lists come back empty rather than
// erroring.
func (c Collection) Scoped(db *gorm.DB, ident *authz.Identity) *gorm.DB {
	return authz.ListFilterFor(ident, c.viewKey()).Apply(db, c.OwnerColumn)
}

// List loads all records visible to the identity into dest
func (c Collection) List(db *gorm.DB, ident *authz.Identity, dest interface{}) error {
	return c.Scoped(db, ident).Find(dest).Error
}

// Get loads one record by primary key. A record outside the identity's view
// scope reports ErrNotFound, the same as true absence.
func (c Collection) Get(db *gorm.DB, ident *authz.Identity, id interface{}, dest Owned) error {
	if err := db.First(dest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !authz.ListFilterFor(ident, c.viewKey()).Allows(dest.OwnerID()) {
		return ErrNotFound
	}
	return nil
}

// Create requires the boolean create capability, stamps the owner field with
// the caller's user id and writes through the tenant store.
func (c Collection) Create(db *gorm.DB, ident *authz.Identity, value Owned) error {
	if !authz.Evaluate(ident, c.createKey(), "") {
		return ErrNotAuthorized
	}
	value.SetOwner(ident.UserID)
	return db.Create(value).Error
}

// Update requires the boolean edit capability and that the record is within
// the identity's view scope: an own-scoped editor cannot touch another
// principal's record.
func (c Collection) Update(db *gorm.DB, ident *authz.Identity, value Owned) error {
	if err := c.checkMutation(ident, c.editKey(), value); err != nil {
		return err
	}
	return db.Save(value).Error
}

// Delete requires the boolean delete capability plus the object-level scope
// check, then soft-deletes through the tenant store.
func (c Collection) Delete(db *gorm.DB, ident *authz.Identity, value Owned) error {
	if err := c.checkMutation(ident, c.deleteKey(), value); err != nil {
		return err
	}
	return db.Delete(value).Error
}

func (c Collection) checkMutation(ident *authz.Identity, capabilityKey string, value Owned) error {
	if !authz.Evaluate(ident, capabilityKey, "") {
		return ErrNotAuthorized
	}
	if ident.IsSuperAdmin {
		return nil
	}
	if !authz.ListFilterFor(ident, c.viewKey()).Allows(value.OwnerID()) {
		return ErrNotAuthorized
	}
	return nil
}
