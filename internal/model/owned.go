package model

// OwnedModel adds the creator reference every tenant-scoped record carries.
// CreatedByID is a soft reference to a SuperAdmin user id: identities live in
// a different physical store, so no foreign key is possible or wanted.
type OwnedModel struct {
	CreatedByID string `json:"created_by_id" gorm:"type:varchar(64);index"`
}

// OwnerID returns the creator's user id
func (m *OwnedModel) OwnerID() string { return m.CreatedByID }

// SetOwner stamps the creator's user id
func (m *OwnedModel) SetOwner(userID string) { m.CreatedByID = userID }
