package model

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tenant is the shared-store record of a registered hospital. The identity
// provider owns tenant lifecycle; this table caches what the service needs
// for store routing and display.
type Tenant struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TenantID string `json:"tenant_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	Slug     string `json:"slug" gorm:"type:varchar(100);uniqueIndex"`
	Name     string `json:"name" gorm:"type:varchar(255)"`

	// DatabaseURL overrides the derived tenant DSN when set.
	DatabaseURL string `json:"-" gorm:"type:text"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// UpsertTenant records a tenant in the shared store, keyed on tenant_id.
// Called when a tenant's store is provisioned, so repeat sightings of the
// same tenant refresh the slug and database URL instead of duplicating rows.
func UpsertTenant(db *gorm.DB, tenantID, slug, databaseURL string) error {
	tenant := Tenant{
		TenantID:    tenantID,
		Slug:        slug,
		Name:        slug,
		DatabaseURL: databaseURL,
		IsActive:    true,
	}
	return db.Clauses(upsertTenantConflict()).Create(&tenant).Error
}

func upsertTenantConflict() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"slug", "database_url", "is_active", "updated_at"}),
	}
}

// AuditLog records authenticated request outcomes in the shared store
type AuditLog struct {
	ID uint `json:"id" gorm:"primaryKey"`

	TenantID string `json:"tenant_id" gorm:"type:varchar(64);index"`
	UserID   string `json:"user_id" gorm:"type:varchar(64);index"`

	Method string `json:"method" gorm:"type:varchar(10)"`
	Path   string `json:"path" gorm:"type:varchar(255)"`
	Status int    `json:"status"`

	RequestID string `json:"request_id" gorm:"type:varchar(64);index"`
	ClientIP  string `json:"client_ip" gorm:"type:varchar(45)"`

	CreatedAt time.Time `json:"created_at"`
}
