package model

import (
	"time"

	"gorm.io/gorm"
)

// Patient represents a patient profile in a tenant's database.
// Walk-in patients have no linked user account (UserID empty).
type Patient struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	PatientID string `json:"patient_id" gorm:"type:varchar(36);uniqueIndex"`
	UserID    string `json:"user_id,omitempty" gorm:"type:varchar(64);index"`

	// Personal info
	FirstName   string    `json:"first_name" gorm:"type:varchar(100);not null;index:idx_patient_name"`
	LastName    string    `json:"last_name" gorm:"type:varchar(100);not null;index:idx_patient_name"`
	MiddleName  string    `json:"middle_name,omitempty" gorm:"type:varchar(100)"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      string    `json:"gender" gorm:"type:varchar(10)"`

	// Contact
	MobilePrimary   string `json:"mobile_primary" gorm:"type:varchar(15);index"`
	MobileSecondary string `json:"mobile_secondary,omitempty" gorm:"type:varchar(15)"`
	Email           string `json:"email,omitempty" gorm:"type:varchar(100)"`

	// Address
	AddressLine1 string `json:"address_line1" gorm:"type:varchar(200)"`
	AddressLine2 string `json:"address_line2,omitempty" gorm:"type:varchar(200)"`
	City         string `json:"city" gorm:"type:varchar(100)"`
	State        string `json:"state" gorm:"type:varchar(100)"`
	Country      string `json:"country" gorm:"type:varchar(100);default:'India'"`
	Pincode      string `json:"pincode" gorm:"type:varchar(10)"`

	// Medical info
	BloodGroup string  `json:"blood_group,omitempty" gorm:"type:varchar(5)"`
	HeightCm   float64 `json:"height_cm,omitempty" gorm:"type:decimal(5,2)"`
	WeightKg   float64 `json:"weight_kg,omitempty" gorm:"type:decimal(5,2)"`

	// Social info
	MaritalStatus string `json:"marital_status" gorm:"type:varchar(20);default:'single'"`
	Occupation    string `json:"occupation,omitempty" gorm:"type:varchar(100)"`

	// Emergency contact
	EmergencyContactName     string `json:"emergency_contact_name" gorm:"type:varchar(100)"`
	EmergencyContactPhone    string `json:"emergency_contact_phone" gorm:"type:varchar(15)"`
	EmergencyContactRelation string `json:"emergency_contact_relation" gorm:"type:varchar(50)"`

	// Insurance
	InsuranceProvider     string     `json:"insurance_provider,omitempty" gorm:"type:varchar(200)"`
	InsurancePolicyNumber string     `json:"insurance_policy_number,omitempty" gorm:"type:varchar(100)"`
	InsuranceExpiryDate   *time.Time `json:"insurance_expiry_date,omitempty"`

	// Hospital info
	LastVisitDate *time.Time `json:"last_visit_date,omitempty"`
	TotalVisits   uint       `json:"total_visits" gorm:"default:0"`

	Status string `json:"status" gorm:"type:varchar(20);default:'active';index"`

	OwnedModel
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
