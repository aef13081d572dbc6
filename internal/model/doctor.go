package model

import (
	"time"

	"gorm.io/gorm"
)

// Doctor represents a doctor profile in a tenant's database
type Doctor struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id,omitempty" gorm:"type:varchar(64);index"`

	FirstName string `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName  string `json:"last_name" gorm:"type:varchar(100);not null"`
	Email     string `json:"email,omitempty" gorm:"type:varchar(100)"`
	Phone     string `json:"phone,omitempty" gorm:"type:varchar(15)"`

	// License
	MedicalLicenseNumber    string     `json:"medical_license_number" gorm:"type:varchar(64)"`
	LicenseIssuingAuthority string     `json:"license_issuing_authority,omitempty" gorm:"type:varchar(128)"`
	LicenseExpiryDate       *time.Time `json:"license_expiry_date,omitempty"`

	Qualifications    string `json:"qualifications,omitempty" gorm:"type:text"`
	Specialty         string `json:"specialty,omitempty" gorm:"type:varchar(100);index"`
	Department        string `json:"department,omitempty" gorm:"type:varchar(100)"`
	YearsOfExperience uint   `json:"years_of_experience" gorm:"default:0"`

	ConsultationFee      float64 `json:"consultation_fee" gorm:"type:decimal(10,2);default:0"`
	FollowUpFee          float64 `json:"follow_up_fee" gorm:"type:decimal(10,2);default:0"`
	ConsultationDuration uint    `json:"consultation_duration" gorm:"default:15"`

	IsAvailableOnline  bool   `json:"is_available_online" gorm:"default:false"`
	IsAvailableOffline bool   `json:"is_available_offline" gorm:"default:true"`
	Status             string `json:"status" gorm:"type:varchar(20);default:'active';index"`

	OwnedModel
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
