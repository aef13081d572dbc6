package model

import (
	"time"

	"gorm.io/gorm"
)

// Visit represents an OPD visit in a tenant's database
type Visit struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	VisitID string `json:"visit_id" gorm:"type:varchar(36);uniqueIndex"`

	PatientID     uint  `json:"patient_id" gorm:"index;not null"`
	DoctorID      uint  `json:"doctor_id" gorm:"index;not null"`
	AppointmentID *uint `json:"appointment_id,omitempty" gorm:"index"`

	VisitType string    `json:"visit_type" gorm:"type:varchar(20);default:'new'"`
	VisitDate time.Time `json:"visit_date" gorm:"index"`

	Symptoms  string `json:"symptoms,omitempty" gorm:"type:text"`
	Diagnosis string `json:"diagnosis,omitempty" gorm:"type:text"`
	Treatment string `json:"treatment,omitempty" gorm:"type:text"`
	Notes     string `json:"notes,omitempty" gorm:"type:text"`

	FollowUpRequired bool       `json:"follow_up_required" gorm:"default:false"`
	FollowUpDate     *time.Time `json:"follow_up_date,omitempty"`

	Status string `json:"status" gorm:"type:varchar(20);default:'open';index"`

	Patient Patient `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	Doctor  Doctor  `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`

	OwnedModel
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// VisitFinding records a clinical observation made during a visit
type VisitFinding struct {
	ID      uint `json:"id" gorm:"primaryKey"`
	VisitID uint `json:"visit_id" gorm:"index;not null"`

	Category string `json:"category" gorm:"type:varchar(50)"`
	Finding  string `json:"finding" gorm:"type:text"`
	Severity string `json:"severity,omitempty" gorm:"type:varchar(20)"`

	OwnedModel
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
