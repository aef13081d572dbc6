package model

import (
	"time"

	"gorm.io/gorm"
)

// Appointment statuses
const (
	AppointmentScheduled  = "scheduled"
	AppointmentConfirmed  = "confirmed"
	AppointmentCheckedIn  = "checked_in"
	AppointmentInProgress = "in_progress"
	AppointmentCompleted  = "completed"
	AppointmentCancelled  = "cancelled"
	AppointmentNoShow     = "no_show"
)

// Appointment represents a scheduled consultation in a tenant's database
type Appointment struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	AppointmentID string `json:"appointment_id" gorm:"type:varchar(36);uniqueIndex"`

	PatientID uint `json:"patient_id" gorm:"index;not null"`
	DoctorID  uint `json:"doctor_id" gorm:"index:idx_doctor_slot;not null"`

	AppointmentDate time.Time `json:"appointment_date" gorm:"index:idx_doctor_slot"`
	AppointmentTime string    `json:"appointment_time" gorm:"type:varchar(8);index:idx_doctor_slot"`
	DurationMinutes uint      `json:"duration_minutes" gorm:"default:15"`

	Status   string `json:"status" gorm:"type:varchar(20);default:'scheduled';index"`
	Priority string `json:"priority" gorm:"type:varchar(10);default:'normal'"`

	ChiefComplaint string `json:"chief_complaint,omitempty" gorm:"type:text"`
	Symptoms       string `json:"symptoms,omitempty" gorm:"type:text"`
	Notes          string `json:"notes,omitempty" gorm:"type:text"`

	IsFollowUp            bool  `json:"is_follow_up" gorm:"default:false"`
	OriginalAppointmentID *uint `json:"original_appointment_id,omitempty"`

	ConsultationFee float64 `json:"consultation_fee" gorm:"type:decimal(10,2);default:0"`

	CheckedInAt        *time.Time `json:"checked_in_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledByID      string     `json:"cancelled_by_id,omitempty" gorm:"type:varchar(64)"`
	CancellationReason string     `json:"cancellation_reason,omitempty" gorm:"type:text"`

	// Relations within the tenant store
	Patient Patient `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	Doctor  Doctor  `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`

	OwnedModel
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
