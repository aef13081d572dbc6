package model

import (
	"time"

	"gorm.io/gorm"
)

// Bill statuses
const (
	BillPending   = "pending"
	BillPaid      = "paid"
	BillCancelled = "cancelled"
)

// Bill represents a service bill in a tenant's database
type Bill struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	BillNumber string `json:"bill_number" gorm:"type:varchar(36);uniqueIndex"`

	PatientID uint  `json:"patient_id" gorm:"index;not null"`
	VisitID   *uint `json:"visit_id,omitempty" gorm:"index"`

	ServiceType string `json:"service_type" gorm:"type:varchar(50)"`
	Status      string `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	Subtotal    float64 `json:"subtotal" gorm:"type:decimal(10,2);default:0"`
	TotalFees   float64 `json:"total_fees" gorm:"type:decimal(10,2);default:0"`
	TotalAmount float64 `json:"total_amount" gorm:"type:decimal(10,2);default:0"`

	PaymentMethod string `json:"payment_method,omitempty" gorm:"type:varchar(20)"`
	IsPaid        bool   `json:"is_paid" gorm:"default:false"`

	Notes string `json:"notes,omitempty" gorm:"type:text"`

	Items []BillItem `json:"items,omitempty" gorm:"foreignKey:BillID"`

	OwnedModel
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BillItem is one line on a bill
type BillItem struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	BillID uint `json:"bill_id" gorm:"index;not null"`

	Description string  `json:"description" gorm:"type:varchar(200)"`
	Quantity    uint    `json:"quantity" gorm:"default:1"`
	UnitPrice   float64 `json:"unit_price" gorm:"type:decimal(10,2);default:0"`
	Amount      float64 `json:"amount" gorm:"type:decimal(10,2);default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
