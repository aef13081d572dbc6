package model

import (
	"time"

	"gorm.io/gorm"
)

// Payment transaction types
const (
	PaymentIncome  = "income"
	PaymentExpense = "expense"
	PaymentRefund  = "refund"
)

// Payment represents a financial transaction in a tenant's database
type Payment struct {
	ID                uint   `json:"id" gorm:"primaryKey"`
	TransactionNumber string `json:"transaction_number" gorm:"type:varchar(36);uniqueIndex"`

	Amount          float64 `json:"amount" gorm:"type:decimal(12,2);not null"`
	TransactionType string  `json:"transaction_type" gorm:"type:varchar(20);index"`
	PaymentMethod   string  `json:"payment_method" gorm:"type:varchar(20)"`
	Category        string  `json:"category,omitempty" gorm:"type:varchar(100)"`

	// Soft reference to the billed entity (bill id, pharmacy order id, ...).
	ReferenceType string `json:"reference_type,omitempty" gorm:"type:varchar(50)"`
	ReferenceID   *uint  `json:"reference_id,omitempty"`

	Description string `json:"description,omitempty" gorm:"type:text"`

	IsReconciled   bool       `json:"is_reconciled" gorm:"default:false"`
	ReconciledAt   *time.Time `json:"reconciled_at,omitempty"`
	ReconciledByID string     `json:"reconciled_by_id,omitempty" gorm:"type:varchar(64)"`

	OwnedModel
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
