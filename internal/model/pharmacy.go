package model

import (
	"time"

	"gorm.io/gorm"
)

// PharmacyProduct represents a stocked pharmacy item in a tenant's database
type PharmacyProduct struct {
	ID uint `json:"id" gorm:"primaryKey"`

	ProductName string `json:"product_name" gorm:"type:varchar(255);not null;index"`
	Category    string `json:"category,omitempty" gorm:"type:varchar(100);index"`
	Company     string `json:"company,omitempty" gorm:"type:varchar(255)"`
	BatchNo     string `json:"batch_no,omitempty" gorm:"type:varchar(100)"`

	MRP          float64 `json:"mrp" gorm:"type:decimal(10,2);default:0"`
	SellingPrice float64 `json:"selling_price" gorm:"type:decimal(10,2);default:0"`

	Quantity          uint       `json:"quantity" gorm:"default:0"`
	MinimumStockLevel uint       `json:"minimum_stock_level" gorm:"default:10"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	OwnedModel
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// PharmacyOrder represents a dispensing order in a tenant's database
type PharmacyOrder struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	OrderNumber string `json:"order_number" gorm:"type:varchar(36);uniqueIndex"`

	PatientID *uint `json:"patient_id,omitempty" gorm:"index"`

	TotalAmount   float64 `json:"total_amount" gorm:"type:decimal(10,2);default:0"`
	Status        string  `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentStatus string  `json:"payment_status" gorm:"type:varchar(20);default:'unpaid'"`

	ShippingAddress string `json:"shipping_address,omitempty" gorm:"type:text"`

	Items []PharmacyOrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`

	OwnedModel
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// PharmacyOrderItem is one line on a pharmacy order. PriceAtTime freezes the
// selling price at order time so later price changes don't rewrite history.
type PharmacyOrderItem struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	OrderID   uint `json:"order_id" gorm:"index;not null"`
	ProductID uint `json:"product_id" gorm:"index;not null"`

	Quantity    uint    `json:"quantity" gorm:"default:1"`
	PriceAtTime float64 `json:"price_at_time" gorm:"type:decimal(10,2);default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
