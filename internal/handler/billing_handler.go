package handler

import (
	"net/http"
	"strconv"
	"time"

	"hms-service/internal/authz"
	"hms-service/internal/collection"
	"hms-service/internal/model"
	"hms-service/pkg/logger"
	"hms-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var bills = collection.New("billing")

// BillItemRequest is one line item on a bill request
type BillItemRequest struct {
	Description string  `json:"description" validate:"required"`
	Quantity    uint    `json:"quantity" validate:"required,min=1"`
	UnitPrice   float64 `json:"unit_price" validate:"min=0"`
}

// BillRequest defines the structure for bill creation requests
type BillRequest struct {
	PatientID   uint              `json:"patient_id" validate:"required"`
	VisitID     *uint             `json:"visit_id"`
	ServiceType string            `json:"service_type" validate:"required"`
	Fees        float64           `json:"fees" validate:"min=0"`
	Notes       string            `json:"notes"`
	Items       []BillItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateBill creates a bill with its line items and computed totals
func CreateBill(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("billing", "create")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	var req BillRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	bill := model.Bill{
		BillNumber:  uuid.New().String(),
		PatientID:   req.PatientID,
		VisitID:     req.VisitID,
		ServiceType: req.ServiceType,
		Status:      model.BillPending,
		TotalFees:   req.Fees,
		Notes:       req.Notes,
	}
	for _, item := range req.Items {
		amount := float64(item.Quantity) * item.UnitPrice
		bill.Subtotal += amount
		bill.Items = append(bill.Items, model.BillItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      amount,
		})
	}
	bill.TotalAmount = bill.Subtotal + bill.TotalFees

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := bills.Create(db, ident, &bill); err != nil {
		return collectionError(c, "bill", "create", err)
	}

	log.Info("Bill created",
		zap.Uint("id", bill.ID),
		zap.Float64("total", bill.TotalAmount))
	return c.JSON(http.StatusCreated, bill)
}

// GetBill retrieves a bill with its line items
func GetBill(c echo.Context) error {
	prometheus.RecordResourceOperation("billing", "get")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bill ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var bill model.Bill
	if err := bills.Get(db.Preload("Items"), ident, id, &bill); err != nil {
		return collectionError(c, "bill", "get", err)
	}
	return c.JSON(http.StatusOK, bill)
}

// ListBills retrieves bills visible to the caller
func ListBills(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("billing", "list")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := bills.Scoped(db.Model(&model.Bill{}), ident)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var results []model.Bill
	if err := query.Preload("Items").Order("created_at desc").
		Limit(limit).Offset((page - 1) * limit).Find(&results).Error; err != nil {
		log.Error("Failed to retrieve bills", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve bills"})
	}

	var total int64
	query.Limit(-1).Offset(-1).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"bills": results,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// PayBill settles a pending bill and records the income transaction
func PayBill(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("billing", "pay")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bill ID"})
	}

	var body struct {
		PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card upi insurance"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	var bill model.Bill
	if err := bills.Get(db, ident, id, &bill); err != nil {
		return collectionError(c, "bill", "pay", err)
	}
	if bill.IsPaid {
		return c.JSON(http.StatusConflict, echo.Map{"error": "bill is already paid"})
	}
	if bill.Status == model.BillCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cancelled bill cannot be paid"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := db.Transaction(func(tx *gorm.DB) error {
		return settleBill(tx, ident, &bill, body.PaymentMethod)
	}); err != nil {
		return collectionError(c, "bill", "pay", err)
	}

	log.Info("Bill paid",
		zap.Uint("id", bill.ID),
		zap.Float64("amount", bill.TotalAmount))
	return c.JSON(http.StatusOK, bill)
}

// settleBill marks the bill paid and records the matching income entry in the
// payment ledger. Both writes share one transaction; either both land or
// neither does.
func settleBill(tx *gorm.DB, ident *authz.Identity, bill *model.Bill, method string) error {
	bill.Status = model.BillPaid
	bill.IsPaid = true
	bill.PaymentMethod = method

	if err := bills.Update(tx, ident, bill); err != nil {
		return err
	}

	payment := billPayment(bill, method, ident.UserID)
	return tx.Create(&payment).Error
}

// billPayment builds the income ledger entry for a settled bill
func billPayment(bill *model.Bill, method, userID string) model.Payment {
	billID := bill.ID
	payment := model.Payment{
		TransactionNumber: uuid.New().String(),
		Amount:            bill.TotalAmount,
		TransactionType:   model.PaymentIncome,
		PaymentMethod:     method,
		Category:          bill.ServiceType,
		ReferenceType:     "bill",
		ReferenceID:       &billID,
	}
	payment.SetOwner(userID)
	return payment
}

// CancelBill voids a pending bill
func CancelBill(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("billing", "cancel")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid bill ID"})
	}

	var bill model.Bill
	if err := bills.Get(db, ident, id, &bill); err != nil {
		return collectionError(c, "bill", "cancel", err)
	}
	if bill.IsPaid {
		return c.JSON(http.StatusConflict, echo.Map{"error": "paid bill cannot be cancelled"})
	}
	if bill.Status == model.BillCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "bill is already cancelled"})
	}

	bill.Status = model.BillCancelled

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := bills.Update(db, ident, &bill); err != nil {
		return collectionError(c, "bill", "cancel", err)
	}

	log.Info("Bill cancelled", zap.Uint("id", bill.ID))
	return c.JSON(http.StatusOK, bill)
}
