package handler

import (
	"net/http"
	"strconv"
	"time"

	"hms-service/internal/collection"
	"hms-service/internal/model"
	"hms-service/pkg/logger"
	"hms-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var payments = collection.New("payments")

// PaymentRequest defines the structure for manual transaction entries
type PaymentRequest struct {
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	TransactionType string  `json:"transaction_type" validate:"required,oneof=income expense refund"`
	PaymentMethod   string  `json:"payment_method" validate:"required,oneof=cash card upi bank_transfer insurance"`
	Category        string  `json:"category"`
	ReferenceType   string  `json:"reference_type"`
	ReferenceID     *uint   `json:"reference_id"`
	Description     string  `json:"description"`
}

// CreatePayment records a transaction in the tenant's ledger
func CreatePayment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("payments", "create")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	payment := model.Payment{
		TransactionNumber: uuid.New().String(),
		Amount:            req.Amount,
		TransactionType:   req.TransactionType,
		PaymentMethod:     req.PaymentMethod,
		Category:          req.Category,
		ReferenceType:     req.ReferenceType,
		ReferenceID:       req.ReferenceID,
		Description:       req.Description,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := payments.Create(db, ident, &payment); err != nil {
		return collectionError(c, "payment", "create", err)
	}

	log.Info("Payment recorded",
		zap.Uint("id", payment.ID),
		zap.String("type", payment.TransactionType),
		zap.Float64("amount", payment.Amount))
	return c.JSON(http.StatusCreated, payment)
}

// GetPayment retrieves a transaction by ID
func GetPayment(c echo.Context) error {
	prometheus.RecordResourceOperation("payments", "get")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid payment ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var payment model.Payment
	if err := payments.Get(db, ident, id, &payment); err != nil {
		return collectionError(c, "payment", "get", err)
	}
	return c.JSON(http.StatusOK, payment)
}

// ListPayments retrieves transactions visible to the caller
func ListPayments(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("payments", "list")

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

	query := payments.Scoped(db.Model(&model.Payment{}), ident)
	if txType := c.QueryParam("transaction_type"); txType != "" {
		query = query.Where("transaction_type = ?", txType)
	}
	if reconciled := c.QueryParam("is_reconciled"); reconciled != "" {
		if v, err := strconv.ParseBool(reconciled); err == nil {
			query = query.Where("is_reconciled = ?", v)
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var results []model.Payment
	if err := query.Order("created_at desc").Limit(limit).Offset((page - 1) * limit).Find(&results).Error; err != nil {
		log.Error("Failed to retrieve payments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve payments"})
	}

	var total int64
	query.Limit(-1).Offset(-1).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"payments": results,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// ReconcilePayment marks a transaction as reconciled
func ReconcilePayment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("payments", "reconcile")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid payment ID"})
	}

	var payment model.Payment
	if err := payments.Get(db, ident, id, &payment); err != nil {
		return collectionError(c, "payment", "reconcile", err)
	}
	if payment.IsReconciled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment is already reconciled"})
	}

	now := time.Now()
	payment.IsReconciled = true
	payment.ReconciledAt = &now
	payment.ReconciledByID = ident.UserID

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := payments.Update(db, ident, &payment); err != nil {
		return collectionError(c, "payment", "reconcile", err)
	}

	log.Info("Payment reconciled", zap.Uint("id", payment.ID))
	return c.JSON(http.StatusOK, payment)
}

// PaymentSummary aggregates ledger totals by transaction type
func PaymentSummary(c echo.Context) error {
	prometheus.RecordResourceOperation("payments", "summary")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	type row struct {
		TransactionType string  `json:"transaction_type"`
		Total           float64 `json:"total"`
		Count           int64   `json:"count"`
	}
	var rows []row
	if err := payments.Scoped(db.Model(&model.Payment{}), ident).
		Select("transaction_type, SUM(amount) as total, COUNT(*) as count").
		Group("transaction_type").
		Scan(&rows).Error; err != nil {
		logger.FromContext(c).Error("Failed to aggregate payments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to aggregate payments"})
	}

	return c.JSON(http.StatusOK, echo.Map{"summary": rows})
}
