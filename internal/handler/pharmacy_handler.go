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
	"gorm.io/gorm"
)

var pharmacy = collection.New("pharmacy")

// ProductRequest defines the structure for pharmacy product requests
type ProductRequest struct {
	ProductName string `json:"product_name" validate:"required"`
	Category    string `json:"category"`
	Company     string `json:"company"`
	BatchNo     string `json:"batch_no"`

	MRP          float64 `json:"mrp" validate:"min=0"`
	SellingPrice float64 `json:"selling_price" validate:"min=0"`

	Quantity          uint   `json:"quantity"`
	MinimumStockLevel uint   `json:"minimum_stock_level"`
	ExpiryDate        string `json:"expiry_date"`

	IsActive *bool `json:"is_active"`
}

func (r *ProductRequest) apply(p *model.PharmacyProduct) error {
	p.ProductName = r.ProductName
	p.Category = r.Category
	p.Company = r.Company
	p.BatchNo = r.BatchNo
	p.MRP = r.MRP
	p.SellingPrice = r.SellingPrice
	p.Quantity = r.Quantity
	if r.MinimumStockLevel > 0 {
		p.MinimumStockLevel = r.MinimumStockLevel
	}
	if r.ExpiryDate != "" {
		d, err := time.Parse("2006-01-02", r.ExpiryDate)
		if err != nil {
			return err
		}
		p.ExpiryDate = &d
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	return nil
}

// CreateProduct adds a product to the pharmacy inventory
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("pharmacy", "create_product")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	product := model.PharmacyProduct{IsActive: true}
	if err := req.apply(&product); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expiry_date must be YYYY-MM-DD"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := pharmacy.Create(db, ident, &product); err != nil {
		return collectionError(c, "product", "create", err)
	}

	log.Info("Product created", zap.Uint("id", product.ID), zap.String("name", product.ProductName))
	return c.JSON(http.StatusCreated, product)
}

// GetProduct retrieves a pharmacy product by ID
func GetProduct(c echo.Context) error {
	prometheus.RecordResourceOperation("pharmacy", "get_product")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var product model.PharmacyProduct
	if err := pharmacy.Get(db, ident, id, &product); err != nil {
		return collectionError(c, "product", "get", err)
	}
	return c.JSON(http.StatusOK, product)
}

// ListProducts retrieves inventory visible to the caller. low_stock=true
// narrows to products at or below their minimum stock level.
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("pharmacy", "list_products")

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

	query := pharmacy.Scoped(db.Model(&model.PharmacyProduct{}), ident)
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := c.QueryParam("search"); search != "" {
		query = query.Where("product_name ILIKE ?", "%"+search+"%")
	}
	if lowStock, _ := strconv.ParseBool(c.QueryParam("low_stock")); lowStock {
		query = query.Where("quantity <= minimum_stock_level")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var results []model.PharmacyProduct
	if err := query.Order("product_name asc").Limit(limit).Offset((page - 1) * limit).Find(&results).Error; err != nil {
		log.Error("Failed to retrieve products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve products"})
	}

	var total int64
	query.Limit(-1).Offset(-1).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"products": results,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateProduct updates a pharmacy product
func UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("pharmacy", "update_product")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product ID"})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var product model.PharmacyProduct
	if err := pharmacy.Get(db, ident, id, &product); err != nil {
		return collectionError(c, "product", "update", err)
	}
	if err := req.apply(&product); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expiry_date must be YYYY-MM-DD"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := pharmacy.Update(db, ident, &product); err != nil {
		return collectionError(c, "product", "update", err)
	}

	log.Info("Product updated", zap.Uint("id", product.ID))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct soft-deletes a pharmacy product
func DeleteProduct(c echo.Context) error {
	prometheus.RecordResourceOperation("pharmacy", "delete_product")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product ID"})
	}

	var product model.PharmacyProduct
	if err := pharmacy.Get(db, ident, id, &product); err != nil {
		return collectionError(c, "product", "delete", err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := pharmacy.Delete(db, ident, &product); err != nil {
		return collectionError(c, "product", "delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

// OrderItemRequest is one line on a pharmacy order request
type OrderItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  uint `json:"quantity" validate:"required,min=1"`
}

// OrderRequest defines the structure for pharmacy order requests
type OrderRequest struct {
	PatientID       *uint              `json:"patient_id"`
	ShippingAddress string             `json:"shipping_address"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateOrder places a pharmacy order. Stock is decremented atomically and
// the selling price is frozen per line.
func CreateOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("pharmacy", "create_order")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order := model.PharmacyOrder{
		OrderNumber:     uuid.New().String(),
		PatientID:       req.PatientID,
		Status:          "pending",
		PaymentStatus:   "unpaid",
		ShippingAddress: req.ShippingAddress,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	txErr := db.Transaction(func(tx *gorm.DB) error {
		for _, item := range req.Items {
			var product model.PharmacyProduct
			if err := tx.First(&product, "id = ? AND is_active = ?", item.ProductID, true).Error; err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unknown product")
			}

			// Guarded decrement so concurrent orders cannot oversell.
			res := tx.Model(&model.PharmacyProduct{}).
				Where("id = ? AND quantity >= ?", product.ID, item.Quantity).
				Update("quantity", gorm.Expr("quantity - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return echo.NewHTTPError(http.StatusConflict, "insufficient stock for "+product.ProductName)
			}

			order.Items = append(order.Items, model.PharmacyOrderItem{
				ProductID:   product.ID,
				Quantity:    item.Quantity,
				PriceAtTime: product.SellingPrice,
			})
			order.TotalAmount += float64(item.Quantity) * product.SellingPrice
		}
		return pharmacy.Create(tx, ident, &order)
	})
	if txErr != nil {
		if httpErr, ok := txErr.(*echo.HTTPError); ok {
			return c.JSON(httpErr.Code, echo.Map{"error": httpErr.Message})
		}
		return collectionError(c, "order", "create", txErr)
	}

	log.Info("Pharmacy order placed",
		zap.Uint("id", order.ID),
		zap.Float64("total", order.TotalAmount))
	return c.JSON(http.StatusCreated, order)
}

// GetOrder retrieves a pharmacy order with its items
func GetOrder(c echo.Context) error {
	prometheus.RecordResourceOperation("pharmacy", "get_order")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var order model.PharmacyOrder
	if err := pharmacy.Get(db.Preload("Items"), ident, id, &order); err != nil {
		return collectionError(c, "order", "get", err)
	}
	return c.JSON(http.StatusOK, order)
}

// ListOrders retrieves pharmacy orders visible to the caller
func ListOrders(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("pharmacy", "list_orders")

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

	query := pharmacy.Scoped(db.Model(&model.PharmacyOrder{}), ident)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var results []model.PharmacyOrder
	if err := query.Preload("Items").Order("created_at desc").
		Limit(limit).Offset((page - 1) * limit).Find(&results).Error; err != nil {
		log.Error("Failed to retrieve orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve orders"})
	}

	var total int64
	query.Limit(-1).Offset(-1).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"orders": results,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}
