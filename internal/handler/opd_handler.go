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

var visits = collection.New("opd")

// VisitRequest defines the structure for OPD visit creation/update requests
type VisitRequest struct {
	PatientID     uint  `json:"patient_id" validate:"required"`
	DoctorID      uint  `json:"doctor_id" validate:"required"`
	AppointmentID *uint `json:"appointment_id"`

	VisitType string `json:"visit_type" validate:"omitempty,oneof=new follow_up emergency"`

	Symptoms  string `json:"symptoms"`
	Diagnosis string `json:"diagnosis"`
	Treatment string `json:"treatment"`
	Notes     string `json:"notes"`

	FollowUpRequired bool   `json:"follow_up_required"`
	FollowUpDate     string `json:"follow_up_date"`
}

func (r *VisitRequest) apply(v *model.Visit) error {
	v.PatientID = r.PatientID
	v.DoctorID = r.DoctorID
	v.AppointmentID = r.AppointmentID
	if r.VisitType != "" {
		v.VisitType = r.VisitType
	}
	v.Symptoms = r.Symptoms
	v.Diagnosis = r.Diagnosis
	v.Treatment = r.Treatment
	v.Notes = r.Notes
	v.FollowUpRequired = r.FollowUpRequired
	if r.FollowUpDate != "" {
		d, err := time.Parse("2006-01-02", r.FollowUpDate)
		if err != nil {
			return err
		}
		v.FollowUpDate = &d
	}
	return nil
}

// CreateVisit opens an OPD visit and updates the patient's visit history
func CreateVisit(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("opd", "create")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	var req VisitRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	visit := model.Visit{
		VisitID:   uuid.New().String(),
		VisitDate: time.Now(),
		Status:    "open",
	}
	if err := req.apply(&visit); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "follow_up_date must be YYYY-MM-DD"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := visits.Create(db, ident, &visit); err != nil {
		return collectionError(c, "visit", "create", err)
	}

	// Keep the patient's visit counters current.
	db.Model(&model.Patient{}).Where("id = ?", visit.PatientID).Updates(map[string]interface{}{
		"total_visits":    gorm.Expr("total_visits + 1"),
		"last_visit_date": visit.VisitDate,
	})

	log.Info("Visit opened",
		zap.Uint("id", visit.ID),
		zap.Uint("patient_id", visit.PatientID))
	return c.JSON(http.StatusCreated, visit)
}

// GetVisit retrieves a visit by ID with its patient and doctor
func GetVisit(c echo.Context) error {
	prometheus.RecordResourceOperation("opd", "get")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid visit ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var visit model.Visit
	if err := visits.Get(db.Preload("Patient").Preload("Doctor"), ident, id, &visit); err != nil {
		return collectionError(c, "visit", "get", err)
	}
	return c.JSON(http.StatusOK, visit)
}

// ListVisits retrieves visits visible to the caller
func ListVisits(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("opd", "list")

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

	query := visits.Scoped(db.Model(&model.Visit{}), ident)
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}
	if doctorID := c.QueryParam("doctor_id"); doctorID != "" {
		query = query.Where("doctor_id = ?", doctorID)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var results []model.Visit
	if err := query.Order("visit_date desc").Limit(limit).Offset((page - 1) * limit).Find(&results).Error; err != nil {
		log.Error("Failed to retrieve visits", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve visits"})
	}

	var total int64
	query.Limit(-1).Offset(-1).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"visits": results,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateVisit updates the clinical notes of an open visit
func UpdateVisit(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("opd", "update")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid visit ID"})
	}

	var req VisitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var visit model.Visit
	if err := visits.Get(db, ident, id, &visit); err != nil {
		return collectionError(c, "visit", "update", err)
	}
	if visit.Status == "closed" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "closed visit cannot be modified"})
	}

	if err := req.apply(&visit); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "follow_up_date must be YYYY-MM-DD"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := visits.Update(db, ident, &visit); err != nil {
		return collectionError(c, "visit", "update", err)
	}

	log.Info("Visit updated", zap.Uint("id", visit.ID))
	return c.JSON(http.StatusOK, visit)
}

// CloseVisit marks a visit as closed
func CloseVisit(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("opd", "close")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid visit ID"})
	}

	var visit model.Visit
	if err := visits.Get(db, ident, id, &visit); err != nil {
		return collectionError(c, "visit", "close", err)
	}
	if visit.Status == "closed" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "visit is already closed"})
	}

	visit.Status = "closed"

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := visits.Update(db, ident, &visit); err != nil {
		return collectionError(c, "visit", "close", err)
	}

	log.Info("Visit closed", zap.Uint("id", visit.ID))
	return c.JSON(http.StatusOK, visit)
}

// AddVisitFinding records a clinical finding against a visit
func AddVisitFinding(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("opd", "add_finding")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid visit ID"})
	}

	var visit model.Visit
	if err := visits.Get(db, ident, id, &visit); err != nil {
		return collectionError(c, "visit", "add_finding", err)
	}

	var req struct {
		Category string `json:"category" validate:"required"`
		Finding  string `json:"finding" validate:"required"`
		Severity string `json:"severity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	finding := model.VisitFinding{
		VisitID:  visit.ID,
		Category: req.Category,
		Finding:  req.Finding,
		Severity: req.Severity,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := visits.Create(db, ident, &finding); err != nil {
		return collectionError(c, "visit", "add_finding", err)
	}

	log.Info("Visit finding recorded", zap.Uint("visit_id", visit.ID))
	return c.JSON(http.StatusCreated, finding)
}
