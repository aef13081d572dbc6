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

var patients = collection.New("patients")

// PatientRequest defines the structure for patient creation/update requests
type PatientRequest struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	MiddleName  string `json:"middle_name"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
	Gender      string `json:"gender" validate:"required,oneof=male female other"`

	MobilePrimary   string `json:"mobile_primary" validate:"required"`
	MobileSecondary string `json:"mobile_secondary"`
	Email           string `json:"email" validate:"omitempty,email"`

	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	Pincode      string `json:"pincode"`

	BloodGroup string  `json:"blood_group"`
	HeightCm   float64 `json:"height_cm"`
	WeightKg   float64 `json:"weight_kg"`

	MaritalStatus string `json:"marital_status"`
	Occupation    string `json:"occupation"`

	EmergencyContactName     string `json:"emergency_contact_name"`
	EmergencyContactPhone    string `json:"emergency_contact_phone"`
	EmergencyContactRelation string `json:"emergency_contact_relation"`

	InsuranceProvider     string `json:"insurance_provider"`
	InsurancePolicyNumber string `json:"insurance_policy_number"`

	Status string `json:"status"`
}

func (r *PatientRequest) apply(p *model.Patient) error {
	dob, err := time.Parse("2006-01-02", r.DateOfBirth)
	if err != nil {
		return err
	}
	p.FirstName = r.FirstName
	p.LastName = r.LastName
	p.MiddleName = r.MiddleName
	p.DateOfBirth = dob
	p.Gender = r.Gender
	p.MobilePrimary = r.MobilePrimary
	p.MobileSecondary = r.MobileSecondary
	p.Email = r.Email
	p.AddressLine1 = r.AddressLine1
	p.AddressLine2 = r.AddressLine2
	p.City = r.City
	p.State = r.State
	if r.Country != "" {
		p.Country = r.Country
	}
	p.Pincode = r.Pincode
	p.BloodGroup = r.BloodGroup
	p.HeightCm = r.HeightCm
	p.WeightKg = r.WeightKg
	if r.MaritalStatus != "" {
		p.MaritalStatus = r.MaritalStatus
	}
	p.Occupation = r.Occupation
	p.EmergencyContactName = r.EmergencyContactName
	p.EmergencyContactPhone = r.EmergencyContactPhone
	p.EmergencyContactRelation = r.EmergencyContactRelation
	p.InsuranceProvider = r.InsuranceProvider
	p.InsurancePolicyNumber = r.InsurancePolicyNumber
	if r.Status != "" {
		p.Status = r.Status
	}
	return nil
}

// CreatePatient registers a new patient in the current tenant
func CreatePatient(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new patient")
	prometheus.RecordResourceOperation("patients", "create")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	var req PatientRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	patient := model.Patient{PatientID: uuid.New().String()}
	if err := req.apply(&patient); err != nil {
		log.Error("Invalid date of birth", zap.String("value", req.DateOfBirth), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_of_birth must be YYYY-MM-DD"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := patients.Create(db, ident, &patient); err != nil {
		return collectionError(c, "patient", "create", err)
	}

	log.Info("Patient created successfully",
		zap.Uint("id", patient.ID),
		zap.String("patient_id", patient.PatientID))
	return c.JSON(http.StatusCreated, patient)
}

// GetPatient retrieves a patient by ID within the caller's view scope
func GetPatient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("patients", "get")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid patient ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid patient ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var patient model.Patient
	if err := patients.Get(db, ident, id, &patient); err != nil {
		return collectionError(c, "patient", "get", err)
	}

	return c.JSON(http.StatusOK, patient)
}

// ListPatients retrieves patients visible to the caller with pagination
func ListPatients(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Listing patients with filters")
	prometheus.RecordResourceOperation("patients", "list")

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
	offset := (page - 1) * limit

	query := patients.Scoped(db.Model(&model.Patient{}), ident)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if mobile := c.QueryParam("mobile"); mobile != "" {
		query = query.Where("mobile_primary = ?", mobile)
	}
	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ?", pattern, pattern)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var results []model.Patient
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&results).Error; err != nil {
		log.Error("Failed to retrieve patients", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve patients"})
	}

	var total int64
	query.Limit(-1).Offset(-1).Count(&total)

	log.Info("Patients retrieved successfully",
		zap.Int("count", len(results)),
		zap.Int64("total", total))
	return c.JSON(http.StatusOK, echo.Map{
		"patients": results,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdatePatient updates an existing patient record
func UpdatePatient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("patients", "update")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid patient ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid patient ID"})
	}

	var req PatientRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Uint64("patient_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var patient model.Patient
	if err := patients.Get(db, ident, id, &patient); err != nil {
		return collectionError(c, "patient", "update", err)
	}

	if err := req.apply(&patient); err != nil {
		log.Error("Invalid date of birth", zap.String("value", req.DateOfBirth), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_of_birth must be YYYY-MM-DD"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := patients.Update(db, ident, &patient); err != nil {
		return collectionError(c, "patient", "update", err)
	}

	log.Info("Patient updated successfully", zap.Uint("id", patient.ID))
	return c.JSON(http.StatusOK, patient)
}

// DeletePatient soft-deletes a patient record
func DeletePatient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("patients", "delete")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid patient ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid patient ID"})
	}

	var patient model.Patient
	if err := patients.Get(db, ident, id, &patient); err != nil {
		return collectionError(c, "patient", "delete", err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := patients.Delete(db, ident, &patient); err != nil {
		return collectionError(c, "patient", "delete", err)
	}

	log.Info("Patient deleted successfully", zap.Uint("id", patient.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Patient deleted successfully"})
}
