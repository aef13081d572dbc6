package handler

import (
	"net/http"
	"strconv"
	"time"

	"hms-service/internal/collection"
	"hms-service/internal/model"
	"hms-service/pkg/logger"
	"hms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var doctors = collection.New("doctors")

// DoctorRequest defines the structure for doctor creation/update requests
type DoctorRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`

	MedicalLicenseNumber    string `json:"medical_license_number" validate:"required"`
	LicenseIssuingAuthority string `json:"license_issuing_authority"`

	Qualifications    string `json:"qualifications"`
	Specialty         string `json:"specialty"`
	Department        string `json:"department"`
	YearsOfExperience uint   `json:"years_of_experience"`

	ConsultationFee      float64 `json:"consultation_fee"`
	FollowUpFee          float64 `json:"follow_up_fee"`
	ConsultationDuration uint    `json:"consultation_duration"`

	IsAvailableOnline  bool   `json:"is_available_online"`
	IsAvailableOffline bool   `json:"is_available_offline"`
	Status             string `json:"status"`
}

func (r *DoctorRequest) apply(d *model.Doctor) {
	d.FirstName = r.FirstName
	d.LastName = r.LastName
	d.Email = r.Email
	d.Phone = r.Phone
	d.MedicalLicenseNumber = r.MedicalLicenseNumber
	d.LicenseIssuingAuthority = r.LicenseIssuingAuthority
	d.Qualifications = r.Qualifications
	d.Specialty = r.Specialty
	d.Department = r.Department
	d.YearsOfExperience = r.YearsOfExperience
	d.ConsultationFee = r.ConsultationFee
	d.FollowUpFee = r.FollowUpFee
	if r.ConsultationDuration > 0 {
		d.ConsultationDuration = r.ConsultationDuration
	}
	d.IsAvailableOnline = r.IsAvailableOnline
	d.IsAvailableOffline = r.IsAvailableOffline
	if r.Status != "" {
		d.Status = r.Status
	}
}

// CreateDoctor registers a new doctor profile in the current tenant
func CreateDoctor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("doctors", "create")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	var req DoctorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var doctor model.Doctor
	req.apply(&doctor)

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := doctors.Create(db, ident, &doctor); err != nil {
		return collectionError(c, "doctor", "create", err)
	}

	log.Info("Doctor created successfully", zap.Uint("id", doctor.ID))
	return c.JSON(http.StatusCreated, doctor)
}

// GetDoctor retrieves a doctor by ID within the caller's view scope
func GetDoctor(c echo.Context) error {
	prometheus.RecordResourceOperation("doctors", "get")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid doctor ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var doctor model.Doctor
	if err := doctors.Get(db, ident, id, &doctor); err != nil {
		return collectionError(c, "doctor", "get", err)
	}
	return c.JSON(http.StatusOK, doctor)
}

// ListDoctors retrieves doctors visible to the caller
func ListDoctors(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("doctors", "list")

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

	query := doctors.Scoped(db.Model(&model.Doctor{}), ident)
	if specialty := c.QueryParam("specialty"); specialty != "" {
		query = query.Where("specialty = ?", specialty)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var results []model.Doctor
	if err := query.Order("created_at desc").Limit(limit).Offset((page - 1) * limit).Find(&results).Error; err != nil {
		log.Error("Failed to retrieve doctors", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve doctors"})
	}

	var total int64
	query.Limit(-1).Offset(-1).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"doctors": results,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateDoctor updates an existing doctor profile
func UpdateDoctor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("doctors", "update")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid doctor ID"})
	}

	var req DoctorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var doctor model.Doctor
	if err := doctors.Get(db, ident, id, &doctor); err != nil {
		return collectionError(c, "doctor", "update", err)
	}
	req.apply(&doctor)

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := doctors.Update(db, ident, &doctor); err != nil {
		return collectionError(c, "doctor", "update", err)
	}

	log.Info("Doctor updated successfully", zap.Uint("id", doctor.ID))
	return c.JSON(http.StatusOK, doctor)
}

// DeleteDoctor soft-deletes a doctor profile
func DeleteDoctor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("doctors", "delete")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid doctor ID"})
	}

	var doctor model.Doctor
	if err := doctors.Get(db, ident, id, &doctor); err != nil {
		return collectionError(c, "doctor", "delete", err)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if err := doctors.Delete(db, ident, &doctor); err != nil {
		return collectionError(c, "doctor", "delete", err)
	}

	log.Info("Doctor deleted successfully", zap.Uint("id", doctor.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Doctor deleted successfully"})
}
