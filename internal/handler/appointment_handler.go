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

var appointments = collection.New("appointments")

// AppointmentRequest defines the structure for appointment booking/update requests
type AppointmentRequest struct {
	PatientID uint `json:"patient_id" validate:"required"`
	DoctorID  uint `json:"doctor_id" validate:"required"`

	AppointmentDate string `json:"appointment_date" validate:"required"`
	AppointmentTime string `json:"appointment_time" validate:"required"`
	DurationMinutes uint   `json:"duration_minutes"`

	Priority       string `json:"priority"`
	ChiefComplaint string `json:"chief_complaint"`
	Symptoms       string `json:"symptoms"`
	Notes          string `json:"notes"`

	IsFollowUp            bool  `json:"is_follow_up"`
	OriginalAppointmentID *uint `json:"original_appointment_id"`

	ConsultationFee float64 `json:"consultation_fee"`
}

func (r *AppointmentRequest) apply(a *model.Appointment) error {
	date, err := time.Parse("2006-01-02", r.AppointmentDate)
	if err != nil {
		return err
	}
	a.PatientID = r.PatientID
	a.DoctorID = r.DoctorID
	a.AppointmentDate = date
	a.AppointmentTime = r.AppointmentTime
	if r.DurationMinutes > 0 {
		a.DurationMinutes = r.DurationMinutes
	}
	if r.Priority != "" {
		a.Priority = r.Priority
	}
	a.ChiefComplaint = r.ChiefComplaint
	a.Symptoms = r.Symptoms
	a.Notes = r.Notes
	a.IsFollowUp = r.IsFollowUp
	a.OriginalAppointmentID = r.OriginalAppointmentID
	a.ConsultationFee = r.ConsultationFee
	return nil
}

// CreateAppointment books a new appointment. The doctor must not already have
// an active appointment in the same slot.
func CreateAppointment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("appointments", "create")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	var req AppointmentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	appointment := model.Appointment{
		AppointmentID: uuid.New().String(),
		Status:        model.AppointmentScheduled,
	}
	if err := req.apply(&appointment); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "appointment_date must be YYYY-MM-DD"})
	}

	// Reject double booking of the same doctor slot.
	var conflicts int64
	db.Model(&model.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND appointment_time = ? AND status NOT IN ?",
			appointment.DoctorID, appointment.AppointmentDate, appointment.AppointmentTime,
			[]string{model.AppointmentCancelled, model.AppointmentNoShow}).
		Count(&conflicts)
	if conflicts > 0 {
		log.Warn("Appointment slot already taken",
			zap.Uint("doctor_id", appointment.DoctorID),
			zap.String("time", appointment.AppointmentTime))
		return c.JSON(http.StatusConflict, echo.Map{"error": "doctor is not available at this time"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := appointments.Create(db, ident, &appointment); err != nil {
		return collectionError(c, "appointment", "create", err)
	}

	log.Info("Appointment booked",
		zap.Uint("id", appointment.ID),
		zap.Uint("patient_id", appointment.PatientID),
		zap.Uint("doctor_id", appointment.DoctorID))
	return c.JSON(http.StatusCreated, appointment)
}

// GetAppointment retrieves an appointment by ID
func GetAppointment(c echo.Context) error {
	prometheus.RecordResourceOperation("appointments", "get")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid appointment ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var appointment model.Appointment
	if err := appointments.Get(db, ident, id, &appointment); err != nil {
		return collectionError(c, "appointment", "get", err)
	}
	return c.JSON(http.StatusOK, appointment)
}

// ListAppointments retrieves appointments visible to the caller
func ListAppointments(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("appointments", "list")

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

	query := appointments.Scoped(db.Model(&model.Appointment{}), ident)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if doctorID := c.QueryParam("doctor_id"); doctorID != "" {
		query = query.Where("doctor_id = ?", doctorID)
	}
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		query = query.Where("patient_id = ?", patientID)
	}
	if date := c.QueryParam("date"); date != "" {
		query = query.Where("appointment_date = ?", date)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var results []model.Appointment
	if err := query.Order("appointment_date desc, appointment_time desc").
		Limit(limit).Offset((page - 1) * limit).Find(&results).Error; err != nil {
		log.Error("Failed to retrieve appointments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve appointments"})
	}

	var total int64
	query.Limit(-1).Offset(-1).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"appointments": results,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateAppointment updates a scheduled appointment
func UpdateAppointment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("appointments", "update")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid appointment ID"})
	}

	var req AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var appointment model.Appointment
	if err := appointments.Get(db, ident, id, &appointment); err != nil {
		return collectionError(c, "appointment", "update", err)
	}

	if appointment.Status == model.AppointmentCancelled || appointment.Status == model.AppointmentCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "appointment can no longer be modified"})
	}

	if err := req.apply(&appointment); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "appointment_date must be YYYY-MM-DD"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := appointments.Update(db, ident, &appointment); err != nil {
		return collectionError(c, "appointment", "update", err)
	}

	log.Info("Appointment updated", zap.Uint("id", appointment.ID))
	return c.JSON(http.StatusOK, appointment)
}

// CancelAppointment marks an appointment as cancelled with a reason
func CancelAppointment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("appointments", "cancel")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid appointment ID"})
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var appointment model.Appointment
	if err := appointments.Get(db, ident, id, &appointment); err != nil {
		return collectionError(c, "appointment", "cancel", err)
	}

	if appointment.Status == model.AppointmentCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "appointment is already cancelled"})
	}
	if appointment.Status == model.AppointmentCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "completed appointment cannot be cancelled"})
	}

	now := time.Now()
	appointment.Status = model.AppointmentCancelled
	appointment.CancelledAt = &now
	appointment.CancelledByID = ident.UserID
	appointment.CancellationReason = body.Reason

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := appointments.Update(db, ident, &appointment); err != nil {
		return collectionError(c, "appointment", "cancel", err)
	}

	log.Info("Appointment cancelled", zap.Uint("id", appointment.ID))
	return c.JSON(http.StatusOK, appointment)
}

// CheckInAppointment marks the patient as arrived
func CheckInAppointment(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("appointments", "check_in")

	ident, db, err := requestScope(c)
	if db == nil {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid appointment ID"})
	}

	var appointment model.Appointment
	if err := appointments.Get(db, ident, id, &appointment); err != nil {
		return collectionError(c, "appointment", "check_in", err)
	}

	if appointment.Status != model.AppointmentScheduled && appointment.Status != model.AppointmentConfirmed {
		return c.JSON(http.StatusConflict, echo.Map{"error": "appointment cannot be checked in"})
	}

	now := time.Now()
	appointment.Status = model.AppointmentCheckedIn
	appointment.CheckedInAt = &now

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := appointments.Update(db, ident, &appointment); err != nil {
		return collectionError(c, "appointment", "check_in", err)
	}

	log.Info("Appointment checked in", zap.Uint("id", appointment.ID))
	return c.JSON(http.StatusOK, appointment)
}
