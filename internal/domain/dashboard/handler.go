package dashboard

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vaxtrack/vaxtrack/internal/domain/patient"
	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

// Handler exposes the dashboard statistics and the three mutation intents.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard/stats", h.GetStats)
	api.POST("/patients", h.AddPatient)
	api.POST("/vaccines", h.AddVaccine)
	api.POST("/patients/:id/vaccinations", h.AdministerVaccine)
}

func (h *Handler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Stats())
}

func (h *Handler) AddPatient(c echo.Context) error {
	var p patient.Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddPatient(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) AddVaccine(c echo.Context) error {
	var v vaccine.Vaccine
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddVaccine(c.Request().Context(), &v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

// administerRequest is the wire shape of a dose administration intent.
type administerRequest struct {
	VaccineID   uuid.UUID  `json:"vaccine_id"`
	VaccineName string     `json:"vaccine_name"`
	Date        time.Time  `json:"date"`
	NextDoseDue *time.Time `json:"next_dose_due,omitempty"`
}

func (h *Handler) AdministerVaccine(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var req administerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Date.IsZero() {
		req.Date = time.Now()
	}

	rec := patient.VaccinationRecord{
		VaccineID:   req.VaccineID,
		VaccineName: req.VaccineName,
		Date:        req.Date,
	}
	err = h.svc.AdministerVaccine(c.Request().Context(), patientID, rec, req.NextDoseDue)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, patient.ErrNotFound), errors.Is(err, vaccine.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, vaccine.ErrOutOfStock):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
