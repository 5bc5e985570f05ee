package patient

import (
	"time"

	"github.com/google/uuid"
)

// Status is a patient's derived vaccination status. It is never stored
// independently of the history that justifies it: every history mutation
// rederives it through DeriveStatus.
type Status string

const (
	StatusNotVaccinated       Status = "Not Vaccinated"
	StatusPartiallyVaccinated Status = "Partially Vaccinated"
	StatusFullyVaccinated     Status = "Fully Vaccinated"
)

// VaccinationRecord is one administration event. Records are immutable and
// append-only within a patient's history; the vaccine name is denormalized
// so a record stays interpretable if its vaccine leaves the catalog.
type VaccinationRecord struct {
	VaccineID   uuid.UUID `json:"vaccine_id"`
	VaccineName string    `json:"vaccine_name"`
	Date        time.Time `json:"date"`
}

// Patient is one registry entry. History insertion order is administration
// order.
type Patient struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Age         int                 `json:"age"`
	Gender      string              `json:"gender"`
	Contact     string              `json:"contact,omitempty"`
	History     []VaccinationRecord `json:"history"`
	Status      Status              `json:"status"`
	NextDoseDue *time.Time          `json:"next_dose_due,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
