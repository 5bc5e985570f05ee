package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a patient id does not resolve in the registry.
var ErrNotFound = errors.New("patient not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Validate checks the registry invariants for a patient record. It is also
// used to vet whole datasets before any of them is admitted.
func Validate(p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Age < 0 {
		return fmt.Errorf("age must not be negative, got %d", p.Age)
	}
	if p.Gender == "" {
		return fmt.Errorf("gender is required")
	}
	return nil
}

// Create validates and registers a patient, deriving the status from
// whatever history the patient arrives with.
func (s *Service) Create(ctx context.Context, p *Patient, reqs RequirementSet) error {
	if err := Validate(p); err != nil {
		return err
	}
	p.Status = DeriveStatus(p.History, reqs)
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// AppendRecord appends one vaccination record to the patient's history,
// rederives the status, and stores the optional next-dose-due date. It
// returns the patient's status before and after the append so the caller
// can maintain derived statistics.
func (s *Service) AppendRecord(ctx context.Context, id uuid.UUID, rec VaccinationRecord, nextDoseDue *time.Time, reqs RequirementSet) (prev, next Status, p *Patient, err error) {
	p, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return "", "", nil, err
	}

	prev = p.Status
	p.History = append(p.History, rec)
	p.Status = DeriveStatus(p.History, reqs)
	p.NextDoseDue = nextDoseDue
	next = p.Status

	if err = s.repo.Update(ctx, p); err != nil {
		return "", "", nil, err
	}
	return prev, next, p, nil
}
