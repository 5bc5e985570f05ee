package vaccine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a vaccine id or name does not resolve.
	ErrNotFound = errors.New("vaccine not found")
	// ErrOutOfStock is returned when a dose is requested for a vaccine whose
	// stock is already zero. Stock is clamped at zero and the administration
	// is rejected rather than letting the count go negative.
	ErrOutOfStock = errors.New("vaccine out of stock")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Validate checks the catalog invariants for a vaccine entry. It is also
// used to vet whole datasets before any of them is admitted.
func Validate(v *Vaccine) error {
	if v.Name == "" {
		return fmt.Errorf("name is required")
	}
	if v.Manufacturer == "" {
		return fmt.Errorf("manufacturer is required")
	}
	if !ValidCategory(v.Category) {
		return fmt.Errorf("invalid category: %s (supported: mRNA, Viral Vector, Inactivated Virus)", v.Category)
	}
	if v.DosesRequired <= 0 {
		return fmt.Errorf("doses_required must be positive, got %d", v.DosesRequired)
	}
	if v.EfficacyPct < 0 || v.EfficacyPct > 100 {
		return fmt.Errorf("efficacy_pct must be between 0 and 100, got %g", v.EfficacyPct)
	}
	if v.InStock < 0 {
		return fmt.Errorf("in_stock must not be negative, got %d", v.InStock)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, v *Vaccine) error {
	if err := Validate(v); err != nil {
		return err
	}
	return s.repo.Create(ctx, v)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Vaccine, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByName(ctx context.Context, name string) (*Vaccine, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Vaccine, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// DecrementStock consumes one dose of stock. It fails with ErrOutOfStock
// when none remains, leaving the catalog untouched.
func (s *Service) DecrementStock(ctx context.Context, id uuid.UUID) (*Vaccine, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.InStock <= 0 {
		return nil, ErrOutOfStock
	}
	v.InStock--
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}
