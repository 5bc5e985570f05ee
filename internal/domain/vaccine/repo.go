package vaccine

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *Vaccine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Vaccine, error)
	GetByName(ctx context.Context, name string) (*Vaccine, error)
	Update(ctx context.Context, v *Vaccine) error
	List(ctx context.Context, limit, offset int) ([]*Vaccine, int, error)
}
