package vaccine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepo is a thread-safe, in-memory Repository. Catalog state lives only
// for the duration of one running session.
type MemRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Vaccine
	// ordered keys so lists are deterministic
	order []uuid.UUID
}

func NewMemRepo() *MemRepo {
	return &MemRepo{items: make(map[uuid.UUID]*Vaccine)}
}

func (r *MemRepo) Create(_ context.Context, v *Vaccine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if _, exists := r.items[v.ID]; exists {
		return fmt.Errorf("vaccine %s already exists", v.ID)
	}
	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now

	stored := *v
	r.items[v.ID] = &stored
	r.order = append(r.order, v.ID)
	return nil
}

func (r *MemRepo) GetByID(_ context.Context, id uuid.UUID) (*Vaccine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

// GetByName returns the first catalog entry with the given display name.
func (r *MemRepo) GetByName(_ context.Context, name string) (*Vaccine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if r.items[id].Name == name {
			cp := *r.items[id]
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemRepo) Update(_ context.Context, v *Vaccine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[v.ID]
	if !ok {
		return ErrNotFound
	}
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now()

	stored := *v
	r.items[v.ID] = &stored
	return nil
}

func (r *MemRepo) List(_ context.Context, limit, offset int) ([]*Vaccine, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.order)
	if offset >= total {
		return []*Vaccine{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	result := make([]*Vaccine, 0, end-offset)
	for _, id := range r.order[offset:end] {
		cp := *r.items[id]
		result = append(result, &cp)
	}
	return result, total, nil
}
