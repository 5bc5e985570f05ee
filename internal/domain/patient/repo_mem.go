package patient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepo is a thread-safe, in-memory Repository. The registry exclusively
// owns Patient records and their histories; callers get copies.
type MemRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Patient
	order []uuid.UUID
}

func NewMemRepo() *MemRepo {
	return &MemRepo{items: make(map[uuid.UUID]*Patient)}
}

func clonePatient(p *Patient) *Patient {
	cp := *p
	if p.History != nil {
		cp.History = make([]VaccinationRecord, len(p.History))
		copy(cp.History, p.History)
	}
	if p.NextDoseDue != nil {
		due := *p.NextDoseDue
		cp.NextDoseDue = &due
	}
	return &cp
}

func (r *MemRepo) Create(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if _, exists := r.items[p.ID]; exists {
		return fmt.Errorf("patient %s already exists", p.ID)
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	r.items[p.ID] = clonePatient(p)
	r.order = append(r.order, p.ID)
	return nil
}

func (r *MemRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePatient(p), nil
}

func (r *MemRepo) Update(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()

	r.items[p.ID] = clonePatient(p)
	return nil
}

func (r *MemRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.order)
	if offset >= total {
		return []*Patient{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	result := make([]*Patient, 0, end-offset)
	for _, id := range r.order[offset:end] {
		result = append(result, clonePatient(r.items[id]))
	}
	return result, total, nil
}
