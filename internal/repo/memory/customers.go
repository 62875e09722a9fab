package memory

import (
	"context"
	"sync"
	"time"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
)

type CustomerRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Customer
	order []string
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{items: make(map[string]domain.Customer)}
}

func (r *CustomerRepository) Create(_ context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[c.ID]; exists {
		return repo.ErrDuplicateCustomer
	}
	r.items[c.ID] = cloneCustomer(*c)
	r.order = append(r.order, c.ID)
	return nil
}

func (r *CustomerRepository) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	out := cloneCustomer(c)
	return &out, nil
}

func (r *CustomerRepository) List(_ context.Context) ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Customer, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneCustomer(r.items[id]))
	}
	return out, nil
}

func (r *CustomerRepository) SetCurrentVisit(_ context.Context, id string, cv domain.CurrentVisit, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return repo.ErrNotFound
	}
	c.CurrentVisit = cloneCurrentVisit(cv)
	c.UpdatedAt = at
	r.items[id] = c
	return nil
}

func cloneCustomer(c domain.Customer) domain.Customer {
	c.Membership.Services = append([]domain.Service(nil), c.Membership.Services...)
	c.CurrentVisit = cloneCurrentVisit(c.CurrentVisit)
	return c
}

func cloneCurrentVisit(cv domain.CurrentVisit) domain.CurrentVisit {
	return domain.CurrentVisit{
		IsInside:  cv.IsInside,
		EntryTime: cloneTime(cv.EntryTime),
		ExitTime:  cloneTime(cv.ExitTime),
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
