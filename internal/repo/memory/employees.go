package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
)

type EmployeeRepository struct {
	mu         sync.RWMutex
	byUsername map[string]domain.Employee
}

func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{byUsername: make(map[string]domain.Employee)}
}

func (r *EmployeeRepository) Create(_ context.Context, e *domain.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(e.Username)
	if _, exists := r.byUsername[key]; exists {
		return repo.ErrDuplicateEmployee
	}
	r.byUsername[key] = *e
	return nil
}

func (r *EmployeeRepository) FindByUsername(_ context.Context, username string) (*domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, nil
	}
	return &e, nil
}
