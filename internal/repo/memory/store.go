// Package memory keeps desk state in process, the way a single front-desk
// terminal holds its seeded data.
package memory

import (
	"context"
	"sync"

	"github.com/diagnosis/frontdesk/internal/repo"
)

type Store struct {
	customers *CustomerRepository
	visits    *VisitRepository
	employees *EmployeeRepository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		customers: NewCustomerRepository(),
		visits:    NewVisitRepository(),
		employees: NewEmployeeRepository(),
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *Store) Customers() repo.CustomerRepository { return s.customers }
func (s *Store) Visits() repo.VisitRepository       { return s.visits }
func (s *Store) Employees() repo.EmployeeRepository { return s.employees }

func (s *Store) customerLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// WithinCustomer serializes callers per customer. The memory store has no
// rollback, so fn must report failures before its first write.
func (s *Store) WithinCustomer(ctx context.Context, customerID string, fn func(ctx context.Context, tx repo.Tx) error) error {
	l := s.customerLock(customerID)
	l.Lock()
	defer l.Unlock()
	return fn(ctx, s)
}

func (s *Store) Close() error { return nil }
