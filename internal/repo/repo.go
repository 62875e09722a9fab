// Package repo defines the persistence contracts of the desk: customers,
// the visit ledger and employees.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/frontdesk/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrOpenVisitExists   = errors.New("customer already has an open visit")
	ErrVisitClosed       = errors.New("visit already closed")
	ErrDuplicateCustomer = errors.New("customer already exists")
	ErrDuplicateEmployee = errors.New("employee already exists")
	ErrDuplicateVisit    = errors.New("visit id already recorded")
)

type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	// GetByID returns nil, nil when the customer does not exist.
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	SetCurrentVisit(ctx context.Context, id string, cv domain.CurrentVisit, at time.Time) error
}

// VisitRepository is the visit ledger. Visits are never deleted and the only
// update is the close transition.
type VisitRepository interface {
	// Open appends v and assigns its ID. It fails with ErrOpenVisitExists when
	// the customer already has an open visit.
	Open(ctx context.Context, v *domain.Visit) error
	Close(ctx context.Context, id int64, exitTime time.Time, info domain.CloseInfo) (*domain.Visit, error)
	// Restore inserts a seeded visit keeping its ID.
	Restore(ctx context.Context, v domain.Visit) error
	// OpenVisitFor returns nil, nil when the customer is outside.
	OpenVisitFor(ctx context.Context, customerID string) (*domain.Visit, error)
	OpenVisits(ctx context.Context) ([]domain.Visit, error)
	// InRange returns visits whose date key lies in [startKey, endKey].
	InRange(ctx context.Context, startKey, endKey string) ([]domain.Visit, error)
	ForCustomer(ctx context.Context, customerID string) ([]domain.Visit, error)
}

type EmployeeRepository interface {
	Create(ctx context.Context, e *domain.Employee) error
	// FindByUsername returns nil, nil when no employee matches.
	FindByUsername(ctx context.Context, username string) (*domain.Employee, error)
}

// Tx exposes the repositories bound to one customer critical section.
type Tx interface {
	Customers() CustomerRepository
	Visits() VisitRepository
}

type Store interface {
	Tx
	Employees() EmployeeRepository
	// WithinCustomer runs fn with exclusive access to the visit state of
	// customerID. Writes made through tx commit together with fn's success.
	WithinCustomer(ctx context.Context, customerID string, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}
