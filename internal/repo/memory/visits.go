package memory

import (
	"context"
	"sync"
	"time"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
)

// VisitRepository is an in-process ledger. Visits keep insertion order and
// IDs come from a counter that only moves forward.
type VisitRepository struct {
	mu     sync.RWMutex
	visits []domain.Visit
	byID   map[int64]int
	open   map[string]int64
	lastID int64
}

func NewVisitRepository() *VisitRepository {
	return &VisitRepository{
		byID: make(map[int64]int),
		open: make(map[string]int64),
	}
}

func (r *VisitRepository) Open(_ context.Context, v *domain.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.open[v.CustomerID]; exists {
		return repo.ErrOpenVisitExists
	}
	r.lastID++
	v.ID = r.lastID
	v.ExitTime = nil
	v.Duration = nil
	r.appendLocked(*v)
	return nil
}

func (r *VisitRepository) Restore(_ context.Context, v domain.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[v.ID]; exists {
		return repo.ErrDuplicateVisit
	}
	if v.IsOpen() {
		if _, exists := r.open[v.CustomerID]; exists {
			return repo.ErrOpenVisitExists
		}
	}
	if v.ID == 0 {
		r.lastID++
		v.ID = r.lastID
	} else if v.ID > r.lastID {
		r.lastID = v.ID
	}
	r.appendLocked(v)
	return nil
}

func (r *VisitRepository) appendLocked(v domain.Visit) {
	r.visits = append(r.visits, cloneVisit(v))
	r.byID[v.ID] = len(r.visits) - 1
	if v.IsOpen() {
		r.open[v.CustomerID] = v.ID
	}
}

func (r *VisitRepository) Close(_ context.Context, id int64, exitTime time.Time, info domain.CloseInfo) (*domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	v := r.visits[idx]
	if !v.IsOpen() {
		return nil, repo.ErrVisitClosed
	}

	duration := clock.DurationMinutes(v.EntryTime, exitTime)
	v.ExitTime = &exitTime
	v.Duration = &duration
	v.ExitMethod = info.Method
	v.ExitReason = info.Reason
	v.ForcedExit = info.Forced
	v.ExitedBy = info.EmployeeID

	r.visits[idx] = v
	delete(r.open, v.CustomerID)

	out := cloneVisit(v)
	return &out, nil
}

func (r *VisitRepository) OpenVisitFor(_ context.Context, customerID string) (*domain.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.open[customerID]
	if !ok {
		return nil, nil
	}
	out := cloneVisit(r.visits[r.byID[id]])
	return &out, nil
}

func (r *VisitRepository) OpenVisits(_ context.Context) ([]domain.Visit, error) {
	return r.filter(func(v *domain.Visit) bool { return v.IsOpen() }), nil
}

func (r *VisitRepository) InRange(_ context.Context, startKey, endKey string) ([]domain.Visit, error) {
	return r.filter(func(v *domain.Visit) bool {
		return v.Date >= startKey && v.Date <= endKey
	}), nil
}

func (r *VisitRepository) ForCustomer(_ context.Context, customerID string) ([]domain.Visit, error) {
	return r.filter(func(v *domain.Visit) bool { return v.CustomerID == customerID }), nil
}

func (r *VisitRepository) filter(keep func(v *domain.Visit) bool) []domain.Visit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Visit
	for i := range r.visits {
		if keep(&r.visits[i]) {
			out = append(out, cloneVisit(r.visits[i]))
		}
	}
	return out
}

func cloneVisit(v domain.Visit) domain.Visit {
	v.ExitTime = cloneTime(v.ExitTime)
	if v.Duration != nil {
		d := *v.Duration
		v.Duration = &d
	}
	v.Services = append([]domain.Service(nil), v.Services...)
	return v
}
