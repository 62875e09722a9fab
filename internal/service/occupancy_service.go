package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/diagnosis/frontdesk/internal/utils"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/diagnosis/frontdesk/pkg/events"
	"github.com/diagnosis/frontdesk/pkg/logger"
)

type OccupancyService interface {
	CurrentOccupants(ctx context.Context, filter domain.OccupantFilter) ([]domain.OccupantView, error)
	Capacity(ctx context.Context) (*domain.CapacityStatus, error)
	ForceExit(ctx context.Context, customerID, reason, employeeID string) (*domain.ScanOutcome, error)
	EmergencyEvacuationList(ctx context.Context) (*domain.EvacuationList, error)
}

type occupancyService struct {
	store  repo.Store
	engine *engine
	clock  clock.Clock
	config *config.Config
}

func NewOccupancyService(
	store repo.Store,
	eventBus events.Publisher,
	clk clock.Clock,
	config *config.Config,
) OccupancyService {
	return &occupancyService{
		store:  store,
		engine: newEngine(store, eventBus, clk, config),
		clock:  clk,
		config: config,
	}
}

type occupant struct {
	visit    domain.Visit
	customer *domain.Customer
}

// occupants joins open visits with their customers, oldest entry first.
func (s *occupancyService) occupants(ctx context.Context) ([]occupant, error) {
	open, err := s.store.Visits().OpenVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open visits: %w", err)
	}

	out := make([]occupant, 0, len(open))
	for _, v := range open {
		c, err := s.store.Customers().GetByID(ctx, v.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("load customer %s: %w", v.CustomerID, err)
		}
		if c == nil {
			logger.WarnContext(ctx, "Open visit for unknown customer", "visit_id", v.ID, "customer_id", v.CustomerID)
			c = &domain.Customer{ID: v.CustomerID}
		}
		out = append(out, occupant{visit: v, customer: c})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].visit.EntryTime.Equal(out[j].visit.EntryTime) {
			return out[i].visit.ID < out[j].visit.ID
		}
		return out[i].visit.EntryTime.Before(out[j].visit.EntryTime)
	})
	return out, nil
}

func (s *occupancyService) CurrentOccupants(ctx context.Context, filter domain.OccupantFilter) ([]domain.OccupantView, error) {
	var service domain.Service
	if raw := strings.TrimSpace(filter.Service); raw != "" {
		svc, ok := domain.ParseService(raw)
		if !ok {
			return nil, invalid("service", "Service filter must be gym or spa")
		}
		service = svc
	}
	query := strings.TrimSpace(filter.Query)

	all, err := s.occupants(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	views := make([]domain.OccupantView, 0, len(all))
	for _, o := range all {
		if service != "" && !domain.HasService(o.visit.Services, service) {
			continue
		}
		name := o.customer.PersonalInfo.FullName()
		if query != "" && !utils.ContainsFold(name, query) && !utils.ContainsFold(o.customer.ID, query) {
			continue
		}
		views = append(views, domain.OccupantView{
			CustomerID:             o.customer.ID,
			Name:                   name,
			Phone:                  o.customer.PersonalInfo.Phone,
			MembershipType:         o.customer.Membership.Type,
			VisitID:                o.visit.ID,
			Services:               o.visit.Services,
			EntryTime:              o.visit.EntryTime,
			CurrentDurationMinutes: clock.DurationMinutes(o.visit.EntryTime, now),
		})
	}
	return views, nil
}

func (s *occupancyService) Capacity(ctx context.Context) (*domain.CapacityStatus, error) {
	open, err := s.store.Visits().OpenVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open visits: %w", err)
	}

	desk := s.config.Desk
	status := &domain.CapacityStatus{Count: len(open), MaxCapacity: desk.MaxCapacity}
	if desk.MaxCapacity > 0 {
		status.Ratio = float64(status.Count) / float64(desk.MaxCapacity)
		status.Percent = int(math.Round(status.Ratio * 100))
		status.NearCapacity = status.Ratio >= desk.NearCapacity
		status.AtCapacity = status.Ratio >= desk.AtCapacity
	}
	return status, nil
}

func (s *occupancyService) ForceExit(ctx context.Context, customerID, reason, employeeID string) (*domain.ScanOutcome, error) {
	var errs []domain.FieldError
	id, fe := parseCustomerID(customerID)
	if fe != nil {
		errs = append(errs, *fe)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "Reason is required for a forced exit"})
	}
	if len(errs) > 0 {
		return domain.Invalid(errs...), nil
	}

	logger.WarnContext(ctx, "Forced exit", "customer_id", id, "reason", reason, "employee_id", employeeID)
	return s.engine.run(ctx, visitOp{
		customerID:  id,
		intent:      intentExit,
		eligibility: checkNever,
		method:      domain.MethodForce,
		reason:      reason,
		forced:      true,
		employeeID:  employeeID,
		terminalID:  s.config.Desk.TerminalID,
	})
}

func (s *occupancyService) EmergencyEvacuationList(ctx context.Context) (*domain.EvacuationList, error) {
	all, err := s.occupants(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	list := &domain.EvacuationList{
		GeneratedAt: now,
		Count:       len(all),
		Occupants:   make([]domain.EvacuationEntry, 0, len(all)),
	}
	for _, o := range all {
		list.Occupants = append(list.Occupants, domain.EvacuationEntry{
			CustomerID:       o.customer.ID,
			Name:             o.customer.PersonalInfo.FullName(),
			Phone:            o.customer.PersonalInfo.Phone,
			EmergencyContact: o.customer.PersonalInfo.EmergencyContact,
			EntryTime:        o.visit.EntryTime,
			DurationMinutes:  clock.DurationMinutes(o.visit.EntryTime, now),
		})
	}
	return list, nil
}
