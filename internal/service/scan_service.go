package service

import (
	"context"
	"strings"
	"time"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/diagnosis/frontdesk/pkg/cache"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/diagnosis/frontdesk/pkg/events"
	"github.com/diagnosis/frontdesk/pkg/logger"
)

// ScanService decides entries and exits at the desk. Rejections come back as
// outcomes; a non-nil error means the transition could not be completed.
type ScanService interface {
	ProcessScan(ctx context.Context, req *domain.ScanRequest) (*domain.ScanOutcome, error)
	ManualEntryExit(ctx context.Context, req *domain.ManualRequest) (*domain.ScanOutcome, error)
	EmergencyOverride(ctx context.Context, req *domain.OverrideRequest) (*domain.ScanOutcome, error)
}

type scanService struct {
	engine *engine
	cache  cache.Cache
	config *config.Config
}

func NewScanService(
	store repo.Store,
	cache cache.Cache,
	eventBus events.Publisher,
	clk clock.Clock,
	config *config.Config,
) ScanService {
	return &scanService{
		engine: newEngine(store, eventBus, clk, config),
		cache:  cache,
		config: config,
	}
}

func newEngine(store repo.Store, bus events.Publisher, clk clock.Clock, cfg *config.Config) *engine {
	return &engine{
		store:     store,
		bus:       bus,
		clock:     clk,
		loc:       cfg.Desk.Location(),
		graceDays: cfg.Desk.GraceDays,
	}
}

func (s *scanService) ProcessScan(ctx context.Context, req *domain.ScanRequest) (*domain.ScanOutcome, error) {
	id, services, errs := parseVisitInput(req.CustomerID, req.Services)
	if len(errs) > 0 {
		return domain.Invalid(errs...), nil
	}

	duplicate := s.suspectDuplicate(ctx, id)

	out, err := s.engine.run(ctx, visitOp{
		customerID:  id,
		intent:      intentToggle,
		eligibility: checkAlways,
		services:    services,
		method:      domain.MethodScan,
		terminalID:  s.terminal(req.TerminalID),
	})
	if err != nil {
		return nil, err
	}
	out.DuplicateSuspected = duplicate
	return out, nil
}

// suspectDuplicate records the scan time and reports whether the previous
// scan of the customer was less than the duplicate window ago. Flagged scans
// are still processed.
func (s *scanService) suspectDuplicate(ctx context.Context, customerID string) bool {
	window := s.config.Desk.DuplicateWindow
	if window <= 0 {
		return false
	}
	key := "scan:recent:" + customerID
	now := s.engine.clock.Now()

	prev, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.WarnContext(ctx, "Duplicate scan check unavailable", "error", err, "customer_id", customerID)
		return false
	}
	if err := s.cache.Set(ctx, key, now.UTC().Format(time.RFC3339Nano), window); err != nil {
		logger.WarnContext(ctx, "Failed to record scan time", "error", err, "customer_id", customerID)
	}
	if !ok {
		return false
	}

	last, err := time.Parse(time.RFC3339Nano, prev)
	if err != nil {
		return false
	}
	since := now.Sub(last)
	if since < 0 || since >= window {
		return false
	}
	logger.InfoContext(ctx, "Possible duplicate scan", "customer_id", customerID, "since", since.String())
	return true
}

func (s *scanService) ManualEntryExit(ctx context.Context, req *domain.ManualRequest) (*domain.ScanOutcome, error) {
	id, services, errs := parseVisitInput(req.CustomerID, req.Services)
	action, ok := domain.ParseScanAction(strings.ToLower(strings.TrimSpace(req.Action)))
	if !ok {
		errs = append(errs, domain.FieldError{Field: "action", Message: "Action must be entry or exit"})
	}
	if len(errs) > 0 {
		return domain.Invalid(errs...), nil
	}

	op := visitOp{
		customerID:  id,
		intent:      intentEntry,
		eligibility: checkOnEntry,
		services:    services,
		method:      domain.MethodManual,
		employeeID:  req.EmployeeID,
		terminalID:  s.terminal(req.TerminalID),
	}
	if action == domain.ActionExit {
		op.intent = intentExit
	}

	logger.InfoContext(ctx, "Manual visit action", "customer_id", id, "action", string(action), "employee_id", req.EmployeeID)
	return s.engine.run(ctx, op)
}

func (s *scanService) EmergencyOverride(ctx context.Context, req *domain.OverrideRequest) (*domain.ScanOutcome, error) {
	id, services, errs := parseVisitInput(req.CustomerID, req.Services)
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "Override reason is required"})
	}
	if len(errs) > 0 {
		return domain.Invalid(errs...), nil
	}

	logger.WarnContext(ctx, "Emergency override", "customer_id", id, "reason", reason, "employee_id", req.EmployeeID)
	return s.engine.run(ctx, visitOp{
		customerID:  id,
		intent:      intentToggle,
		eligibility: checkNever,
		services:    services,
		method:      domain.MethodOverride,
		reason:      reason,
		override:    true,
		employeeID:  req.EmployeeID,
		terminalID:  s.terminal(req.TerminalID),
	})
}

func (s *scanService) terminal(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return s.config.Desk.TerminalID
}

func parseVisitInput(rawID string, rawServices []string) (string, []domain.Service, []domain.FieldError) {
	var errs []domain.FieldError
	id, fe := parseCustomerID(rawID)
	if fe != nil {
		errs = append(errs, *fe)
	}
	services, fe := parseServices(rawServices)
	if fe != nil {
		errs = append(errs, *fe)
	}
	return id, services, errs
}
