package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/diagnosis/frontdesk/internal/utils"
	"github.com/diagnosis/frontdesk/pkg/events"
	"github.com/diagnosis/frontdesk/pkg/logger"
)

// Drift kinds between the customer's inside flag and the ledger.
const (
	FaultFlagWithoutVisit = "inside_flag_without_open_visit"
	FaultVisitWithoutFlag = "open_visit_without_inside_flag"
)

type intent int

const (
	intentToggle intent = iota
	intentEntry
	intentExit
)

type eligibilityPolicy int

const (
	checkAlways eligibilityPolicy = iota
	checkOnEntry
	checkNever
)

// visitOp describes one pass through the entry/exit decision.
type visitOp struct {
	customerID  string
	intent      intent
	eligibility eligibilityPolicy
	services    []domain.Service
	method      domain.VisitMethod
	reason      string
	override    bool
	forced      bool
	employeeID  string
	terminalID  string
}

type pendingEvent struct {
	subject string
	data    interface{}
}

// engine owns the read-modify-write of a customer's visit state. Every call
// runs inside the store's per-customer critical section and publishes its
// events only after that section commits.
type engine struct {
	store     repo.Store
	bus       events.Publisher
	clock     clock.Clock
	loc       *time.Location
	graceDays int
}

func (e *engine) run(ctx context.Context, op visitOp) (*domain.ScanOutcome, error) {
	var (
		outcome *domain.ScanOutcome
		pending []pendingEvent
	)

	err := e.store.WithinCustomer(ctx, op.customerID, func(ctx context.Context, tx repo.Tx) error {
		var err error
		outcome, pending, err = e.decide(ctx, tx, op)
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "Visit transition failed", "error", err, "customer_id", op.customerID)
		return nil, fmt.Errorf("visit transition for %s: %w", op.customerID, err)
	}

	for _, ev := range pending {
		if err := e.bus.Publish(ctx, ev.subject, ev.data); err != nil {
			logger.WarnContext(ctx, "Failed to publish event", "error", err, "subject", ev.subject)
		}
	}
	return outcome, nil
}

func (e *engine) decide(ctx context.Context, tx repo.Tx, op visitOp) (*domain.ScanOutcome, []pendingEvent, error) {
	var pending []pendingEvent
	now := e.clock.Now()

	c, err := tx.Customers().GetByID(ctx, op.customerID)
	if err != nil {
		return nil, nil, err
	}
	if c == nil {
		return domain.Rejected(domain.OutcomeCustomerNotFound, "Customer not found"), nil, nil
	}

	elig := domain.CheckEligibility(c.Membership, now, e.graceDays)
	if op.eligibility == checkAlways && !elig.IsValid {
		return rejectedMembership(c, elig), nil, nil
	}

	open, err := tx.Visits().OpenVisitFor(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}

	fault, err := healCustomer(ctx, tx, c, open, now)
	if err != nil {
		return nil, nil, err
	}
	if fault != "" {
		pending = append(pending, pendingEvent{events.IntegrityFault, events.IntegrityFaultEvent{
			CustomerID: c.ID, Fault: fault, Healed: true, DetectedAt: now,
		}})
	}

	// A flag that claimed inside without a ledger record cannot be exited.
	if fault == FaultFlagWithoutVisit && op.intent != intentEntry {
		out := domain.Rejected(domain.OutcomeNoActiveVisit,
			"No active visit found for this customer. The desk state was repaired; scan again to enter.")
		out.Customer = c.Summary()
		return out, pending, nil
	}

	inside := open != nil
	switch {
	case op.intent == intentEntry && inside:
		out := domain.Rejected(domain.OutcomeAlreadyInside, "Customer is already inside")
		out.Customer = c.Summary()
		return out, pending, nil
	case op.intent == intentExit && !inside:
		out := domain.Rejected(domain.OutcomeNotInside, "Customer is not inside")
		out.Customer = c.Summary()
		return out, pending, nil
	}

	if !inside {
		if op.eligibility == checkOnEntry && !elig.IsValid {
			return rejectedMembership(c, elig), pending, nil
		}
		out, evs, err := e.enter(ctx, tx, c, op, elig, now)
		return out, append(pending, evs...), err
	}

	out, evs, err := e.exit(ctx, tx, c, open, op, now)
	if err == nil && op.eligibility != checkNever {
		out.Eligibility = &elig
		out.Warnings = elig.Warnings
	}
	return out, append(pending, evs...), err
}

func (e *engine) enter(ctx context.Context, tx repo.Tx, c *domain.Customer, op visitOp, elig domain.EligibilityResult, now time.Time) (*domain.ScanOutcome, []pendingEvent, error) {
	v := &domain.Visit{
		CustomerID:     c.ID,
		EntryTime:      now,
		Services:       op.services,
		Date:           clock.DateKey(now.In(e.loc)),
		MembershipType: c.Membership.Type,
		EntryMethod:    op.method,
		TerminalID:     op.terminalID,
		EnteredBy:      op.employeeID,
	}
	if op.override {
		v.Override = true
		v.OverrideReason = op.reason
	}
	if err := tx.Visits().Open(ctx, v); err != nil {
		return nil, nil, fmt.Errorf("open visit: %w", err)
	}
	c.CurrentVisit = domain.InsideSince(now)
	if err := tx.Customers().SetCurrentVisit(ctx, c.ID, c.CurrentVisit, now); err != nil {
		return nil, nil, fmt.Errorf("set inside: %w", err)
	}

	out := &domain.ScanOutcome{
		Code:        domain.OutcomeEntry,
		Message:     fmt.Sprintf("Welcome, %s", displayName(c)),
		Customer:    c.Summary(),
		Visit:       v,
		EntryTime:   &v.EntryTime,
		Eligibility: &elig,
		Warnings:    elig.Warnings,
	}

	pending := []pendingEvent{{events.VisitEntered, events.VisitEnteredEvent{
		VisitID:        v.ID,
		CustomerID:     c.ID,
		Services:       serviceNames(v.Services),
		MembershipType: string(v.MembershipType),
		Method:         string(v.EntryMethod),
		TerminalID:     v.TerminalID,
		EntryTime:      now,
	}}}
	if op.override {
		pending = append(pending, overrideEvent(v.ID, c.ID, domain.ActionEntry, op, now))
	}
	if elig.IsValid && elig.IsExpiringSoon {
		pending = append(pending, pendingEvent{events.MembershipExpiringSoon, events.MembershipExpiringEvent{
			CustomerID:      c.ID,
			Name:            c.PersonalInfo.FullName(),
			Email:           c.PersonalInfo.Email,
			EndDate:         c.Membership.EndDate,
			DaysUntilExpiry: elig.DaysUntilExpiry,
		}})
	}
	return out, pending, nil
}

func (e *engine) exit(ctx context.Context, tx repo.Tx, c *domain.Customer, open *domain.Visit, op visitOp, now time.Time) (*domain.ScanOutcome, []pendingEvent, error) {
	closed, err := tx.Visits().Close(ctx, open.ID, now, domain.CloseInfo{
		Method:     op.method,
		Reason:     op.reason,
		Forced:     op.forced,
		EmployeeID: op.employeeID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("close visit %d: %w", open.ID, err)
	}
	c.CurrentVisit = domain.OutsideSince(now)
	if err := tx.Customers().SetCurrentVisit(ctx, c.ID, c.CurrentVisit, now); err != nil {
		return nil, nil, fmt.Errorf("set outside: %w", err)
	}

	minutes := *closed.Duration
	out := &domain.ScanOutcome{
		Code:            domain.OutcomeExit,
		Message:         fmt.Sprintf("Goodbye, %s. Visit lasted %d min", displayName(c), minutes),
		Customer:        c.Summary(),
		Visit:           closed,
		EntryTime:       &closed.EntryTime,
		DurationMinutes: &minutes,
	}

	subject := events.VisitExited
	if op.forced {
		subject = events.VisitForced
	}
	pending := []pendingEvent{{subject, events.VisitExitedEvent{
		VisitID:         closed.ID,
		CustomerID:      c.ID,
		Method:          string(op.method),
		Reason:          op.reason,
		DurationMinutes: minutes,
		ExitTime:        now,
	}}}
	if op.override {
		pending = append(pending, overrideEvent(closed.ID, c.ID, domain.ActionExit, op, now))
	}
	return out, pending, nil
}

// healCustomer brings the inside flag in line with the ledger and reports the
// drift it found, if any. The ledger is authoritative.
func healCustomer(ctx context.Context, tx repo.Tx, c *domain.Customer, open *domain.Visit, now time.Time) (string, error) {
	switch {
	case c.CurrentVisit.IsInside && open == nil:
		logger.ErrorContext(ctx, "Data integrity fault: inside flag without open visit",
			"customer_id", c.ID, "fault", FaultFlagWithoutVisit)
		c.CurrentVisit = domain.CurrentVisit{ExitTime: c.CurrentVisit.ExitTime}
		if err := tx.Customers().SetCurrentVisit(ctx, c.ID, c.CurrentVisit, now); err != nil {
			return "", fmt.Errorf("clear inside flag: %w", err)
		}
		return FaultFlagWithoutVisit, nil
	case !c.CurrentVisit.IsInside && open != nil:
		logger.ErrorContext(ctx, "Data integrity fault: open visit without inside flag",
			"customer_id", c.ID, "visit_id", open.ID, "fault", FaultVisitWithoutFlag)
		c.CurrentVisit = domain.InsideSince(open.EntryTime)
		if err := tx.Customers().SetCurrentVisit(ctx, c.ID, c.CurrentVisit, now); err != nil {
			return "", fmt.Errorf("set inside flag: %w", err)
		}
		return FaultVisitWithoutFlag, nil
	}
	return "", nil
}

func rejectedMembership(c *domain.Customer, elig domain.EligibilityResult) *domain.ScanOutcome {
	out := domain.Rejected(domain.OutcomeSubscriptionInvalid, elig.Message())
	out.Customer = c.Summary()
	out.Eligibility = &elig
	out.Warnings = elig.Warnings
	return out
}

func overrideEvent(visitID int64, customerID string, action domain.ScanAction, op visitOp, now time.Time) pendingEvent {
	return pendingEvent{events.VisitOverride, events.VisitOverrideEvent{
		VisitID:    visitID,
		CustomerID: customerID,
		Action:     string(action),
		Reason:     op.reason,
		EmployeeID: op.employeeID,
		At:         now,
	}}
}

func displayName(c *domain.Customer) string {
	if name := c.PersonalInfo.FullName(); name != "" {
		return name
	}
	return c.ID
}

func serviceNames(in []domain.Service) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

// parseCustomerID normalizes a scanned or typed identifier.
func parseCustomerID(raw string) (string, *domain.FieldError) {
	id := utils.NormalizeBarcode(raw)
	if id == "" {
		return "", &domain.FieldError{Field: "customer_id", Message: "Customer ID is required"}
	}
	if !utils.IsValidBarcode(id) {
		return "", &domain.FieldError{Field: "customer_id", Message: "Invalid barcode format"}
	}
	return id, nil
}

// parseServices validates requested services; an empty request means gym.
func parseServices(raw []string) ([]domain.Service, *domain.FieldError) {
	if len(raw) == 0 {
		return []domain.Service{domain.ServiceGym}, nil
	}
	out := make([]domain.Service, 0, len(raw))
	for _, s := range raw {
		svc, ok := domain.ParseService(s)
		if !ok {
			return nil, &domain.FieldError{Field: "services", Message: fmt.Sprintf("Unknown service %q", strings.TrimSpace(s))}
		}
		out = append(out, svc)
	}
	return domain.NormalizeServices(out), nil
}
