package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessScanTogglesEntryThenExit(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "C001", "Cara")
	svc := f.scanService()
	ctx := context.Background()

	out, err := svc.ProcessScan(ctx, &domain.ScanRequest{CustomerID: "C001"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeEntry, out.Code)
	require.NotNil(t, out.EntryTime)
	assert.Equal(t, t0, *out.EntryTime)
	assert.True(t, f.customer(t, "C001").CurrentVisit.IsInside)
	assert.Equal(t, []domain.Service{domain.ServiceGym}, out.Visit.Services)
	assert.Equal(t, domain.MembershipMonthly, out.Visit.MembershipType)
	assert.Equal(t, "2026-10-14", out.Visit.Date)
	assert.Equal(t, "desk-1", out.Visit.TerminalID)
	f.assertConsistent(t)

	f.clock.Advance(150 * time.Minute)
	out, err = svc.ProcessScan(ctx, &domain.ScanRequest{CustomerID: "C001"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeExit, out.Code)
	require.NotNil(t, out.DurationMinutes)
	assert.Equal(t, 150, *out.DurationMinutes)
	assert.False(t, out.DuplicateSuspected)

	c := f.customer(t, "C001")
	assert.False(t, c.CurrentVisit.IsInside)
	require.NotNil(t, c.CurrentVisit.ExitTime)
	assert.Equal(t, t0.Add(150*time.Minute), *c.CurrentVisit.ExitTime)
	f.assertConsistent(t)

	entered := decoded[events.VisitEnteredEvent](t, f.bus, events.VisitEntered)
	exited := decoded[events.VisitExitedEvent](t, f.bus, events.VisitExited)
	require.Len(t, entered, 1)
	require.Len(t, exited, 1)
	assert.Equal(t, 150, exited[0].DurationMinutes)
}

func TestProcessScanRejectsExpiredWithoutMutation(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "D001", "Dan", withEnd(t0.AddDate(0, 0, -1)))
	svc := f.scanService()

	out, err := svc.ProcessScan(context.Background(), &domain.ScanRequest{CustomerID: "D001"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSubscriptionInvalid, out.Code)
	require.NotNil(t, out.Eligibility)
	assert.Equal(t, domain.ReasonExpired, out.Eligibility.Reason)
	assert.NotEmpty(t, out.Message)

	visits, err := f.store.Visits().ForCustomer(context.Background(), "D001")
	require.NoError(t, err)
	assert.Empty(t, visits)
	assert.False(t, f.customer(t, "D001").CurrentVisit.IsInside)
	assert.Empty(t, f.bus.Published(events.VisitEntered))
}

func TestProcessScanRejectsSuspended(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "S001", "Sam", withStatus(domain.MembershipSuspended))

	out, err := f.scanService().ProcessScan(context.Background(), &domain.ScanRequest{CustomerID: "S001"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSubscriptionInvalid, out.Code)
	assert.Equal(t, domain.ReasonSuspended, out.Eligibility.Reason)
}

func TestProcessScanExpiringSoonIsAWarning(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "E001", "Eve", withEnd(t0.AddDate(0, 0, 7)))

	out, err := f.scanService().ProcessScan(context.Background(), &domain.ScanRequest{CustomerID: "E001"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeEntry, out.Code)
	assert.True(t, out.Eligibility.IsExpiringSoon)
	assert.NotEmpty(t, out.Warnings)

	expiring := decoded[events.MembershipExpiringEvent](t, f.bus, events.MembershipExpiringSoon)
	require.Len(t, expiring, 1)
	assert.Equal(t, "E001", expiring[0].CustomerID)
	assert.Equal(t, 7, expiring[0].DaysUntilExpiry)
}

func TestProcessScanValidation(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "C001", "Cara")
	svc := f.scanService()
	ctx := context.Background()

	cases := []struct {
		name  string
		req   domain.ScanRequest
		field string
	}{
		{"empty id", domain.ScanRequest{CustomerID: "  "}, "customer_id"},
		{"bad format", domain.ScanRequest{CustomerID: "?!"}, "customer_id"},
		{"unknown service", domain.ScanRequest{CustomerID: "C001", Services: []string{"pool"}}, "services"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := svc.ProcessScan(ctx, &tc.req)
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeValidationError, out.Code)
			require.NotEmpty(t, out.Errors)
			assert.Equal(t, tc.field, out.Errors[0].Field)
		})
	}
	f.assertConsistent(t)
}

func TestProcessScanNormalizesBarcode(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "C001", "Cara")

	out, err := f.scanService().ProcessScan(context.Background(), &domain.ScanRequest{
		CustomerID: "*c001*\r\n",
		Services:   []string{"SPA", "gym", "spa"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeEntry, out.Code)
	assert.Equal(t, []domain.Service{domain.ServiceGym, domain.ServiceSpa}, out.Visit.Services)
}

func TestProcessScanUnknownCustomer(t *testing.T) {
	f := newFixture(t)
	out, err := f.scanService().ProcessScan(context.Background(), &domain.ScanRequest{CustomerID: "NOPE1"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCustomerNotFound, out.Code)
}

func TestProcessScanFlagsDuplicateWithinWindow(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "C001", "Cara")
	svc := f.scanService()
	ctx := context.Background()

	first, err := svc.ProcessScan(ctx, &domain.ScanRequest{CustomerID: "C001"})
	require.NoError(t, err)
	assert.False(t, first.DuplicateSuspected)

	f.clock.Advance(2 * time.Second)
	second, err := svc.ProcessScan(ctx, &domain.ScanRequest{CustomerID: "C001"})
	require.NoError(t, err)
	assert.True(t, second.DuplicateSuspected)
	assert.Equal(t, domain.OutcomeExit, second.Code, "the flag is advisory")

	f.clock.Advance(10 * time.Second)
	third, err := svc.ProcessScan(ctx, &domain.ScanRequest{CustomerID: "C001"})
	require.NoError(t, err)
	assert.False(t, third.DuplicateSuspected)
	assert.Equal(t, domain.OutcomeEntry, third.Code)
}

func TestDuplicateWindowFollowsLatestScan(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "C001", "Cara")
	svc := f.scanService()
	ctx := context.Background()

	// Window is 5s; scans at 0s, 4s, 7s and 13s.
	steps := []struct {
		advance   time.Duration
		duplicate bool
		code      domain.OutcomeCode
	}{
		{0, false, domain.OutcomeEntry},
		{4 * time.Second, true, domain.OutcomeExit},
		{3 * time.Second, true, domain.OutcomeEntry},
		{6 * time.Second, false, domain.OutcomeExit},
	}
	for i, step := range steps {
		f.clock.Advance(step.advance)
		out, err := svc.ProcessScan(ctx, &domain.ScanRequest{CustomerID: "C001"})
		require.NoError(t, err)
		assert.Equal(t, step.duplicate, out.DuplicateSuspected, "scan %d", i)
		assert.Equal(t, step.code, out.Code, "scan %d", i)
	}
}

func TestVisitDurationCrossesMidnight(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "C001", "Cara")
	svc := f.scanService()
	ctx := context.Background()

	f.clock.Set(time.Date(2026, 10, 14, 23, 10, 0, 0, time.UTC))
	_, err := svc.ProcessScan(ctx, &domain.ScanRequest{CustomerID: "C001"})
	require.NoError(t, err)

	f.clock.Advance(95*time.Minute + 40*time.Second)
	out, err := svc.ProcessScan(ctx, &domain.ScanRequest{CustomerID: "C001"})
	require.NoError(t, err)
	assert.Equal(t, 95, *out.DurationMinutes)
	assert.Equal(t, "2026-10-14", out.Visit.Date)
}

func TestManualEntryExitHonorsIntent(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "C001", "Cara")
	svc := f.scanService()
	ctx := context.Background()

	req := func(action string) *domain.ManualRequest {
		return &domain.ManualRequest{CustomerID: "C001", Action: action, EmployeeID: "E1"}
	}

	out, err := svc.ManualEntryExit(ctx, req("entry"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeEntry, out.Code)
	assert.Equal(t, domain.MethodManual, out.Visit.EntryMethod)
	assert.Equal(t, "E1", out.Visit.EnteredBy)

	out, err = svc.ManualEntryExit(ctx, req("entry"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAlreadyInside, out.Code)
	f.assertConsistent(t)

	f.clock.Advance(30 * time.Minute)
	out, err = svc.ManualEntryExit(ctx, req("exit"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeExit, out.Code)
	assert.Equal(t, 30, *out.DurationMinutes)

	out, err = svc.ManualEntryExit(ctx, req("exit"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNotInside, out.Code)
	f.assertConsistent(t)

	out, err = svc.ManualEntryExit(ctx, req("sideways"))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeValidationError, out.Code)
	assert.Equal(t, "action", out.Errors[0].Field)
}

func TestManualChecksEligibilityOnEntryOnly(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "D001", "Dan", withEnd(t0.AddDate(0, 0, -1)))
	svc := f.scanService()
	ctx := context.Background()

	out, err := svc.ManualEntryExit(ctx, &domain.ManualRequest{CustomerID: "D001", Action: "entry"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSubscriptionInvalid, out.Code)

	out, err = svc.EmergencyOverride(ctx, &domain.OverrideRequest{CustomerID: "D001", Reason: "fire drill marshal"})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeEntry, out.Code)

	out, err = svc.ManualEntryExit(ctx, &domain.ManualRequest{CustomerID: "D001", Action: "exit"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeExit, out.Code)
	f.assertConsistent(t)
}

func TestEmergencyOverride(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "D001", "Dan", withEnd(t0.AddDate(0, 0, -3)))
	svc := f.scanService()
	ctx := context.Background()

	out, err := svc.EmergencyOverride(ctx, &domain.OverrideRequest{CustomerID: "D001", Reason: "   "})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeValidationError, out.Code)
	assert.Equal(t, "reason", out.Errors[0].Field)

	out, err = svc.EmergencyOverride(ctx, &domain.OverrideRequest{CustomerID: "D001", Reason: "renewal pending", EmployeeID: "M1"})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeEntry, out.Code)
	assert.True(t, out.Visit.Override)
	assert.Equal(t, "renewal pending", out.Visit.OverrideReason)
	assert.Equal(t, domain.MethodOverride, out.Visit.EntryMethod)

	f.clock.Advance(45 * time.Minute)
	out, err = svc.EmergencyOverride(ctx, &domain.OverrideRequest{CustomerID: "D001", Reason: "escorted out"})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeExit, out.Code)
	assert.Equal(t, domain.MethodOverride, out.Visit.ExitMethod)
	assert.Equal(t, "escorted out", out.Visit.ExitReason)

	overrides := decoded[events.VisitOverrideEvent](t, f.bus, events.VisitOverride)
	require.Len(t, overrides, 2)
	assert.Equal(t, "entry", overrides[0].Action)
	assert.Equal(t, "M1", overrides[0].EmployeeID)
	assert.Equal(t, "exit", overrides[1].Action)
	f.assertConsistent(t)
}

func TestInsideFlagWithoutVisitIsHealed(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "G001", "Gus")
	ctx := context.Background()
	require.NoError(t, f.store.Customers().SetCurrentVisit(ctx, "G001", domain.InsideSince(t0.Add(-time.Hour)), t0))
	svc := f.scanService()

	out, err := svc.ProcessScan(ctx, &domain.ScanRequest{CustomerID: "G001"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNoActiveVisit, out.Code)
	assert.False(t, f.customer(t, "G001").CurrentVisit.IsInside)
	f.assertConsistent(t)

	faults := decoded[events.IntegrityFaultEvent](t, f.bus, events.IntegrityFault)
	require.Len(t, faults, 1)
	assert.Equal(t, FaultFlagWithoutVisit, faults[0].Fault)
	assert.True(t, faults[0].Healed)

	f.clock.Advance(time.Minute)
	out, err = svc.ProcessScan(ctx, &domain.ScanRequest{CustomerID: "G001"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeEntry, out.Code)
}

func TestOpenVisitWithoutFlagExits(t *testing.T) {
	f := newFixture(t)
	f.addCustomer(t, "G002", "Gia")
	ctx := context.Background()
	require.NoError(t, f.store.Visits().Open(ctx, &domain.Visit{
		CustomerID: "G002", EntryTime: t0.Add(-40 * time.Minute), Date: "2026-10-14",
		Services: []domain.Service{domain.ServiceGym}, EntryMethod: domain.MethodScan,
	}))

	out, err := f.scanService().ProcessScan(ctx, &domain.ScanRequest{CustomerID: "G002"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeExit, out.Code)
	assert.Equal(t, 40, *out.DurationMinutes)
	f.assertConsistent(t)
	assert.Len(t, f.bus.Published(events.IntegrityFault), 1)
}

func TestConcurrentScansKeepOneOpenVisit(t *testing.T) {
	f := newFixture(t)
	f.cfg.Desk.DuplicateWindow = 0
	f.addCustomer(t, "C001", "Cara")
	svc := f.scanService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ProcessScan(ctx, &domain.ScanRequest{CustomerID: "C001"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	f.assertConsistent(t)
	visits, err := f.store.Visits().ForCustomer(ctx, "C001")
	require.NoError(t, err)
	assert.Len(t, visits, 13, "25 toggles open 13 visits")
	open, err := f.store.Visits().OpenVisitFor(ctx, "C001")
	require.NoError(t, err)
	assert.NotNil(t, open)
}
