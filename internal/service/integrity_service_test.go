package service

import (
	"context"
	"testing"
	"time"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileHealsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addCustomer(t, "C001", "Flag")
	f.addCustomer(t, "C002", "Ledger")
	f.addCustomer(t, "C003", "Fine")

	require.NoError(t, f.store.Customers().SetCurrentVisit(ctx, "C001", domain.InsideSince(t0), t0))
	addVisit(t, f, "C002", t0.Add(-13*time.Hour), -1, domain.MembershipMonthly)

	report, err := NewIntegrityService(f.store, f.bus, f.clock, f.cfg).Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 2, report.Healed)
	assert.Len(t, report.LongOpenVisits, 1)
	f.assertConsistent(t)

	faults := decoded[events.IntegrityFaultEvent](t, f.bus, events.IntegrityFault)
	require.Len(t, faults, 2)
	assert.Equal(t, FaultFlagWithoutVisit, faults[0].Fault)
	assert.Equal(t, FaultVisitWithoutFlag, faults[1].Fault)

	report, err = NewIntegrityService(f.store, f.bus, f.clock, f.cfg).Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Healed)
}
