package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo/memory"
	"github.com/diagnosis/frontdesk/internal/service"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlSeed = `
customers:
  - customer_id: y100
    personal_info:
      first_name: Yara
      last_name: Nasser
      phone: "5550199"
    membership:
      type: monthly
      start_date: "2026-10-01T00:00:00Z"
      status: active
      services: [spa, gym]
employees:
  - username: Desk
    password: pw-desk
visits:
  - visit_id: 7
    customer_id: Y100
    entry_time: "2026-10-13T22:50:00Z"
    exit_time: "2026-10-14T00:20:00Z"
  - visit_id: 9
    customer_id: Y100
    entry_time: "2026-10-14T08:00:00Z"
`

func newDeps() (*memory.Store, service.AuthService) {
	store := memory.NewStore()
	clk := clock.NewManual(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	return store, service.NewAuthService(store.Employees(), clk, &config.Config{})
}

func TestApplyYAMLSeed(t *testing.T) {
	f, err := Parse([]byte(yamlSeed), ".yaml")
	require.NoError(t, err)
	store, auth := newDeps()
	ctx := context.Background()

	sum, err := Apply(ctx, f, store, auth, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Customers: 1, Employees: 1, Visits: 2}, sum)

	c, err := store.Customers().GetByID(ctx, "Y100")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, []domain.Service{domain.ServiceGym, domain.ServiceSpa}, c.Membership.Services)
	assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), c.Membership.EndDate)

	visits, err := store.Visits().ForCustomer(ctx, "Y100")
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "2026-10-13", visits[0].Date)
	assert.Equal(t, 90, *visits[0].Duration)
	assert.True(t, visits[1].IsOpen())

	next := &domain.Visit{CustomerID: "OTHER", EntryTime: time.Now(), Date: "2026-10-14"}
	require.NoError(t, store.Visits().Open(ctx, next))
	assert.Equal(t, int64(10), next.ID, "counter continues after seeded ids")

	emp, err := store.Employees().FindByUsername(ctx, "desk")
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, domain.RoleStaff, emp.Role)

	again, err := Apply(ctx, f, store, auth, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 4, again.Skipped)
}

func TestLoadBundledSeed(t *testing.T) {
	path := filepath.Join("..", "..", "data", "seed.json")
	if _, err := os.Stat(path); err != nil {
		t.Skip("bundled seed not present")
	}
	f, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, f.Customers)
	assert.NotEmpty(t, f.Employees)
	for _, e := range f.Employees {
		assert.True(t, domain.IsValidRole(e.Role), e.Username)
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"customers": [`), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
