package service

import (
	"context"
	"testing"
	"time"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo/memory"
	"github.com/diagnosis/frontdesk/pkg/cache"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/diagnosis/frontdesk/pkg/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-10-14 is a Wednesday.
var t0 = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	clock *clock.Manual
	bus   *events.LocalBus
	cache *cache.Memory
	cfg   *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Hour},
		Desk: config.DeskConfig{
			TerminalID:       "desk-1",
			Timezone:         "UTC",
			GraceDays:        7,
			DuplicateWindow:  5 * time.Second,
			MaxCapacity:      10,
			NearCapacity:     0.8,
			AtCapacity:       1.0,
			MaxVisitDuration: 12 * time.Hour,
		},
		Stats: config.StatsConfig{CacheTTL: 5 * time.Minute},
		Pricing: config.PricingConfig{
			Daily:   decimal.NewFromInt(15),
			Monthly: decimal.NewFromInt(300),
			Annual:  decimal.NewFromInt(3000),
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewManual(t0)
	return &fixture{
		store: memory.NewStore(),
		clock: clk,
		bus:   events.NewLocalBus(),
		cache: cache.NewMemory(clk.Now),
		cfg:   testConfig(),
	}
}

func (f *fixture) scanService() ScanService {
	return NewScanService(f.store, f.cache, f.bus, f.clock, f.cfg)
}

func (f *fixture) occupancyService() OccupancyService {
	return NewOccupancyService(f.store, f.bus, f.clock, f.cfg)
}

func (f *fixture) statsService() StatisticsService {
	return NewStatisticsService(f.store, f.cache, f.clock, f.cfg)
}

type customerOpt func(c *domain.Customer)

func withType(t domain.MembershipType) customerOpt {
	return func(c *domain.Customer) { c.Membership.Type = t }
}

func withEnd(end time.Time) customerOpt {
	return func(c *domain.Customer) { c.Membership.EndDate = end }
}

func withStatus(s domain.MembershipStatus) customerOpt {
	return func(c *domain.Customer) { c.Membership.Status = s }
}

func (f *fixture) addCustomer(t *testing.T, id, first string, opts ...customerOpt) *domain.Customer {
	t.Helper()
	c := &domain.Customer{
		ID: id,
		PersonalInfo: domain.PersonalInfo{
			FirstName:        first,
			LastName:         "Tester",
			Phone:            "5550100",
			EmergencyContact: "5550199",
		},
		Membership: domain.Membership{
			Type:      domain.MembershipMonthly,
			StartDate: t0.AddDate(0, 0, -10),
			EndDate:   t0.AddDate(0, 0, 30),
			Status:    domain.MembershipActive,
			Services:  []domain.Service{domain.ServiceGym, domain.ServiceSpa},
		},
		CreatedAt: t0,
		UpdatedAt: t0,
	}
	for _, o := range opts {
		o(c)
	}
	require.NoError(t, f.store.Customers().Create(context.Background(), c))
	return c
}

func (f *fixture) customer(t *testing.T, id string) *domain.Customer {
	t.Helper()
	c, err := f.store.Customers().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

// assertConsistent checks that every inside flag matches exactly one open
// ledger record.
func (f *fixture) assertConsistent(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	customers, err := f.store.Customers().List(ctx)
	require.NoError(t, err)
	open, err := f.store.Visits().OpenVisits(ctx)
	require.NoError(t, err)

	perCustomer := map[string]int{}
	for _, v := range open {
		perCustomer[v.CustomerID]++
	}
	for _, c := range customers {
		assert.LessOrEqual(t, perCustomer[c.ID], 1, c.ID)
		assert.Equal(t, perCustomer[c.ID] == 1, c.CurrentVisit.IsInside, c.ID)
	}
}

func decoded[T any](t *testing.T, bus *events.LocalBus, subject string) []T {
	t.Helper()
	var out []T
	for _, m := range bus.Published(subject) {
		var v T
		require.NoError(t, m.Decode(&v))
		out = append(out, v)
	}
	return out
}
