package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/diagnosis/frontdesk/pkg/cache"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// StatisticsService folds the visit ledger into period reports. Visits are
// partitioned by the date of their entry in the desk time zone.
type StatisticsService interface {
	DailyStatistics(ctx context.Context, date time.Time) (*domain.DailyStats, error)
	WeeklyStatistics(ctx context.Context, weekStart time.Time) (*domain.WeeklyStats, error)
	MonthlyStatistics(ctx context.Context, monthRef time.Time) (*domain.MonthlyStats, error)
}

type statisticsService struct {
	store  repo.Store
	cache  cache.Cache
	clock  clock.Clock
	config *config.Config
	loc    *time.Location
	group  singleflight.Group
}

func NewStatisticsService(
	store repo.Store,
	cache cache.Cache,
	clk clock.Clock,
	config *config.Config,
) StatisticsService {
	return &statisticsService{
		store:  store,
		cache:  cache,
		clock:  clk,
		config: config,
		loc:    config.Desk.Location(),
	}
}

func (s *statisticsService) DailyStatistics(ctx context.Context, date time.Time) (*domain.DailyStats, error) {
	key := clock.DateKey(clock.StartOfDay(date.In(s.loc)))

	return cached(ctx, s, "stats:daily:"+key, s.closed(key), func(ctx context.Context) (*domain.DailyStats, error) {
		byDay, err := s.tallies(ctx, key, key)
		if err != nil {
			return nil, err
		}
		daily := s.daily(key, byDay[key])
		return &daily, nil
	})
}

func (s *statisticsService) WeeklyStatistics(ctx context.Context, weekStart time.Time) (*domain.WeeklyStats, error) {
	keys := clock.DayKeys(clock.WeekStart(weekStart.In(s.loc)), 7)
	first, last := keys[0], keys[len(keys)-1]

	return cached(ctx, s, "stats:weekly:"+first, s.closed(last), func(ctx context.Context) (*domain.WeeklyStats, error) {
		byDay, err := s.tallies(ctx, first, last)
		if err != nil {
			return nil, err
		}

		var week tally
		days := make([]domain.DailyStats, 0, len(keys))
		counts := make([]domain.DayCount, 0, len(keys))
		for _, k := range keys {
			d := s.daily(k, byDay[k])
			days = append(days, d)
			counts = append(counts, domain.DayCount{Date: k, Visits: d.TotalVisits})
			week.merge(byDay[k])
		}
		week.finish()
		peak, peakEntries := week.hourly.Peak()

		return &domain.WeeklyStats{
			WeekStart:           first,
			WeekEnd:             last,
			VisitTotals:         week.totals,
			Days:                days,
			Hourly:              week.hourly,
			PeakHour:            peak,
			PeakHourEntries:     peakEntries,
			BusiestDay:          busiestDay(counts),
			MembershipBreakdown: week.membership,
			ServiceUsage:        week.services,
			Revenue:             s.revenue(week.membership, week.totals.TotalVisits),
			GeneratedAt:         s.clock.Now(),
		}, nil
	})
}

func (s *statisticsService) MonthlyStatistics(ctx context.Context, monthRef time.Time) (*domain.MonthlyStats, error) {
	start := clock.MonthStart(monthRef.In(s.loc))
	keys := clock.DayKeys(start, clock.DaysInMonth(start))
	first, last := keys[0], keys[len(keys)-1]
	month := start.Format("2006-01")

	return cached(ctx, s, "stats:monthly:"+month, s.closed(last), func(ctx context.Context) (*domain.MonthlyStats, error) {
		byDay, err := s.tallies(ctx, first, last)
		if err != nil {
			return nil, err
		}

		var all tally
		counts := make([]domain.DayCount, 0, len(keys))
		for _, k := range keys {
			n := 0
			if t := byDay[k]; t != nil {
				n = t.totals.TotalVisits
			}
			counts = append(counts, domain.DayCount{Date: k, Visits: n})
			all.merge(byDay[k])
		}
		all.finish()
		peak, peakEntries := all.hourly.Peak()

		return &domain.MonthlyStats{
			Month:               month,
			VisitTotals:         all.totals,
			Days:                counts,
			Weeks:               weekTrends(start, counts),
			Hourly:              all.hourly,
			PeakHour:            peak,
			PeakHourEntries:     peakEntries,
			BusiestDay:          busiestDay(counts),
			MembershipBreakdown: all.membership,
			ServiceUsage:        all.services,
			Revenue:             s.revenue(all.membership, all.totals.TotalVisits),
			GeneratedAt:         s.clock.Now(),
		}, nil
	})
}

// closed reports whether a period ending on lastKey is over and can be
// served from cache. Periods that include today are always recomputed.
func (s *statisticsService) closed(lastKey string) bool {
	if s.config.Stats.CacheTTL <= 0 {
		return false
	}
	today := clock.DateKey(s.clock.Now().In(s.loc))
	return lastKey < today
}

// tallies loads the visits of [first, last] and folds them per day.
func (s *statisticsService) tallies(ctx context.Context, first, last string) (map[string]*tally, error) {
	visits, err := s.store.Visits().InRange(ctx, first, last)
	if err != nil {
		return nil, fmt.Errorf("load visits %s..%s: %w", first, last, err)
	}

	types := &typeResolver{customers: s.store.Customers(), memo: make(map[string]domain.MembershipType)}
	byDay := make(map[string]*tally)
	for i := range visits {
		v := &visits[i]
		typ, err := types.resolve(ctx, v)
		if err != nil {
			return nil, err
		}
		t := byDay[v.Date]
		if t == nil {
			t = &tally{}
			byDay[v.Date] = t
		}
		t.add(v, typ, s.loc)
	}
	return byDay, nil
}

func (s *statisticsService) daily(key string, t *tally) domain.DailyStats {
	var day tally
	day.merge(t)
	day.finish()
	peak, peakEntries := day.hourly.Peak()
	return domain.DailyStats{
		Date:                key,
		VisitTotals:         day.totals,
		Hourly:              day.hourly,
		PeakHour:            peak,
		PeakHourEntries:     peakEntries,
		MembershipBreakdown: day.membership,
		ServiceUsage:        day.services,
		Revenue:             s.revenue(day.membership, day.totals.TotalVisits),
		GeneratedAt:         s.clock.Now(),
	}
}

// revenue estimates income as one day of each visitor's plan per visit.
func (s *statisticsService) revenue(b domain.MembershipBreakdown, visits int) domain.Revenue {
	total := decimal.Zero
	for _, t := range domain.MembershipTypes {
		n := b.Count(t)
		if n == 0 {
			continue
		}
		rate := s.price(t).Div(decimal.NewFromInt(int64(t.PeriodDays())))
		total = total.Add(rate.Mul(decimal.NewFromInt(int64(n))))
	}
	total = total.Round(0)

	avg := decimal.Zero
	if visits > 0 {
		avg = total.Div(decimal.NewFromInt(int64(visits))).Round(2)
	}
	return domain.Revenue{Total: total, AveragePerVisit: avg}
}

func (s *statisticsService) price(t domain.MembershipType) decimal.Decimal {
	switch t {
	case domain.MembershipDaily:
		return s.config.Pricing.Daily
	case domain.MembershipMonthly:
		return s.config.Pricing.Monthly
	case domain.MembershipAnnual:
		return s.config.Pricing.Annual
	default:
		return decimal.Zero
	}
}

// cached serves closed periods from the cache and coalesces concurrent fills.
func cached[T any](ctx context.Context, s *statisticsService, key string, cacheable bool, compute func(context.Context) (*T, error)) (*T, error) {
	if !cacheable {
		return compute(ctx)
	}

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.WarnContext(ctx, "Stats cache read failed", "error", err, "key", key)
	}
	if ok {
		var snap T
		if err := json.Unmarshal([]byte(raw), &snap); err == nil {
			return &snap, nil
		}
		logger.WarnContext(ctx, "Discarding unreadable stats snapshot", "key", key)
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		snap, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("encode stats snapshot: %w", err)
		}
		if err := s.cache.Set(ctx, key, string(payload), s.config.Stats.CacheTTL); err != nil {
			logger.WarnContext(ctx, "Stats cache write failed", "error", err, "key", key)
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

type tally struct {
	totals     domain.VisitTotals
	hourly     domain.HourlyFlow
	membership domain.MembershipBreakdown
	services   domain.ServiceUsage
}

func (t *tally) add(v *domain.Visit, typ domain.MembershipType, loc *time.Location) {
	t.totals.TotalVisits++
	t.hourly.Entries[v.EntryTime.In(loc).Hour()]++
	if v.IsOpen() {
		t.totals.CurrentlyInside++
	} else {
		t.totals.CompletedVisits++
		d := clock.DurationMinutes(v.EntryTime, *v.ExitTime)
		if v.Duration != nil {
			d = *v.Duration
		}
		t.totals.TotalDuration += d
		t.hourly.Exits[v.ExitTime.In(loc).Hour()]++
	}
	t.membership.Inc(typ)
	t.services.Inc(v.ServiceBucket())
}

// merge adds the raw counters of o. Call finish afterwards.
func (t *tally) merge(o *tally) {
	if o == nil {
		return
	}
	t.totals.TotalVisits += o.totals.TotalVisits
	t.totals.CompletedVisits += o.totals.CompletedVisits
	t.totals.CurrentlyInside += o.totals.CurrentlyInside
	t.totals.TotalDuration += o.totals.TotalDuration
	for h := 0; h < domain.HoursPerDay; h++ {
		t.hourly.Entries[h] += o.hourly.Entries[h]
		t.hourly.Exits[h] += o.hourly.Exits[h]
	}
	t.membership.Add(o.membership)
	t.services.Add(o.services)
}

func (t *tally) finish() {
	for h := 0; h < domain.HoursPerDay; h++ {
		t.hourly.NetFlow[h] = t.hourly.Entries[h] - t.hourly.Exits[h]
	}
	t.totals.AverageDuration = 0
	if t.totals.CompletedVisits > 0 {
		t.totals.AverageDuration = int(math.Round(float64(t.totals.TotalDuration) / float64(t.totals.CompletedVisits)))
	}
}

// typeResolver picks the membership type a visit is reported under: the
// snapshot taken at entry, or the customer's current plan for visits
// recorded without one.
type typeResolver struct {
	customers repo.CustomerRepository
	memo      map[string]domain.MembershipType
}

func (r *typeResolver) resolve(ctx context.Context, v *domain.Visit) (domain.MembershipType, error) {
	if v.MembershipType != "" {
		return v.MembershipType, nil
	}
	if t, ok := r.memo[v.CustomerID]; ok {
		return t, nil
	}
	c, err := r.customers.GetByID(ctx, v.CustomerID)
	if err != nil {
		return "", fmt.Errorf("resolve membership of %s: %w", v.CustomerID, err)
	}
	var t domain.MembershipType
	if c != nil {
		t = c.Membership.Type
	}
	r.memo[v.CustomerID] = t
	return t, nil
}

// busiestDay returns the first day with the most visits, or nil when the
// period had none.
func busiestDay(days []domain.DayCount) *domain.DayCount {
	var best *domain.DayCount
	for i := range days {
		if days[i].Visits == 0 {
			continue
		}
		if best == nil || days[i].Visits > best.Visits {
			d := days[i]
			best = &d
		}
	}
	return best
}

// weekTrends splits a month into Monday-start weeks clipped to the month and
// compares each week with the one before it.
func weekTrends(start time.Time, days []domain.DayCount) []domain.WeekTrend {
	var weeks []domain.WeekTrend
	for i := 0; i < len(days); {
		weekday := start.AddDate(0, 0, i).Weekday()
		span := 7 - (int(weekday)+6)%7
		if i+span > len(days) {
			span = len(days) - i
		}

		w := domain.WeekTrend{WeekStart: days[i].Date, WeekEnd: days[i+span-1].Date}
		for _, d := range days[i : i+span] {
			w.Visits += d.Visits
		}
		if n := len(weeks); n > 0 && weeks[n-1].Visits > 0 {
			prev := float64(weeks[n-1].Visits)
			pct := math.Round((float64(w.Visits)-prev)/prev*10000) / 100
			w.ChangePercent = &pct
		}
		weeks = append(weeks, w)
		i += span
	}
	return weeks
}
