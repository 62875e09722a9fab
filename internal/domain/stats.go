package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const HoursPerDay = 24

// HourlyFlow holds per-hour entries and exits, indexed 0..23.
type HourlyFlow struct {
	Entries [HoursPerDay]int `json:"entries"`
	Exits   [HoursPerDay]int `json:"exits"`
	NetFlow [HoursPerDay]int `json:"net_flow"`
}

func (h *HourlyFlow) Add(o HourlyFlow) {
	for i := 0; i < HoursPerDay; i++ {
		h.Entries[i] += o.Entries[i]
		h.Exits[i] += o.Exits[i]
		h.NetFlow[i] += o.NetFlow[i]
	}
}

// Peak returns the hour with the most entries, lowest hour on ties, and -1
// when no entries were recorded.
func (h *HourlyFlow) Peak() (hour, entries int) {
	hour = -1
	for i := 0; i < HoursPerDay; i++ {
		if h.Entries[i] > entries {
			hour, entries = i, h.Entries[i]
		}
	}
	return hour, entries
}

type MembershipBreakdown struct {
	Daily   int `json:"daily"`
	Monthly int `json:"monthly"`
	Annual  int `json:"annual"`
	Unknown int `json:"unknown,omitempty"`
}

func (b *MembershipBreakdown) Inc(t MembershipType) {
	switch t {
	case MembershipDaily:
		b.Daily++
	case MembershipMonthly:
		b.Monthly++
	case MembershipAnnual:
		b.Annual++
	default:
		b.Unknown++
	}
}

func (b *MembershipBreakdown) Count(t MembershipType) int {
	switch t {
	case MembershipDaily:
		return b.Daily
	case MembershipMonthly:
		return b.Monthly
	case MembershipAnnual:
		return b.Annual
	default:
		return 0
	}
}

func (b *MembershipBreakdown) Add(o MembershipBreakdown) {
	b.Daily += o.Daily
	b.Monthly += o.Monthly
	b.Annual += o.Annual
	b.Unknown += o.Unknown
}

type ServiceUsage struct {
	Gym  int `json:"gym"`
	Spa  int `json:"spa"`
	Both int `json:"both"`
}

func (u *ServiceUsage) Inc(bucket string) {
	switch bucket {
	case BucketGym:
		u.Gym++
	case BucketSpa:
		u.Spa++
	case BucketBoth:
		u.Both++
	}
}

func (u *ServiceUsage) Add(o ServiceUsage) {
	u.Gym += o.Gym
	u.Spa += o.Spa
	u.Both += o.Both
}

type Revenue struct {
	Total           decimal.Decimal `json:"total"`
	AveragePerVisit decimal.Decimal `json:"average_per_visit"`
}

// VisitTotals holds the counters shared by every period report.
type VisitTotals struct {
	TotalVisits     int `json:"total_visits"`
	CompletedVisits int `json:"completed_visits"`
	CurrentlyInside int `json:"currently_inside"`
	TotalDuration   int `json:"total_duration"`
	AverageDuration int `json:"average_duration"`
}

type DailyStats struct {
	Date string `json:"date"`
	VisitTotals
	Hourly              HourlyFlow          `json:"hourly"`
	PeakHour            int                 `json:"peak_hour"`
	PeakHourEntries     int                 `json:"peak_hour_entries"`
	MembershipBreakdown MembershipBreakdown `json:"membership_breakdown"`
	ServiceUsage        ServiceUsage        `json:"service_usage"`
	Revenue             Revenue             `json:"revenue"`
	GeneratedAt         time.Time           `json:"generated_at"`
}

type DayCount struct {
	Date   string `json:"date"`
	Visits int    `json:"visits"`
}

type WeeklyStats struct {
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
	VisitTotals
	Days                []DailyStats        `json:"days"`
	Hourly              HourlyFlow          `json:"hourly"`
	PeakHour            int                 `json:"peak_hour"`
	PeakHourEntries     int                 `json:"peak_hour_entries"`
	BusiestDay          *DayCount           `json:"busiest_day"`
	MembershipBreakdown MembershipBreakdown `json:"membership_breakdown"`
	ServiceUsage        ServiceUsage        `json:"service_usage"`
	Revenue             Revenue             `json:"revenue"`
	GeneratedAt         time.Time           `json:"generated_at"`
}

type WeekTrend struct {
	WeekStart     string   `json:"week_start"`
	WeekEnd       string   `json:"week_end"`
	Visits        int      `json:"visits"`
	ChangePercent *float64 `json:"change_percent"`
}

type MonthlyStats struct {
	Month string `json:"month"`
	VisitTotals
	Days                []DayCount          `json:"days"`
	Weeks               []WeekTrend         `json:"weeks"`
	Hourly              HourlyFlow          `json:"hourly"`
	PeakHour            int                 `json:"peak_hour"`
	PeakHourEntries     int                 `json:"peak_hour_entries"`
	BusiestDay          *DayCount           `json:"busiest_day"`
	MembershipBreakdown MembershipBreakdown `json:"membership_breakdown"`
	ServiceUsage        ServiceUsage        `json:"service_usage"`
	Revenue             Revenue             `json:"revenue"`
	GeneratedAt         time.Time           `json:"generated_at"`
}

type OccupantView struct {
	CustomerID             string         `json:"customer_id"`
	Name                   string         `json:"name"`
	Phone                  string         `json:"phone,omitempty"`
	MembershipType         MembershipType `json:"membership_type"`
	VisitID                int64          `json:"visit_id"`
	Services               []Service      `json:"services"`
	EntryTime              time.Time      `json:"entry_time"`
	CurrentDurationMinutes int            `json:"current_duration_minutes"`
}

type OccupantFilter struct {
	Query   string
	Service string
}

type CapacityStatus struct {
	Count        int     `json:"count"`
	MaxCapacity  int     `json:"max_capacity"`
	Ratio        float64 `json:"ratio"`
	Percent      int     `json:"percent"`
	NearCapacity bool    `json:"near_capacity"`
	AtCapacity   bool    `json:"at_capacity"`
}

type EvacuationEntry struct {
	CustomerID       string    `json:"customer_id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
	EntryTime        time.Time `json:"entry_time"`
	DurationMinutes  int       `json:"duration_minutes"`
}

type EvacuationList struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Count       int               `json:"count"`
	Occupants   []EvacuationEntry `json:"occupants"`
}

type IntegrityReport struct {
	Checked        int     `json:"checked"`
	Healed         int     `json:"healed"`
	LongOpenVisits []int64 `json:"long_open_visits,omitempty"`
}
