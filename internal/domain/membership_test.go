package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func active(end time.Time) Membership {
	return Membership{
		Type:      MembershipMonthly,
		StartDate: end.AddDate(0, -1, 0),
		EndDate:   end,
		Status:    MembershipActive,
		Services:  []Service{ServiceGym},
	}
}

func TestCheckEligibility_Valid(t *testing.T) {
	res := CheckEligibility(active(now.AddDate(0, 0, 30)), now, 7)
	assert.True(t, res.IsValid)
	assert.False(t, res.IsExpired)
	assert.False(t, res.IsExpiringSoon)
	assert.Equal(t, 30, res.DaysUntilExpiry)
	assert.Empty(t, res.Reason)
	assert.Empty(t, res.Warnings)
}

func TestCheckEligibility_EndEqualsNowIsExpired(t *testing.T) {
	res := CheckEligibility(active(now), now, 7)
	assert.True(t, res.IsExpired)
	assert.False(t, res.IsValid)
	assert.True(t, res.IsExpiringSoon, "end == now is inside the grace window")
	assert.Empty(t, res.Warnings)
	assert.Equal(t, ReasonExpired, res.Reason)

	res = CheckEligibility(active(now.Add(-time.Second)), now, 7)
	assert.False(t, res.IsExpiringSoon)
}

func TestCheckEligibility_GraceBoundary(t *testing.T) {
	res := CheckEligibility(active(now.AddDate(0, 0, 7)), now, 7)
	assert.True(t, res.IsExpiringSoon)
	assert.True(t, res.IsValid)
	assert.Len(t, res.Warnings, 1)

	res = CheckEligibility(active(now.AddDate(0, 0, 7).Add(time.Second)), now, 7)
	assert.False(t, res.IsExpiringSoon)
}

func TestCheckEligibility_Suspended(t *testing.T) {
	m := active(now.AddDate(0, 0, 30))
	m.Status = MembershipSuspended
	res := CheckEligibility(m, now, 7)
	assert.True(t, res.IsSuspended)
	assert.False(t, res.IsValid)
	assert.Equal(t, ReasonSuspended, res.Reason)
	assert.Equal(t, "Membership is suspended", res.Message())
}

func TestCheckEligibility_StatusExpiredFutureEnd(t *testing.T) {
	m := active(now.AddDate(0, 0, 30))
	m.Status = MembershipExpired
	res := CheckEligibility(m, now, 7)
	assert.False(t, res.IsValid)
	assert.False(t, res.IsExpired)
	assert.Equal(t, ReasonInactive, res.Reason)
}

func TestCheckEligibility_MissingEndFailsClosed(t *testing.T) {
	m := active(time.Time{})
	res := CheckEligibility(m, now, 7)
	assert.True(t, res.IsExpired)
	assert.False(t, res.IsValid)
}

func TestCheckEligibility_DefaultGrace(t *testing.T) {
	res := CheckEligibility(active(now.AddDate(0, 0, 6)), now, 0)
	assert.True(t, res.IsExpiringSoon)
}

func TestCheckEligibility_PastEndNegativeDays(t *testing.T) {
	res := CheckEligibility(active(now.AddDate(0, 0, -1)), now, 7)
	assert.True(t, res.IsExpired)
	assert.Equal(t, -1, res.DaysUntilExpiry)
}

func TestMembershipType(t *testing.T) {
	assert.Equal(t, 1, MembershipDaily.PeriodDays())
	assert.Equal(t, 30, MembershipMonthly.PeriodDays())
	assert.Equal(t, 365, MembershipAnnual.PeriodDays())
	assert.Equal(t, 0, MembershipType("weekly").PeriodDays())

	start := time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, start.AddDate(1, 0, 0), MembershipAnnual.DefaultEnd(start))

	_, ok := ParseMembershipType("weekly")
	assert.False(t, ok)
}
