package domain

import (
	"fmt"
	"math"
	"time"
)

// DefaultGraceDays is the window before expiry in which a membership is
// flagged as expiring soon.
const DefaultGraceDays = 7

const (
	ReasonSuspended = "suspended"
	ReasonExpired   = "expired"
	ReasonInactive  = "inactive"
)

type EligibilityResult struct {
	IsValid         bool     `json:"is_valid"`
	IsExpired       bool     `json:"is_expired"`
	IsExpiringSoon  bool     `json:"is_expiring_soon"`
	IsSuspended     bool     `json:"is_suspended"`
	DaysUntilExpiry int      `json:"days_until_expiry"`
	Reason          string   `json:"reason,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// CheckEligibility decides whether m admits its holder at now. A membership
// without an end date is treated as expired.
func CheckEligibility(m Membership, now time.Time, graceDays int) EligibilityResult {
	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}

	res := EligibilityResult{
		IsSuspended: m.Status == MembershipSuspended,
	}

	if m.EndDate.IsZero() {
		res.IsExpired = true
	} else {
		res.IsExpired = !now.Before(m.EndDate)
		left := m.EndDate.Sub(now)
		res.DaysUntilExpiry = int(math.Ceil(left.Hours() / 24))
		grace := now.AddDate(0, 0, graceDays)
		// The window [now, now+grace] is closed at both ends.
		res.IsExpiringSoon = !m.EndDate.Before(now) && !m.EndDate.After(grace)
	}

	res.IsValid = !res.IsSuspended && !res.IsExpired && m.Status == MembershipActive

	switch {
	case res.IsSuspended:
		res.Reason = ReasonSuspended
	case res.IsExpired:
		res.Reason = ReasonExpired
	case !res.IsValid:
		res.Reason = ReasonInactive
	}

	if res.IsExpiringSoon && !res.IsExpired {
		res.Warnings = append(res.Warnings, fmt.Sprintf("membership expires in %d day(s)", res.DaysUntilExpiry))
	}
	return res
}

// Message is a display string for a rejected result.
func (r EligibilityResult) Message() string {
	switch r.Reason {
	case ReasonSuspended:
		return "Membership is suspended"
	case ReasonExpired:
		return "Membership has expired"
	case ReasonInactive:
		return "Membership is not active"
	default:
		return "Membership is valid"
	}
}
