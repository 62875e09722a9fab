package domain

import "time"

type VisitMethod string

const (
	MethodScan     VisitMethod = "scan"
	MethodManual   VisitMethod = "manual"
	MethodOverride VisitMethod = "override"
	MethodForce    VisitMethod = "force"
)

// Visit is one ledger record. ExitTime and Duration stay nil while the
// customer is inside.
type Visit struct {
	ID             int64          `json:"visit_id"`
	CustomerID     string         `json:"customer_id"`
	EntryTime      time.Time      `json:"entry_time"`
	ExitTime       *time.Time     `json:"exit_time"`
	Duration       *int           `json:"duration"`
	Services       []Service      `json:"services"`
	Date           string         `json:"date"`
	MembershipType MembershipType `json:"membership_type,omitempty"`

	EntryMethod    VisitMethod `json:"entry_method"`
	ExitMethod     VisitMethod `json:"exit_method,omitempty"`
	Override       bool        `json:"override,omitempty"`
	OverrideReason string      `json:"override_reason,omitempty"`
	ForcedExit     bool        `json:"forced_exit,omitempty"`
	ExitReason     string      `json:"exit_reason,omitempty"`
	TerminalID     string      `json:"terminal_id,omitempty"`
	EnteredBy      string      `json:"entered_by,omitempty"`
	ExitedBy       string      `json:"exited_by,omitempty"`
}

func (v *Visit) IsOpen() bool {
	return v.ExitTime == nil
}

const (
	BucketGym  = "gym"
	BucketSpa  = "spa"
	BucketBoth = "both"
)

// ServiceBucket classifies the visit for service usage reports.
func (v *Visit) ServiceBucket() string {
	gym := HasService(v.Services, ServiceGym)
	spa := HasService(v.Services, ServiceSpa)
	switch {
	case gym && spa:
		return BucketBoth
	case spa:
		return BucketSpa
	case gym:
		return BucketGym
	default:
		return ""
	}
}

// CloseInfo carries the audit fields recorded when a visit is closed.
type CloseInfo struct {
	Method     VisitMethod
	Reason     string
	Forced     bool
	EmployeeID string
}
