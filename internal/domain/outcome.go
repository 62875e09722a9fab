package domain

import "time"

type OutcomeCode string

const (
	OutcomeEntry               OutcomeCode = "entry"
	OutcomeExit                OutcomeCode = "exit"
	OutcomeValidationError     OutcomeCode = "validation_error"
	OutcomeCustomerNotFound    OutcomeCode = "customer_not_found"
	OutcomeSubscriptionInvalid OutcomeCode = "subscription_invalid"
	OutcomeAlreadyInside       OutcomeCode = "already_inside"
	OutcomeNotInside           OutcomeCode = "not_inside"
	OutcomeNoActiveVisit       OutcomeCode = "no_active_visit"
	OutcomeSystemError         OutcomeCode = "system_error"
)

type ScanAction string

const (
	ActionEntry ScanAction = "entry"
	ActionExit  ScanAction = "exit"
)

func ParseScanAction(s string) (ScanAction, bool) {
	switch ScanAction(s) {
	case ActionEntry, ActionExit:
		return ScanAction(s), true
	default:
		return "", false
	}
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ScanOutcome is the result of every entry/exit operation. Rejections are
// outcomes, not errors; an error return from the engine always means
// system_error.
type ScanOutcome struct {
	Code               OutcomeCode        `json:"code"`
	Message            string             `json:"message"`
	Customer           *CustomerSummary   `json:"customer,omitempty"`
	Visit              *Visit             `json:"visit,omitempty"`
	EntryTime          *time.Time         `json:"entry_time,omitempty"`
	DurationMinutes    *int               `json:"duration_minutes,omitempty"`
	Eligibility        *EligibilityResult `json:"eligibility,omitempty"`
	Warnings           []string           `json:"warnings,omitempty"`
	DuplicateSuspected bool               `json:"duplicate_suspected"`
	Errors             []FieldError       `json:"errors,omitempty"`
}

func (o *ScanOutcome) Success() bool {
	return o.Code == OutcomeEntry || o.Code == OutcomeExit
}

func Rejected(code OutcomeCode, message string) *ScanOutcome {
	return &ScanOutcome{Code: code, Message: message}
}

func Invalid(errs ...FieldError) *ScanOutcome {
	msg := "Invalid input"
	if len(errs) > 0 {
		msg = errs[0].Message
	}
	return &ScanOutcome{Code: OutcomeValidationError, Message: msg, Errors: errs}
}

type ScanRequest struct {
	CustomerID string   `json:"customer_id"`
	Services   []string `json:"services"`
	TerminalID string   `json:"terminal_id"`
}

type ManualRequest struct {
	CustomerID string   `json:"customer_id"`
	Action     string   `json:"action"`
	Services   []string `json:"services"`
	EmployeeID string   `json:"-"`
	TerminalID string   `json:"terminal_id"`
}

type OverrideRequest struct {
	CustomerID string   `json:"customer_id"`
	Services   []string `json:"services"`
	Reason     string   `json:"reason"`
	EmployeeID string   `json:"-"`
	TerminalID string   `json:"terminal_id"`
}

type ForceExitRequest struct {
	Reason string `json:"reason"`
}
