package domain

import (
	"strings"
	"time"
)

type MembershipType string

const (
	MembershipDaily   MembershipType = "daily"
	MembershipMonthly MembershipType = "monthly"
	MembershipAnnual  MembershipType = "annual"
)

// MembershipTypes lists the recognized plans in report order.
var MembershipTypes = []MembershipType{MembershipDaily, MembershipMonthly, MembershipAnnual}

func ParseMembershipType(s string) (MembershipType, bool) {
	switch MembershipType(s) {
	case MembershipDaily, MembershipMonthly, MembershipAnnual:
		return MembershipType(s), true
	default:
		return "", false
	}
}

// PeriodDays is the number of days one purchase of the plan covers, used to
// spread its price into a daily rate.
func (t MembershipType) PeriodDays() int {
	switch t {
	case MembershipDaily:
		return 1
	case MembershipMonthly:
		return 30
	case MembershipAnnual:
		return 365
	default:
		return 0
	}
}

// DefaultEnd returns the end of a plan bought at start.
func (t MembershipType) DefaultEnd(start time.Time) time.Time {
	switch t {
	case MembershipMonthly:
		return start.AddDate(0, 1, 0)
	case MembershipAnnual:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipExpired   MembershipStatus = "expired"
	MembershipSuspended MembershipStatus = "suspended"
)

type Service string

const (
	ServiceGym Service = "gym"
	ServiceSpa Service = "spa"
)

func ParseService(s string) (Service, bool) {
	switch Service(strings.ToLower(strings.TrimSpace(s))) {
	case ServiceGym:
		return ServiceGym, true
	case ServiceSpa:
		return ServiceSpa, true
	default:
		return "", false
	}
}

// NormalizeServices removes duplicates and orders the set gym, spa.
func NormalizeServices(in []Service) []Service {
	var gym, spa bool
	for _, s := range in {
		switch s {
		case ServiceGym:
			gym = true
		case ServiceSpa:
			spa = true
		}
	}
	out := make([]Service, 0, 2)
	if gym {
		out = append(out, ServiceGym)
	}
	if spa {
		out = append(out, ServiceSpa)
	}
	return out
}

func HasService(set []Service, s Service) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type Membership struct {
	Type      MembershipType   `json:"type"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	Status    MembershipStatus `json:"status"`
	Services  []Service        `json:"services"`
}

type PersonalInfo struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
}

func (p PersonalInfo) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// CurrentVisit mirrors the customer's open ledger record. IsInside is true
// exactly when the ledger holds one open visit for the customer.
type CurrentVisit struct {
	IsInside  bool       `json:"is_inside"`
	EntryTime *time.Time `json:"entry_time"`
	ExitTime  *time.Time `json:"exit_time"`
}

func InsideSince(t time.Time) CurrentVisit {
	return CurrentVisit{IsInside: true, EntryTime: &t}
}

func OutsideSince(t time.Time) CurrentVisit {
	return CurrentVisit{ExitTime: &t}
}

type Customer struct {
	ID           string       `json:"customer_id"`
	PersonalInfo PersonalInfo `json:"personal_info"`
	Membership   Membership   `json:"membership"`
	CurrentVisit CurrentVisit `json:"current_visit"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type CustomerSummary struct {
	ID             string         `json:"customer_id"`
	Name           string         `json:"name"`
	MembershipType MembershipType `json:"membership_type"`
	IsInside       bool           `json:"is_inside"`
}

func (c *Customer) Summary() *CustomerSummary {
	return &CustomerSummary{
		ID:             c.ID,
		Name:           c.PersonalInfo.FullName(),
		MembershipType: c.Membership.Type,
		IsInside:       c.CurrentVisit.IsInside,
	}
}

type RegisterCustomerRequest struct {
	CustomerID       string     `json:"customer_id"`
	FirstName        string     `json:"first_name" validate:"required,max=64"`
	LastName         string     `json:"last_name" validate:"required,max=64"`
	Email            string     `json:"email" validate:"omitempty,email"`
	Phone            string     `json:"phone" validate:"required,min=7,max=20"`
	EmergencyContact string     `json:"emergency_contact" validate:"omitempty,max=128"`
	MembershipType   string     `json:"membership_type" validate:"required,oneof=daily monthly annual"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	Services         []string   `json:"services" validate:"required,min=1,dive,oneof=gym spa"`
}

// Normalize trims free-text fields before validation.
func (r *RegisterCustomerRequest) Normalize() {
	r.CustomerID = strings.TrimSpace(r.CustomerID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.EmergencyContact = strings.TrimSpace(r.EmergencyContact)
	r.MembershipType = strings.ToLower(strings.TrimSpace(r.MembershipType))
	for i, s := range r.Services {
		r.Services[i] = strings.ToLower(strings.TrimSpace(s))
	}
}
