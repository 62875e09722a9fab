package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/diagnosis/frontdesk/internal/utils"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/google/uuid"
)

type CustomerService interface {
	Register(ctx context.Context, req *domain.RegisterCustomerRequest) (*domain.Customer, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	Eligibility(ctx context.Context, id string) (*domain.EligibilityResult, error)
	Visits(ctx context.Context, id string) ([]domain.Visit, error)
}

type customerService struct {
	store  repo.Store
	clock  clock.Clock
	config *config.Config
}

func NewCustomerService(store repo.Store, clk clock.Clock, config *config.Config) CustomerService {
	return &customerService{store: store, clock: clk, config: config}
}

func (s *customerService) Register(ctx context.Context, req *domain.RegisterCustomerRequest) (*domain.Customer, error) {
	// Normalize and validate
	req.Normalize()
	if verr := validateStruct(req); verr != nil {
		return nil, verr
	}

	id := req.CustomerID
	if id == "" {
		id = newCustomerID()
	} else {
		parsed, fe := parseCustomerID(id)
		if fe != nil {
			return nil, &ValidationError{Errors: []domain.FieldError{*fe}}
		}
		id = parsed
	}

	now := s.clock.Now()
	mType, _ := domain.ParseMembershipType(req.MembershipType)
	start := now
	if req.StartDate != nil {
		start = *req.StartDate
	}
	end := mType.DefaultEnd(start)
	if req.EndDate != nil {
		end = *req.EndDate
	}
	if !end.After(start) {
		return nil, invalid("end_date", "End date must be after start date")
	}

	services := make([]domain.Service, 0, len(req.Services))
	for _, raw := range req.Services {
		svc, _ := domain.ParseService(raw)
		services = append(services, svc)
	}

	c := &domain.Customer{
		ID: id,
		PersonalInfo: domain.PersonalInfo{
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			Email:            req.Email,
			Phone:            utils.NormalizePhone(req.Phone),
			EmergencyContact: req.EmergencyContact,
		},
		Membership: domain.Membership{
			Type:      mType,
			StartDate: start,
			EndDate:   end,
			Status:    domain.MembershipActive,
			Services:  domain.NormalizeServices(services),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Customers().Create(ctx, c); err != nil {
		if errors.Is(err, repo.ErrDuplicateCustomer) {
			return nil, invalid("customer_id", "Customer ID already exists")
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	logger.InfoContext(ctx, "Customer registered", "customer_id", c.ID, "membership_type", string(mType))
	return c, nil
}

// newCustomerID returns an identifier that is also a valid barcode payload.
func newCustomerID() string {
	return "C" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func (s *customerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	id = utils.NormalizeBarcode(id)
	c, err := s.store.Customers().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

func (s *customerService) Eligibility(ctx context.Context, id string) (*domain.EligibilityResult, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := domain.CheckEligibility(c.Membership, s.clock.Now(), s.config.Desk.GraceDays)
	return &res, nil
}

func (s *customerService) Visits(ctx context.Context, id string) ([]domain.Visit, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	visits, err := s.store.Visits().ForCustomer(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load visits: %w", err)
	}
	if visits == nil {
		visits = []domain.Visit{}
	}
	return visits, nil
}
