package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/diagnosis/frontdesk/pkg/auth"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/google/uuid"
)

type AuthService interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	CreateEmployee(ctx context.Context, e *domain.Employee, password string) (*domain.Employee, error)
}

type authService struct {
	employees repo.EmployeeRepository
	clock     clock.Clock
	config    *config.Config
}

func NewAuthService(employees repo.EmployeeRepository, clk clock.Clock, config *config.Config) AuthService {
	return &authService{employees: employees, clock: clk, config: config}
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	// Normalize and validate
	req.Normalize()
	if verr := validateStruct(req); verr != nil {
		return nil, verr
	}

	emp, err := s.employees.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	if emp == nil {
		return nil, ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, emp.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		logger.WarnContext(ctx, "Failed login", "username", req.Username)
		return nil, ErrInvalidCredentials
	}

	ttl := s.config.Auth.AccessTokenTTL
	token, err := auth.NewAccessToken(emp.ID, emp.Username, emp.Role, s.config.Auth.JWTSecret, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	logger.InfoContext(ctx, "Employee logged in", "employee_id", emp.ID, "role", emp.Role)
	return &domain.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(ttl.Seconds()),
		Employee:    emp,
	}, nil
}

// CreateEmployee stores e. A plain password is hashed; otherwise e must
// already carry an argon2id hash.
func (s *authService) CreateEmployee(ctx context.Context, e *domain.Employee, password string) (*domain.Employee, error) {
	e.Username = strings.ToLower(strings.TrimSpace(e.Username))
	if e.Username == "" {
		return nil, invalid("username", "username is required")
	}
	if e.Role == "" {
		e.Role = domain.RoleStaff
	}
	if !domain.IsValidRole(e.Role) {
		return nil, invalid("role", "must be one of: staff manager admin")
	}

	if password != "" {
		hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		e.PasswordHash = hash
	}
	if e.PasswordHash == "" {
		return nil, invalid("password", "password is required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock.Now()
	}

	if err := s.employees.Create(ctx, e); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmployee) {
			return nil, invalid("username", "username already exists")
		}
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	return e, nil
}
