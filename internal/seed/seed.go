// Package seed loads the initial customers, employees and visits of a desk
// from a JSON or YAML file.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/diagnosis/frontdesk/internal/service"
	"github.com/diagnosis/frontdesk/pkg/logger"
	"gopkg.in/yaml.v3"
)

type File struct {
	Customers []domain.Customer `json:"customers"`
	Employees []Employee        `json:"employees"`
	Visits    []domain.Visit    `json:"visits"`
}

// Employee is a seeded account. Password is hashed on load; PasswordHash is
// taken as an existing argon2id hash.
type Employee struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Password     string `json:"password"`
	PasswordHash string `json:"password_hash"`
}

type Summary struct {
	Customers int `json:"customers"`
	Employees int `json:"employees"`
	Visits    int `json:"visits"`
	Skipped   int `json:"skipped"`
}

// Load reads a seed file; .yaml and .yml files are parsed as YAML, anything
// else as JSON.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed %s: %w", path, err)
	}
	f, err := Parse(data, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("parsing seed %s: %w", path, err)
	}
	return f, nil
}

func Parse(data []byte, ext string) (*File, error) {
	if ext == ".yaml" || ext == ".yml" {
		// Route YAML through JSON so the domain's json tags apply.
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		var err error
		if data, err = json.Marshal(doc); err != nil {
			return nil, err
		}
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Apply writes f into store. Records that already exist are skipped so a
// persistent store can be started repeatedly with the same seed.
func Apply(ctx context.Context, f *File, store repo.Store, auth service.AuthService, loc *time.Location) (*Summary, error) {
	sum := &Summary{}

	for i := range f.Customers {
		c := f.Customers[i]
		c.ID = strings.ToUpper(strings.TrimSpace(c.ID))
		if c.ID == "" {
			return sum, fmt.Errorf("customer %d: customer_id is required", i)
		}
		if c.Membership.Status == "" {
			c.Membership.Status = domain.MembershipActive
		}
		if len(c.Membership.Services) == 0 {
			c.Membership.Services = []domain.Service{domain.ServiceGym}
		}
		c.Membership.Services = domain.NormalizeServices(c.Membership.Services)
		if c.Membership.EndDate.IsZero() && !c.Membership.StartDate.IsZero() {
			c.Membership.EndDate = c.Membership.Type.DefaultEnd(c.Membership.StartDate)
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = c.CreatedAt
		}

		if err := store.Customers().Create(ctx, &c); err != nil {
			if errors.Is(err, repo.ErrDuplicateCustomer) {
				sum.Skipped++
				continue
			}
			return sum, fmt.Errorf("customer %s: %w", c.ID, err)
		}
		sum.Customers++
	}

	for _, e := range f.Employees {
		existing, err := store.Employees().FindByUsername(ctx, strings.TrimSpace(e.Username))
		if err != nil {
			return sum, fmt.Errorf("employee %s: %w", e.Username, err)
		}
		if existing != nil {
			sum.Skipped++
			continue
		}
		emp := &domain.Employee{ID: e.ID, Username: e.Username, Name: e.Name, Role: e.Role, PasswordHash: e.PasswordHash}
		if _, err := auth.CreateEmployee(ctx, emp, e.Password); err != nil {
			return sum, fmt.Errorf("employee %s: %w", e.Username, err)
		}
		sum.Employees++
	}

	for _, v := range f.Visits {
		v.CustomerID = strings.ToUpper(strings.TrimSpace(v.CustomerID))
		if v.Date == "" {
			v.Date = clock.DateKey(v.EntryTime.In(loc))
		}
		if v.ExitTime != nil && v.Duration == nil {
			d := clock.DurationMinutes(v.EntryTime, *v.ExitTime)
			v.Duration = &d
		}
		if v.ExitTime == nil {
			v.Duration = nil
		}
		if len(v.Services) == 0 {
			v.Services = []domain.Service{domain.ServiceGym}
		}
		if v.EntryMethod == "" {
			v.EntryMethod = domain.MethodScan
		}

		if err := store.Visits().Restore(ctx, v); err != nil {
			if errors.Is(err, repo.ErrDuplicateVisit) || errors.Is(err, repo.ErrOpenVisitExists) {
				sum.Skipped++
				continue
			}
			return sum, fmt.Errorf("visit %d: %w", v.ID, err)
		}
		sum.Visits++
	}

	logger.InfoContext(ctx, "Seed applied",
		"customers", sum.Customers, "employees", sum.Employees, "visits", sum.Visits, "skipped", sum.Skipped)
	return sum, nil
}
