package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/internal/repo"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/diagnosis/frontdesk/pkg/events"
	"github.com/diagnosis/frontdesk/pkg/logger"
)

// IntegrityService sweeps every customer and repairs inside flags that
// disagree with the ledger.
type IntegrityService interface {
	Reconcile(ctx context.Context) (*domain.IntegrityReport, error)
}

type integrityService struct {
	store  repo.Store
	bus    events.Publisher
	clock  clock.Clock
	config *config.Config
}

func NewIntegrityService(store repo.Store, eventBus events.Publisher, clk clock.Clock, config *config.Config) IntegrityService {
	return &integrityService{store: store, bus: eventBus, clock: clk, config: config}
}

func (s *integrityService) Reconcile(ctx context.Context) (*domain.IntegrityReport, error) {
	customers, err := s.store.Customers().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	report := &domain.IntegrityReport{}
	for _, listed := range customers {
		var fault string
		err := s.store.WithinCustomer(ctx, listed.ID, func(ctx context.Context, tx repo.Tx) error {
			c, err := tx.Customers().GetByID(ctx, listed.ID)
			if err != nil || c == nil {
				return err
			}
			open, err := tx.Visits().OpenVisitFor(ctx, c.ID)
			if err != nil {
				return err
			}
			fault, err = healCustomer(ctx, tx, c, open, s.clock.Now())
			return err
		})
		if err != nil {
			return report, fmt.Errorf("reconcile %s: %w", listed.ID, err)
		}

		report.Checked++
		if fault == "" {
			continue
		}
		report.Healed++
		ev := events.IntegrityFaultEvent{CustomerID: listed.ID, Fault: fault, Healed: true, DetectedAt: s.clock.Now()}
		if err := s.bus.Publish(ctx, events.IntegrityFault, ev); err != nil {
			logger.WarnContext(ctx, "Failed to publish event", "error", err, "subject", events.IntegrityFault)
		}
	}

	open, err := s.store.Visits().OpenVisits(ctx)
	if err != nil {
		return report, fmt.Errorf("list open visits: %w", err)
	}
	if limit := s.config.Desk.MaxVisitDuration; limit > 0 {
		now := s.clock.Now()
		for _, v := range open {
			if now.Sub(v.EntryTime) > limit {
				report.LongOpenVisits = append(report.LongOpenVisits, v.ID)
			}
		}
	}
	if len(report.LongOpenVisits) > 0 {
		logger.WarnContext(ctx, "Visits open longer than the maximum duration",
			"count", len(report.LongOpenVisits), "visit_ids", report.LongOpenVisits)
	}

	logger.InfoContext(ctx, "Integrity sweep finished", "checked", report.Checked, "healed", report.Healed)
	return report, nil
}
