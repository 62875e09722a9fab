// Package notify reacts to desk events with customer notifications.
package notify

import (
	"context"
	"time"

	"github.com/diagnosis/frontdesk/internal/clock"
	"github.com/diagnosis/frontdesk/internal/platform/mailer"
	"github.com/diagnosis/frontdesk/pkg/cache"
	"github.com/diagnosis/frontdesk/pkg/events"
	"github.com/diagnosis/frontdesk/pkg/logger"
)

const queueGroup = "notify"

// Notifier sends at most one expiry reminder per customer per desk day.
type Notifier struct {
	mailer mailer.Service
	cache  cache.Cache
	clock  clock.Clock
	loc    *time.Location
}

func NewNotifier(m mailer.Service, c cache.Cache, clk clock.Clock, loc *time.Location) *Notifier {
	return &Notifier{mailer: m, cache: c, clock: clk, loc: loc}
}

// Start subscribes to expiring-membership events on bus.
func (n *Notifier) Start(bus events.Subscriber) error {
	return bus.QueueSubscribe(events.MembershipExpiringSoon, queueGroup, func(msg *events.Message) {
		var ev events.MembershipExpiringEvent
		if err := msg.Decode(&ev); err != nil {
			logger.Warn("Dropping malformed event", "subject", msg.Subject, "error", err)
			return
		}
		n.HandleExpiring(context.Background(), ev)
	})
}

// HandleExpiring reports whether a reminder was sent.
func (n *Notifier) HandleExpiring(ctx context.Context, ev events.MembershipExpiringEvent) bool {
	if ev.Email == "" {
		logger.DebugContext(ctx, "No email on file for reminder", "customer_id", ev.CustomerID)
		return false
	}

	key := "reminder:" + ev.CustomerID + ":" + clock.DateKey(n.clock.Now().In(n.loc))
	first, err := n.cache.SetNX(ctx, key, "1", 24*time.Hour)
	if err != nil {
		logger.WarnContext(ctx, "Reminder dedupe unavailable", "error", err, "customer_id", ev.CustomerID)
		return false
	}
	if !first {
		return false
	}

	err = n.mailer.SendExpiryReminder(ctx, mailer.Reminder{
		CustomerID:      ev.CustomerID,
		ToEmail:         ev.Email,
		ToName:          ev.Name,
		EndDate:         ev.EndDate,
		DaysUntilExpiry: ev.DaysUntilExpiry,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to send expiry reminder", "error", err, "customer_id", ev.CustomerID)
		// Release the claim so a later entry can retry.
		if err := n.cache.Delete(ctx, key); err != nil {
			logger.WarnContext(ctx, "Failed to release reminder claim", "error", err, "customer_id", ev.CustomerID)
		}
		return false
	}
	logger.InfoContext(ctx, "Expiry reminder sent", "customer_id", ev.CustomerID, "days_until_expiry", ev.DaysUntilExpiry)
	return true
}
