package mailer

import (
	"context"
	"sync"

	"github.com/diagnosis/frontdesk/pkg/logger"
)

// DevMailer logs reminders instead of sending them and keeps them for
// inspection.
type DevMailer struct {
	mu   sync.Mutex
	sent []Reminder
}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendExpiryReminder(ctx context.Context, r Reminder) error {
	subject, _, _ := reminderContent(r)
	logger.InfoContext(ctx, "[DEV MAIL] Expiry reminder",
		"to", r.ToEmail,
		"name", r.ToName,
		"customer_id", r.CustomerID,
		"subject", subject,
		"days_until_expiry", r.DaysUntilExpiry,
	)

	d.mu.Lock()
	d.sent = append(d.sent, r)
	d.mu.Unlock()
	return nil
}

func (d *DevMailer) Sent() []Reminder {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Reminder(nil), d.sent...)
}
