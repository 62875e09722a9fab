package mailer

import (
	"context"
	"time"
)

// Reminder is a membership expiry notice for one customer.
type Reminder struct {
	CustomerID      string
	ToEmail         string
	ToName          string
	EndDate         time.Time
	DaysUntilExpiry int
}

type Service interface {
	SendExpiryReminder(ctx context.Context, r Reminder) error
}

func reminderContent(r Reminder) (subject, text, html string) {
	subject = "Your membership expires soon"
	end := r.EndDate.Format("January 2, 2006")
	text = "Hi " + r.ToName + ",\n\nYour membership ends on " + end +
		". Renew at the front desk to keep access to the gym and spa."
	html = `<p>Hi ` + r.ToName + `,</p><p>Your membership ends on <b>` + end +
		`</b>.</p><p>Renew at the front desk to keep access to the gym and spa.</p>`
	return subject, text, html
}
