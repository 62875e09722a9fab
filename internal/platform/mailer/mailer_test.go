package mailer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderContent(t *testing.T) {
	subject, text, html := reminderContent(Reminder{
		ToName:  "Ana",
		EndDate: time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC),
	})
	assert.NotEmpty(t, subject)
	assert.Contains(t, text, "October 21, 2026")
	assert.Contains(t, html, "Hi Ana")
}

func TestDisabledMailer(t *testing.T) {
	m := NewMailer("", "Front Desk", "")
	assert.False(t, m.Enabled)
	assert.Error(t, m.SendExpiryReminder(context.Background(), Reminder{ToEmail: "a@example.com"}))
}

func TestDevMailerRecords(t *testing.T) {
	d := NewDevMailer()
	require.NoError(t, d.SendExpiryReminder(context.Background(), Reminder{CustomerID: "C1", ToEmail: "a@example.com"}))
	sent := d.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "C1", sent[0].CustomerID)
}
