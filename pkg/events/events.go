package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v interface{}) error {
	return json.Unmarshal(m.Data, v)
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url, nats.Name("frontdesk"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(fromNATS(msg))
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(fromNATS(msg))
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

func fromNATS(msg *nats.Msg) *Message {
	return &Message{
		Subject:   msg.Subject,
		Data:      msg.Data,
		Timestamp: time.Now(),
		ID:        uuid.NewString(),
	}
}

// Event subjects
const (
	VisitEntered   = "visit.entered"
	VisitExited    = "visit.exited"
	VisitForced    = "visit.forced_exit"
	VisitOverride  = "visit.override"
	IntegrityFault = "integrity.fault"

	MembershipExpiringSoon = "membership.expiring_soon"
)

// Event payloads
type VisitEnteredEvent struct {
	VisitID        int64     `json:"visit_id"`
	CustomerID     string    `json:"customer_id"`
	Services       []string  `json:"services"`
	MembershipType string    `json:"membership_type"`
	Method         string    `json:"method"`
	TerminalID     string    `json:"terminal_id,omitempty"`
	EntryTime      time.Time `json:"entry_time"`
}

type VisitExitedEvent struct {
	VisitID         int64     `json:"visit_id"`
	CustomerID      string    `json:"customer_id"`
	Method          string    `json:"method"`
	Reason          string    `json:"reason,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	ExitTime        time.Time `json:"exit_time"`
}

type VisitOverrideEvent struct {
	VisitID    int64     `json:"visit_id"`
	CustomerID string    `json:"customer_id"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason"`
	EmployeeID string    `json:"employee_id,omitempty"`
	At         time.Time `json:"at"`
}

type IntegrityFaultEvent struct {
	CustomerID string    `json:"customer_id"`
	Fault      string    `json:"fault"`
	Healed     bool      `json:"healed"`
	DetectedAt time.Time `json:"detected_at"`
}

type MembershipExpiringEvent struct {
	CustomerID      string    `json:"customer_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	EndDate         time.Time `json:"end_date"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
}
