package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/shared"
)

// AggregateTypePaymentReminder is the aggregate type name for reminders
const AggregateTypePaymentReminder = "PaymentReminder"

// ReminderType classifies a reminder by where the invoice sits relative to its due date
type ReminderType string

const (
	ReminderTypePreDue      ReminderType = "PRE_DUE"
	ReminderTypeDueDate     ReminderType = "DUE_DATE"
	ReminderTypeOverdue     ReminderType = "OVERDUE"
	ReminderTypeEscalation1 ReminderType = "ESCALATION_1"
	ReminderTypeEscalation2 ReminderType = "ESCALATION_2"
	ReminderTypeEscalation3 ReminderType = "ESCALATION_3"
	ReminderTypeFinalNotice ReminderType = "FINAL_NOTICE"
)

// AllReminderTypes lists every reminder type
var AllReminderTypes = []ReminderType{
	ReminderTypePreDue,
	ReminderTypeDueDate,
	ReminderTypeOverdue,
	ReminderTypeEscalation1,
	ReminderTypeEscalation2,
	ReminderTypeEscalation3,
	ReminderTypeFinalNotice,
}

// IsValid checks if the type is a valid ReminderType
func (t ReminderType) IsValid() bool {
	switch t {
	case ReminderTypePreDue, ReminderTypeDueDate, ReminderTypeOverdue,
		ReminderTypeEscalation1, ReminderTypeEscalation2, ReminderTypeEscalation3,
		ReminderTypeFinalNotice:
		return true
	}
	return false
}

// String returns the string representation of ReminderType
func (t ReminderType) String() string {
	return string(t)
}

// EscalationLevel returns the escalation level a successful send of this type reaches
func (t ReminderType) EscalationLevel() int {
	switch t {
	case ReminderTypeEscalation1:
		return 1
	case ReminderTypeEscalation2:
		return 2
	case ReminderTypeEscalation3:
		return 3
	case ReminderTypeFinalNotice:
		return MaxEscalationLevel
	}
	return 0
}

// ParseReminderType parses a case-insensitive reminder type
func ParseReminderType(s string) (ReminderType, error) {
	t := ReminderType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", invalidInput("Unknown reminder type %q", s)
	}
	return t, nil
}

// Channel is a delivery channel for reminders
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelBoth  Channel = "BOTH"
)

// IsValid checks if the channel is a valid Channel
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelBoth:
		return true
	}
	return false
}

// String returns the string representation of Channel
func (c Channel) String() string {
	return string(c)
}

// Includes reports whether this channel covers the single channel other
func (c Channel) Includes(other Channel) bool {
	return c == other || c == ChannelBoth
}

// ParseChannel parses a case-insensitive channel name
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", invalidInput("Unknown channel %q", s)
	}
	return c, nil
}

// ReminderState represents the delivery state of a reminder
type ReminderState string

const (
	ReminderStatePending   ReminderState = "PENDING"
	ReminderStateSent      ReminderState = "SENT"
	ReminderStateFailed    ReminderState = "FAILED"
	ReminderStateCancelled ReminderState = "CANCELLED"
)

// IsValid checks if the state is a valid ReminderState
func (s ReminderState) IsValid() bool {
	switch s {
	case ReminderStatePending, ReminderStateSent, ReminderStateFailed, ReminderStateCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReminderState
func (s ReminderState) String() string {
	return string(s)
}

// IsTerminal returns true if the reminder can no longer change
func (s ReminderState) IsTerminal() bool {
	return s != ReminderStatePending
}

// PaymentReminder is one outbound reminder message generated for an invoice
type PaymentReminder struct {
	shared.TenantAggregateRoot
	ReminderNumber string
	InvoiceID      uuid.UUID
	ReminderType   ReminderType
	Channel        Channel
	RecipientEmail string
	RecipientPhone string
	Subject        string
	Body           string
	SMSBody        string
	State          ReminderState
	ScheduledAt    time.Time
	SentAt         *time.Time
	Error          string
	DeliveryStatus string
	Manual         bool
}

// NewPaymentReminder creates a PENDING reminder for an invoice
func NewPaymentReminder(
	inv *Invoice,
	reminderNumber string,
	reminderType ReminderType,
	channel Channel,
	subject, body, smsBody string,
	at time.Time,
) (*PaymentReminder, error) {
	if reminderNumber == "" {
		return nil, invalidInput("Reminder number cannot be empty")
	}
	if !reminderType.IsValid() {
		return nil, invalidInput("Invalid reminder type")
	}
	if !channel.IsValid() {
		return nil, invalidInput("Invalid reminder channel")
	}

	return &PaymentReminder{
		TenantAggregateRoot: shared.NewTenantAggregateRootAt(inv.TenantID, at),
		ReminderNumber:      reminderNumber,
		InvoiceID:           inv.ID,
		ReminderType:        reminderType,
		Channel:             channel,
		RecipientEmail:      inv.Contact.Email,
		RecipientPhone:      inv.Contact.Phone,
		Subject:             subject,
		Body:                body,
		SMSBody:             smsBody,
		State:               ReminderStatePending,
		ScheduledAt:         at,
	}, nil
}

// MarkSent records a successful dispatch
func (r *PaymentReminder) MarkSent(deliveryStatus string, at time.Time) error {
	if r.State != ReminderStatePending {
		return illegalTransition("Cannot mark reminder as sent in %s state", r.State)
	}
	r.State = ReminderStateSent
	r.SentAt = &at
	r.DeliveryStatus = deliveryStatus
	r.Touch(at)
	r.IncrementVersion()

	r.AddDomainEvent(NewReminderDispatchedEvent(r, EventTypeReminderSent))
	return nil
}

// MarkFailed records that every delivery attempt failed
func (r *PaymentReminder) MarkFailed(errMsg string, at time.Time) error {
	if r.State != ReminderStatePending {
		return illegalTransition("Cannot mark reminder as failed in %s state", r.State)
	}
	r.State = ReminderStateFailed
	r.Error = errMsg
	r.DeliveryStatus = "failed"
	r.Touch(at)
	r.IncrementVersion()

	r.AddDomainEvent(NewReminderDispatchedEvent(r, EventTypeReminderFailed))
	return nil
}

// Cancel withdraws a reminder that has not been dispatched yet
func (r *PaymentReminder) Cancel(at time.Time) error {
	if r.State != ReminderStatePending {
		return illegalTransition("Cannot cancel reminder in %s state", r.State)
	}
	r.State = ReminderStateCancelled
	r.Touch(at)
	r.IncrementVersion()
	return nil
}

// Event type constants for reminders
const (
	EventTypeReminderSent   = "ReminderSent"
	EventTypeReminderFailed = "ReminderFailed"
)

// ReminderDispatchedEvent is raised when a reminder reaches SENT or FAILED
type ReminderDispatchedEvent struct {
	shared.EventEnvelope
	ReminderNumber string        `json:"reminder_number"`
	InvoiceID      uuid.UUID     `json:"invoice_id"`
	ReminderType   ReminderType  `json:"reminder_type"`
	State          ReminderState `json:"state"`
}

// NewReminderDispatchedEvent creates a ReminderDispatchedEvent
func NewReminderDispatchedEvent(r *PaymentReminder, eventType string) *ReminderDispatchedEvent {
	return &ReminderDispatchedEvent{
		EventEnvelope:  shared.NewEventEnvelope(eventType, AggregateTypePaymentReminder, r.ID, r.TenantID, r.UpdatedAt),
		ReminderNumber: r.ReminderNumber,
		InvoiceID:      r.InvoiceID,
		ReminderType:   r.ReminderType,
		State:          r.State,
	}
}
