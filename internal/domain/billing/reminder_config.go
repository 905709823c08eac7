package billing

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// ReminderConfiguration is the per-tenant reminder policy
type ReminderConfiguration struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	PreDueDays           []int
	PreDueChannels       Channel
	DueDateEnabled       bool
	DueDateChannels      Channel
	OverdueFrequencyDays int
	OverdueChannels      Channel
	EscalationEnabled    bool
	Escalation1Days      int
	Escalation2Days      int
	Escalation3Days      int
	FinalNoticeDays      int
	MaxReminders         int
	EscalationEmails     []string
	EscalationCC         []string
	HostelName           string
	HostelPhone          string
	HostelEmail          string
	PaymentLinkBaseURL   string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DefaultReminderConfiguration returns the policy used when a tenant has none stored
func DefaultReminderConfiguration(tenantID uuid.UUID) *ReminderConfiguration {
	return &ReminderConfiguration{
		TenantID:             tenantID,
		PreDueDays:           []int{7, 3, 1},
		PreDueChannels:       ChannelEmail,
		DueDateEnabled:       true,
		DueDateChannels:      ChannelBoth,
		OverdueFrequencyDays: 3,
		OverdueChannels:      ChannelBoth,
		EscalationEnabled:    true,
		Escalation1Days:      7,
		Escalation2Days:      14,
		Escalation3Days:      30,
		FinalNoticeDays:      45,
		MaxReminders:         10,
		EscalationEmails:     []string{},
		EscalationCC:         []string{},
	}
}

// Validate checks the configuration invariants
func (c *ReminderConfiguration) Validate() error {
	if c.TenantID == uuid.Nil {
		return invalidInput("Tenant ID cannot be empty")
	}
	for _, d := range c.PreDueDays {
		if d <= 0 {
			return invalidInput("Pre-due days must be positive")
		}
	}
	for _, ch := range []Channel{c.PreDueChannels, c.DueDateChannels, c.OverdueChannels} {
		if !ch.IsValid() {
			return invalidInput("Invalid reminder channel %q", ch)
		}
	}
	if c.OverdueFrequencyDays <= 0 {
		return invalidInput("Overdue frequency must be positive")
	}
	if c.MaxReminders <= 0 {
		return invalidInput("Max reminders must be positive")
	}
	if c.Escalation1Days <= 0 || c.Escalation2Days <= 0 || c.Escalation3Days <= 0 || c.FinalNoticeDays <= 0 {
		return invalidInput("Escalation thresholds must be positive")
	}
	if !(c.Escalation1Days < c.Escalation2Days && c.Escalation2Days < c.Escalation3Days && c.Escalation3Days < c.FinalNoticeDays) {
		return invalidInput("Escalation thresholds must be strictly increasing up to the final notice")
	}
	return nil
}

// Normalize sorts and de-duplicates pre-due days in descending order
func (c *ReminderConfiguration) Normalize() {
	days := slices.Clone(c.PreDueDays)
	slices.Sort(days)
	days = slices.Compact(days)
	slices.Reverse(days)
	c.PreDueDays = days
	if c.EscalationEmails == nil {
		c.EscalationEmails = []string{}
	}
	if c.EscalationCC == nil {
		c.EscalationCC = []string{}
	}
}

// IsPreDueDay reports whether a reminder is configured this many days before due
func (c *ReminderConfiguration) IsPreDueDay(days int) bool {
	return slices.Contains(c.PreDueDays, days)
}
