package billing

import "time"

// ReminderDecision is the outcome of evaluating one invoice at one instant
type ReminderDecision struct {
	ReminderType ReminderType
	Channel      Channel
	DaysUntilDue int
	DaysOverdue  int
}

// SelectReminder decides which reminder, if any, an invoice should receive at now.
// At most one reminder is selected; the first matching rule wins in this order:
// pre-due, due date, final notice, escalation 3, 2, 1, overdue.
func SelectReminder(now time.Time, inv *Invoice, cfg *ReminderConfiguration) (ReminderDecision, bool) {
	if inv == nil || cfg == nil || !inv.Status.IsOutstanding() {
		return ReminderDecision{}, false
	}
	if inv.ReminderCount >= cfg.MaxReminders {
		return ReminderDecision{}, false
	}

	daysUntilDue := DaysBetween(now, inv.DueDate)
	daysOverdue := 0
	if daysUntilDue < 0 {
		daysOverdue = -daysUntilDue
	}
	decide := func(t ReminderType, ch Channel) (ReminderDecision, bool) {
		return ReminderDecision{ReminderType: t, Channel: ch, DaysUntilDue: daysUntilDue, DaysOverdue: daysOverdue}, true
	}

	// Pre-due and due-date rules fire once per calendar day
	remindedToday := inv.LastReminderAt != nil && DaysBetween(*inv.LastReminderAt, now) == 0

	if daysUntilDue > 0 && cfg.IsPreDueDay(daysUntilDue) && !remindedToday {
		return decide(ReminderTypePreDue, cfg.PreDueChannels)
	}
	if daysUntilDue == 0 && cfg.DueDateEnabled && !remindedToday {
		return decide(ReminderTypeDueDate, cfg.DueDateChannels)
	}

	if cfg.EscalationEnabled {
		switch {
		case daysOverdue >= cfg.FinalNoticeDays && inv.EscalationLevel < MaxEscalationLevel:
			return decide(ReminderTypeFinalNotice, ChannelBoth)
		case daysOverdue >= cfg.Escalation3Days && inv.EscalationLevel < 3:
			return decide(ReminderTypeEscalation3, ChannelBoth)
		case daysOverdue >= cfg.Escalation2Days && inv.EscalationLevel < 2:
			return decide(ReminderTypeEscalation2, ChannelBoth)
		case daysOverdue >= cfg.Escalation1Days && inv.EscalationLevel < 1:
			return decide(ReminderTypeEscalation1, ChannelBoth)
		}
	}

	if daysOverdue > 0 && (inv.LastReminderAt == nil || elapsedDays(*inv.LastReminderAt, now) >= cfg.OverdueFrequencyDays) {
		return decide(ReminderTypeOverdue, cfg.OverdueChannels)
	}
	return ReminderDecision{}, false
}

// elapsedDays returns the number of whole 24h periods between from and to
func elapsedDays(from, to time.Time) int {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
