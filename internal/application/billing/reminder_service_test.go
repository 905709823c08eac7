package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appbilling "github.com/hostel/backend/internal/application/billing"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/hostel/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func TestReminderService_PreDueReminder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.settings.UpsertConfig(ctx, env.tenantID, appbilling.UpsertReminderConfigRequest{
		PreDueDays:        []int{7, 3, 1},
		EscalationEnabled: boolPtr(false),
		MaxReminders:      intPtr(10),
	})
	require.NoError(t, err)
	inv := env.createInvoice(t, "6500", 3)

	summary, err := env.reminders.Tick(ctx, "test", 50)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scanned)
	assert.Equal(t, 1, summary.Sent)

	reminders, err := env.reminders.ListReminders(ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "PRE_DUE", reminders[0].ReminderType)
	assert.Equal(t, "SENT", reminders[0].State)
	assert.Equal(t, "EMAIL", reminders[0].Channel)
	assert.False(t, reminders[0].Manual)
	assert.Contains(t, reminders[0].Body, inv.InvoiceNumber)
	assert.Contains(t, reminders[0].Body, "Sunrise Hostel")

	after := env.invoice(t, inv.ID)
	assert.Equal(t, 1, after.ReminderCount)
	require.NotNil(t, after.LastReminderAt)
	assert.Equal(t, 0, billing.DaysBetween(*after.LastReminderAt, env.clock.Now()))

	sent := env.sink.sentTo(inv.ContactEmail)
	require.Len(t, sent, 1)
	assert.Equal(t, billing.ChannelEmail, sent[0].Channel)
}

func TestReminderService_EscalationAdvancesOneLevel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.settings.UpsertConfig(ctx, env.tenantID, appbilling.UpsertReminderConfigRequest{
		Escalation1Days: intPtr(7),
		Escalation2Days: intPtr(14),
		Escalation3Days: intPtr(30),
		FinalNoticeDays: intPtr(45),
	})
	require.NoError(t, err)
	inv := env.createInvoice(t, "5000", -20)

	_, err = env.reminders.Tick(ctx, "test", 50)
	require.NoError(t, err)

	reminders, err := env.reminders.ListReminders(ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "ESCALATION_2", reminders[0].ReminderType)
	assert.Equal(t, "BOTH", reminders[0].Channel)
	assert.Equal(t, 2, env.invoice(t, inv.ID).EscalationLevel)

	summary, err := env.reminders.Tick(ctx, "test", 50)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 1, summary.Skipped)

	reminders, err = env.reminders.ListReminders(ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Len(t, reminders, 1)
	assert.Equal(t, 2, env.invoice(t, inv.ID).EscalationLevel)
}

func TestReminderService_TickTwiceSendsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.createInvoice(t, "1200", 0)

	for range 2 {
		_, err := env.reminders.Tick(ctx, "test", 50)
		require.NoError(t, err)
	}

	reminders, err := env.reminders.ListReminders(ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "DUE_DATE", reminders[0].ReminderType)
	assert.Equal(t, 1, env.invoice(t, inv.ID).ReminderCount)
}

func TestReminderService_ProcessInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("invoice held by another worker", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.createInvoice(t, "900", 0)
		unlock, ok, err := env.locker.TryLock(ctx, inv.ID)
		require.NoError(t, err)
		require.True(t, ok)
		defer unlock()

		outcome, err := env.reminders.ProcessInvoice(ctx, env.tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, appbilling.ReminderOutcomeLocked, outcome)
	})

	t.Run("paid invoice is skipped", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.createInvoice(t, "900", 0)
		env.pay(t, inv.ID, "900")

		outcome, err := env.reminders.ProcessInvoice(ctx, env.tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, appbilling.ReminderOutcomeSkipped, outcome)
	})

	t.Run("max reminders reached", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.createInvoice(t, "900", 0)
		env.setInvoiceReminderState(t, inv.ID, 0, 10)

		outcome, err := env.reminders.ProcessInvoice(ctx, env.tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, appbilling.ReminderOutcomeSkipped, outcome)
	})

	t.Run("no default template", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.createInvoice(t, "900", 0)
		require.NoError(t, env.db.Exec("DELETE FROM reminder_templates WHERE reminder_type = ?", "DUE_DATE").Error)

		outcome, err := env.reminders.ProcessInvoice(ctx, env.tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, appbilling.ReminderOutcomeSkipped, outcome)

		reminders, err := env.reminders.ListReminders(ctx, env.tenantID, inv.ID)
		require.NoError(t, err)
		assert.Empty(t, reminders)
	})
}

func TestReminderService_DeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.createInvoice(t, "3000", 3)
	env.sink.fail(billing.ChannelEmail, errGatewayDown)

	outcome, err := env.reminders.ProcessInvoice(ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, appbilling.ReminderOutcomeFailed, outcome)

	reminders, err := env.reminders.ListReminders(ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "FAILED", reminders[0].State)
	assert.Contains(t, reminders[0].Error, errGatewayDown.Error())
	assert.Equal(t, 0, env.invoice(t, inv.ID).ReminderCount)

	t.Run("retry waits for the backoff window", func(t *testing.T) {
		env.sink.fail(billing.ChannelEmail, nil)

		outcome, err := env.reminders.ProcessInvoice(ctx, env.tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, appbilling.ReminderOutcomeSkipped, outcome)

		env.clock.Advance(appbilling.DefaultFailureBackoff + time.Minute)
		outcome, err = env.reminders.ProcessInvoice(ctx, env.tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, appbilling.ReminderOutcomeSent, outcome)
		assert.Equal(t, 1, env.invoice(t, inv.ID).ReminderCount)
	})
}

func TestReminderService_BothChannelsPartialDelivery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.createInvoice(t, "2500", 0)
	env.sink.fail(billing.ChannelSMS, errGatewayDown)

	outcome, err := env.reminders.ProcessInvoice(ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, appbilling.ReminderOutcomeSent, outcome)

	reminders, err := env.reminders.ListReminders(ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "SENT", reminders[0].State)
	assert.Contains(t, reminders[0].DeliveryStatus, "EMAIL:sent")
	assert.NotContains(t, reminders[0].DeliveryStatus, "SMS")
	assert.Equal(t, 1, env.invoice(t, inv.ID).ReminderCount)
}

func TestReminderService_SendManualReminder(t *testing.T) {
	ctx := context.Background()
	req := appbilling.SendManualReminderRequest{ReminderType: "OVERDUE", Channel: "SMS"}

	t.Run("sends immediately", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.createInvoice(t, "4000", -2)

		reminder, err := env.reminders.SendManualReminder(ctx, env.tenantID, inv.ID, req)
		require.NoError(t, err)
		assert.Equal(t, "SENT", reminder.State)
		assert.True(t, reminder.Manual)
		assert.Equal(t, "SMS", reminder.Channel)

		sent := env.sink.sentTo(inv.ContactPhone)
		require.Len(t, sent, 1)
		assert.Equal(t, billing.ChannelSMS, sent[0].Channel)
		assert.Equal(t, 1, env.invoice(t, inv.ID).ReminderCount)
	})

	t.Run("paid invoice", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.createInvoice(t, "4000", -2)
		env.pay(t, inv.ID, "4000")

		_, err := env.reminders.SendManualReminder(ctx, env.tenantID, inv.ID, req)
		require.Error(t, err)
		assert.Equal(t, shared.CodeIllegalStateTransition, shared.ErrorCode(err))
	})

	t.Run("max reminders reached", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.createInvoice(t, "4000", -2)
		env.setInvoiceReminderState(t, inv.ID, 0, 10)

		_, err := env.reminders.SendManualReminder(ctx, env.tenantID, inv.ID, req)
		require.Error(t, err)
		assert.Equal(t, shared.CodeIllegalStateTransition, shared.ErrorCode(err))
	})

	t.Run("delivery fails", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.createInvoice(t, "4000", -2)
		env.sink.fail(billing.ChannelSMS, errGatewayDown)

		_, err := env.reminders.SendManualReminder(ctx, env.tenantID, inv.ID, req)
		require.Error(t, err)
		assert.Equal(t, shared.CodeDependencyFailed, shared.ErrorCode(err))

		reminders, err := env.reminders.ListReminders(ctx, env.tenantID, inv.ID)
		require.NoError(t, err)
		require.Len(t, reminders, 1)
		assert.Equal(t, "FAILED", reminders[0].State)
	})

	t.Run("concurrent processing", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.createInvoice(t, "4000", -2)
		unlock, _, err := env.locker.TryLock(ctx, inv.ID)
		require.NoError(t, err)
		defer unlock()

		_, err = env.reminders.SendManualReminder(ctx, env.tenantID, inv.ID, req)
		require.Error(t, err)
		assert.Equal(t, shared.CodeConflict, shared.ErrorCode(err))
	})

	t.Run("invalid channel", func(t *testing.T) {
		env := newTestEnv(t)
		inv := env.createInvoice(t, "4000", -2)

		_, err := env.reminders.SendManualReminder(ctx, env.tenantID, inv.ID,
			appbilling.SendManualReminderRequest{ReminderType: "OVERDUE", Channel: "PIGEON"})
		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(err))
	})
}

func TestReminderCancellationHandler(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoices := persistence.NewGormInvoiceRepository(env.db)
	reminders := persistence.NewGormPaymentReminderRepository(env.db)
	handler := appbilling.NewReminderCancellationHandler(reminders, nil)

	created := env.createInvoice(t, "1500", 5)
	inv, err := invoices.FindByID(ctx, env.tenantID, created.ID)
	require.NoError(t, err)

	pending, err := billing.NewPaymentReminder(inv, "REM-TEST-0001", billing.ReminderTypePreDue,
		billing.ChannelEmail, "Subject", "Body", "", env.clock.Now())
	require.NoError(t, err)
	require.NoError(t, reminders.Create(ctx, pending))

	assert.ElementsMatch(t, []string{billing.EventTypeInvoicePaid, billing.EventTypeInvoiceCancelled}, handler.EventTypes())
	require.NoError(t, handler.Handle(ctx, billing.NewInvoicePaidEvent(inv)))

	stored, err := reminders.FindByID(ctx, env.tenantID, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.ReminderStateCancelled, stored.State)

	err = handler.Handle(ctx, billing.NewInvoiceCreatedEvent(inv))
	assert.Error(t, err)
}

func TestReminderService_CancelInvoiceWithdrawsPendingReminders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoices := persistence.NewGormInvoiceRepository(env.db)
	reminders := persistence.NewGormPaymentReminderRepository(env.db)

	created := env.createInvoice(t, "1500", 5)
	inv, err := invoices.FindByID(ctx, env.tenantID, created.ID)
	require.NoError(t, err)
	pending, err := billing.NewPaymentReminder(inv, "REM-TEST-0002", billing.ReminderTypePreDue,
		billing.ChannelEmail, "Subject", "Body", "", env.clock.Now())
	require.NoError(t, err)
	require.NoError(t, reminders.Create(ctx, pending))

	_, err = env.ledger.CancelInvoice(ctx, env.tenantID, inv.ID, appbilling.CancelInvoiceRequest{Reason: "duplicate"})
	require.NoError(t, err)

	listed, err := env.reminders.ListReminders(ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "CANCELLED", listed[0].State)
}

func TestReminderSettingsService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("defaults before any upsert", func(t *testing.T) {
		other := newTestEnv(t)
		cfg, err := other.settings.GetConfig(ctx, other.tenantID)
		require.NoError(t, err)
		assert.True(t, cfg.IsDefault)
		assert.Equal(t, []int{7, 3, 1}, cfg.PreDueDays)
		assert.Equal(t, 10, cfg.MaxReminders)
	})

	t.Run("upsert merges and normalizes", func(t *testing.T) {
		cfg, err := env.settings.UpsertConfig(ctx, env.tenantID, appbilling.UpsertReminderConfigRequest{
			PreDueDays:     []int{1, 5, 5, 2},
			PreDueChannels: strPtr("both"),
			HostelName:     strPtr("Lakeview Hostel"),
		})
		require.NoError(t, err)
		assert.False(t, cfg.IsDefault)
		assert.Equal(t, []int{5, 2, 1}, cfg.PreDueDays)
		assert.Equal(t, "BOTH", cfg.PreDueChannels)
		assert.Equal(t, 14, cfg.Escalation2Days)

		stored, err := env.settings.GetConfig(ctx, env.tenantID)
		require.NoError(t, err)
		assert.False(t, stored.IsDefault)
		assert.Equal(t, "Lakeview Hostel", stored.HostelName)
	})

	t.Run("first upsert seeds stock templates", func(t *testing.T) {
		fresh := uuid.New()
		_, err := env.settings.UpsertConfig(ctx, fresh, appbilling.UpsertReminderConfigRequest{
			MaxReminders: intPtr(4),
		})
		require.NoError(t, err)

		all, err := env.settings.ListTemplates(ctx, fresh, nil)
		require.NoError(t, err)
		assert.Len(t, all, len(billing.AllReminderTypes))
	})

	t.Run("rejects thresholds out of order", func(t *testing.T) {
		_, err := env.settings.UpsertConfig(ctx, env.tenantID, appbilling.UpsertReminderConfigRequest{
			Escalation1Days: intPtr(20),
			Escalation2Days: intPtr(10),
		})
		require.Error(t, err)
		assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(err))
	})

	t.Run("new default template replaces the old one", func(t *testing.T) {
		created, err := env.settings.CreateTemplate(ctx, env.tenantID, appbilling.CreateReminderTemplateRequest{
			Name:         "Friendly overdue",
			ReminderType: "OVERDUE",
			EmailSubject: "Gentle nudge for {{invoice_number}}",
			EmailBody:    "Hi {{user_name}}, {{amount}} is still open.",
			SMSBody:      "{{amount}} open on {{invoice_number}}",
			IsDefault:    true,
		})
		require.NoError(t, err)

		overdue := "OVERDUE"
		templates, err := env.settings.ListTemplates(ctx, env.tenantID, &overdue)
		require.NoError(t, err)
		require.Len(t, templates, 2)
		defaults := 0
		for _, tpl := range templates {
			if tpl.IsDefault {
				defaults++
				assert.Equal(t, created.ID, tpl.ID)
			}
		}
		assert.Equal(t, 1, defaults)
	})

	t.Run("seeding is idempotent", func(t *testing.T) {
		n, err := env.settings.EnsureDefaultTemplates(ctx, env.tenantID)
		require.NoError(t, err)
		assert.Zero(t, n)

		all, err := env.settings.ListTemplates(ctx, env.tenantID, nil)
		require.NoError(t, err)
		assert.Len(t, all, len(billing.AllReminderTypes)+1)
	})
}

func TestReminderService_EscalationCopiesContacts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const warden, accounts = "warden@sunrise.example", "accounts@sunrise.example"
	_, err := env.settings.UpsertConfig(ctx, env.tenantID, appbilling.UpsertReminderConfigRequest{
		Escalation1Days:  intPtr(7),
		Escalation2Days:  intPtr(14),
		Escalation3Days:  intPtr(30),
		FinalNoticeDays:  intPtr(45),
		EscalationEmails: []string{warden},
		EscalationCC:     []string{accounts, " Warden@sunrise.example "},
	})
	require.NoError(t, err)
	overdue := env.createInvoice(t, "5000", -20)
	env.createInvoice(t, "5000", 3)

	summary, err := env.reminders.Tick(ctx, "test", 50)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Sent)

	reminders, err := env.reminders.ListReminders(ctx, env.tenantID, overdue.ID)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	require.Equal(t, "ESCALATION_2", reminders[0].ReminderType)

	for _, addr := range []string{warden, accounts} {
		got := env.sink.sentTo(addr)
		require.Len(t, got, 1, addr)
		assert.Equal(t, billing.ChannelEmail, got[0].Channel)
		assert.Contains(t, got[0].Subject, "ESCALATION_2")
		assert.Equal(t, reminders[0].Body, got[0].Body)
	}
	assert.Len(t, env.sink.sentTo(overdue.ContactEmail), 1)
}

func TestReminderService_CancelledDuringDeliveryStaysCancelled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reminders := persistence.NewGormPaymentReminderRepository(env.db)
	inv := env.createInvoice(t, "1200", 0)

	env.sink.onSend = func() {
		_, err := reminders.CancelPendingByInvoice(ctx, env.tenantID, inv.ID, env.clock.Now())
		require.NoError(t, err)
	}

	outcome, err := env.reminders.ProcessInvoice(ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, appbilling.ReminderOutcomeSkipped, outcome)

	listed, err := env.reminders.ListReminders(ctx, env.tenantID, inv.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "CANCELLED", listed[0].State)

	after := env.invoice(t, inv.ID)
	assert.Equal(t, 0, after.ReminderCount)
	assert.Nil(t, after.LastReminderAt)
}

func TestReminderService_TickReadsTenantConfigOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	var first *appbilling.InvoiceResponse
	for i := range 3 {
		inv := env.createInvoice(t, "900", 3)
		if i == 0 {
			first = inv
		}
	}

	summary, err := env.reminders.Tick(ctx, "test", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 1, env.configs.count())

	_, err = env.reminders.ProcessInvoice(ctx, env.tenantID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, env.configs.count())
}
