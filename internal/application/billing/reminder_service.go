package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/hostel/backend/internal/infrastructure/logger"
	"github.com/hostel/backend/internal/infrastructure/numbering"
	"github.com/hostel/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultFailureBackoff is how long a failed reminder type waits before the scheduler retries it
const DefaultFailureBackoff = 30 * time.Minute

var errNoDefaultTemplate = errors.New("no default reminder template")

// HostelDefaults fills the hostel contact placeholders a tenant configuration leaves empty
type HostelDefaults struct {
	Name               string
	Phone              string
	Email              string
	PaymentLinkBaseURL string
}

// ReminderService runs the payment reminder engine around billing.SelectReminder:
// per-invoice locking, template rendering, dispatch and bookkeeping.
type ReminderService struct {
	invoices       billing.InvoiceRepository
	reminders      billing.ReminderRepository
	configs        billing.ReminderConfigRepository
	templates      billing.ReminderTemplateRepository
	scope          TransactionScope
	minter         billing.NumberMinter
	sink           billing.NotificationSink
	locker         billing.InvoiceLocker
	renderer       *billing.TemplateRenderer
	defaults       HostelDefaults
	sinkTimeout    time.Duration
	failureBackoff time.Duration
	publisher      shared.EventPublisher
	metrics        *telemetry.BillingMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewReminderService creates a new ReminderService
func NewReminderService(
	invoices billing.InvoiceRepository,
	reminders billing.ReminderRepository,
	configs billing.ReminderConfigRepository,
	templates billing.ReminderTemplateRepository,
	scope TransactionScope,
	minter billing.NumberMinter,
	sink billing.NotificationSink,
	locker billing.InvoiceLocker,
	renderer *billing.TemplateRenderer,
	logger *zap.Logger,
) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{
		invoices:       invoices,
		reminders:      reminders,
		configs:        configs,
		templates:      templates,
		scope:          scope,
		minter:         minter,
		sink:           sink,
		locker:         locker,
		renderer:       renderer,
		sinkTimeout:    DefaultSideEffectTimeout,
		failureBackoff: DefaultFailureBackoff,
		logger:         logger,
		now:            time.Now,
	}
}

// SetHostelDefaults sets the contact details used when a tenant configuration has none
func (s *ReminderService) SetHostelDefaults(defaults HostelDefaults) {
	s.defaults = defaults
}

// SetEventPublisher sets the event publisher for domain events
func (s *ReminderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetBillingMetrics sets the billing metrics recorder
func (s *ReminderService) SetBillingMetrics(metrics *telemetry.BillingMetrics) {
	s.metrics = metrics
}

// SetClock replaces the time source
func (s *ReminderService) SetClock(now func() time.Time) {
	s.now = now
}

// SetSinkTimeout sets the per-send notification timeout
func (s *ReminderService) SetSinkTimeout(d time.Duration) {
	if d > 0 {
		s.sinkTimeout = d
	}
}

// SetFailureBackoff sets how long a failed reminder type is left alone. Zero disables the wait.
func (s *ReminderService) SetFailureBackoff(d time.Duration) {
	if d >= 0 {
		s.failureBackoff = d
	}
}

// ForEachOutstanding pages through PENDING and PARTIAL invoices of every tenant
// in ID order and calls fn for each. It stops at the first error from fn.
func (s *ReminderService) ForEachOutstanding(ctx context.Context, batchSize int, fn func(tenantID, invoiceID uuid.UUID) error) error {
	if batchSize <= 0 {
		batchSize = 200
	}
	after := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := s.invoices.FindOutstanding(ctx, after, batchSize)
		if err != nil {
			return err
		}
		for i := range page {
			if err := fn(page[i].TenantID, page[i].ID); err != nil {
				return err
			}
		}
		if len(page) < batchSize {
			return nil
		}
		after = page[len(page)-1].ID
	}
}

// Tick runs one synchronous reminder pass over all outstanding invoices.
// Per-invoice failures are counted and logged; the pass continues.
func (s *ReminderService) Tick(ctx context.Context, trigger string, batchSize int) (*TickSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reminder", "tick")
	defer span.End()

	start := time.Now()
	log := logger.Enrich(ctx, s.logger).With(zap.String("trigger", trigger))
	summary := &TickSummary{}
	configs := s.tickConfigs()
	err := s.ForEachOutstanding(ctx, batchSize, func(tenantID, invoiceID uuid.UUID) error {
		summary.Scanned++
		outcome, err := s.processInvoice(ctx, tenantID, invoiceID, configs)
		if err != nil {
			summary.Errors++
			log.Error("reminder processing failed", zap.String("invoice_id", invoiceID.String()), zap.Error(err))
			return nil
		}
		summary.add(outcome)
		return nil
	})
	s.metrics.RecordTick(ctx, trigger, time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		return summary, err
	}

	log.Info("reminder tick finished",
		zap.Int("scanned", summary.Scanned),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("locked", summary.Locked),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", time.Since(start)),
	)
	return summary, nil
}

// configLookup resolves the reminder policy of a tenant
type configLookup func(ctx context.Context, tenantID uuid.UUID) (*billing.ReminderConfiguration, error)

// tickConfigs memoizes tenant policies for the length of one synchronous tick
func (s *ReminderService) tickConfigs() configLookup {
	seen := make(map[uuid.UUID]*billing.ReminderConfiguration)
	return func(ctx context.Context, tenantID uuid.UUID) (*billing.ReminderConfiguration, error) {
		if cfg, ok := seen[tenantID]; ok {
			return cfg, nil
		}
		cfg, err := s.loadConfig(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		seen[tenantID] = cfg
		return cfg, nil
	}
}

// ProcessInvoice evaluates one invoice and sends at most one reminder for it.
// An invoice held by another worker is reported as LOCKED and left for the next tick.
func (s *ReminderService) ProcessInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (ReminderOutcome, error) {
	return s.processInvoice(ctx, tenantID, invoiceID, s.loadConfig)
}

func (s *ReminderService) processInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, configs configLookup) (ReminderOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reminder", "process_invoice")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
	)

	unlock, ok, err := s.locker.TryLock(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", fmt.Errorf("acquire reminder lock: %w", err)
	}
	if !ok {
		return ReminderOutcomeLocked, nil
	}
	defer unlock()

	inv, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return "", err
	}
	if inv == nil {
		return "", billing.NotFound("Invoice")
	}
	if !inv.Status.IsOutstanding() {
		return ReminderOutcomeSkipped, nil
	}
	cfg, err := configs(ctx, tenantID)
	if err != nil {
		return "", err
	}

	now := s.now()
	decision, ok := billing.SelectReminder(now, inv, cfg)
	if !ok {
		return ReminderOutcomeSkipped, nil
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrReminderType, decision.ReminderType.String(),
		telemetry.SpanAttrChannel, decision.Channel.String(),
	)

	log := logger.Enrich(ctx, s.logger).With(logger.Invoice(inv.InvoiceNumber))
	waiting, err := s.recentlyFailed(ctx, inv, decision.ReminderType, now)
	if err != nil {
		return "", err
	}
	if waiting {
		log.Debug("reminder failed recently, waiting before retry", zap.String("reminder_type", decision.ReminderType.String()))
		return ReminderOutcomeSkipped, nil
	}

	reminder, err := s.dispatch(ctx, log, inv, cfg, decision.ReminderType, decision.Channel, decision.DaysOverdue, false)
	if errors.Is(err, errNoDefaultTemplate) {
		log.Warn("no default reminder template, skipping", zap.String("reminder_type", decision.ReminderType.String()))
		return ReminderOutcomeSkipped, nil
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}

	switch reminder.State {
	case billing.ReminderStateSent:
		return ReminderOutcomeSent, nil
	case billing.ReminderStateFailed:
		return ReminderOutcomeFailed, nil
	default:
		return ReminderOutcomeSkipped, nil
	}
}

// SendManualReminder sends a reminder of the requested type right away.
// Unlike scheduled reminders, a delivery failure is returned as DEPENDENCY_FAILED.
func (s *ReminderService) SendManualReminder(ctx context.Context, tenantID, invoiceID uuid.UUID, req SendManualReminderRequest) (*ReminderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reminder", "send_manual_reminder")
	defer span.End()

	reminderType, err := billing.ParseReminderType(req.ReminderType)
	if err != nil {
		return nil, err
	}
	channel, err := billing.ParseChannel(req.Channel)
	if err != nil {
		return nil, err
	}

	unlock, ok, err := s.locker.TryLock(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("acquire reminder lock: %w", err)
	}
	if !ok {
		return nil, shared.NewDomainError(shared.CodeConflict, "Reminders for this invoice are being processed, try again shortly")
	}
	defer unlock()

	inv, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, billing.NotFound("Invoice")
	}
	if !inv.Status.IsOutstanding() {
		return nil, shared.NewDomainError(shared.CodeIllegalStateTransition,
			"Cannot send a reminder for a "+inv.Status.String()+" invoice")
	}
	cfg, err := s.loadConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if inv.ReminderCount >= cfg.MaxReminders {
		return nil, shared.NewDomainError(shared.CodeIllegalStateTransition, "Invoice has reached the maximum number of reminders")
	}

	daysOverdue := max(0, -billing.DaysBetween(s.now(), inv.DueDate))
	log := logger.Enrich(ctx, s.logger).With(logger.Invoice(inv.InvoiceNumber))
	reminder, err := s.dispatch(ctx, log, inv, cfg, reminderType, channel, daysOverdue, true)
	if errors.Is(err, errNoDefaultTemplate) {
		return nil, billing.NotFound("Default template for " + reminderType.String())
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	switch reminder.State {
	case billing.ReminderStateFailed:
		return nil, shared.NewDomainError(shared.CodeDependencyFailed, "Reminder delivery failed: "+reminder.Error)
	case billing.ReminderStateCancelled:
		return nil, shared.NewDomainError(shared.CodeIllegalStateTransition, "Invoice was settled before the reminder went out")
	}
	response := ToReminderResponse(reminder)
	return &response, nil
}

// ListReminders lists the reminders of an invoice
func (s *ReminderService) ListReminders(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]ReminderResponse, error) {
	inv, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, billing.NotFound("Invoice")
	}
	reminders, err := s.reminders.FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	responses := make([]ReminderResponse, len(reminders))
	for i := range reminders {
		responses[i] = ToReminderResponse(&reminders[i])
	}
	return responses, nil
}

// dispatch renders, records and sends one reminder, then books the outcome.
// The caller holds the invoice reminder lock.
func (s *ReminderService) dispatch(
	ctx context.Context,
	log *zap.Logger,
	inv *billing.Invoice,
	cfg *billing.ReminderConfiguration,
	reminderType billing.ReminderType,
	channel billing.Channel,
	daysOverdue int,
	manual bool,
) (*billing.PaymentReminder, error) {
	tpl, err := s.templates.FindDefault(ctx, inv.TenantID, reminderType)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, errNoDefaultTemplate
	}

	tc := billing.NewTemplateContext(inv, cfg, daysOverdue)
	subject := s.renderer.Render(tpl.EmailSubject, tc)
	body := s.renderer.Render(tpl.EmailBody, tc)
	smsBody := s.renderer.Render(tpl.SMSBody, tc)

	now := s.now()
	var reminder *billing.PaymentReminder
	err = numbering.WithUniqueRetry(ctx, log, func(ctx context.Context) error {
		r, err := billing.NewPaymentReminder(inv, s.minter.Mint(billing.PrefixReminder, now),
			reminderType, channel, subject, body, smsBody, now)
		if err != nil {
			return err
		}
		r.Manual = manual
		if err := s.reminders.Create(ctx, r); err != nil {
			return err
		}
		reminder = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	log = log.With(logger.Reminder(reminder.ReminderNumber))

	// a payment may have settled the invoice while the reminder was being prepared
	current, err := s.invoices.FindByID(ctx, inv.TenantID, inv.ID)
	if err != nil {
		return nil, err
	}
	if current == nil || !current.Status.IsOutstanding() {
		if err := reminder.Cancel(s.now()); err != nil {
			return nil, err
		}
		if err := s.reminders.Save(ctx, reminder); err != nil {
			return nil, err
		}
		log.Info("reminder cancelled, invoice no longer outstanding")
		s.metrics.RecordReminder(ctx, reminderType.String(), reminder.State.String())
		return reminder, nil
	}

	deliveryStatus, sendErr := s.send(ctx, log, reminder)

	at := s.now()
	settled := false
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var markErr error
		if sendErr != nil {
			markErr = reminder.MarkFailed(sendErr.Error(), at)
		} else {
			markErr = reminder.MarkSent(deliveryStatus, at)
		}
		if markErr != nil {
			return markErr
		}
		ok, err := repos.Reminders().SettlePending(ctx, reminder)
		if err != nil || !ok || sendErr != nil {
			settled = ok
			return err
		}
		settled = true

		locked, err := repos.Invoices().FindByIDForUpdate(ctx, inv.TenantID, inv.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return billing.NotFound("Invoice")
		}
		locked.RecordReminderSent(reminderType, at)
		return repos.Invoices().Save(ctx, locked)
	})
	if err != nil {
		return nil, err
	}
	if !settled {
		// cancelled while the sink was busy; the stored state stands
		log.Warn("reminder withdrawn during delivery, outcome not recorded",
			zap.String("reminder_type", reminderType.String()),
			zap.Bool("delivered", sendErr == nil),
		)
		stored, err := s.reminders.FindByID(ctx, inv.TenantID, reminder.ID)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, billing.NotFound("Reminder")
		}
		s.metrics.RecordReminder(ctx, reminderType.String(), stored.State.String())
		return stored, nil
	}

	if sendErr != nil {
		log.Warn("reminder delivery failed",
			zap.String("reminder_type", reminderType.String()),
			zap.String("channel", channel.String()),
			zap.Error(sendErr),
		)
	} else {
		log.Info("reminder sent",
			zap.String("reminder_type", reminderType.String()),
			zap.String("channel", channel.String()),
			zap.String("delivery_status", deliveryStatus),
			zap.Bool("manual", manual),
		)
		s.copyToEscalationContacts(ctx, log, cfg, reminder)
	}
	s.metrics.RecordReminder(ctx, reminderType.String(), reminder.State.String())
	publishEvents(ctx, s.publisher, log, reminder)
	return reminder, nil
}

// send delivers the reminder on each channel it covers.
// It succeeds when at least one channel accepted the message.
func (s *ReminderService) send(ctx context.Context, log *zap.Logger, r *billing.PaymentReminder) (string, error) {
	type attempt struct {
		channel   billing.Channel
		recipient string
		subject   string
		body      string
	}
	var attempts []attempt
	if r.Channel.Includes(billing.ChannelEmail) {
		attempts = append(attempts, attempt{billing.ChannelEmail, r.RecipientEmail, r.Subject, r.Body})
	}
	if r.Channel.Includes(billing.ChannelSMS) {
		sms := r.SMSBody
		if strings.TrimSpace(sms) == "" {
			sms = r.Subject
		}
		attempts = append(attempts, attempt{billing.ChannelSMS, r.RecipientPhone, "", sms})
	}

	var delivered, failures []string
	for _, a := range attempts {
		if a.recipient == "" {
			failures = append(failures, a.channel.String()+": no recipient on file")
			continue
		}
		id, err := s.sendOne(ctx, billing.Notification{
			Channel:   a.channel,
			Recipient: a.recipient,
			Subject:   a.subject,
			Body:      a.body,
		})
		if err != nil {
			failures = append(failures, a.channel.String()+": "+err.Error())
			continue
		}
		status := a.channel.String() + ":sent"
		if id != "" {
			status += ":" + id
		}
		delivered = append(delivered, status)
	}

	if len(delivered) == 0 {
		return "", errors.New(strings.Join(failures, "; "))
	}
	if len(failures) > 0 {
		log.Warn("reminder partially delivered", zap.Strings("failures", failures))
	}
	return strings.Join(delivered, " "), nil
}

// copyToEscalationContacts e-mails an escalation-level reminder to the tenant's
// escalation addresses and then its CC list. Failures are logged only.
func (s *ReminderService) copyToEscalationContacts(ctx context.Context, log *zap.Logger, cfg *billing.ReminderConfiguration, r *billing.PaymentReminder) {
	if r.ReminderType.EscalationLevel() == 0 {
		return
	}
	subject := "[" + r.ReminderType.String() + "] " + r.Subject
	seen := make(map[string]bool)
	for _, list := range [][]string{cfg.EscalationEmails, cfg.EscalationCC} {
		for _, addr := range list {
			addr = strings.TrimSpace(addr)
			key := strings.ToLower(addr)
			if addr == "" || seen[key] || strings.EqualFold(addr, r.RecipientEmail) {
				continue
			}
			seen[key] = true
			if _, err := s.sendOne(ctx, billing.Notification{
				Channel:   billing.ChannelEmail,
				Recipient: addr,
				Subject:   subject,
				Body:      r.Body,
			}); err != nil {
				log.Warn("escalation copy not delivered", zap.String("recipient", addr), zap.Error(err))
			}
		}
	}
}

func (s *ReminderService) sendOne(ctx context.Context, n billing.Notification) (string, error) {
	sendCtx, cancel := context.WithTimeout(ctx, s.sinkTimeout)
	defer cancel()
	return s.sink.Send(sendCtx, n)
}

// recentlyFailed reports whether a reminder of this type failed within the backoff window
func (s *ReminderService) recentlyFailed(ctx context.Context, inv *billing.Invoice, reminderType billing.ReminderType, now time.Time) (bool, error) {
	if s.failureBackoff <= 0 {
		return false, nil
	}
	history, err := s.reminders.FindByInvoice(ctx, inv.TenantID, inv.ID)
	if err != nil {
		return false, err
	}
	for _, r := range history {
		if r.ReminderType == reminderType && r.State == billing.ReminderStateFailed && now.Sub(r.UpdatedAt) < s.failureBackoff {
			return true, nil
		}
	}
	return false, nil
}

// loadConfig returns the tenant policy or the built-in default, with hostel contact gaps filled
func (s *ReminderService) loadConfig(ctx context.Context, tenantID uuid.UUID) (*billing.ReminderConfiguration, error) {
	cfg, err := s.configs.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = billing.DefaultReminderConfiguration(tenantID)
	}
	applyHostelDefaults(cfg, s.defaults)
	return cfg, nil
}

func applyHostelDefaults(cfg *billing.ReminderConfiguration, d HostelDefaults) {
	cfg.HostelName = fallback(cfg.HostelName, d.Name)
	cfg.HostelPhone = fallback(cfg.HostelPhone, d.Phone)
	cfg.HostelEmail = fallback(cfg.HostelEmail, d.Email)
	cfg.PaymentLinkBaseURL = fallback(cfg.PaymentLinkBaseURL, d.PaymentLinkBaseURL)
}
