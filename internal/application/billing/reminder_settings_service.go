package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ReminderSettingsService manages per-tenant reminder policy and templates
type ReminderSettingsService struct {
	configs   billing.ReminderConfigRepository
	templates billing.ReminderTemplateRepository
	logger    *zap.Logger
}

// NewReminderSettingsService creates a new ReminderSettingsService
func NewReminderSettingsService(
	configs billing.ReminderConfigRepository,
	templates billing.ReminderTemplateRepository,
	logger *zap.Logger,
) *ReminderSettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderSettingsService{
		configs:   configs,
		templates: templates,
		logger:    logger,
	}
}

// GetConfig returns the stored tenant policy, or the built-in default with IsDefault set
func (s *ReminderSettingsService) GetConfig(ctx context.Context, tenantID uuid.UUID) (*ReminderConfigResponse, error) {
	cfg, err := s.configs.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	isDefault := cfg == nil
	if isDefault {
		cfg = billing.DefaultReminderConfiguration(tenantID)
	}
	response := ToReminderConfigResponse(cfg, isDefault)
	return &response, nil
}

// UpsertConfig merges the request over the current policy, validates and stores it.
// Stock templates are seeded for any reminder type still lacking a default.
func (s *ReminderSettingsService) UpsertConfig(ctx context.Context, tenantID uuid.UUID, req UpsertReminderConfigRequest) (*ReminderConfigResponse, error) {
	cfg, err := s.configs.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = billing.DefaultReminderConfiguration(tenantID)
	}
	if err := mergeConfig(cfg, req); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.configs.Upsert(ctx, cfg); err != nil {
		return nil, err
	}
	if _, err := s.EnsureDefaultTemplates(ctx, tenantID); err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("reminder configuration updated",
		zap.Ints("pre_due_days", cfg.PreDueDays),
		zap.Int("max_reminders", cfg.MaxReminders),
	)
	response := ToReminderConfigResponse(cfg, false)
	return &response, nil
}

// CreateTemplate adds reminder wording; a new default replaces the previous default of its type
func (s *ReminderSettingsService) CreateTemplate(ctx context.Context, tenantID uuid.UUID, req CreateReminderTemplateRequest) (*ReminderTemplateResponse, error) {
	reminderType, err := billing.ParseReminderType(req.ReminderType)
	if err != nil {
		return nil, err
	}
	tpl, err := billing.NewReminderTemplate(tenantID, req.Name, reminderType,
		req.EmailSubject, req.EmailBody, req.SMSBody, req.IsDefault)
	if err != nil {
		return nil, err
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("reminder template created",
		zap.String("name", tpl.Name),
		zap.String("reminder_type", tpl.ReminderType.String()),
		zap.Bool("is_default", tpl.IsDefault),
	)
	response := ToReminderTemplateResponse(tpl)
	return &response, nil
}

// ListTemplates lists tenant templates, optionally of one reminder type
func (s *ReminderSettingsService) ListTemplates(ctx context.Context, tenantID uuid.UUID, reminderType *string) ([]ReminderTemplateResponse, error) {
	var filter *billing.ReminderType
	if reminderType != nil && *reminderType != "" {
		rt, err := billing.ParseReminderType(*reminderType)
		if err != nil {
			return nil, err
		}
		filter = &rt
	}
	templates, err := s.templates.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]ReminderTemplateResponse, len(templates))
	for i := range templates {
		responses[i] = ToReminderTemplateResponse(&templates[i])
	}
	return responses, nil
}

// EnsureDefaultTemplates seeds the stock template for every reminder type that has no default yet.
// It returns how many templates were created.
func (s *ReminderSettingsService) EnsureDefaultTemplates(ctx context.Context, tenantID uuid.UUID) (int, error) {
	created := 0
	for _, tpl := range billing.DefaultTemplates(tenantID) {
		existing, err := s.templates.FindDefault(ctx, tenantID, tpl.ReminderType)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		if err := s.templates.Create(ctx, tpl); err != nil {
			return created, err
		}
		created++
	}
	if created > 0 {
		logger.Enrich(ctx, s.logger).Info("default reminder templates seeded",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("count", created),
		)
	}
	return created, nil
}

func mergeConfig(cfg *billing.ReminderConfiguration, req UpsertReminderConfigRequest) error {
	if req.PreDueDays != nil {
		cfg.PreDueDays = req.PreDueDays
	}
	for _, c := range []struct {
		in  *string
		out *billing.Channel
	}{
		{req.PreDueChannels, &cfg.PreDueChannels},
		{req.DueDateChannels, &cfg.DueDateChannels},
		{req.OverdueChannels, &cfg.OverdueChannels},
	} {
		if c.in == nil {
			continue
		}
		ch, err := billing.ParseChannel(*c.in)
		if err != nil {
			return err
		}
		*c.out = ch
	}
	setBool(&cfg.DueDateEnabled, req.DueDateEnabled)
	setBool(&cfg.EscalationEnabled, req.EscalationEnabled)
	setInt(&cfg.OverdueFrequencyDays, req.OverdueFrequencyDays)
	setInt(&cfg.Escalation1Days, req.Escalation1Days)
	setInt(&cfg.Escalation2Days, req.Escalation2Days)
	setInt(&cfg.Escalation3Days, req.Escalation3Days)
	setInt(&cfg.FinalNoticeDays, req.FinalNoticeDays)
	setInt(&cfg.MaxReminders, req.MaxReminders)
	if req.EscalationEmails != nil {
		cfg.EscalationEmails = req.EscalationEmails
	}
	if req.EscalationCC != nil {
		cfg.EscalationCC = req.EscalationCC
	}
	setString(&cfg.HostelName, req.HostelName)
	setString(&cfg.HostelPhone, req.HostelPhone)
	setString(&cfg.HostelEmail, req.HostelEmail)
	setString(&cfg.PaymentLinkBaseURL, req.PaymentLinkBaseURL)
	return nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
