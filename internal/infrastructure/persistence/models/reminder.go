package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"gorm.io/datatypes"
)

// PaymentReminderModel is the persistence model for payment reminders.
type PaymentReminderModel struct {
	TenantAggregateModel
	ReminderNumber string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	InvoiceID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	ReminderType   billing.ReminderType  `gorm:"type:varchar(30);not null"`
	Channel        billing.Channel       `gorm:"type:varchar(10);not null"`
	RecipientEmail string                `gorm:"type:varchar(200)"`
	RecipientPhone string                `gorm:"type:varchar(50)"`
	Subject        string                `gorm:"type:varchar(300)"`
	Body           string                `gorm:"type:text"`
	SMSBody        string                `gorm:"column:sms_body;type:text"`
	State          billing.ReminderState `gorm:"type:varchar(20);not null;index"`
	ScheduledAt    time.Time             `gorm:"not null"`
	SentAt         *time.Time
	Error          string `gorm:"type:text"`
	DeliveryStatus string `gorm:"type:varchar(200)"`
	Manual         bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (PaymentReminderModel) TableName() string {
	return "payment_reminders"
}

// ToDomain converts the persistence model to a domain PaymentReminder.
func (m *PaymentReminderModel) ToDomain() *billing.PaymentReminder {
	return &billing.PaymentReminder{
		TenantAggregateRoot: m.aggregate(),
		ReminderNumber:      m.ReminderNumber,
		InvoiceID:           m.InvoiceID,
		ReminderType:        m.ReminderType,
		Channel:             m.Channel,
		RecipientEmail:      m.RecipientEmail,
		RecipientPhone:      m.RecipientPhone,
		Subject:             m.Subject,
		Body:                m.Body,
		SMSBody:             m.SMSBody,
		State:               m.State,
		ScheduledAt:         m.ScheduledAt,
		SentAt:              m.SentAt,
		Error:               m.Error,
		DeliveryStatus:      m.DeliveryStatus,
		Manual:              m.Manual,
	}
}

// PaymentReminderModelFromDomain creates a new persistence model from a domain PaymentReminder.
func PaymentReminderModelFromDomain(r *billing.PaymentReminder) *PaymentReminderModel {
	m := &PaymentReminderModel{
		ReminderNumber: r.ReminderNumber,
		InvoiceID:      r.InvoiceID,
		ReminderType:   r.ReminderType,
		Channel:        r.Channel,
		RecipientEmail: r.RecipientEmail,
		RecipientPhone: r.RecipientPhone,
		Subject:        r.Subject,
		Body:           r.Body,
		SMSBody:        r.SMSBody,
		State:          r.State,
		ScheduledAt:    r.ScheduledAt,
		SentAt:         r.SentAt,
		Error:          r.Error,
		DeliveryStatus: r.DeliveryStatus,
		Manual:         r.Manual,
	}
	m.setAggregate(r.TenantAggregateRoot)
	return m
}

// ReminderConfigurationModel is the persistence model for the per-tenant reminder policy.
// List-valued settings are stored as JSON arrays.
type ReminderConfigurationModel struct {
	BaseModel
	TenantID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	PreDueDays           datatypes.JSON  `gorm:"type:jsonb;not null;default:'[]'"`
	PreDueChannels       billing.Channel `gorm:"type:varchar(10);not null"`
	DueDateEnabled       bool            `gorm:"not null;default:true"`
	DueDateChannels      billing.Channel `gorm:"type:varchar(10);not null"`
	OverdueFrequencyDays int             `gorm:"not null;default:3"`
	OverdueChannels      billing.Channel `gorm:"type:varchar(10);not null"`
	EscalationEnabled    bool            `gorm:"not null;default:true"`
	Escalation1Days      int             `gorm:"column:escalation_1_days;not null"`
	Escalation2Days      int             `gorm:"column:escalation_2_days;not null"`
	Escalation3Days      int             `gorm:"column:escalation_3_days;not null"`
	FinalNoticeDays      int             `gorm:"not null"`
	MaxReminders         int             `gorm:"not null;default:10"`
	EscalationEmails     datatypes.JSON  `gorm:"type:jsonb;not null;default:'[]'"`
	EscalationCC         datatypes.JSON  `gorm:"column:escalation_cc;type:jsonb;not null;default:'[]'"`
	HostelName           string          `gorm:"type:varchar(200)"`
	HostelPhone          string          `gorm:"type:varchar(50)"`
	HostelEmail          string          `gorm:"type:varchar(200)"`
	PaymentLinkBaseURL   string          `gorm:"column:payment_link_base_url;type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ReminderConfigurationModel) TableName() string {
	return "reminder_configurations"
}

// ToDomain converts the persistence model to a domain ReminderConfiguration.
func (m *ReminderConfigurationModel) ToDomain() (*billing.ReminderConfiguration, error) {
	cfg := &billing.ReminderConfiguration{
		ID:                   m.ID,
		TenantID:             m.TenantID,
		PreDueChannels:       m.PreDueChannels,
		DueDateEnabled:       m.DueDateEnabled,
		DueDateChannels:      m.DueDateChannels,
		OverdueFrequencyDays: m.OverdueFrequencyDays,
		OverdueChannels:      m.OverdueChannels,
		EscalationEnabled:    m.EscalationEnabled,
		Escalation1Days:      m.Escalation1Days,
		Escalation2Days:      m.Escalation2Days,
		Escalation3Days:      m.Escalation3Days,
		FinalNoticeDays:      m.FinalNoticeDays,
		MaxReminders:         m.MaxReminders,
		HostelName:           m.HostelName,
		HostelPhone:          m.HostelPhone,
		HostelEmail:          m.HostelEmail,
		PaymentLinkBaseURL:   m.PaymentLinkBaseURL,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
	if err := unmarshalJSONList(m.PreDueDays, &cfg.PreDueDays); err != nil {
		return nil, err
	}
	if err := unmarshalJSONList(m.EscalationEmails, &cfg.EscalationEmails); err != nil {
		return nil, err
	}
	if err := unmarshalJSONList(m.EscalationCC, &cfg.EscalationCC); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// ReminderConfigurationModelFromDomain creates a new persistence model from a domain ReminderConfiguration.
func ReminderConfigurationModelFromDomain(cfg *billing.ReminderConfiguration) (*ReminderConfigurationModel, error) {
	preDue, err := marshalJSONList(cfg.PreDueDays)
	if err != nil {
		return nil, err
	}
	emails, err := marshalJSONList(cfg.EscalationEmails)
	if err != nil {
		return nil, err
	}
	cc, err := marshalJSONList(cfg.EscalationCC)
	if err != nil {
		return nil, err
	}

	return &ReminderConfigurationModel{
		BaseModel: BaseModel{
			ID:        cfg.ID,
			CreatedAt: cfg.CreatedAt,
			UpdatedAt: cfg.UpdatedAt,
		},
		TenantID:             cfg.TenantID,
		PreDueDays:           preDue,
		PreDueChannels:       cfg.PreDueChannels,
		DueDateEnabled:       cfg.DueDateEnabled,
		DueDateChannels:      cfg.DueDateChannels,
		OverdueFrequencyDays: cfg.OverdueFrequencyDays,
		OverdueChannels:      cfg.OverdueChannels,
		EscalationEnabled:    cfg.EscalationEnabled,
		Escalation1Days:      cfg.Escalation1Days,
		Escalation2Days:      cfg.Escalation2Days,
		Escalation3Days:      cfg.Escalation3Days,
		FinalNoticeDays:      cfg.FinalNoticeDays,
		MaxReminders:         cfg.MaxReminders,
		EscalationEmails:     emails,
		EscalationCC:         cc,
		HostelName:           cfg.HostelName,
		HostelPhone:          cfg.HostelPhone,
		HostelEmail:          cfg.HostelEmail,
		PaymentLinkBaseURL:   cfg.PaymentLinkBaseURL,
	}, nil
}

// ReminderTemplateModel is the persistence model for reminder templates.
type ReminderTemplateModel struct {
	TenantModel
	Name         string               `gorm:"type:varchar(100);not null"`
	ReminderType billing.ReminderType `gorm:"type:varchar(30);not null;index"`
	EmailSubject string               `gorm:"type:varchar(300)"`
	EmailBody    string               `gorm:"type:text"`
	SMSBody      string               `gorm:"column:sms_body;type:text"`
	IsDefault    bool                 `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ReminderTemplateModel) TableName() string {
	return "reminder_templates"
}

// ToDomain converts the persistence model to a domain ReminderTemplate.
func (m *ReminderTemplateModel) ToDomain() *billing.ReminderTemplate {
	return &billing.ReminderTemplate{
		ID:           m.ID,
		TenantID:     m.TenantID,
		Name:         m.Name,
		ReminderType: m.ReminderType,
		EmailSubject: m.EmailSubject,
		EmailBody:    m.EmailBody,
		SMSBody:      m.SMSBody,
		IsDefault:    m.IsDefault,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ReminderTemplateModelFromDomain creates a new persistence model from a domain ReminderTemplate.
func ReminderTemplateModelFromDomain(t *billing.ReminderTemplate) *ReminderTemplateModel {
	m := &ReminderTemplateModel{
		Name:         t.Name,
		ReminderType: t.ReminderType,
		EmailSubject: t.EmailSubject,
		EmailBody:    t.EmailBody,
		SMSBody:      t.SMSBody,
		IsDefault:    t.IsDefault,
	}
	m.ID = t.ID
	m.TenantID = t.TenantID
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
	return m
}

func marshalJSONList[T any](list []T) (datatypes.JSON, error) {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func unmarshalJSONList[T any](raw datatypes.JSON, out *[]T) error {
	if len(raw) == 0 {
		*out = []T{}
		return nil
	}
	return json.Unmarshal(raw, out)
}
