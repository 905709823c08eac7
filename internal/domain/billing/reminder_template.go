package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReminderTemplate holds the wording used for one reminder type.
// Exactly one template per reminder type is the default for a tenant.
type ReminderTemplate struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	ReminderType ReminderType
	EmailSubject string
	EmailBody    string
	SMSBody      string
	IsDefault    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewReminderTemplate creates a reminder template
func NewReminderTemplate(
	tenantID uuid.UUID,
	name string,
	reminderType ReminderType,
	emailSubject, emailBody, smsBody string,
	isDefault bool,
) (*ReminderTemplate, error) {
	if tenantID == uuid.Nil {
		return nil, invalidInput("Tenant ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("Template name cannot be empty")
	}
	if len(name) > 100 {
		return nil, invalidInput("Template name cannot exceed 100 characters")
	}
	if !reminderType.IsValid() {
		return nil, invalidInput("Invalid reminder type")
	}
	if strings.TrimSpace(emailBody) == "" && strings.TrimSpace(smsBody) == "" {
		return nil, invalidInput("Template needs an email body or an SMS body")
	}

	now := time.Now()
	return &ReminderTemplate{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         name,
		ReminderType: reminderType,
		EmailSubject: emailSubject,
		EmailBody:    emailBody,
		SMSBody:      smsBody,
		IsDefault:    isDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// DefaultTemplates returns the built-in template set, one default per reminder type
func DefaultTemplates(tenantID uuid.UUID) []*ReminderTemplate {
	type wording struct {
		subject string
		email   string
		sms     string
	}
	texts := map[ReminderType]wording{
		ReminderTypePreDue: {
			"Upcoming payment: invoice {{invoice_number}}",
			"Dear {{user_name}},\n\nInvoice {{invoice_number}} for {{amount}} is due on {{due_date}}.\nPay online: {{payment_link}}\n\n{{hostel_name}}",
			"{{hostel_name}}: invoice {{invoice_number}} of {{amount}} is due on {{due_date}}.",
		},
		ReminderTypeDueDate: {
			"Payment due today: invoice {{invoice_number}}",
			"Dear {{user_name}},\n\nInvoice {{invoice_number}} for {{amount}} is due today ({{due_date}}).\nPay online: {{payment_link}}\n\n{{hostel_name}}",
			"{{hostel_name}}: invoice {{invoice_number}} of {{amount}} is due today.",
		},
		ReminderTypeOverdue: {
			"Overdue payment: invoice {{invoice_number}}",
			"Dear {{user_name}},\n\nInvoice {{invoice_number}} is {{days_overdue}} days overdue. Outstanding: {{amount}} of {{total_amount}}.\nPay online: {{payment_link}}\n\n{{hostel_name}} ({{hostel_phone}})",
			"{{hostel_name}}: invoice {{invoice_number}} is {{days_overdue}} days overdue. Due {{amount}}.",
		},
		ReminderTypeEscalation1: {
			"Second notice: invoice {{invoice_number}} overdue",
			"Dear {{user_name}},\n\nInvoice {{invoice_number}} remains unpaid {{days_overdue}} days after {{due_date}}. Outstanding: {{amount}}.\nPlease contact {{hostel_email}} if you have already paid.\n\n{{hostel_name}}",
			"{{hostel_name}}: second notice, {{amount}} overdue on invoice {{invoice_number}}.",
		},
		ReminderTypeEscalation2: {
			"Third notice: invoice {{invoice_number}} overdue",
			"Dear {{user_name}},\n\nInvoice {{invoice_number}} is now {{days_overdue}} days overdue. Outstanding: {{amount}}.\nThe hostel office has been informed.\n\n{{hostel_name}} ({{hostel_phone}})",
			"{{hostel_name}}: third notice, {{amount}} overdue on invoice {{invoice_number}}.",
		},
		ReminderTypeEscalation3: {
			"Urgent: invoice {{invoice_number}} seriously overdue",
			"Dear {{user_name}},\n\nInvoice {{invoice_number}} is {{days_overdue}} days overdue. Outstanding: {{amount}}.\nPlease settle immediately: {{payment_link}}\n\n{{hostel_name}} ({{hostel_phone}})",
			"{{hostel_name}}: URGENT, {{amount}} overdue on invoice {{invoice_number}}.",
		},
		ReminderTypeFinalNotice: {
			"Final notice: invoice {{invoice_number}}",
			"Dear {{user_name}},\n\nThis is the final notice for invoice {{invoice_number}}, {{days_overdue}} days overdue. Outstanding: {{amount}}.\nContact {{hostel_email}} or {{hostel_phone}} today.\n\n{{hostel_name}}",
			"{{hostel_name}}: FINAL NOTICE for invoice {{invoice_number}}, {{amount}} overdue.",
		},
	}

	templates := make([]*ReminderTemplate, 0, len(AllReminderTypes))
	for _, rt := range AllReminderTypes {
		w := texts[rt]
		tpl, _ := NewReminderTemplate(tenantID, "Default "+strings.ToLower(rt.String()), rt, w.subject, w.email, w.sms, true)
		templates = append(templates, tpl)
	}
	return templates
}
