package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Invoice DTOs
// =============================================================================

// LineItemInput is one line of a new invoice.
// Amount defaults to quantity x unit_price; quantity defaults to 1.
type LineItemInput struct {
	Description string           `json:"description" binding:"required,min=1,max=500"`
	Quantity    *decimal.Decimal `json:"quantity" binding:"omitempty,decimal_gte0"`
	UnitPrice   *decimal.Decimal `json:"unit_price" binding:"omitempty,decimal_gte0"`
	Amount      *decimal.Decimal `json:"amount" binding:"omitempty,decimal_gte0"`
}

// CreateInvoiceRequest represents a request to issue a new invoice
type CreateInvoiceRequest struct {
	OwnerID      uuid.UUID       `json:"owner_id" binding:"required"`
	Items        []LineItemInput `json:"items" binding:"required,min=1,dive"`
	Description  string          `json:"description" binding:"max=1000"`
	IssueDate    string          `json:"issue_date"`
	DueDate      string          `json:"due_date" binding:"required"`
	ContactName  string          `json:"contact_name" binding:"max=200"`
	ContactEmail string          `json:"contact_email" binding:"omitempty,email,max=200"`
	ContactPhone string          `json:"contact_phone" binding:"max=50"`
}

// CancelInvoiceRequest represents a request to void an unpaid invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// InvoiceListFilter represents filter options for an owner's invoices
type InvoiceListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING PARTIAL PAID CANCELLED"`
}

// LineItemResponse represents an invoice line in API responses
type LineItemResponse struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID              uuid.UUID          `json:"id"`
	TenantID        uuid.UUID          `json:"tenant_id"`
	InvoiceNumber   string             `json:"invoice_number"`
	OwnerID         uuid.UUID          `json:"owner_id"`
	ContactName     string             `json:"contact_name,omitempty"`
	ContactEmail    string             `json:"contact_email,omitempty"`
	ContactPhone    string             `json:"contact_phone,omitempty"`
	Description     string             `json:"description"`
	LineItems       []LineItemResponse `json:"line_items"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	PaidAmount      decimal.Decimal    `json:"paid_amount"`
	DueAmount       decimal.Decimal    `json:"due_amount"`
	Status          string             `json:"status"`
	IssueDate       time.Time          `json:"issue_date"`
	DueDate         time.Time          `json:"due_date"`
	EscalationLevel int                `json:"escalation_level"`
	ReminderCount   int                `json:"reminder_count"`
	LastReminderAt  *time.Time         `json:"last_reminder_at,omitempty"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty"`
	CancelReason    string             `json:"cancel_reason,omitempty"`
	Version         int                `json:"version"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	items := make([]LineItemResponse, len(inv.LineItems))
	for i, item := range inv.LineItems {
		items[i] = LineItemResponse{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}
	return InvoiceResponse{
		ID:              inv.ID,
		TenantID:        inv.TenantID,
		InvoiceNumber:   inv.InvoiceNumber,
		OwnerID:         inv.OwnerID,
		ContactName:     inv.Contact.Name,
		ContactEmail:    inv.Contact.Email,
		ContactPhone:    inv.Contact.Phone,
		Description:     inv.Description,
		LineItems:       items,
		TotalAmount:     inv.TotalAmount,
		PaidAmount:      inv.PaidAmount,
		DueAmount:       inv.DueAmount,
		Status:          string(inv.Status),
		IssueDate:       inv.IssueDate,
		DueDate:         inv.DueDate,
		EscalationLevel: inv.EscalationLevel,
		ReminderCount:   inv.ReminderCount,
		LastReminderAt:  inv.LastReminderAt,
		CancelledAt:     inv.CancelledAt,
		CancelReason:    inv.CancelReason,
		Version:         inv.Version,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

// ToInvoiceResponses converts a slice of invoices
func ToInvoiceResponses(invoices []billing.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}
	return responses
}

// =============================================================================
// Payment, Transaction and Receipt DTOs
// =============================================================================

// ProcessPaymentRequest represents a payment against an invoice.
// A repeated request with the same gateway and gateway_ref returns the original transaction.
type ProcessPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required,decimal_gt0"`
	Method          string          `json:"method" binding:"required,payment_method"`
	Gateway         string          `json:"gateway" binding:"max=50"`
	GatewayRef      string          `json:"gateway_ref" binding:"max=100"`
	Notes           string          `json:"notes" binding:"max=500"`
	ParentPaymentID *uuid.UUID      `json:"parent_payment_id"`
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID                uuid.UUID       `json:"id"`
	TransactionNumber string          `json:"transaction_number"`
	InvoiceID         uuid.UUID       `json:"invoice_id"`
	ParentPaymentID   uuid.UUID       `json:"parent_payment_id"`
	Kind              string          `json:"kind"`
	Amount            decimal.Decimal `json:"amount"`
	Method            string          `json:"method"`
	Gateway           string          `json:"gateway,omitempty"`
	GatewayRef        string          `json:"gateway_ref,omitempty"`
	Status            string          `json:"status"`
	Notes             string          `json:"notes,omitempty"`
	ProcessedBy       *uuid.UUID      `json:"processed_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ToTransactionResponse converts a domain Transaction to TransactionResponse
func ToTransactionResponse(t *billing.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                t.ID,
		TransactionNumber: t.TransactionNumber,
		InvoiceID:         t.InvoiceID,
		ParentPaymentID:   t.ParentPaymentID,
		Kind:              string(t.Kind),
		Amount:            t.Amount,
		Method:            string(t.Method),
		Gateway:           t.Gateway,
		GatewayRef:        t.GatewayRef,
		Status:            string(t.Status),
		Notes:             t.Notes,
		ProcessedBy:       t.ProcessedBy,
		CreatedAt:         t.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of transactions
func ToTransactionResponses(txns []billing.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}

// ReceiptResponse represents a receipt in API responses
type ReceiptResponse struct {
	ID             uuid.UUID       `json:"id"`
	ReceiptNumber  string          `json:"receipt_number"`
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	TransactionID  uuid.UUID       `json:"transaction_id"`
	PaymentID      uuid.UUID       `json:"payment_id"`
	Amount         decimal.Decimal `json:"amount"`
	ArtifactHandle string          `json:"artifact_handle,omitempty"`
	QRPayload      string          `json:"qr_payload"`
	GeneratedAt    time.Time       `json:"generated_at"`
	Emailed        bool            `json:"emailed"`
}

// ToReceiptResponse converts a domain Receipt to ReceiptResponse
func ToReceiptResponse(r *billing.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:             r.ID,
		ReceiptNumber:  r.ReceiptNumber,
		InvoiceID:      r.InvoiceID,
		TransactionID:  r.TransactionID,
		PaymentID:      r.PaymentID,
		Amount:         r.Amount,
		ArtifactHandle: r.ArtifactHandle,
		QRPayload:      r.QRPayload,
		GeneratedAt:    r.GeneratedAt,
		Emailed:        r.Emailed,
	}
}

// PaymentResult is the outcome of ProcessPayment
type PaymentResult struct {
	Transaction TransactionResponse `json:"transaction"`
	Invoice     InvoiceResponse     `json:"invoice"`
	Receipt     *ReceiptResponse    `json:"receipt,omitempty"`
	// Duplicate is true when the gateway reference matched an earlier payment
	Duplicate bool `json:"duplicate"`
}

// =============================================================================
// Refund DTOs
// =============================================================================

// RequestRefundRequest represents a request to reverse part of a payment
type RequestRefundRequest struct {
	TransactionID uuid.UUID       `json:"transaction_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required,decimal_gt0"`
	Reason        string          `json:"reason" binding:"max=500"`
}

// RejectRefundRequest represents a refund rejection
type RejectRefundRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// FailRefundRequest records a gateway failure for a processing refund
type FailRefundRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// RefundListFilter represents filter options for refund queries
type RefundListFilter struct {
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	InvoiceID     string `form:"invoice_id" binding:"omitempty,uuid"`
	TransactionID string `form:"transaction_id" binding:"omitempty,uuid"`
	State         string `form:"state" binding:"omitempty,oneof=INITIATED PROCESSING COMPLETED FAILED REJECTED"`
}

// RefundResponse represents a refund request in API responses
type RefundResponse struct {
	ID                  uuid.UUID       `json:"id"`
	RefundNumber        string          `json:"refund_number"`
	TransactionID       uuid.UUID       `json:"transaction_id"`
	InvoiceID           uuid.UUID       `json:"invoice_id"`
	Amount              decimal.Decimal `json:"amount"`
	Reason              string          `json:"reason"`
	State               string          `json:"state"`
	RequestedBy         *uuid.UUID      `json:"requested_by,omitempty"`
	ApprovedBy          *uuid.UUID      `json:"approved_by,omitempty"`
	RejectionReason     string          `json:"rejection_reason,omitempty"`
	FailureReason       string          `json:"failure_reason,omitempty"`
	RefundTransactionID *uuid.UUID      `json:"refund_transaction_id,omitempty"`
	RequestedAt         time.Time       `json:"requested_at"`
	ProcessedAt         *time.Time      `json:"processed_at,omitempty"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
	Version             int             `json:"version"`
}

// ToRefundResponse converts a domain RefundRequest to RefundResponse
func ToRefundResponse(r *billing.RefundRequest) RefundResponse {
	return RefundResponse{
		ID:                  r.ID,
		RefundNumber:        r.RefundNumber,
		TransactionID:       r.TransactionID,
		InvoiceID:           r.InvoiceID,
		Amount:              r.Amount,
		Reason:              r.Reason,
		State:               string(r.State),
		RequestedBy:         r.RequestedBy,
		ApprovedBy:          r.ApprovedBy,
		RejectionReason:     r.RejectionReason,
		FailureReason:       r.FailureReason,
		RefundTransactionID: r.RefundTransactionID,
		RequestedAt:         r.RequestedAt,
		ProcessedAt:         r.ProcessedAt,
		CompletedAt:         r.CompletedAt,
		Version:             r.Version,
	}
}

// ToRefundResponses converts a slice of refund requests
func ToRefundResponses(refunds []billing.RefundRequest) []RefundResponse {
	responses := make([]RefundResponse, len(refunds))
	for i := range refunds {
		responses[i] = ToRefundResponse(&refunds[i])
	}
	return responses
}

// RefundApprovalResult is the outcome of ApproveRefund
type RefundApprovalResult struct {
	Refund            RefundResponse       `json:"refund"`
	RefundTransaction *TransactionResponse `json:"refund_transaction,omitempty"`
	Invoice           InvoiceResponse      `json:"invoice"`
	Receipt           *ReceiptResponse     `json:"receipt,omitempty"`
}

// =============================================================================
// Reminder DTOs
// =============================================================================

// UpsertReminderConfigRequest replaces the tenant reminder policy.
// Omitted fields keep their current value (or the built-in default).
type UpsertReminderConfigRequest struct {
	PreDueDays           []int    `json:"pre_due_days" binding:"omitempty,dive,min=1"`
	PreDueChannels       *string  `json:"pre_due_channels" binding:"omitempty,channel"`
	DueDateEnabled       *bool    `json:"due_date_enabled"`
	DueDateChannels      *string  `json:"due_date_channels" binding:"omitempty,channel"`
	OverdueFrequencyDays *int     `json:"overdue_frequency_days" binding:"omitempty,min=1"`
	OverdueChannels      *string  `json:"overdue_channels" binding:"omitempty,channel"`
	EscalationEnabled    *bool    `json:"escalation_enabled"`
	Escalation1Days      *int     `json:"escalation_1_days" binding:"omitempty,min=1"`
	Escalation2Days      *int     `json:"escalation_2_days" binding:"omitempty,min=1"`
	Escalation3Days      *int     `json:"escalation_3_days" binding:"omitempty,min=1"`
	FinalNoticeDays      *int     `json:"final_notice_days" binding:"omitempty,min=1"`
	MaxReminders         *int     `json:"max_reminders" binding:"omitempty,min=1"`
	EscalationEmails     []string `json:"escalation_emails" binding:"omitempty,dive,email"`
	EscalationCC         []string `json:"escalation_cc" binding:"omitempty,dive,email"`
	HostelName           *string  `json:"hostel_name" binding:"omitempty,max=200"`
	HostelPhone          *string  `json:"hostel_phone" binding:"omitempty,max=50"`
	HostelEmail          *string  `json:"hostel_email" binding:"omitempty,email,max=200"`
	PaymentLinkBaseURL   *string  `json:"payment_link_base_url" binding:"omitempty,url,max=500"`
}

// ReminderConfigResponse represents a tenant reminder policy in API responses
type ReminderConfigResponse struct {
	TenantID             uuid.UUID `json:"tenant_id"`
	PreDueDays           []int     `json:"pre_due_days"`
	PreDueChannels       string    `json:"pre_due_channels"`
	DueDateEnabled       bool      `json:"due_date_enabled"`
	DueDateChannels      string    `json:"due_date_channels"`
	OverdueFrequencyDays int       `json:"overdue_frequency_days"`
	OverdueChannels      string    `json:"overdue_channels"`
	EscalationEnabled    bool      `json:"escalation_enabled"`
	Escalation1Days      int       `json:"escalation_1_days"`
	Escalation2Days      int       `json:"escalation_2_days"`
	Escalation3Days      int       `json:"escalation_3_days"`
	FinalNoticeDays      int       `json:"final_notice_days"`
	MaxReminders         int       `json:"max_reminders"`
	EscalationEmails     []string  `json:"escalation_emails"`
	EscalationCC         []string  `json:"escalation_cc"`
	HostelName           string    `json:"hostel_name"`
	HostelPhone          string    `json:"hostel_phone"`
	HostelEmail          string    `json:"hostel_email"`
	PaymentLinkBaseURL   string    `json:"payment_link_base_url"`
	// IsDefault is true when the tenant has no stored configuration
	IsDefault bool `json:"is_default"`
}

// ToReminderConfigResponse converts a domain ReminderConfiguration
func ToReminderConfigResponse(c *billing.ReminderConfiguration, isDefault bool) ReminderConfigResponse {
	return ReminderConfigResponse{
		TenantID:             c.TenantID,
		PreDueDays:           c.PreDueDays,
		PreDueChannels:       string(c.PreDueChannels),
		DueDateEnabled:       c.DueDateEnabled,
		DueDateChannels:      string(c.DueDateChannels),
		OverdueFrequencyDays: c.OverdueFrequencyDays,
		OverdueChannels:      string(c.OverdueChannels),
		EscalationEnabled:    c.EscalationEnabled,
		Escalation1Days:      c.Escalation1Days,
		Escalation2Days:      c.Escalation2Days,
		Escalation3Days:      c.Escalation3Days,
		FinalNoticeDays:      c.FinalNoticeDays,
		MaxReminders:         c.MaxReminders,
		EscalationEmails:     c.EscalationEmails,
		EscalationCC:         c.EscalationCC,
		HostelName:           c.HostelName,
		HostelPhone:          c.HostelPhone,
		HostelEmail:          c.HostelEmail,
		PaymentLinkBaseURL:   c.PaymentLinkBaseURL,
		IsDefault:            isDefault,
	}
}

// CreateReminderTemplateRequest represents a request to add reminder wording
type CreateReminderTemplateRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=100"`
	ReminderType string `json:"reminder_type" binding:"required,reminder_type"`
	EmailSubject string `json:"email_subject" binding:"max=200"`
	EmailBody    string `json:"email_body"`
	SMSBody      string `json:"sms_body" binding:"max=480"`
	IsDefault    bool   `json:"is_default"`
}

// ReminderTemplateResponse represents a reminder template in API responses
type ReminderTemplateResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ReminderType string    `json:"reminder_type"`
	EmailSubject string    `json:"email_subject"`
	EmailBody    string    `json:"email_body"`
	SMSBody      string    `json:"sms_body"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToReminderTemplateResponse converts a domain ReminderTemplate
func ToReminderTemplateResponse(t *billing.ReminderTemplate) ReminderTemplateResponse {
	return ReminderTemplateResponse{
		ID:           t.ID,
		Name:         t.Name,
		ReminderType: string(t.ReminderType),
		EmailSubject: t.EmailSubject,
		EmailBody:    t.EmailBody,
		SMSBody:      t.SMSBody,
		IsDefault:    t.IsDefault,
		CreatedAt:    t.CreatedAt,
	}
}

// SendManualReminderRequest represents an operator-triggered reminder
type SendManualReminderRequest struct {
	ReminderType string `json:"reminder_type" binding:"required,reminder_type"`
	Channel      string `json:"channel" binding:"required,channel"`
}

// ReminderResponse represents a payment reminder in API responses
type ReminderResponse struct {
	ID             uuid.UUID  `json:"id"`
	ReminderNumber string     `json:"reminder_number"`
	InvoiceID      uuid.UUID  `json:"invoice_id"`
	ReminderType   string     `json:"reminder_type"`
	Channel        string     `json:"channel"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	RecipientPhone string     `json:"recipient_phone,omitempty"`
	Subject        string     `json:"subject"`
	Body           string     `json:"body"`
	SMSBody        string     `json:"sms_body,omitempty"`
	State          string     `json:"state"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	Error          string     `json:"error,omitempty"`
	DeliveryStatus string     `json:"delivery_status,omitempty"`
	Manual         bool       `json:"manual"`
}

// ToReminderResponse converts a domain PaymentReminder
func ToReminderResponse(r *billing.PaymentReminder) ReminderResponse {
	return ReminderResponse{
		ID:             r.ID,
		ReminderNumber: r.ReminderNumber,
		InvoiceID:      r.InvoiceID,
		ReminderType:   string(r.ReminderType),
		Channel:        string(r.Channel),
		RecipientEmail: r.RecipientEmail,
		RecipientPhone: r.RecipientPhone,
		Subject:        r.Subject,
		Body:           r.Body,
		SMSBody:        r.SMSBody,
		State:          string(r.State),
		ScheduledAt:    r.ScheduledAt,
		SentAt:         r.SentAt,
		Error:          r.Error,
		DeliveryStatus: r.DeliveryStatus,
		Manual:         r.Manual,
	}
}

// ReminderOutcome is what happened to one invoice during a reminder pass
type ReminderOutcome string

const (
	ReminderOutcomeSent    ReminderOutcome = "SENT"
	ReminderOutcomeFailed  ReminderOutcome = "FAILED"
	ReminderOutcomeSkipped ReminderOutcome = "SKIPPED"
	ReminderOutcomeLocked  ReminderOutcome = "LOCKED"
)

// TickSummary counts the outcomes of one synchronous reminder pass
type TickSummary struct {
	Scanned int `json:"scanned"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Locked  int `json:"locked"`
	Errors  int `json:"errors"`
}

func (s *TickSummary) add(outcome ReminderOutcome) {
	switch outcome {
	case ReminderOutcomeSent:
		s.Sent++
	case ReminderOutcomeFailed:
		s.Failed++
	case ReminderOutcomeLocked:
		s.Locked++
	default:
		s.Skipped++
	}
}
