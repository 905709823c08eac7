package billing

import (
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants for invoices
const (
	EventTypeInvoiceCreated        = "InvoiceCreated"
	EventTypeInvoicePaymentApplied = "InvoicePaymentApplied"
	EventTypeInvoicePaid           = "InvoicePaid"
	EventTypeInvoiceCancelled      = "InvoiceCancelled"
)

// InvoiceCreatedEvent is raised when a new invoice is issued
type InvoiceCreatedEvent struct {
	shared.EventEnvelope
	InvoiceNumber string          `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewInvoiceCreatedEvent creates an InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		EventEnvelope: shared.NewEventEnvelope(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.TenantID, inv.UpdatedAt),
		InvoiceNumber: inv.InvoiceNumber,
		TotalAmount:   inv.TotalAmount,
	}
}

// InvoicePaymentAppliedEvent is raised for every payment credited to an invoice
type InvoicePaymentAppliedEvent struct {
	shared.EventEnvelope
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	DueAmount     decimal.Decimal `json:"due_amount"`
	Status        InvoiceStatus   `json:"status"`
}

// NewInvoicePaymentAppliedEvent creates an InvoicePaymentAppliedEvent
func NewInvoicePaymentAppliedEvent(inv *Invoice, amount decimal.Decimal) *InvoicePaymentAppliedEvent {
	return &InvoicePaymentAppliedEvent{
		EventEnvelope: shared.NewEventEnvelope(EventTypeInvoicePaymentApplied, AggregateTypeInvoice, inv.ID, inv.TenantID, inv.UpdatedAt),
		InvoiceNumber: inv.InvoiceNumber,
		Amount:        amount,
		PaidAmount:    inv.PaidAmount,
		DueAmount:     inv.DueAmount,
		Status:        inv.Status,
	}
}

// InvoicePaidEvent is raised when an invoice becomes fully paid
type InvoicePaidEvent struct {
	shared.EventEnvelope
	InvoiceNumber string `json:"invoice_number"`
}

// NewInvoicePaidEvent creates an InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		EventEnvelope: shared.NewEventEnvelope(EventTypeInvoicePaid, AggregateTypeInvoice, inv.ID, inv.TenantID, inv.UpdatedAt),
		InvoiceNumber: inv.InvoiceNumber,
	}
}

// InvoiceCancelledEvent is raised when an invoice is voided
type InvoiceCancelledEvent struct {
	shared.EventEnvelope
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason"`
}

// NewInvoiceCancelledEvent creates an InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice, reason string) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		EventEnvelope: shared.NewEventEnvelope(EventTypeInvoiceCancelled, AggregateTypeInvoice, inv.ID, inv.TenantID, inv.UpdatedAt),
		InvoiceNumber: inv.InvoiceNumber,
		Reason:        reason,
	}
}
