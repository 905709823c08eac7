package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	Status *InvoiceStatus
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID within a tenant; returns nil if absent
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	// FindByIDForUpdate loads the invoice and locks its row until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	// FindByOwner lists invoices of one owner
	FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID, filter InvoiceFilter) ([]Invoice, int64, error)
	// FindOutstanding returns PENDING/PARTIAL invoices across tenants ordered by ID, starting after afterID
	FindOutstanding(ctx context.Context, afterID uuid.UUID, limit int) ([]Invoice, error)
	// Create inserts a new invoice
	Create(ctx context.Context, inv *Invoice) error
	// Save updates an existing invoice
	Save(ctx context.Context, inv *Invoice) error
}

// TransactionRepository defines the interface for the append-only transaction log
type TransactionRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Transaction, error)
	// FindByGatewayRef finds a payment previously recorded with the same gateway reference
	FindByGatewayRef(ctx context.Context, tenantID, invoiceID uuid.UUID, gateway, gatewayRef string) (*Transaction, error)
	// SumSuccessful returns the signed sum of successful transactions of an invoice
	SumSuccessful(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error)
	Create(ctx context.Context, txn *Transaction) error
	// Save persists a status transition of a pending transaction
	Save(ctx context.Context, txn *Transaction) error
}

// ReceiptRepository defines the interface for receipt persistence
type ReceiptRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Receipt, error)
	FindByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (*Receipt, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Receipt, error)
	Create(ctx context.Context, receipt *Receipt) error
	Save(ctx context.Context, receipt *Receipt) error
}

// RefundFilter defines filtering options for refund queries
type RefundFilter struct {
	shared.Filter
	InvoiceID     *uuid.UUID
	TransactionID *uuid.UUID
	State         *RefundState
}

// RefundRepository defines the interface for refund request persistence
type RefundRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*RefundRequest, error)
	// FindByIDForUpdate loads the refund and locks its row until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*RefundRequest, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter RefundFilter) ([]RefundRequest, int64, error)
	// FindInFlightByTransaction lists INITIATED and PROCESSING refunds of a payment
	FindInFlightByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) ([]RefundRequest, error)
	// SumCompletedByTransaction returns the total of COMPLETED refunds of a payment
	SumCompletedByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (decimal.Decimal, error)
	Create(ctx context.Context, refund *RefundRequest) error
	Save(ctx context.Context, refund *RefundRequest) error
}

// ReminderRepository defines the interface for payment reminder persistence
type ReminderRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PaymentReminder, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]PaymentReminder, error)
	Create(ctx context.Context, reminder *PaymentReminder) error
	Save(ctx context.Context, reminder *PaymentReminder) error
	// SettlePending stores a dispatch outcome only if the stored reminder is still
	// PENDING. It reports false when the reminder was cancelled in the meantime.
	SettlePending(ctx context.Context, reminder *PaymentReminder) (bool, error)
	// CancelPendingByInvoice cancels every PENDING reminder of an invoice and returns how many changed
	CancelPendingByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, at time.Time) (int64, error)
}

// ReminderConfigRepository defines the interface for tenant reminder configuration
type ReminderConfigRepository interface {
	// FindByTenant returns nil when the tenant has no stored configuration
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*ReminderConfiguration, error)
	// Upsert creates or replaces the tenant configuration
	Upsert(ctx context.Context, cfg *ReminderConfiguration) error
}

// ReminderTemplateRepository defines the interface for reminder templates
type ReminderTemplateRepository interface {
	// FindDefault returns the default template of a reminder type, or nil
	FindDefault(ctx context.Context, tenantID uuid.UUID, reminderType ReminderType) (*ReminderTemplate, error)
	// FindAll lists templates, optionally restricted to one reminder type
	FindAll(ctx context.Context, tenantID uuid.UUID, reminderType *ReminderType) ([]ReminderTemplate, error)
	// Create inserts a template; a new default demotes the previous default of the same type
	Create(ctx context.Context, tpl *ReminderTemplate) error
}
