package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeInvoice is the aggregate type name for invoices
const AggregateTypeInvoice = "Invoice"

// MaxEscalationLevel is the level reached by a final notice
const MaxEscalationLevel = 4

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	// InvoiceStatusPending indicates nothing has been paid yet
	InvoiceStatusPending InvoiceStatus = "PENDING"
	// InvoiceStatusPartial indicates part of the total has been paid
	InvoiceStatusPartial InvoiceStatus = "PARTIAL"
	// InvoiceStatusPaid indicates the total has been paid in full
	InvoiceStatusPaid InvoiceStatus = "PAID"
	// InvoiceStatusCancelled indicates the invoice was voided
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsOutstanding returns true if money is still owed on the invoice
func (s InvoiceStatus) IsOutstanding() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPartial
}

// LineItem is a single billable line of an invoice
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// LineItems is a slice of LineItem stored as JSON
type LineItems []LineItem

// Value implements driver.Valuer for JSON storage
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSON storage
func (l *LineItems) Scan(value any) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}

	if len(bytes) == 0 {
		*l = LineItems{}
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Total returns the sum of all line amounts
func (l LineItems) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range l {
		total = total.Add(item.Amount)
	}
	return total
}

// BillingContact is the owner contact snapshot taken when the invoice is issued
type BillingContact struct {
	Name  string
	Email string
	Phone string
}

// Invoice is the aggregate root for a billable document.
// Invariants: PaidAmount + DueAmount == TotalAmount, 0 <= PaidAmount <= TotalAmount,
// TotalAmount == sum of line item amounts.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber   string
	OwnerID         uuid.UUID
	Contact         BillingContact
	Description     string
	LineItems       LineItems
	TotalAmount     decimal.Decimal
	PaidAmount      decimal.Decimal
	DueAmount       decimal.Decimal
	Status          InvoiceStatus
	IssueDate       time.Time
	DueDate         time.Time
	EscalationLevel int
	ReminderCount   int
	LastReminderAt  *time.Time
	CancelledAt     *time.Time
	CancelReason    string
}

// NewInvoice creates a new invoice in PENDING status
func NewInvoice(
	tenantID, ownerID uuid.UUID,
	invoiceNumber string,
	items []LineItem,
	description string,
	issueDate, dueDate time.Time,
) (*Invoice, error) {
	if tenantID == uuid.Nil {
		return nil, invalidInput("Tenant ID cannot be empty")
	}
	if ownerID == uuid.Nil {
		return nil, invalidInput("Owner ID cannot be empty")
	}
	if invoiceNumber == "" {
		return nil, invalidInput("Invoice number cannot be empty")
	}
	if len(items) == 0 {
		return nil, invalidInput("Invoice must have at least one line item")
	}
	if dueDate.IsZero() {
		return nil, invalidInput("Due date is required")
	}
	if DaysBetween(issueDate, dueDate) < 0 {
		return nil, invalidInput("Due date cannot be before issue date")
	}

	lines := make(LineItems, len(items))
	for i, item := range items {
		if item.Amount.IsNegative() {
			return nil, invalidInput("Line item %d has a negative amount", i+1)
		}
		if item.Quantity.IsNegative() || item.UnitPrice.IsNegative() {
			return nil, invalidInput("Line item %d has a negative quantity or unit price", i+1)
		}
		lines[i] = item
	}

	total := lines.Total()
	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRootAt(tenantID, issueDate),
		InvoiceNumber:       invoiceNumber,
		OwnerID:             ownerID,
		Description:         description,
		LineItems:           lines,
		TotalAmount:         total,
		PaidAmount:          decimal.Zero,
		DueAmount:           total,
		Status:              InvoiceStatusPending,
		IssueDate:           issueDate,
		DueDate:             dueDate,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// WithContact sets the owner contact snapshot
func (inv *Invoice) WithContact(contact BillingContact) *Invoice {
	inv.Contact = contact
	return inv
}

// ApplyPayment credits a payment against the invoice
func (inv *Invoice) ApplyPayment(amount decimal.Decimal, at time.Time) error {
	if inv.Status == InvoiceStatusCancelled {
		return illegalTransition("Cannot apply payment to a cancelled invoice")
	}
	if !amount.IsPositive() {
		return invalidInput("Payment amount must be positive")
	}
	if amount.GreaterThan(inv.DueAmount) {
		return ErrAmountExceedsDue(amount, inv.DueAmount)
	}

	wasPaid := inv.Status == InvoiceStatusPaid
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.rebalance()
	inv.Touch(at)
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoicePaymentAppliedEvent(inv, amount))
	if !wasPaid && inv.Status == InvoiceStatusPaid {
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	}
	return nil
}

// ReverseRefund debits a completed refund from the invoice balances
func (inv *Invoice) ReverseRefund(amount decimal.Decimal, at time.Time) error {
	if inv.Status == InvoiceStatusCancelled {
		return illegalTransition("Cannot refund against a cancelled invoice")
	}
	if !amount.IsPositive() {
		return invalidInput("Refund amount must be positive")
	}
	if amount.GreaterThan(inv.PaidAmount) {
		return ErrAmountExceedsRefundable(amount, inv.PaidAmount)
	}

	inv.PaidAmount = inv.PaidAmount.Sub(amount)
	inv.rebalance()
	inv.Touch(at)
	inv.IncrementVersion()
	return nil
}

// Cancel voids an invoice that has no payments against it
func (inv *Invoice) Cancel(reason string, at time.Time) error {
	if inv.Status == InvoiceStatusCancelled {
		return illegalTransition("Invoice is already cancelled")
	}
	if !inv.PaidAmount.IsZero() {
		return illegalTransition("Cannot cancel an invoice with payments, refund them first")
	}

	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &at
	inv.CancelReason = reason
	inv.Touch(at)
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv, reason))
	return nil
}

// RecordReminderSent updates reminder bookkeeping after a successful dispatch.
// The escalation level never decreases.
func (inv *Invoice) RecordReminderSent(reminderType ReminderType, at time.Time) {
	inv.ReminderCount++
	inv.LastReminderAt = &at
	if level := reminderType.EscalationLevel(); level > inv.EscalationLevel {
		inv.EscalationLevel = level
	}
	inv.Touch(at)
	inv.IncrementVersion()
}

// rebalance recomputes due amount and status from the paid amount
func (inv *Invoice) rebalance() {
	if inv.PaidAmount.IsNegative() {
		inv.PaidAmount = decimal.Zero
	}
	due := inv.TotalAmount.Sub(inv.PaidAmount)
	if due.IsNegative() {
		due = decimal.Zero
	}
	inv.DueAmount = due
	inv.Status = DeriveInvoiceStatus(inv.PaidAmount, inv.TotalAmount, inv.Status == InvoiceStatusCancelled)
}

// DeriveInvoiceStatus computes the status from balances and the cancelled flag
func DeriveInvoiceStatus(paid, total decimal.Decimal, cancelled bool) InvoiceStatus {
	switch {
	case cancelled:
		return InvoiceStatusCancelled
	case paid.IsZero():
		return InvoiceStatusPending
	case paid.GreaterThanOrEqual(total):
		return InvoiceStatusPaid
	default:
		return InvoiceStatusPartial
	}
}

// CheckBalances verifies the monetary invariants of the invoice
func (inv *Invoice) CheckBalances() error {
	if !inv.PaidAmount.Add(inv.DueAmount).Equal(inv.TotalAmount) {
		return shared.NewDomainError(shared.CodeInternal, "Invoice balances do not add up to total")
	}
	if inv.PaidAmount.IsNegative() || inv.PaidAmount.GreaterThan(inv.TotalAmount) {
		return shared.NewDomainError(shared.CodeInternal, "Invoice paid amount out of range")
	}
	if !inv.LineItems.Total().Equal(inv.TotalAmount) {
		return shared.NewDomainError(shared.CodeInternal, "Invoice total does not match line items")
	}
	return nil
}

// DaysBetween returns the number of calendar days from a to b, using the
// calendar date of each instant in its own location
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
