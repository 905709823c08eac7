package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionKind represents the kind of monetary event
type TransactionKind string

const (
	TransactionKindPayment    TransactionKind = "PAYMENT"
	TransactionKindRefund     TransactionKind = "REFUND"
	TransactionKindAdjustment TransactionKind = "ADJUSTMENT"
)

// IsValid checks if the kind is a valid TransactionKind
func (k TransactionKind) IsValid() bool {
	switch k {
	case TransactionKindPayment, TransactionKindRefund, TransactionKindAdjustment:
		return true
	}
	return false
}

// String returns the string representation of TransactionKind
func (k TransactionKind) String() string {
	return string(k)
}

// TransactionStatus represents the processing status of a transaction
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// IsValid checks if the status is a valid TransactionStatus
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusSuccess, TransactionStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the transaction can no longer change
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed
}

// PaymentMethod is how the money moved
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodOnline       PaymentMethod = "ONLINE"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// ParsePaymentMethod parses a case-insensitive payment method name
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", invalidInput("Unknown payment method %q", s)
	}
	return m, nil
}

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodUPI,
		PaymentMethodCheque, PaymentMethodOnline, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Transaction is a signed monetary event against an invoice.
// Transactions are append-only; only PENDING ones may change status.
type Transaction struct {
	shared.BaseEntity
	TenantID          uuid.UUID
	TransactionNumber string
	InvoiceID         uuid.UUID
	ParentPaymentID   uuid.UUID
	Kind              TransactionKind
	Amount            decimal.Decimal
	Method            PaymentMethod
	Gateway           string
	GatewayRef        string
	Status            TransactionStatus
	Notes             string
	ProcessedBy       *uuid.UUID
}

// PaymentDetails carries the optional attributes of a payment
type PaymentDetails struct {
	Method          PaymentMethod
	Gateway         string
	GatewayRef      string
	Notes           string
	ProcessedBy     *uuid.UUID
	ParentPaymentID *uuid.UUID
}

// NewPaymentTransaction creates a successful PAYMENT transaction with a positive amount
func NewPaymentTransaction(
	inv *Invoice,
	transactionNumber string,
	amount decimal.Decimal,
	details PaymentDetails,
	at time.Time,
) (*Transaction, error) {
	if transactionNumber == "" {
		return nil, invalidInput("Transaction number cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, invalidInput("Payment amount must be positive")
	}
	if !details.Method.IsValid() {
		return nil, invalidInput("Invalid payment method")
	}

	parent := uuid.New()
	if details.ParentPaymentID != nil && *details.ParentPaymentID != uuid.Nil {
		parent = *details.ParentPaymentID
	}

	return &Transaction{
		BaseEntity:        shared.NewBaseEntityAt(at),
		TenantID:          inv.TenantID,
		TransactionNumber: transactionNumber,
		InvoiceID:         inv.ID,
		ParentPaymentID:   parent,
		Kind:              TransactionKindPayment,
		Amount:            amount,
		Method:            details.Method,
		Gateway:           details.Gateway,
		GatewayRef:        details.GatewayRef,
		Status:            TransactionStatusSuccess,
		Notes:             details.Notes,
		ProcessedBy:       details.ProcessedBy,
	}, nil
}

// NewRefundTransaction creates a successful REFUND transaction mirroring the
// original payment with a negative amount
func NewRefundTransaction(
	original *Transaction,
	transactionNumber string,
	amount decimal.Decimal,
	reason string,
	processedBy *uuid.UUID,
	at time.Time,
) (*Transaction, error) {
	if transactionNumber == "" {
		return nil, invalidInput("Transaction number cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, invalidInput("Refund amount must be positive")
	}
	if original.ParentPaymentID == uuid.Nil {
		return nil, illegalTransition("Original transaction has no parent payment")
	}

	return &Transaction{
		BaseEntity:        shared.NewBaseEntityAt(at),
		TenantID:          original.TenantID,
		TransactionNumber: transactionNumber,
		InvoiceID:         original.InvoiceID,
		ParentPaymentID:   original.ParentPaymentID,
		Kind:              TransactionKindRefund,
		Amount:            amount.Neg(),
		Method:            original.Method,
		Gateway:           original.Gateway,
		Status:            TransactionStatusSuccess,
		Notes:             "Refund: " + reason,
		ProcessedBy:       processedBy,
	}, nil
}

// IsSuccessfulPayment returns true for a settled PAYMENT
func (t *Transaction) IsSuccessfulPayment() bool {
	return t.Kind == TransactionKindPayment && t.Status == TransactionStatusSuccess
}

// MarkSucceeded settles a pending transaction
func (t *Transaction) MarkSucceeded(at time.Time) error {
	if t.Status != TransactionStatusPending {
		return illegalTransition("Transaction %s is already %s", t.TransactionNumber, t.Status)
	}
	t.Status = TransactionStatusSuccess
	t.Touch(at)
	return nil
}

// MarkFailed fails a pending transaction
func (t *Transaction) MarkFailed(reason string, at time.Time) error {
	if t.Status != TransactionStatusPending {
		return illegalTransition("Transaction %s is already %s", t.TransactionNumber, t.Status)
	}
	t.Status = TransactionStatusFailed
	if reason != "" {
		t.Notes = strings.TrimSpace(t.Notes + " " + reason)
	}
	t.Touch(at)
	return nil
}
