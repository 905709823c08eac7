package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Receipt attests to exactly one transaction. Refund receipts carry a negative amount.
type Receipt struct {
	shared.BaseEntity
	TenantID       uuid.UUID
	ReceiptNumber  string
	InvoiceID      uuid.UUID
	TransactionID  uuid.UUID
	PaymentID      uuid.UUID
	Amount         decimal.Decimal
	ArtifactHandle string
	QRPayload      string
	GeneratedAt    time.Time
	Emailed        bool
}

// NewReceipt creates a receipt for a transaction
func NewReceipt(txn *Transaction, receiptNumber string, at time.Time) (*Receipt, error) {
	if receiptNumber == "" {
		return nil, invalidInput("Receipt number cannot be empty")
	}
	if txn.Status != TransactionStatusSuccess {
		return nil, illegalTransition("Receipts can only be issued for successful transactions")
	}

	return &Receipt{
		BaseEntity:    shared.NewBaseEntityAt(at),
		TenantID:      txn.TenantID,
		ReceiptNumber: receiptNumber,
		InvoiceID:     txn.InvoiceID,
		TransactionID: txn.ID,
		PaymentID:     txn.ParentPaymentID,
		Amount:        txn.Amount,
		QRPayload:     QRPayload(receiptNumber, txn.Amount, at),
		GeneratedAt:   at,
	}, nil
}

// QRPayload encodes receipt_number|amount|timestamp
func QRPayload(receiptNumber string, amount decimal.Decimal, at time.Time) string {
	return fmt.Sprintf("%s|%s|%s", receiptNumber, amount.StringFixed(2), at.UTC().Format(time.RFC3339))
}

// HasArtifact returns true once a rendered artifact is attached
func (r *Receipt) HasArtifact() bool {
	return r.ArtifactHandle != ""
}

// AttachArtifact stores the handle returned by the receipt renderer
func (r *Receipt) AttachArtifact(handle string, at time.Time) error {
	if handle == "" {
		return invalidInput("Artifact handle cannot be empty")
	}
	r.ArtifactHandle = handle
	r.Touch(at)
	return nil
}

// MarkEmailed records that the receipt was delivered to the owner
func (r *Receipt) MarkEmailed(at time.Time) {
	r.Emailed = true
	r.Touch(at)
}
