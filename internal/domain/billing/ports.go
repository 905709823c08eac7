package billing

import (
	"context"

	"github.com/google/uuid"
)

// Notification is a single outbound message on one concrete channel (EMAIL or SMS)
type Notification struct {
	Channel   Channel
	Recipient string
	Subject   string
	Body      string
}

// NotificationSink delivers notifications. A nil error means the sink accepted
// the message; the returned delivery ID may be empty.
type NotificationSink interface {
	Send(ctx context.Context, n Notification) (deliveryID string, err error)
}

// ReceiptRenderer produces a receipt artifact and returns an opaque handle to it
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, receipt *Receipt, invoice *Invoice, txn *Transaction) (handle string, err error)
}

// InvoiceLocker serializes reminder processing per invoice.
// TryLock returns ok=false without error when another worker holds the lock.
type InvoiceLocker interface {
	TryLock(ctx context.Context, invoiceID uuid.UUID) (unlock func(), ok bool, err error)
}
