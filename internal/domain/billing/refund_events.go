package billing

import (
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants for refunds
const (
	EventTypeRefundRequested = "RefundRequested"
	EventTypeRefundCompleted = "RefundCompleted"
	EventTypeRefundRejected  = "RefundRejected"
)

// RefundRequestedEvent is raised when a refund is requested
type RefundRequestedEvent struct {
	shared.EventEnvelope
	RefundNumber string          `json:"refund_number"`
	Amount       decimal.Decimal `json:"amount"`
}

// NewRefundRequestedEvent creates a RefundRequestedEvent
func NewRefundRequestedEvent(r *RefundRequest) *RefundRequestedEvent {
	return &RefundRequestedEvent{
		EventEnvelope: shared.NewEventEnvelope(EventTypeRefundRequested, AggregateTypeRefundRequest, r.ID, r.TenantID, r.UpdatedAt),
		RefundNumber:  r.RefundNumber,
		Amount:        r.Amount,
	}
}

// RefundCompletedEvent is raised when a refund has been applied to the ledger
type RefundCompletedEvent struct {
	shared.EventEnvelope
	RefundNumber string          `json:"refund_number"`
	Amount       decimal.Decimal `json:"amount"`
}

// NewRefundCompletedEvent creates a RefundCompletedEvent
func NewRefundCompletedEvent(r *RefundRequest) *RefundCompletedEvent {
	return &RefundCompletedEvent{
		EventEnvelope: shared.NewEventEnvelope(EventTypeRefundCompleted, AggregateTypeRefundRequest, r.ID, r.TenantID, r.UpdatedAt),
		RefundNumber:  r.RefundNumber,
		Amount:        r.Amount,
	}
}

// RefundRejectedEvent is raised when a refund is declined
type RefundRejectedEvent struct {
	shared.EventEnvelope
	RefundNumber string `json:"refund_number"`
	Reason       string `json:"reason"`
}

// NewRefundRejectedEvent creates a RefundRejectedEvent
func NewRefundRejectedEvent(r *RefundRequest) *RefundRejectedEvent {
	return &RefundRejectedEvent{
		EventEnvelope: shared.NewEventEnvelope(EventTypeRefundRejected, AggregateTypeRefundRequest, r.ID, r.TenantID, r.UpdatedAt),
		RefundNumber:  r.RefundNumber,
		Reason:        r.RejectionReason,
	}
}
