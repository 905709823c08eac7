package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeRefundRequest is the aggregate type name for refund requests
const AggregateTypeRefundRequest = "RefundRequest"

// RefundState represents the workflow state of a refund request
type RefundState string

const (
	// RefundStateInitiated indicates the refund awaits a decision
	RefundStateInitiated RefundState = "INITIATED"
	// RefundStateProcessing indicates the refund was handed to a gateway
	RefundStateProcessing RefundState = "PROCESSING"
	// RefundStateCompleted indicates the refund was applied to the ledger
	RefundStateCompleted RefundState = "COMPLETED"
	// RefundStateFailed indicates the refund could not be carried out
	RefundStateFailed RefundState = "FAILED"
	// RefundStateRejected indicates an approver declined the refund
	RefundStateRejected RefundState = "REJECTED"
)

// IsValid checks if the state is a valid RefundState
func (s RefundState) IsValid() bool {
	switch s {
	case RefundStateInitiated, RefundStateProcessing, RefundStateCompleted,
		RefundStateFailed, RefundStateRejected:
		return true
	}
	return false
}

// String returns the string representation of RefundState
func (s RefundState) String() string {
	return string(s)
}

// IsTerminal returns true if the refund can no longer change
func (s RefundState) IsTerminal() bool {
	return s == RefundStateCompleted || s == RefundStateFailed || s == RefundStateRejected
}

// IsInFlight returns true while a decision is still pending
func (s RefundState) IsInFlight() bool {
	return s == RefundStateInitiated || s == RefundStateProcessing
}

// RefundRequest is the aggregate root tracking a requested reversal of a prior payment
type RefundRequest struct {
	shared.TenantAggregateRoot
	RefundNumber        string
	TransactionID       uuid.UUID
	InvoiceID           uuid.UUID
	Amount              decimal.Decimal
	Reason              string
	State               RefundState
	RequestedBy         *uuid.UUID
	ApprovedBy          *uuid.UUID
	RejectionReason     string
	FailureReason       string
	RefundTransactionID *uuid.UUID
	RequestedAt         time.Time
	ProcessedAt         *time.Time
	CompletedAt         *time.Time
}

// NewRefundRequest creates a refund request in INITIATED state for a successful payment
func NewRefundRequest(
	original *Transaction,
	refundNumber string,
	amount decimal.Decimal,
	reason string,
	requestedBy *uuid.UUID,
	at time.Time,
) (*RefundRequest, error) {
	if refundNumber == "" {
		return nil, invalidInput("Refund number cannot be empty")
	}
	if !original.IsSuccessfulPayment() {
		return nil, illegalTransition("Only successful payments can be refunded")
	}
	if !amount.IsPositive() {
		return nil, invalidInput("Refund amount must be positive")
	}
	if len(reason) > 500 {
		return nil, invalidInput("Refund reason cannot exceed 500 characters")
	}

	r := &RefundRequest{
		TenantAggregateRoot: shared.NewTenantAggregateRootAt(original.TenantID, at),
		RefundNumber:        refundNumber,
		TransactionID:       original.ID,
		InvoiceID:           original.InvoiceID,
		Amount:              amount,
		Reason:              reason,
		State:               RefundStateInitiated,
		RequestedBy:         requestedBy,
		RequestedAt:         at,
	}

	r.AddDomainEvent(NewRefundRequestedEvent(r))
	return r, nil
}

// MarkProcessing moves an initiated refund to PROCESSING
func (r *RefundRequest) MarkProcessing(at time.Time) error {
	if r.State != RefundStateInitiated {
		return illegalTransition("Cannot mark refund as processing in %s state", r.State)
	}
	r.State = RefundStateProcessing
	r.ProcessedAt = &at
	r.Touch(at)
	r.IncrementVersion()
	return nil
}

// Complete marks the refund as applied to the ledger.
// Completing an already completed refund is a no-op.
func (r *RefundRequest) Complete(approvedBy *uuid.UUID, refundTxnID uuid.UUID, at time.Time) error {
	if r.State == RefundStateCompleted {
		return nil
	}
	if !r.State.IsInFlight() {
		return illegalTransition("Cannot approve refund in %s state", r.State)
	}

	r.State = RefundStateCompleted
	r.ApprovedBy = approvedBy
	r.RefundTransactionID = &refundTxnID
	if r.ProcessedAt == nil {
		r.ProcessedAt = &at
	}
	r.CompletedAt = &at
	r.Touch(at)
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundCompletedEvent(r))
	return nil
}

// Reject declines an in-flight refund
func (r *RefundRequest) Reject(approvedBy *uuid.UUID, reason string, at time.Time) error {
	if !r.State.IsInFlight() {
		return illegalTransition("Cannot reject refund in %s state", r.State)
	}
	if reason == "" {
		return invalidInput("Rejection reason is required")
	}

	r.State = RefundStateRejected
	r.ApprovedBy = approvedBy
	r.RejectionReason = reason
	r.ProcessedAt = &at
	r.Touch(at)
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundRejectedEvent(r))
	return nil
}

// Fail marks a processing refund as failed
func (r *RefundRequest) Fail(reason string, at time.Time) error {
	if r.State != RefundStateProcessing {
		return illegalTransition("Cannot fail refund in %s state", r.State)
	}
	r.State = RefundStateFailed
	r.FailureReason = reason
	r.Touch(at)
	r.IncrementVersion()
	return nil
}
