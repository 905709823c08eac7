package billing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/hostel/backend/internal/infrastructure/logger"
	"github.com/hostel/backend/internal/infrastructure/numbering"
	"github.com/hostel/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RefundService coordinates the refund approval workflow.
// Monetary effects of an approval are booked through the LedgerService.
type RefundService struct {
	refunds      billing.RefundRepository
	transactions billing.TransactionRepository
	ledger       *LedgerService
	scope        TransactionScope
	minter       billing.NumberMinter
	logger       *zap.Logger
}

// NewRefundService creates a new RefundService
func NewRefundService(
	refunds billing.RefundRepository,
	transactions billing.TransactionRepository,
	ledger *LedgerService,
	scope TransactionScope,
	minter billing.NumberMinter,
	logger *zap.Logger,
) *RefundService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefundService{
		refunds:      refunds,
		transactions: transactions,
		ledger:       ledger,
		scope:        scope,
		minter:       minter,
		logger:       logger,
	}
}

// RequestRefund opens a refund request against a successful payment
func (s *RefundService) RequestRefund(
	ctx context.Context,
	tenantID uuid.UUID,
	req RequestRefundRequest,
	requestedBy *uuid.UUID,
) (*RefundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "request_refund")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTransactionID, req.TransactionID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	original, err := s.transactions.FindByID(ctx, tenantID, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, billing.NotFound("Transaction")
	}
	if !original.IsSuccessfulPayment() {
		return nil, shared.NewDomainError(shared.CodeIllegalStateTransition, "Only successful payments can be refunded")
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Refund amount must be positive")
	}

	log := logger.Enrich(ctx, s.logger)
	var refund *billing.RefundRequest
	err = numbering.WithUniqueRetry(ctx, log, func(ctx context.Context) error {
		now := s.ledger.now()
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			inv, err := repos.Invoices().FindByIDForUpdate(ctx, tenantID, original.InvoiceID)
			if err != nil {
				return err
			}
			if inv == nil {
				return billing.NotFound("Invoice")
			}
			refundable, err := refundableAmount(ctx, repos, inv, original)
			if err != nil {
				return err
			}
			if req.Amount.GreaterThan(refundable) {
				return billing.ErrAmountExceedsRefundable(req.Amount, refundable)
			}

			inFlight, err := repos.Refunds().FindInFlightByTransaction(ctx, tenantID, original.ID)
			if err != nil {
				return err
			}
			for _, r := range inFlight {
				if r.Amount.Equal(req.Amount) {
					return shared.NewDomainError(shared.CodeConflict,
						"A refund of the same amount is already in progress: "+r.RefundNumber)
				}
			}

			created, err := billing.NewRefundRequest(original, s.minter.Mint(billing.PrefixRefund, now),
				req.Amount, strings.TrimSpace(req.Reason), requestedBy, now)
			if err != nil {
				return err
			}
			if err := repos.Refunds().Create(ctx, created); err != nil {
				return err
			}
			refund = created
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	log.Info("refund requested",
		logger.Refund(refund.RefundNumber),
		zap.String("transaction_number", original.TransactionNumber),
		zap.String("amount", refund.Amount.String()),
	)
	publishEvents(ctx, s.ledger.publisher, log, refund)

	response := ToRefundResponse(refund)
	return &response, nil
}

// ApproveRefund books the refund on the ledger and completes the request.
// Approving a COMPLETED refund again returns its current state and changes nothing.
func (s *RefundService) ApproveRefund(ctx context.Context, tenantID, refundID uuid.UUID, approvedBy *uuid.UUID) (*RefundApprovalResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "approve_refund")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRefundID, refundID.String())

	current, err := s.refunds.FindByID(ctx, tenantID, refundID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, billing.NotFound("Refund request")
	}

	log := logger.Enrich(ctx, s.logger)
	var (
		refund   *billing.RefundRequest
		inv      *billing.Invoice
		txn      *billing.Transaction
		receipt  *billing.Receipt
		replayed bool
	)
	err = numbering.WithUniqueRetry(ctx, log, func(ctx context.Context) error {
		now := s.ledger.now()
		replayed = false
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			// invoice first, then refund: the same order every ledger path locks in
			locked, err := repos.Invoices().FindByIDForUpdate(ctx, tenantID, current.InvoiceID)
			if err != nil {
				return err
			}
			if locked == nil {
				return billing.NotFound("Invoice")
			}
			r, err := repos.Refunds().FindByIDForUpdate(ctx, tenantID, refundID)
			if err != nil {
				return err
			}
			if r == nil {
				return billing.NotFound("Refund request")
			}
			inv, refund = locked, r

			if r.State == billing.RefundStateCompleted {
				replayed = true
				if r.RefundTransactionID != nil {
					if txn, err = repos.Transactions().FindByID(ctx, tenantID, *r.RefundTransactionID); err != nil {
						return err
					}
					if txn != nil {
						receipt, err = repos.Receipts().FindByTransaction(ctx, tenantID, txn.ID)
					}
				}
				return err
			}
			if !r.State.IsInFlight() {
				return shared.NewDomainError(shared.CodeIllegalStateTransition,
					"Cannot approve refund in "+r.State.String()+" state")
			}

			if txn, receipt, err = s.ledger.applyRefund(ctx, repos, locked, r, approvedBy, now); err != nil {
				return err
			}
			if err := r.Complete(approvedBy, txn.ID, now); err != nil {
				return err
			}
			return repos.Refunds().Save(ctx, r)
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if replayed {
		log.Info("refund already completed, approval ignored", logger.Refund(refund.RefundNumber))
	} else {
		log.Info("refund approved",
			logger.Refund(refund.RefundNumber),
			logger.Invoice(inv.InvoiceNumber),
			zap.String("amount", refund.Amount.String()),
			zap.String("invoice_status", inv.Status.String()),
		)
		publishEvents(ctx, s.ledger.publisher, log, refund, inv)
		s.ledger.metrics.RecordRefundCompleted(ctx, tenantID, refund.Amount)
		s.ledger.finishReceipt(ctx, log, receipt, inv, txn)
	}

	result := &RefundApprovalResult{
		Refund:  ToRefundResponse(refund),
		Invoice: ToInvoiceResponse(inv),
	}
	if txn != nil {
		t := ToTransactionResponse(txn)
		result.RefundTransaction = &t
	}
	if receipt != nil {
		r := ToReceiptResponse(receipt)
		result.Receipt = &r
	}
	return result, nil
}

// RejectRefund declines an in-flight refund
func (s *RefundService) RejectRefund(ctx context.Context, tenantID, refundID uuid.UUID, req RejectRefundRequest, approvedBy *uuid.UUID) (*RefundResponse, error) {
	refund, err := s.transition(ctx, tenantID, refundID, func(r *billing.RefundRequest) error {
		return r.Reject(approvedBy, strings.TrimSpace(req.Reason), s.ledger.now())
	})
	if err != nil {
		return nil, err
	}
	log := logger.Enrich(ctx, s.logger)
	log.Info("refund rejected", logger.Refund(refund.RefundNumber), zap.String("reason", refund.RejectionReason))
	publishEvents(ctx, s.ledger.publisher, log, refund)

	response := ToRefundResponse(refund)
	return &response, nil
}

// MarkRefundProcessing records that a refund was handed to a payment gateway
func (s *RefundService) MarkRefundProcessing(ctx context.Context, tenantID, refundID uuid.UUID) (*RefundResponse, error) {
	refund, err := s.transition(ctx, tenantID, refundID, func(r *billing.RefundRequest) error {
		return r.MarkProcessing(s.ledger.now())
	})
	if err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("refund processing", logger.Refund(refund.RefundNumber))

	response := ToRefundResponse(refund)
	return &response, nil
}

// FailRefund records that the gateway could not carry out a processing refund
func (s *RefundService) FailRefund(ctx context.Context, tenantID, refundID uuid.UUID, req FailRefundRequest) (*RefundResponse, error) {
	refund, err := s.transition(ctx, tenantID, refundID, func(r *billing.RefundRequest) error {
		return r.Fail(strings.TrimSpace(req.Reason), s.ledger.now())
	})
	if err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Warn("refund failed",
		logger.Refund(refund.RefundNumber),
		zap.String("reason", refund.FailureReason),
	)

	response := ToRefundResponse(refund)
	return &response, nil
}

// GetRefund retrieves a refund request by ID
func (s *RefundService) GetRefund(ctx context.Context, tenantID, refundID uuid.UUID) (*RefundResponse, error) {
	refund, err := s.refunds.FindByID(ctx, tenantID, refundID)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, billing.NotFound("Refund request")
	}
	response := ToRefundResponse(refund)
	return &response, nil
}

// ListRefunds lists refund requests with optional invoice, transaction and state filters
func (s *RefundService) ListRefunds(ctx context.Context, tenantID uuid.UUID, filter RefundListFilter) ([]RefundResponse, int64, error) {
	domainFilter := billing.RefundFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
	}
	if filter.InvoiceID != "" {
		id, err := uuid.Parse(filter.InvoiceID)
		if err != nil {
			return nil, 0, shared.NewDomainError(shared.CodeInvalidInput, "Invalid invoice_id")
		}
		domainFilter.InvoiceID = &id
	}
	if filter.TransactionID != "" {
		id, err := uuid.Parse(filter.TransactionID)
		if err != nil {
			return nil, 0, shared.NewDomainError(shared.CodeInvalidInput, "Invalid transaction_id")
		}
		domainFilter.TransactionID = &id
	}
	if filter.State != "" {
		state := billing.RefundState(strings.ToUpper(filter.State))
		if !state.IsValid() {
			return nil, 0, shared.NewDomainError(shared.CodeInvalidInput, "Invalid refund state")
		}
		domainFilter.State = &state
	}

	refunds, total, err := s.refunds.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToRefundResponses(refunds), total, nil
}

// transition applies a non-monetary state change to a locked refund
func (s *RefundService) transition(ctx context.Context, tenantID, refundID uuid.UUID, change func(*billing.RefundRequest) error) (*billing.RefundRequest, error) {
	var refund *billing.RefundRequest
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := repos.Refunds().FindByIDForUpdate(ctx, tenantID, refundID)
		if err != nil {
			return err
		}
		if r == nil {
			return billing.NotFound("Refund request")
		}
		if err := change(r); err != nil {
			return err
		}
		if err := repos.Refunds().Save(ctx, r); err != nil {
			return err
		}
		refund = r
		return nil
	})
	return refund, err
}
