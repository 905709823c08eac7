package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/hostel/backend/internal/infrastructure/logger"
	"github.com/hostel/backend/internal/infrastructure/numbering"
	"github.com/hostel/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultSideEffectTimeout bounds each renderer or notification call
const DefaultSideEffectTimeout = 10 * time.Second

// LedgerService owns invoices, transactions and receipts.
// Every monetary change runs in one database transaction holding the invoice row lock;
// receipt rendering, e-mail and event publication happen after commit.
type LedgerService struct {
	invoices      billing.InvoiceRepository
	transactions  billing.TransactionRepository
	receipts      billing.ReceiptRepository
	scope         TransactionScope
	minter        billing.NumberMinter
	renderer      billing.ReceiptRenderer
	sink          billing.NotificationSink
	publisher     shared.EventPublisher
	metrics       *telemetry.BillingMetrics
	logger        *zap.Logger
	renderTimeout time.Duration
	now           func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	invoices billing.InvoiceRepository,
	transactions billing.TransactionRepository,
	receipts billing.ReceiptRepository,
	scope TransactionScope,
	minter billing.NumberMinter,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		invoices:      invoices,
		transactions:  transactions,
		receipts:      receipts,
		scope:         scope,
		minter:        minter,
		logger:        logger,
		renderTimeout: DefaultSideEffectTimeout,
		now:           time.Now,
	}
}

// SetReceiptRenderer sets the receipt artifact renderer
func (s *LedgerService) SetReceiptRenderer(renderer billing.ReceiptRenderer) {
	s.renderer = renderer
}

// SetNotificationSink sets the sink used to e-mail receipts
func (s *LedgerService) SetNotificationSink(sink billing.NotificationSink) {
	s.sink = sink
}

// SetEventPublisher sets the event publisher for domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetBillingMetrics sets the billing metrics recorder
func (s *LedgerService) SetBillingMetrics(metrics *telemetry.BillingMetrics) {
	s.metrics = metrics
}

// SetClock replaces the time source
func (s *LedgerService) SetClock(now func() time.Time) {
	s.now = now
}

// SetRenderTimeout sets the per-call timeout of the renderer and the receipt e-mail
func (s *LedgerService) SetRenderTimeout(d time.Duration) {
	if d > 0 {
		s.renderTimeout = d
	}
}

// CreateInvoice issues a new invoice in PENDING status
func (s *LedgerService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "create_invoice")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	items, err := toLineItems(req.Items)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	now := s.now()
	issueDate := now
	if strings.TrimSpace(req.IssueDate) != "" {
		if issueDate, err = parseDate("issue_date", req.IssueDate); err != nil {
			return nil, err
		}
	}

	log := logger.Enrich(ctx, s.logger)
	var inv *billing.Invoice
	err = numbering.WithUniqueRetry(ctx, log, func(ctx context.Context) error {
		created, err := billing.NewInvoice(tenantID, req.OwnerID, s.minter.Mint(billing.PrefixInvoice, now),
			items, req.Description, issueDate, dueDate)
		if err != nil {
			return err
		}
		created.WithContact(billing.BillingContact{
			Name:  req.ContactName,
			Email: req.ContactEmail,
			Phone: req.ContactPhone,
		})
		if err := s.invoices.Create(ctx, created); err != nil {
			return err
		}
		inv = created
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceNumber, inv.InvoiceNumber,
		telemetry.SpanAttrAmount, inv.TotalAmount.String(),
	)
	log.Info("invoice created",
		logger.Invoice(inv.InvoiceNumber),
		zap.String("total_amount", inv.TotalAmount.String()),
		zap.Time("due_date", inv.DueDate),
	)
	publishEvents(ctx, s.publisher, log, inv)

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// GetInvoice retrieves an invoice by ID
func (s *LedgerService) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, billing.NotFound("Invoice")
	}
	response := ToInvoiceResponse(inv)
	return &response, nil
}

// ListInvoicesByOwner lists the invoices of one owner
func (s *LedgerService) ListInvoicesByOwner(ctx context.Context, tenantID, ownerID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := billing.InvoiceFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
	}
	if filter.Status != "" {
		status := billing.InvoiceStatus(strings.ToUpper(filter.Status))
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError(shared.CodeInvalidInput, "Invalid invoice status")
		}
		domainFilter.Status = &status
	}

	invoices, total, err := s.invoices.FindByOwner(ctx, tenantID, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToInvoiceResponses(invoices), total, nil
}

// ListTransactions lists the ledger transactions of an invoice in creation order
func (s *LedgerService) ListTransactions(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]TransactionResponse, error) {
	inv, err := s.invoices.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, billing.NotFound("Invoice")
	}
	txns, err := s.transactions.FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	return ToTransactionResponses(txns), nil
}

// CancelInvoice voids an invoice that has nothing paid against it
// and withdraws its pending reminders
func (s *LedgerService) CancelInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, req CancelInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "cancel_invoice")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	var inv *billing.Invoice
	var withdrawn int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		locked, err := repos.Invoices().FindByIDForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if locked == nil {
			return billing.NotFound("Invoice")
		}
		now := s.now()
		if err := locked.Cancel(req.Reason, now); err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, locked); err != nil {
			return err
		}
		if withdrawn, err = repos.Reminders().CancelPendingByInvoice(ctx, tenantID, invoiceID, now); err != nil {
			return err
		}
		inv = locked
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	log := logger.Enrich(ctx, s.logger)
	log.Info("invoice cancelled",
		logger.Invoice(inv.InvoiceNumber),
		zap.String("reason", req.Reason),
		zap.Int64("reminders_cancelled", withdrawn),
	)
	publishEvents(ctx, s.publisher, log, inv)

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// ProcessPayment credits a payment to an invoice and issues its receipt.
// The invoice row is locked for the whole ledger update, so concurrent payments
// serialize and never overshoot the total.
func (s *LedgerService) ProcessPayment(
	ctx context.Context,
	tenantID, invoiceID uuid.UUID,
	req ProcessPaymentRequest,
	actor *uuid.UUID,
) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "process_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
		telemetry.SpanAttrPaymentMethod, req.Method,
		telemetry.SpanAttrPaymentGateway, req.Gateway,
	)

	method, err := billing.ParsePaymentMethod(req.Method)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	log := logger.Enrich(ctx, s.logger)
	var (
		inv       *billing.Invoice
		txn       *billing.Transaction
		receipt   *billing.Receipt
		duplicate bool
	)
	err = numbering.WithUniqueRetry(ctx, log, func(ctx context.Context) error {
		now := s.now()
		duplicate = false
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			locked, err := repos.Invoices().FindByIDForUpdate(ctx, tenantID, invoiceID)
			if err != nil {
				return err
			}
			if locked == nil {
				return billing.NotFound("Invoice")
			}

			if req.GatewayRef != "" {
				prior, err := repos.Transactions().FindByGatewayRef(ctx, tenantID, invoiceID, req.Gateway, req.GatewayRef)
				if err != nil {
					return err
				}
				if prior != nil {
					inv, txn, duplicate = locked, prior, true
					receipt, err = repos.Receipts().FindByTransaction(ctx, tenantID, prior.ID)
					return err
				}
			}

			if err := locked.ApplyPayment(req.Amount, now); err != nil {
				return err
			}
			created, err := billing.NewPaymentTransaction(locked, s.minter.Mint(billing.PrefixTransaction, now), req.Amount,
				billing.PaymentDetails{
					Method:          method,
					Gateway:         req.Gateway,
					GatewayRef:      req.GatewayRef,
					Notes:           req.Notes,
					ProcessedBy:     actor,
					ParentPaymentID: req.ParentPaymentID,
				}, now)
			if err != nil {
				return err
			}
			if err := repos.Transactions().Create(ctx, created); err != nil {
				return err
			}
			if err := repos.Invoices().Save(ctx, locked); err != nil {
				return err
			}
			rcpt, err := billing.NewReceipt(created, s.minter.Mint(billing.PrefixReceipt, now), now)
			if err != nil {
				return err
			}
			if err := repos.Receipts().Create(ctx, rcpt); err != nil {
				return err
			}
			inv, txn, receipt = locked, created, rcpt
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceNumber, inv.InvoiceNumber,
		telemetry.SpanAttrInvoiceStatus, string(inv.Status),
		telemetry.SpanAttrTransactionID, txn.ID.String(),
	)
	result := &PaymentResult{
		Transaction: ToTransactionResponse(txn),
		Duplicate:   duplicate,
	}

	if duplicate {
		log.Info("duplicate payment ignored",
			logger.Invoice(inv.InvoiceNumber),
			zap.String("gateway", req.Gateway),
			zap.String("gateway_ref", req.GatewayRef),
			zap.String("transaction_number", txn.TransactionNumber),
		)
		inv.ClearDomainEvents()
	} else {
		log.Info("payment applied",
			logger.Invoice(inv.InvoiceNumber),
			zap.String("transaction_number", txn.TransactionNumber),
			zap.String("amount", req.Amount.String()),
			zap.String("method", method.String()),
			zap.String("status", inv.Status.String()),
		)
		publishEvents(ctx, s.publisher, log, inv)
		s.metrics.RecordPayment(ctx, tenantID, method.String(), req.Amount)
		s.finishReceipt(ctx, log, receipt, inv, txn)
	}

	result.Invoice = ToInvoiceResponse(inv)
	if receipt != nil {
		r := ToReceiptResponse(receipt)
		result.Receipt = &r
	}
	return result, nil
}

// GetReceiptByTransaction retrieves the receipt issued for a transaction
func (s *LedgerService) GetReceiptByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receipts.FindByTransaction(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, billing.NotFound("Receipt")
	}
	response := ToReceiptResponse(receipt)
	return &response, nil
}

// RegenerateReceiptArtifact renders the receipt artifact again and stores the new handle.
// Unlike the post-payment render, a failure here is returned to the caller.
func (s *LedgerService) RegenerateReceiptArtifact(ctx context.Context, tenantID, receiptID uuid.UUID) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "regenerate_receipt_artifact")
	defer span.End()

	receipt, err := s.receipts.FindByID(ctx, tenantID, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, billing.NotFound("Receipt")
	}
	inv, err := s.invoices.FindByID(ctx, tenantID, receipt.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, billing.NotFound("Invoice")
	}
	txn, err := s.transactions.FindByID(ctx, tenantID, receipt.TransactionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, billing.NotFound("Transaction")
	}
	if s.renderer == nil {
		return nil, shared.NewDomainError(shared.CodeDependencyFailed, "Receipt renderer is not configured")
	}

	log := logger.Enrich(ctx, s.logger)
	if err := s.renderArtifact(ctx, receipt, inv, txn); err != nil {
		s.metrics.RecordReceiptFailure(ctx, "render")
		telemetry.RecordError(span, err)
		log.Warn("receipt artifact regeneration failed", logger.Receipt(receipt.ReceiptNumber), zap.Error(err))
		return nil, shared.WrapDomainError(shared.CodeDependencyFailed, "Receipt artifact rendering failed", err)
	}
	log.Info("receipt artifact regenerated",
		logger.Receipt(receipt.ReceiptNumber),
		zap.String("artifact_handle", receipt.ArtifactHandle),
	)
	s.emailReceipt(ctx, log, receipt, inv)

	response := ToReceiptResponse(receipt)
	return &response, nil
}

// applyRefund books a refund against the ledger inside the caller's transaction.
// inv must have been loaded with FindByIDForUpdate in that same transaction.
func (s *LedgerService) applyRefund(
	ctx context.Context,
	repos TransactionalRepositories,
	inv *billing.Invoice,
	refund *billing.RefundRequest,
	approvedBy *uuid.UUID,
	now time.Time,
) (*billing.Transaction, *billing.Receipt, error) {
	original, err := repos.Transactions().FindByID(ctx, refund.TenantID, refund.TransactionID)
	if err != nil {
		return nil, nil, err
	}
	if original == nil {
		return nil, nil, billing.NotFound("Transaction")
	}
	refundable, err := refundableAmount(ctx, repos, inv, original)
	if err != nil {
		return nil, nil, err
	}
	if refund.Amount.GreaterThan(refundable) {
		return nil, nil, billing.ErrAmountExceedsRefundable(refund.Amount, refundable)
	}

	txn, err := billing.NewRefundTransaction(original, s.minter.Mint(billing.PrefixTransaction, now),
		refund.Amount, refund.Reason, approvedBy, now)
	if err != nil {
		return nil, nil, err
	}
	if err := inv.ReverseRefund(refund.Amount, now); err != nil {
		return nil, nil, err
	}
	if err := repos.Transactions().Create(ctx, txn); err != nil {
		return nil, nil, err
	}
	if err := repos.Invoices().Save(ctx, inv); err != nil {
		return nil, nil, err
	}
	receipt, err := billing.NewReceipt(txn, s.minter.Mint(billing.PrefixReceipt, now), now)
	if err != nil {
		return nil, nil, err
	}
	if err := repos.Receipts().Create(ctx, receipt); err != nil {
		return nil, nil, err
	}
	return txn, receipt, nil
}

// refundableAmount is the invoice's paid amount less the refunds already
// completed against this payment.
func refundableAmount(ctx context.Context, repos TransactionalRepositories, inv *billing.Invoice, original *billing.Transaction) (decimal.Decimal, error) {
	if !original.IsSuccessfulPayment() {
		return decimal.Zero, shared.NewDomainError(shared.CodeIllegalStateTransition, "Only successful payments can be refunded")
	}
	completed, err := repos.Refunds().SumCompletedByTransaction(ctx, original.TenantID, original.ID)
	if err != nil {
		return decimal.Zero, err
	}
	refundable := inv.PaidAmount.Sub(completed)
	if refundable.IsNegative() {
		refundable = decimal.Zero
	}
	return refundable, nil
}

// finishReceipt renders the artifact and e-mails the owner; failures only log
func (s *LedgerService) finishReceipt(ctx context.Context, log *zap.Logger, receipt *billing.Receipt, inv *billing.Invoice, txn *billing.Transaction) {
	if receipt == nil || s.renderer == nil {
		return
	}
	if err := s.renderArtifact(ctx, receipt, inv, txn); err != nil {
		s.metrics.RecordReceiptFailure(ctx, "render")
		log.Warn("receipt artifact render failed, receipt kept without artifact",
			logger.Receipt(receipt.ReceiptNumber),
			logger.Invoice(inv.InvoiceNumber),
			zap.Error(err),
		)
		return
	}
	s.emailReceipt(ctx, log, receipt, inv)
}

func (s *LedgerService) renderArtifact(ctx context.Context, receipt *billing.Receipt, inv *billing.Invoice, txn *billing.Transaction) error {
	renderCtx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()

	handle, err := s.renderer.RenderReceipt(renderCtx, receipt, inv, txn)
	if err != nil {
		return err
	}
	if err := receipt.AttachArtifact(handle, s.now()); err != nil {
		return err
	}
	return s.receipts.Save(ctx, receipt)
}

func (s *LedgerService) emailReceipt(ctx context.Context, log *zap.Logger, receipt *billing.Receipt, inv *billing.Invoice) {
	if s.sink == nil || receipt.Emailed || inv.Contact.Email == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()

	_, err := s.sink.Send(sendCtx, receiptNotification(receipt, inv))
	if err != nil {
		s.metrics.RecordReceiptFailure(ctx, "email")
		log.Warn("receipt e-mail failed", logger.Receipt(receipt.ReceiptNumber), zap.Error(err))
		return
	}
	receipt.MarkEmailed(s.now())
	if err := s.receipts.Save(ctx, receipt); err != nil {
		log.Warn("could not record receipt e-mail", logger.Receipt(receipt.ReceiptNumber), zap.Error(err))
	}
}

func receiptNotification(receipt *billing.Receipt, inv *billing.Invoice) billing.Notification {
	action := "received a payment of"
	if receipt.Amount.IsNegative() {
		action = "refunded"
	}
	body := fmt.Sprintf("Dear %s,\n\nWe have %s %s against invoice %s.\nReceipt number: %s\nOutstanding balance: %s\n",
		fallback(inv.Contact.Name, "resident"),
		action,
		receipt.Amount.Abs().StringFixed(2),
		inv.InvoiceNumber,
		receipt.ReceiptNumber,
		inv.DueAmount.StringFixed(2),
	)
	if receipt.HasArtifact() {
		body += "Receipt document: " + receipt.ArtifactHandle + "\n"
	}
	return billing.Notification{
		Channel:   billing.ChannelEmail,
		Recipient: inv.Contact.Email,
		Subject:   fmt.Sprintf("Receipt %s for invoice %s", receipt.ReceiptNumber, inv.InvoiceNumber),
		Body:      body,
	}
}

func toLineItems(inputs []LineItemInput) ([]billing.LineItem, error) {
	if len(inputs) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invoice must have at least one line item")
	}
	items := make([]billing.LineItem, len(inputs))
	for i, in := range inputs {
		qty := decimal.NewFromInt(1)
		if in.Quantity != nil {
			qty = *in.Quantity
		}
		var amount, unit decimal.Decimal
		switch {
		case in.Amount != nil:
			amount = *in.Amount
			if in.UnitPrice != nil {
				unit = *in.UnitPrice
			} else if !qty.IsZero() {
				unit = amount.DivRound(qty, 4)
			}
		case in.UnitPrice != nil:
			unit = *in.UnitPrice
			amount = qty.Mul(unit).Round(4)
		default:
			return nil, shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("Line item %d needs an amount or a unit price", i+1))
		}
		items[i] = billing.LineItem{
			Description: strings.TrimSpace(in.Description),
			Quantity:    qty,
			UnitPrice:   unit,
			Amount:      amount,
		}
	}
	return items, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and returns the calendar date at UTC midnight
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, value); err != nil {
			return time.Time{}, shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("%s must be a date in YYYY-MM-DD or RFC 3339 format", field))
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
