package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/hostel/backend/internal/application/billing"
	"github.com/hostel/backend/internal/infrastructure/event"
	"github.com/hostel/backend/internal/interfaces/http/middleware"
)

// EventHistory reads the recorded events of one aggregate
type EventHistory interface {
	History(ctx context.Context, tenantID, aggregateID uuid.UUID) ([]event.JournalEntry, error)
}

// InvoiceHandler handles invoice, payment and ledger history endpoints
type InvoiceHandler struct {
	BaseHandler
	ledger  *appbilling.LedgerService
	history EventHistory
}

// NewInvoiceHandler creates a new InvoiceHandler. history may be nil,
// in which case the events endpoint returns an empty list.
func NewInvoiceHandler(ledger *appbilling.LedgerService, history EventHistory) *InvoiceHandler {
	return &InvoiceHandler{ledger: ledger, history: history}
}

// InvoiceEventResponse is one recorded event of an invoice
// @name HandlerInvoiceEventResponse
type InvoiceEventResponse struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type" example:"InvoicePaymentApplied"`
	AggregateType string          `json:"aggregate_type" example:"Invoice"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload" swaggertype:"object"`
}

// Create godoc
// @ID           createInvoice
// @Summary      Issue an invoice
// @Description  Creates a PENDING invoice for an owner. Totals are derived from the line items.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body appbilling.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} APIResponse[appbilling.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req appbilling.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.ledger.CreateInvoice(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// Get godoc
// @ID           getInvoice
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.ledger.GetInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// ListByOwner godoc
// @ID           listOwnerInvoices
// @Summary      List an owner's invoices
// @Description  Paginated invoices of one owner, newest first unless order_by is given.
// @Tags         invoices
// @Produce      json
// @Param        owner_id  path  string true  "Owner ID" format(uuid)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20) maximum(100)
// @Param        order_by  query string false "Sort field"
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Param        status    query string false "Invoice status" Enums(PENDING, PARTIAL, PAID, CANCELLED)
// @Success      200 {object} PagedResponse[appbilling.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/owners/{owner_id}/invoices [get]
func (h *InvoiceHandler) ListByOwner(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	ownerID, ok := h.uuidParam(c, "owner_id")
	if !ok {
		return
	}
	var filter appbilling.InvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	invoices, total, err := h.ledger.ListInvoicesByOwner(c.Request.Context(), tenantID, ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, max(filter.Page, 1), filter.PageSize)
}

// Cancel godoc
// @ID           cancelInvoice
// @Summary      Cancel an unpaid invoice
// @Description  Only invoices with nothing paid can be cancelled. Pending reminders are cancelled with it.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Invoice ID" format(uuid)
// @Param        request body appbilling.CancelInvoiceRequest false "Cancellation"
// @Success      200 {object} APIResponse[appbilling.InvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbilling.CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(c, err)
		return
	}

	inv, err := h.ledger.CancelInvoice(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// ProcessPayment godoc
// @ID           processInvoicePayment
// @Summary      Record a payment
// @Description  Applies a payment to the invoice and issues a receipt. Repeating a gateway reference returns the original transaction with duplicate=true.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id      path string                           true "Invoice ID" format(uuid)
// @Param        request body appbilling.ProcessPaymentRequest true "Payment"
// @Success      201 {object} APIResponse[appbilling.PaymentResult]
// @Success      200 {object} APIResponse[appbilling.PaymentResult] "Duplicate gateway reference"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/payments [post]
func (h *InvoiceHandler) ProcessPayment(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbilling.ProcessPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.ledger.ProcessPayment(c.Request.Context(), tenantID, invoiceID, req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Duplicate {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// ListTransactions godoc
// @ID           listInvoiceTransactions
// @Summary      List ledger transactions of an invoice
// @Tags         payments
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[[]appbilling.TransactionResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/transactions [get]
func (h *InvoiceHandler) ListTransactions(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	txns, err := h.ledger.ListTransactions(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txns)
}

// ListEvents godoc
// @ID           listInvoiceEvents
// @Summary      List the recorded events of an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[[]InvoiceEventResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/events [get]
func (h *InvoiceHandler) ListEvents(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.ledger.GetInvoice(ctx, tenantID, invoiceID); err != nil {
		h.HandleError(c, err)
		return
	}

	events := []InvoiceEventResponse{}
	if h.history != nil {
		entries, err := h.history.History(ctx, tenantID, invoiceID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		for _, e := range entries {
			payload := json.RawMessage(e.Payload)
			if len(payload) == 0 {
				payload = json.RawMessage("{}")
			}
			events = append(events, InvoiceEventResponse{
				EventID:       e.EventID,
				EventType:     e.EventType,
				AggregateType: e.AggregateType,
				OccurredAt:    e.OccurredAt,
				Payload:       payload,
			})
		}
	}
	h.Success(c, events)
}
