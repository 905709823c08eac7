package handler

import (
	"github.com/gin-gonic/gin"
	appbilling "github.com/hostel/backend/internal/application/billing"
)

// RefundHandler handles the refund workflow endpoints
type RefundHandler struct {
	BaseHandler
	refunds *appbilling.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refunds *appbilling.RefundService) *RefundHandler {
	return &RefundHandler{refunds: refunds}
}

// Request godoc
// @ID           requestRefund
// @Summary      Request a refund
// @Description  Opens an INITIATED refund against a successful payment. The amount may not exceed what is still refundable.
// @Tags         refunds
// @Accept       json
// @Produce      json
// @Param        request body appbilling.RequestRefundRequest true "Refund request"
// @Success      201 {object} APIResponse[appbilling.RefundResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/refunds [post]
func (h *RefundHandler) Request(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req appbilling.RequestRefundRequest
	if !h.bindJSON(c, &req) {
		return
	}

	refund, err := h.refunds.RequestRefund(c.Request.Context(), tenantID, req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, refund)
}

// Get godoc
// @ID           getRefund
// @Summary      Get a refund
// @Tags         refunds
// @Produce      json
// @Param        id path string true "Refund ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.RefundResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/refunds/{id} [get]
func (h *RefundHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	refundID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	refund, err := h.refunds.GetRefund(c.Request.Context(), tenantID, refundID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, refund)
}

// List godoc
// @ID           listRefunds
// @Summary      List refunds
// @Tags         refunds
// @Produce      json
// @Param        page           query int    false "Page number" default(1)
// @Param        page_size      query int    false "Page size" default(20) maximum(100)
// @Param        invoice_id     query string false "Invoice ID" format(uuid)
// @Param        transaction_id query string false "Payment transaction ID" format(uuid)
// @Param        state          query string false "Refund state" Enums(INITIATED, PROCESSING, COMPLETED, FAILED, REJECTED)
// @Success      200 {object} PagedResponse[appbilling.RefundResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/refunds [get]
func (h *RefundHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var filter appbilling.RefundListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	refunds, total, err := h.refunds.ListRefunds(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, refunds, total, max(filter.Page, 1), filter.PageSize)
}

// Approve godoc
// @ID           approveRefund
// @Summary      Approve a refund
// @Description  Completes the refund: records the refund transaction, reduces the invoice paid amount and issues a receipt. Approving a completed refund returns the existing result.
// @Tags         refunds
// @Produce      json
// @Param        id path string true "Refund ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.RefundApprovalResult]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/refunds/{id}/approve [post]
func (h *RefundHandler) Approve(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	refundID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.refunds.ApproveRefund(c.Request.Context(), tenantID, refundID, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Reject godoc
// @ID           rejectRefund
// @Summary      Reject a refund
// @Tags         refunds
// @Accept       json
// @Produce      json
// @Param        id      path string                         true "Refund ID" format(uuid)
// @Param        request body appbilling.RejectRefundRequest true "Rejection"
// @Success      200 {object} APIResponse[appbilling.RefundResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/refunds/{id}/reject [post]
func (h *RefundHandler) Reject(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	refundID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbilling.RejectRefundRequest
	if !h.bindJSON(c, &req) {
		return
	}

	refund, err := h.refunds.RejectRefund(c.Request.Context(), tenantID, refundID, req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, refund)
}

// MarkProcessing godoc
// @ID           markRefundProcessing
// @Summary      Hand a refund to the payment gateway
// @Tags         refunds
// @Produce      json
// @Param        id path string true "Refund ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.RefundResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/refunds/{id}/processing [post]
func (h *RefundHandler) MarkProcessing(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	refundID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	refund, err := h.refunds.MarkRefundProcessing(c.Request.Context(), tenantID, refundID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, refund)
}

// Fail godoc
// @ID           failRefund
// @Summary      Record a gateway failure for a refund
// @Tags         refunds
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Refund ID" format(uuid)
// @Param        request body appbilling.FailRefundRequest true "Failure"
// @Success      200 {object} APIResponse[appbilling.RefundResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/refunds/{id}/fail [post]
func (h *RefundHandler) Fail(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	refundID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbilling.FailRefundRequest
	if !h.bindJSON(c, &req) {
		return
	}

	refund, err := h.refunds.FailRefund(c.Request.Context(), tenantID, refundID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, refund)
}
