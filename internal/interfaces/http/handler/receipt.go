package handler

import (
	"errors"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	appbilling "github.com/hostel/backend/internal/application/billing"
	"github.com/hostel/backend/internal/infrastructure/storage"
)

// ReceiptHandler serves receipts and their rendered artifacts
type ReceiptHandler struct {
	BaseHandler
	ledger *appbilling.LedgerService
	store  storage.ArtifactStore
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(ledger *appbilling.LedgerService, store storage.ArtifactStore) *ReceiptHandler {
	return &ReceiptHandler{ledger: ledger, store: store}
}

// GetByTransaction godoc
// @ID           getTransactionReceipt
// @Summary      Get the receipt of a transaction
// @Tags         receipts
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.ReceiptResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/transactions/{id}/receipt [get]
func (h *ReceiptHandler) GetByTransaction(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	txnID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	receipt, err := h.ledger.GetReceiptByTransaction(c.Request.Context(), tenantID, txnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// DownloadArtifact godoc
// @ID           downloadTransactionReceipt
// @Summary      Download the rendered receipt document
// @Tags         receipts
// @Produce      application/pdf
// @Param        id path string true "Transaction ID" format(uuid)
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/transactions/{id}/receipt/artifact [get]
func (h *ReceiptHandler) DownloadArtifact(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	txnID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	receipt, err := h.ledger.GetReceiptByTransaction(ctx, tenantID, txnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if receipt.ArtifactHandle == "" || h.store == nil {
		h.NotFound(c, "Receipt document has not been rendered")
		return
	}

	data, err := h.store.Get(ctx, receipt.ArtifactHandle)
	if errors.Is(err, storage.ErrNotFound) {
		h.NotFound(c, "Receipt document not found")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+path.Base(receipt.ArtifactHandle)+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// Regenerate godoc
// @ID           regenerateReceipt
// @Summary      Re-render a receipt document
// @Description  Renders the receipt again and stores the new artifact handle. Fails with DEPENDENCY_FAILED when the renderer is unavailable.
// @Tags         receipts
// @Produce      json
// @Param        id path string true "Receipt ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.ReceiptResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/receipts/{id}/regenerate [post]
func (h *ReceiptHandler) Regenerate(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	receiptID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	receipt, err := h.ledger.RegenerateReceiptArtifact(c.Request.Context(), tenantID, receiptID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}
