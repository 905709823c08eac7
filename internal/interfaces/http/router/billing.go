package router

import (
	"github.com/gin-gonic/gin"
	"github.com/hostel/backend/internal/infrastructure/auth"
	"github.com/hostel/backend/internal/interfaces/http/handler"
)

// BillingHandlers groups the handlers served under /billing
type BillingHandlers struct {
	Invoices  *handler.InvoiceHandler
	Receipts  *handler.ReceiptHandler
	Refunds   *handler.RefundHandler
	Reminders *handler.ReminderHandler
}

// PermissionGuard builds middleware that admits only actors holding permission
type PermissionGuard func(permission string) gin.HandlerFunc

// BillingRoutes builds the billing route group. Refund decisions and reminder
// administration are wrapped with guard.
func BillingRoutes(h BillingHandlers, guard PermissionGuard) *DomainGroup {
	billing := NewDomainGroup("billing", "/billing")
	refundApprover := guard(auth.PermissionRefundApprove)
	reminderAdmin := guard(auth.PermissionReminderAdmin)

	billing.POST("/invoices", h.Invoices.Create).
		GET("/invoices/:id", h.Invoices.Get).
		POST("/invoices/:id/cancel", h.Invoices.Cancel).
		POST("/invoices/:id/payments", h.Invoices.ProcessPayment).
		GET("/invoices/:id/transactions", h.Invoices.ListTransactions).
		GET("/invoices/:id/events", h.Invoices.ListEvents).
		POST("/invoices/:id/reminders", h.Reminders.SendManual).
		GET("/invoices/:id/reminders", h.Reminders.ListByInvoice).
		GET("/owners/:owner_id/invoices", h.Invoices.ListByOwner)

	billing.GET("/transactions/:id/receipt", h.Receipts.GetByTransaction).
		GET("/transactions/:id/receipt/artifact", h.Receipts.DownloadArtifact).
		POST("/receipts/:id/regenerate", h.Receipts.Regenerate)

	billing.POST("/refunds", h.Refunds.Request).
		GET("/refunds", h.Refunds.List).
		GET("/refunds/:id", h.Refunds.Get).
		POST("/refunds/:id/approve", refundApprover, h.Refunds.Approve).
		POST("/refunds/:id/reject", refundApprover, h.Refunds.Reject).
		POST("/refunds/:id/processing", refundApprover, h.Refunds.MarkProcessing).
		POST("/refunds/:id/fail", refundApprover, h.Refunds.Fail)

	billing.GET("/reminders/config", h.Reminders.GetConfig).
		PUT("/reminders/config", reminderAdmin, h.Reminders.UpsertConfig).
		POST("/reminders/templates", reminderAdmin, h.Reminders.CreateTemplate).
		GET("/reminders/templates", h.Reminders.ListTemplates).
		POST("/reminders/tick", reminderAdmin, h.Reminders.Tick)

	return billing
}
