package handler

import (
	"github.com/gin-gonic/gin"
	appbilling "github.com/hostel/backend/internal/application/billing"
)

// ReminderHandler handles reminder policy, templates and dispatch endpoints
type ReminderHandler struct {
	BaseHandler
	reminders *appbilling.ReminderService
	settings  *appbilling.ReminderSettingsService
	batchSize int
}

// NewReminderHandler creates a new ReminderHandler. batchSize is the page size
// used by operator-triggered ticks.
func NewReminderHandler(reminders *appbilling.ReminderService, settings *appbilling.ReminderSettingsService, batchSize int) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, settings: settings, batchSize: batchSize}
}

// GetConfig godoc
// @ID           getReminderConfig
// @Summary      Get the tenant reminder policy
// @Description  Returns the stored policy, or the built-in defaults with is_default=true.
// @Tags         reminders
// @Produce      json
// @Success      200 {object} APIResponse[appbilling.ReminderConfigResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/reminders/config [get]
func (h *ReminderHandler) GetConfig(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}

	cfg, err := h.settings.GetConfig(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}

// UpsertConfig godoc
// @ID           upsertReminderConfig
// @Summary      Replace the tenant reminder policy
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Param        request body appbilling.UpsertReminderConfigRequest true "Policy"
// @Success      200 {object} APIResponse[appbilling.ReminderConfigResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/reminders/config [put]
func (h *ReminderHandler) UpsertConfig(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req appbilling.UpsertReminderConfigRequest
	if !h.bindJSON(c, &req) {
		return
	}

	cfg, err := h.settings.UpsertConfig(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}

// CreateTemplate godoc
// @ID           createReminderTemplate
// @Summary      Add reminder wording
// @Description  A template marked default replaces the previous default of the same reminder type.
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Param        request body appbilling.CreateReminderTemplateRequest true "Template"
// @Success      201 {object} APIResponse[appbilling.ReminderTemplateResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/reminders/templates [post]
func (h *ReminderHandler) CreateTemplate(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req appbilling.CreateReminderTemplateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tmpl, err := h.settings.CreateTemplate(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tmpl)
}

// ListTemplates godoc
// @ID           listReminderTemplates
// @Summary      List reminder templates
// @Tags         reminders
// @Produce      json
// @Param        reminder_type query string false "Reminder type"
// @Success      200 {object} APIResponse[[]appbilling.ReminderTemplateResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/reminders/templates [get]
func (h *ReminderHandler) ListTemplates(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var reminderType *string
	if rt, present := c.GetQuery("reminder_type"); present {
		reminderType = &rt
	}

	templates, err := h.settings.ListTemplates(c.Request.Context(), tenantID, reminderType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, templates)
}

// SendManual godoc
// @ID           sendManualReminder
// @Summary      Send a reminder now
// @Description  Dispatches one reminder for an outstanding invoice regardless of the schedule.
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Param        id      path string                               true "Invoice ID" format(uuid)
// @Param        request body appbilling.SendManualReminderRequest true "Reminder"
// @Success      201 {object} APIResponse[appbilling.ReminderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/reminders [post]
func (h *ReminderHandler) SendManual(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbilling.SendManualReminderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	reminder, err := h.reminders.SendManualReminder(c.Request.Context(), tenantID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, reminder)
}

// ListByInvoice godoc
// @ID           listInvoiceReminders
// @Summary      List the reminders of an invoice
// @Tags         reminders
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[[]appbilling.ReminderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/invoices/{id}/reminders [get]
func (h *ReminderHandler) ListByInvoice(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	reminders, err := h.reminders.ListReminders(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reminders)
}

// Tick godoc
// @ID           tickReminders
// @Summary      Run one reminder pass now
// @Description  Evaluates every outstanding invoice synchronously and returns the outcome counts.
// @Tags         reminders
// @Produce      json
// @Success      200 {object} APIResponse[appbilling.TickSummary]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /billing/reminders/tick [post]
func (h *ReminderHandler) Tick(c *gin.Context) {
	summary, err := h.reminders.Tick(c.Request.Context(), "manual", h.batchSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
