package billing

import (
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DueDateLayout formats due dates as DD-Mon-YYYY
const DueDateLayout = "02-Jan-2006"

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// TemplateContext is the closed set of values available to reminder templates
type TemplateContext struct {
	UserName      string
	InvoiceNumber string
	Amount        decimal.Decimal
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	DueDate       time.Time
	DaysOverdue   int
	HostelName    string
	HostelPhone   string
	HostelEmail   string
	PaymentLink   string
}

// NewTemplateContext builds the template context for an invoice
func NewTemplateContext(inv *Invoice, cfg *ReminderConfiguration, daysOverdue int) TemplateContext {
	tc := TemplateContext{
		UserName:      inv.Contact.Name,
		InvoiceNumber: inv.InvoiceNumber,
		Amount:        inv.DueAmount,
		TotalAmount:   inv.TotalAmount,
		PaidAmount:    inv.PaidAmount,
		DueDate:       inv.DueDate,
		DaysOverdue:   daysOverdue,
	}
	if cfg != nil {
		tc.HostelName = cfg.HostelName
		tc.HostelPhone = cfg.HostelPhone
		tc.HostelEmail = cfg.HostelEmail
		if cfg.PaymentLinkBaseURL != "" {
			tc.PaymentLink = cfg.PaymentLinkBaseURL + inv.InvoiceNumber
		}
	}
	return tc
}

// TemplateRenderer substitutes {{ variable }} placeholders with values from a
// TemplateContext. Unknown placeholders render as empty strings; nothing in a
// template is ever evaluated.
type TemplateRenderer struct {
	printer *message.Printer
}

// NewTemplateRenderer creates a renderer that formats amounts for the given locale
func NewTemplateRenderer(tag language.Tag) *TemplateRenderer {
	return &TemplateRenderer{printer: message.NewPrinter(tag)}
}

// Render interpolates the context into the template
func (r *TemplateRenderer) Render(tpl string, tc TemplateContext) string {
	vars := r.Variables(tc)
	return placeholderPattern.ReplaceAllStringFunc(tpl, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return vars[name]
	})
}

// Variables returns the formatted value of every supported placeholder
func (r *TemplateRenderer) Variables(tc TemplateContext) map[string]string {
	dueDate := ""
	if !tc.DueDate.IsZero() {
		dueDate = tc.DueDate.Format(DueDateLayout)
	}
	return map[string]string{
		"user_name":      tc.UserName,
		"invoice_number": tc.InvoiceNumber,
		"amount":         r.FormatAmount(tc.Amount),
		"total_amount":   r.FormatAmount(tc.TotalAmount),
		"paid_amount":    r.FormatAmount(tc.PaidAmount),
		"due_date":       dueDate,
		"days_overdue":   strconv.Itoa(tc.DaysOverdue),
		"hostel_name":    tc.HostelName,
		"hostel_phone":   tc.HostelPhone,
		"hostel_email":   tc.HostelEmail,
		"payment_link":   tc.PaymentLink,
	}
}

// FormatAmount renders an amount with locale grouping and two decimals
func (r *TemplateRenderer) FormatAmount(d decimal.Decimal) string {
	return r.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}
