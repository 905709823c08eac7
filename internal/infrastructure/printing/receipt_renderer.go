package printing

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"path"
	"time"

	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

var receiptTemplate = template.Must(template.ParseFS(templateFS, "templates/receipt.html"))

const receiptDateLayout = "02-Jan-2006 15:04"

// ReceiptRendererConfig holds the hostel details printed on every receipt
type ReceiptRendererConfig struct {
	HostelName  string
	HostelPhone string
	HostelEmail string
	Locale      language.Tag
	Location    *time.Location
	// Paper defaults to an 80mm thermal roll
	Paper  PaperSize
	Logger *zap.Logger
}

// receiptView is the data bound to the receipt template
type receiptView struct {
	Title             string
	HostelName        string
	HostelPhone       string
	HostelEmail       string
	ReceiptNumber     string
	GeneratedAt       string
	InvoiceNumber     string
	PayerName         string
	TransactionNumber string
	Method            string
	GatewayRef        string
	Amount            string
	TotalAmount       string
	PaidAmount        string
	DueAmount         string
	QRPayload         string
	IsRefund          bool
}

// ReceiptArtifactRenderer implements billing.ReceiptRenderer.
// It renders the receipt to PDF and stores it; the store key is the artifact handle.
type ReceiptArtifactRenderer struct {
	pdf      PDFRenderer
	store    storage.ArtifactStore
	config   ReceiptRendererConfig
	amounts  *billing.TemplateRenderer
	logger   *zap.Logger
	location *time.Location
}

// NewReceiptArtifactRenderer creates a receipt renderer
func NewReceiptArtifactRenderer(pdf PDFRenderer, store storage.ArtifactStore, cfg ReceiptRendererConfig) *ReceiptArtifactRenderer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	tag := cfg.Locale
	if tag == language.Und {
		tag = language.English
	}
	if !cfg.Paper.IsValid() {
		cfg.Paper = PaperReceipt80
	}
	return &ReceiptArtifactRenderer{
		pdf:      pdf,
		store:    store,
		config:   cfg,
		amounts:  billing.NewTemplateRenderer(tag),
		logger:   logger,
		location: loc,
	}
}

// RenderReceipt renders and stores the receipt artifact, returning its key.
// Rendering the same receipt again overwrites the previous artifact.
func (r *ReceiptArtifactRenderer) RenderReceipt(
	ctx context.Context,
	receipt *billing.Receipt,
	invoice *billing.Invoice,
	txn *billing.Transaction,
) (string, error) {
	if receipt == nil || invoice == nil || txn == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "receipt, invoice and transaction are required", nil)
	}

	html, err := r.ReceiptHTML(receipt, invoice, txn)
	if err != nil {
		return "", err
	}

	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:      html,
		PaperSize: r.config.Paper,
		Margins:   Margins{Top: 4, Right: 4, Bottom: 4, Left: 4},
		Title:     receipt.ReceiptNumber,
	})
	if err != nil {
		return "", err
	}

	key := ArtifactKey(receipt)
	if err := r.store.Put(ctx, key, result.PDFData, "application/pdf"); err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to store receipt artifact", err)
	}

	r.logger.Info("receipt artifact stored",
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.String("key", key),
		zap.Int("bytes", len(result.PDFData)),
		zap.Duration("render_duration", result.RenderDuration))
	return key, nil
}

// ReceiptHTML renders the receipt document without converting it to PDF
func (r *ReceiptArtifactRenderer) ReceiptHTML(receipt *billing.Receipt, invoice *billing.Invoice, txn *billing.Transaction) (string, error) {
	isRefund := txn.Kind == billing.TransactionKindRefund
	title := "Payment Receipt"
	if isRefund {
		title = "Refund Receipt"
	}

	view := receiptView{
		Title:             title,
		HostelName:        r.config.HostelName,
		HostelPhone:       r.config.HostelPhone,
		HostelEmail:       r.config.HostelEmail,
		ReceiptNumber:     receipt.ReceiptNumber,
		GeneratedAt:       receipt.GeneratedAt.In(r.location).Format(receiptDateLayout),
		InvoiceNumber:     invoice.InvoiceNumber,
		PayerName:         invoice.Contact.Name,
		TransactionNumber: txn.TransactionNumber,
		Method:            string(txn.Method),
		GatewayRef:        txn.GatewayRef,
		Amount:            r.amounts.FormatAmount(receipt.Amount),
		TotalAmount:       r.amounts.FormatAmount(invoice.TotalAmount),
		PaidAmount:        r.amounts.FormatAmount(invoice.PaidAmount),
		DueAmount:         r.amounts.FormatAmount(invoice.DueAmount),
		QRPayload:         receipt.QRPayload,
		IsRefund:          isRefund,
	}
	if view.HostelName == "" {
		view.HostelName = "Hostel"
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, view); err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "failed to execute receipt template", err)
	}
	return buf.String(), nil
}

// ArtifactKey is the store key of a receipt: {tenant}/{yyyy}/{mm}/{receipt_number}.pdf
func ArtifactKey(receipt *billing.Receipt) string {
	at := receipt.GeneratedAt.UTC()
	return path.Join(
		receipt.TenantID.String(),
		fmt.Sprintf("%04d", at.Year()),
		fmt.Sprintf("%02d", int(at.Month())),
		receipt.ReceiptNumber+".pdf",
	)
}

var _ billing.ReceiptRenderer = (*ReceiptArtifactRenderer)(nil)
