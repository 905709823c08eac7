package printing

import (
	"context"
	"strings"
	"time"
)

// PaperSize is a page size in millimeters. Continuous paper (thermal rolls)
// grows with the content instead of paginating.
type PaperSize struct {
	WidthMM    float64
	HeightMM   float64
	Continuous bool
}

var (
	PaperA4        = PaperSize{WidthMM: 210, HeightMM: 297}
	PaperA5        = PaperSize{WidthMM: 148, HeightMM: 210}
	PaperReceipt80 = PaperSize{WidthMM: 80, HeightMM: 297, Continuous: true}
)

var papersByName = map[string]PaperSize{
	"a4":        PaperA4,
	"a5":        PaperA5,
	"receipt80": PaperReceipt80,
}

// PaperSizeByName resolves a configured paper name (a4, a5, receipt80)
func PaperSizeByName(name string) (PaperSize, bool) {
	p, ok := papersByName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

func (p PaperSize) IsValid() bool {
	return p.WidthMM > 0 && p.HeightMM > 0
}

// Margins in millimeters
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins returns 10mm on every side
func DefaultMargins() Margins {
	return Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}
}

// RenderRequest describes one HTML document to print. Title becomes the PDF
// document title; FooterHTML, when set, is repeated on every page. A zero
// Timeout uses the renderer default.
type RenderRequest struct {
	HTML       string
	PaperSize  PaperSize
	Landscape  bool
	Margins    Margins
	Title      string
	FooterHTML string
	Timeout    time.Duration
}

type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer converts HTML to a PDF document
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// Failure codes carried by RenderError
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeStorageFailed    = "STORAGE_FAILED"
)

// RenderError is returned by renderers and the receipt artifact pipeline
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *RenderError) Unwrap() error { return e.Cause }
