package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	defaultMaxTabs       = 4
	mmPerInch            = 25.4
	footerMinMarginMM    = 10

	// continuousHeightMM is tall enough that a receipt never paginates
	continuousHeightMM = 3000
)

// ChromedpConfig configures the headless Chrome renderer. With RemoteURL set
// an existing browser is used through DevTools; otherwise one is launched
// from ExecPath (or found on PATH).
type ChromedpConfig struct {
	DefaultTimeout time.Duration
	ExecPath       string
	RemoteURL      string
	NoSandbox      bool
	Scale          float64
	MaxTabs        int
	Logger         *zap.Logger
}

// ChromedpRenderer prints HTML to PDF in a shared headless browser. Each
// render gets its own tab; at most MaxTabs render at once.
type ChromedpRenderer struct {
	cfg    ChromedpConfig
	log    *zap.Logger
	tabs   chan struct{}
	alloc  context.Context
	cancel context.CancelFunc
}

// NewChromedpRenderer prepares the browser allocator. Chrome itself starts on
// the first Render.
func NewChromedpRenderer(cfg *ChromedpConfig) (*ChromedpRenderer, error) {
	var c ChromedpConfig
	if cfg != nil {
		c = *cfg
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = defaultChromeTimeout
	}
	if c.Scale <= 0 {
		c.Scale = 1
	}
	if c.MaxTabs <= 0 {
		c.MaxTabs = defaultMaxTabs
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	r := &ChromedpRenderer{cfg: c, log: c.Logger, tabs: make(chan struct{}, c.MaxTabs)}
	r.alloc, r.cancel = newAllocator(c)
	return r, nil
}

func newAllocator(c ChromedpConfig) (context.Context, context.CancelFunc) {
	if c.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(context.Background(), c.RemoteURL)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if c.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}
	return chromedp.NewExecAllocator(context.Background(), opts...)
}

func validate(req *RenderRequest) error {
	switch {
	case req == nil:
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	case strings.TrimSpace(req.HTML) == "":
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	case !req.PaperSize.IsValid():
		return NewRenderError(ErrCodeInvalidPaperSize,
			fmt.Sprintf("invalid paper size: %vx%v mm", req.PaperSize.WidthMM, req.PaperSize.HeightMM), nil)
	}
	return nil
}

// Render prints req in a fresh tab. Waiting for a free tab counts against the
// request timeout.
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	started := time.Now()
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.cfg.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case r.tabs <- struct{}{}:
		defer func() { <-r.tabs }()
	case <-ctx.Done():
		return nil, r.contextError(ctx, timeout, ctx.Err())
	}

	tab, closeTab := chromedp.NewContext(r.alloc, chromedp.WithLogf(r.log.Sugar().Debugf))
	defer closeTab()
	defer context.AfterFunc(ctx, closeTab)()

	doc := wrapDocument(req)
	params := r.pdfParams(req)
	var out []byte
	err := chromedp.Run(tab,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) (err error) {
			out, _, err = params.Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, r.contextError(ctx, timeout, err)
		}
		r.log.Error("Chrome print failed", zap.String("title", req.Title), zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	}
	if len(out) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	res := &RenderResult{PDFData: out, PageCount: estimatePageCount(out), RenderDuration: time.Since(started)}
	r.log.Debug("PDF rendered",
		zap.String("title", req.Title),
		zap.Int("bytes", len(out)),
		zap.Int("pages", res.PageCount),
		zap.Duration("duration", res.RenderDuration),
	)
	return res, nil
}

func (r *ChromedpRenderer) contextError(ctx context.Context, timeout time.Duration, cause error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("PDF rendering timed out after %v", timeout), cause)
	}
	return NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", cause)
}

// pdfParams converts the request's millimeter geometry into Chrome's inches.
// A footer needs room, so it lifts the bottom margin to at least 10mm.
func (r *ChromedpRenderer) pdfParams(req *RenderRequest) *page.PrintToPDFParams {
	height := req.PaperSize.HeightMM
	if req.PaperSize.Continuous {
		height = continuousHeightMM
	}
	bottom := req.Margins.Bottom
	if req.FooterHTML != "" {
		bottom = max(bottom, footerMinMarginMM)
	}
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(inches(req.PaperSize.WidthMM)).
		WithPaperHeight(inches(height)).
		WithMarginTop(inches(req.Margins.Top)).
		WithMarginRight(inches(req.Margins.Right)).
		WithMarginBottom(inches(bottom)).
		WithMarginLeft(inches(req.Margins.Left)).
		WithScale(r.cfg.Scale).
		WithLandscape(req.Landscape).
		WithDisplayHeaderFooter(req.FooterHTML != "").
		WithHeaderTemplate("<span></span>").
		WithFooterTemplate(req.FooterHTML)
}

// wrapDocument turns an HTML fragment into a UTF-8 document. Complete
// documents are passed through untouched.
func wrapDocument(req *RenderRequest) string {
	lower := strings.ToLower(req.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return req.HTML
	}
	title := ""
	if req.Title != "" {
		title = "<title>" + html.EscapeString(req.Title) + "</title>"
	}
	return `<!DOCTYPE html><html><head><meta charset="UTF-8">` + title + "</head><body>" + req.HTML + "</body></html>"
}

// Close stops the browser, or detaches from a remote one
func (r *ChromedpRenderer) Close() error {
	r.cancel()
	return nil
}

func inches(mm float64) float64 { return mm / mmPerInch }

// estimatePageCount counts /Type /Page objects, with and without the space
// Chrome sometimes omits. Anything unparseable counts as one page.
func estimatePageCount(pdf []byte) int {
	for _, sep := range []string{" ", ""} {
		pages := bytes.Count(pdf, []byte("/Type"+sep+"/Page")) - bytes.Count(pdf, []byte("/Type"+sep+"/Pages"))
		if pages > 0 {
			return pages
		}
	}
	return 1
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)
