// Package printing renders payment receipts to PDF and stores them as artifacts.
//
// The HTML receipt is built from an embedded html/template, converted to PDF
// by a headless Chrome instance driven through chromedp, and written to an
// artifact store (local file system or S3). The artifact key is returned to
// the ledger as the receipt's artifact handle.
//
// Example usage:
//
//	pdf, err := NewChromedpRenderer(&ChromedpConfig{NoSandbox: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pdf.Close()
//
//	receipts := NewReceiptArtifactRenderer(pdf, store, ReceiptRendererConfig{
//	    HostelName: "Sunrise Hostel",
//	})
//	handle, err := receipts.RenderReceipt(ctx, receipt, invoice, txn)
package printing
