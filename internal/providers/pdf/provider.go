package pdf

import (
	"bytes"
	"context"
	"io"
)

type Provider interface {
	RenderInvoice(ctx context.Context, doc InvoiceDocument) (io.Reader, error)
}

// NoOpProvider renders an empty document. Used in tests that exercise
// handlers without dragging the PDF engine in.
type NoOpProvider struct{}

func (p *NoOpProvider) RenderInvoice(ctx context.Context, doc InvoiceDocument) (io.Reader, error) {
	return bytes.NewReader(nil), nil
}
