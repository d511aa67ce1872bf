package pipeline

import (
	"context"

	"github.com/qooqz/certificates/pkg/certify"
)

// Renderer turns a template PDF and a document context into the final
// certificate PDF at outFile. qrFile may be empty.
type Renderer interface {
	Render(ctx context.Context, templateFile, outFile string, data certify.DocumentData, qrFile string) error
}

// PDFCPURenderer is the production renderer, stamping the document data and
// QR image onto the template.
type PDFCPURenderer struct{}

func NewPDFCPURenderer() *PDFCPURenderer {
	return &PDFCPURenderer{}
}

func (r *PDFCPURenderer) Render(ctx context.Context, templateFile, outFile string, data certify.DocumentData, qrFile string) error {
	return certify.ComposeCertificatePDF(templateFile, outFile, data, qrFile)
}
