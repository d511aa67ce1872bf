package certify

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DocumentData is the structured context stamped onto a template PDF.
type DocumentData struct {
	CertificateNumber string
	IssuedAt          string
	PrintableUntil    string
	ExporterName      string
	ImporterName      string
	ImporterCountry   string
	Lines             []string // one line per request item
}

// ComposeCertificatePDF renders the certificate by stamping the document
// data and the QR image onto the template PDF, writing the result to
// outFile. qrFile may be empty when no QR asset is available.
func ComposeCertificatePDF(templateFile, outFile string, data DocumentData, qrFile string) error {
	if _, err := os.Stat(templateFile); err != nil {
		return fmt.Errorf("template file %s: %w", templateFile, err)
	}

	if err := os.MkdirAll(filepath.Dir(outFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := copyFile(templateFile, outFile); err != nil {
		return err
	}

	texts := []struct {
		value string
		desc  string
	}{
		{data.CertificateNumber, "pos:tc, off:0 -60, scale:1 abs, rotation:0, points:14"},
		{data.ExporterName, "pos:tl, off:40 -120, scale:1 abs, rotation:0, points:11"},
		{data.ImporterName, "pos:tl, off:40 -140, scale:1 abs, rotation:0, points:11"},
		{data.ImporterCountry, "pos:tl, off:40 -160, scale:1 abs, rotation:0, points:11"},
		{data.IssuedAt, "pos:bl, off:40 60, scale:1 abs, rotation:0, points:10"},
		{data.PrintableUntil, "pos:bl, off:40 45, scale:1 abs, rotation:0, points:10"},
	}
	for _, t := range texts {
		if t.value == "" {
			continue
		}
		if err := api.AddTextWatermarksFile(outFile, outFile, nil, true, t.value, t.desc, nil); err != nil {
			return fmt.Errorf("failed to stamp text onto PDF: %w", err)
		}
	}

	for i, line := range data.Lines {
		desc := fmt.Sprintf("pos:tl, off:40 %d, scale:1 abs, rotation:0, points:10", -200-i*16)
		if err := api.AddTextWatermarksFile(outFile, outFile, nil, true, line, desc, nil); err != nil {
			return fmt.Errorf("failed to stamp item line onto PDF: %w", err)
		}
	}

	if qrFile != "" {
		if err := EmbedQRCodeToPDF(outFile, outFile, qrFile, nil); err != nil {
			return err
		}
	}

	return nil
}

// EmbedQRCodeToPDF applies the QR image to the bottom right corner. If
// selectedPages is provided the stamp is applied to those pages only,
// otherwise to all pages.
func EmbedQRCodeToPDF(inFile, outFile, qrCodePath string, selectedPages []string) error {
	description := "pos: br, off: -20 20, scale: 1 abs, rotation: 0"
	if err := api.AddImageWatermarksFile(inFile, outFile, selectedPages, true, qrCodePath, description, nil); err != nil {
		return fmt.Errorf("failed to embed QR code in PDF: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Sync()
}
