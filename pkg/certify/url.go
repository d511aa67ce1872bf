package certify

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// VerificationURL builds the canonical public URL embedded in QR codes.
func VerificationURL(baseURL, verificationCode string) string {
	return fmt.Sprintf("%s/api/v1/verify/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(verificationCode))
}

// DynamicQRPath is the endpoint that renders the QR PNG on demand; recorded
// as the QR asset ref when the external image service is unavailable.
func DynamicQRPath(verificationCode string) string {
	return fmt.Sprintf("/api/v1/verify/%s/qr", url.PathEscape(verificationCode))
}

// DynamicPrintPath is the endpoint that renders the document on demand;
// recorded as the PDF asset ref when the renderer fails.
func DynamicPrintPath(requestID, lang string) string {
	return fmt.Sprintf("/api/v1/certificates/print?request_id=%s&lang=%s", url.QueryEscape(requestID), url.QueryEscape(lang))
}

// QRFilePath and PDFFilePath name the derived files deterministically by
// issued id so regeneration overwrites an equivalent file instead of
// accumulating copies.
func QRFilePath(storageDir, issuedID string) string {
	return filepath.Join(storageDir, "qr", fmt.Sprintf("qr_%s.png", issuedID))
}

func PDFFilePath(storageDir, issuedID string) string {
	return filepath.Join(storageDir, "pdf", fmt.Sprintf("cert_%s.pdf", issuedID))
}

// DownloadFilename is the attachment name served to verifiers, derived from
// the certificate number with unsafe characters replaced.
func DownloadFilename(certificateNumber string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, certificateNumber)
	return fmt.Sprintf("certificate_%s.pdf", safe)
}
