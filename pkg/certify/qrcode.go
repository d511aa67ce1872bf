package certify

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// GenerateQRCode renders a QR PNG for link locally. Used by the dynamic
// fallback endpoint when the external image service could not be reached at
// asset-generation time.
func GenerateQRCode(link string, size int) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// WriteQRCodeFile renders a QR PNG for link directly to outputPath.
func WriteQRCodeFile(link, outputPath string, size int) error {
	if err := qrcode.WriteFile(link, qrcode.Medium, size, outputPath); err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}
	return nil
}
