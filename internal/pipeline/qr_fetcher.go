package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/qooqz/certificates/internal/config"
)

// QRFetcher fetches a rendered QR PNG for a verification URL from an
// external image service.
type QRFetcher interface {
	Fetch(ctx context.Context, verifyURL string) ([]byte, error)
}

// HTTPQRFetcher talks to a qrserver-compatible create-qr-code endpoint.
type HTTPQRFetcher struct {
	cfg    config.QRServiceConfig
	client *http.Client
}

func NewHTTPQRFetcher(cfg config.QRServiceConfig) *HTTPQRFetcher {
	return &HTTPQRFetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func (f *HTTPQRFetcher) Fetch(ctx context.Context, verifyURL string) ([]byte, error) {
	params := url.Values{}
	params.Set("data", verifyURL)
	params.Set("size", fmt.Sprintf("%dx%d", f.cfg.PixelSize, f.cfg.PixelSize))
	params.Set("format", "png")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "QooqzCertificates/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qr service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("qr service returned status %d", resp.StatusCode)
	}

	png, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read qr service response: %w", err)
	}

	if len(png) < len(pngMagic) || string(png[:4]) != string(pngMagic) {
		return nil, fmt.Errorf("qr service returned a malformed image (%d bytes)", len(png))
	}

	return png, nil
}
