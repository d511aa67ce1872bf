package identifier

import (
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Verification codes are drawn from a CSPRNG (nanoid) with a URL-safe
// alphabet. 32 characters over 62 symbols is far beyond guessability and
// carries no relation to the certificate number.
const (
	verificationCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	verificationCodeLength   = 32
)

// Generator produces the two public-facing identifiers of an issued
// certificate. Both operations are pure; persistence and uniqueness
// enforcement belong to the issuance transaction.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// CertificateNumber builds the human-legible document number from the
// template code, the issuance date and a per-tenant sequence supplied by
// the caller from within the issuance transaction.
// Example: CERT-AR_GCC-20260830-0042
func (g *Generator) CertificateNumber(templateCode string, seq int64, at time.Time) string {
	code := strings.ToUpper(strings.TrimSpace(templateCode))
	if code == "" {
		code = "GEN"
	}
	return fmt.Sprintf("CERT-%s-%s-%04d", code, at.UTC().Format("20060102"), seq)
}

// NewVerificationCode returns a fresh unguessable token safe for URL
// embedding.
func (g *Generator) NewVerificationCode() (string, error) {
	code, err := gonanoid.Generate(verificationCodeAlphabet, verificationCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return code, nil
}
