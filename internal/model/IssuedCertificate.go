package model

import (
	"time"

	"github.com/qooqz/certificates/pkg/certify"
)

// IssuedCertificate is the public document record. certificate_number and
// verification_code are assigned exactly once inside the issuance
// transaction and never change; the asset refs may be (re)computed
// idempotently. Rows are cancelled in place, never deleted.
type IssuedCertificate struct {
	BaseModel
	VersionID         string     `gorm:"type:text;not null;uniqueIndex" json:"versionId" form:"versionId"`
	CertificateNumber string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"certificateNumber" form:"certificateNumber"`
	VerificationCode  string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"verificationCode" form:"verificationCode"`
	IssuedBy          string     `gorm:"type:text;not null" json:"issuedBy" form:"issuedBy"`
	IssuedAt          time.Time  `gorm:"not null" json:"issuedAt" form:"issuedAt"`
	PrintableUntil    *time.Time `json:"printableUntil" form:"printableUntil"`
	LanguageCode      string     `gorm:"type:varchar(8);default:ar" json:"languageCode" form:"languageCode"`

	QRCode certify.AssetRef `gorm:"embedded;embeddedPrefix:qr_code_" json:"qrCode" form:"qrCode"`
	PDF    certify.AssetRef `gorm:"embedded;embeddedPrefix:pdf_" json:"pdf" form:"pdf"`

	IsCancelled  bool       `gorm:"type:boolean;default:false" json:"isCancelled" form:"isCancelled"`
	CancelledBy  *string    `gorm:"type:text" json:"cancelledBy" form:"cancelledBy"`
	CancelledAt  *time.Time `json:"cancelledAt" form:"cancelledAt"`
	CancelReason string     `gorm:"type:text" json:"cancelReason" form:"cancelReason"`

	Version CertificateVersion `gorm:"foreignKey:VersionID;constraint:OnDelete:RESTRICT" json:"version,omitempty" form:"version"`
}

func (ic IssuedCertificate) TableName() string {
	return "certificates_issued"
}

// Expired reports whether the printable horizon has passed at t.
func (ic IssuedCertificate) Expired(t time.Time) bool {
	return ic.PrintableUntil != nil && ic.PrintableUntil.Before(t)
}
