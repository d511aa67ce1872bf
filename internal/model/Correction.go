package model

import (
	"time"

	"github.com/qooqz/certificates/internal/constant"
)

// Correction is a request to amend an already-issued (or in-review)
// certificate. An approved, fully-paid correction produces a new
// CertificateVersion and, when the certificate was already issued, a fresh
// IssuedCertificate superseding the old one's printability.
type Correction struct {
	BaseModel
	RequestID       string                    `gorm:"type:text;not null;index" json:"requestId" form:"requestId" binding:"required"`
	RequestedBy     string                    `gorm:"type:text;not null" json:"requestedBy" form:"requestedBy"`
	ErrorSource     string                    `gorm:"type:varchar(50);not null" json:"errorSource" form:"errorSource" binding:"required"`
	Description     string                    `gorm:"type:text" json:"description" form:"description"`
	Status          constant.CorrectionStatus `gorm:"type:varchar(20);default:submitted;index" json:"status" form:"status"`
	PaymentRequired bool                      `gorm:"type:boolean;default:false" json:"paymentRequired" form:"paymentRequired"`
	PaymentPaid     bool                      `gorm:"type:boolean;default:false" json:"paymentPaid" form:"paymentPaid"`
	ReviewedBy      *string                   `gorm:"type:text" json:"reviewedBy" form:"reviewedBy"`
	ReviewedAt      *time.Time                `json:"reviewedAt" form:"reviewedAt"`
}

func (c Correction) TableName() string {
	return "certificates_corrections"
}
