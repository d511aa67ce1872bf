package model

import (
	"time"

	"github.com/qooqz/certificates/internal/constant"
)

// CertificateRequest is the aggregate root of the certificate lifecycle.
// Versions, issued certificates, corrections and audits hang off it as
// append-only children. Once issued it is never physically deleted;
// cancellation is a status, not a delete.
type CertificateRequest struct {
	BaseModel
	TenantID             string                 `gorm:"type:text;not null;index" json:"tenantId" form:"tenantId"`
	EntityID             string                 `gorm:"type:text;not null;index" json:"entityId" form:"entityId" binding:"required"`
	CertificateType      string                 `gorm:"type:varchar(50);not null" json:"certificateType" form:"certificateType" binding:"required"`
	OperationType        string                 `gorm:"type:varchar(50);not null" json:"operationType" form:"operationType"`
	ImporterName         string                 `gorm:"type:varchar(255);not null" json:"importerName" form:"importerName" binding:"required"`
	ImporterAddress      string                 `gorm:"type:text" json:"importerAddress" form:"importerAddress"`
	ImporterCountry      string                 `gorm:"type:varchar(100);not null" json:"importerCountry" form:"importerCountry" binding:"required"`
	ShipmentCondition    int                    `gorm:"type:int;default:1" json:"shipmentCondition" form:"shipmentCondition"`
	TransportMethod      string                 `gorm:"type:varchar(50)" json:"transportMethod" form:"transportMethod"`
	Description          string                 `gorm:"type:text" json:"description" form:"description"`
	Notes                string                 `gorm:"type:text" json:"notes" form:"notes"`
	LanguageCode         string                 `gorm:"type:varchar(8);default:ar" json:"languageCode" form:"languageCode"`
	CertificateEditionID string                 `gorm:"type:text" json:"certificateEditionId" form:"certificateEditionId"`
	AuditorUserID        *string                `gorm:"type:text" json:"auditorUserId" form:"auditorUserId"`
	PaymentStatus        constant.PaymentStatus `gorm:"type:varchar(20);default:unpaid" json:"paymentStatus" form:"paymentStatus"`
	Status               constant.RequestStatus `gorm:"type:varchar(20);default:draft;index" json:"status" form:"status"`
	IssueDate            *time.Time             `json:"issueDate" form:"issueDate"`
	IssuedID             *string                `gorm:"type:text" json:"issuedId" form:"issuedId"`

	Entity             Entity              `gorm:"constraint:OnDelete:SET NULL" json:"entity,omitempty" form:"entity"`
	CertificateEdition *CertificateEdition `gorm:"constraint:OnDelete:SET NULL" json:"certificateEdition,omitempty" form:"certificateEdition"`
	Items              []RequestItem       `gorm:"foreignKey:RequestID" json:"items,omitempty" form:"items"`
}

func (cr CertificateRequest) TableName() string {
	return "certificates_requests"
}

// Editable reports whether the request content (including items) may still
// be mutated. Past under_review the snapshot workflow owns the content.
func (cr CertificateRequest) Editable() bool {
	return cr.Status == constant.RequestStatusDraft || cr.Status == constant.RequestStatusUnderReview
}
