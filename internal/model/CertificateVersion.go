package model

import (
	"encoding/json"
	"time"

	"github.com/qooqz/certificates/internal/constant"
)

// CertificateVersion is an immutable snapshot of a request's content taken
// at approval or at each correction. Version numbers per request are
// strictly increasing and never reused; the snapshot payload is never
// mutated after creation.
type CertificateVersion struct {
	BaseModel
	RequestID     string                 `gorm:"type:text;not null;index:idx_request_version,unique" json:"requestId" form:"requestId"`
	VersionNumber int                    `gorm:"type:int;not null;index:idx_request_version,unique" json:"versionNumber" form:"versionNumber"`
	Reason        constant.VersionReason `gorm:"type:varchar(30);not null" json:"reason" form:"reason"`
	Snapshot      json.RawMessage        `gorm:"type:jsonb" json:"snapshot" form:"snapshot"`
	IsActive      bool                   `gorm:"type:boolean;default:true" json:"isActive" form:"isActive"`
	ApprovedBy    string                 `gorm:"type:text;not null" json:"approvedBy" form:"approvedBy"`
	ApprovedAt    time.Time              `gorm:"not null" json:"approvedAt" form:"approvedAt"`
}

func (cv CertificateVersion) TableName() string {
	return "certificates_versions"
}

// VersionSnapshot is the payload frozen into a CertificateVersion row.
type VersionSnapshot struct {
	Request CertificateRequest `json:"request"`
	Items   []RequestItem      `json:"items"`
}

func NewVersionSnapshot(request CertificateRequest, items []RequestItem) (json.RawMessage, error) {
	return json.Marshal(VersionSnapshot{Request: request, Items: items})
}
