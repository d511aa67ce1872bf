package model

import (
	"time"

	"github.com/qooqz/certificates/internal/constant"
)

// Audit assigns a reviewer to a request. A completed audit is the gate for
// under_review -> approved.
type Audit struct {
	BaseModel
	RequestID  string               `gorm:"type:text;not null;index" json:"requestId" form:"requestId" binding:"required"`
	AuditorID  string               `gorm:"type:text;not null" json:"auditorId" form:"auditorId" binding:"required"`
	AssignedBy string               `gorm:"type:text;not null" json:"assignedBy" form:"assignedBy"`
	AssignedAt time.Time            `gorm:"not null" json:"assignedAt" form:"assignedAt"`
	AuditDate  *time.Time           `json:"auditDate" form:"auditDate"`
	Status     constant.AuditStatus `gorm:"type:varchar(20);default:assigned;index" json:"status" form:"status"`
	Notes      string               `gorm:"type:text" json:"notes" form:"notes"`
}

func (a Audit) TableName() string {
	return "certificates_audits"
}
