package model

// CertificateLog is an append-only trail of lifecycle actions on a request
// (create, submit, audit, approve, issue, correct, cancel).
type CertificateLog struct {
	BaseModel
	RequestID string `gorm:"type:text;not null;index" json:"requestId" form:"requestId"`
	ActorID   string `gorm:"type:text;not null" json:"actorId" form:"actorId"`
	Action    string `gorm:"type:varchar(50);not null" json:"action" form:"action"`
	Details   string `gorm:"type:text" json:"details" form:"details"`
}

func (cl CertificateLog) TableName() string {
	return "certificates_logs"
}
