package model

// CertificateEdition names a layout edition selected on a request. It points
// at a template either directly through TemplateVersion (a template code) or
// indirectly through scope + language. Read-only from the lifecycle's
// perspective.
type CertificateEdition struct {
	BaseModel
	TenantID        string `gorm:"type:text;not null;index" json:"tenantId" form:"tenantId"`
	Name            string `gorm:"type:varchar(100);not null" json:"name" form:"name" binding:"required"`
	Scope           string `gorm:"type:varchar(30);not null" json:"scope" form:"scope" binding:"required"`
	TemplateVersion string `gorm:"type:varchar(50)" json:"templateVersion" form:"templateVersion"`
}

func (ce CertificateEdition) TableName() string {
	return "certificate_editions"
}

// CertificateTemplate is a named, versioned PDF layout keyed by code
// (e.g. ar_gcc). FilePath points at the template PDF under the configured
// template directory.
type CertificateTemplate struct {
	BaseModel
	Code         string `gorm:"type:varchar(50);not null;uniqueIndex" json:"code" form:"code" binding:"required"`
	Name         string `gorm:"type:varchar(100);not null" json:"name" form:"name"`
	LanguageCode string `gorm:"type:varchar(8);default:ar" json:"languageCode" form:"languageCode"`
	FilePath     string `gorm:"type:text;not null" json:"filePath" form:"filePath" binding:"required"`
}

func (ct CertificateTemplate) TableName() string {
	return "certificates_templates"
}
