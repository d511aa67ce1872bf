package model

// Entity is the exporting organization a certificate request belongs to.
// Managed elsewhere; this core only reads display fields for documents and
// verification pages.
type Entity struct {
	BaseModel
	TenantID  string `gorm:"type:text;not null;index" json:"tenantId" form:"tenantId"`
	StoreName string `gorm:"type:varchar(255);not null" json:"storeName" form:"storeName"`
}

func (e Entity) TableName() string {
	return "entities"
}
