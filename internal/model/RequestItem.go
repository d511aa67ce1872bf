package model

// RequestItem is one line item of a certificate request: a product snapshot
// with per-language display translations. Owned exclusively by its request
// and only mutable while the request is editable.
type RequestItem struct {
	BaseModel
	RequestID     string  `gorm:"type:text;not null;index" json:"requestId" form:"requestId"`
	ProductName   string  `gorm:"type:varchar(255);not null" json:"productName" form:"productName" binding:"required"`
	Brand         string  `gorm:"type:varchar(255)" json:"brand" form:"brand"`
	OriginCountry string  `gorm:"type:varchar(100)" json:"originCountry" form:"originCountry"`
	WeightKg      float64 `gorm:"type:numeric(12,3)" json:"weightKg" form:"weightKg"`
	Quantity      int     `gorm:"type:int;default:1" json:"quantity" form:"quantity"`

	Translations []RequestItemTranslation `gorm:"foreignKey:ItemID" json:"translations,omitempty" form:"translations"`
}

func (ri RequestItem) TableName() string {
	return "certificates_request_items"
}

type RequestItemTranslation struct {
	BaseModel
	ItemID       string `gorm:"type:text;not null;index:idx_item_lang,unique" json:"itemId" form:"itemId"`
	LanguageCode string `gorm:"type:varchar(8);not null;index:idx_item_lang,unique" json:"languageCode" form:"languageCode" binding:"required"`
	ProductName  string `gorm:"type:varchar(255);not null" json:"productName" form:"productName" binding:"required"`
	Brand        string `gorm:"type:varchar(255)" json:"brand" form:"brand"`
}

func (rit RequestItemTranslation) TableName() string {
	return "certificates_request_items_translations"
}
