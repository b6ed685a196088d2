package model

// PostalSector 邮编前两位 -> 邮区
type PostalSector struct {
	Sector   string `gorm:"primaryKey;size:2" json:"sector"`
	District int    `gorm:"not null;index" json:"district"`
	Location string `gorm:"size:255;not null" json:"location"`
	Region   string `gorm:"size:32;not null" json:"region"`
}
