package entities

// HearingImage is an illustration attached to a hearing. The blob
// itself lives on the filesystem under images/YYYY/MM/<name>; Image
// stores the relative path. Dimensions are recorded on write.
type HearingImage struct {
	ModifiableBase
	HearingID string `gorm:"size:32;not null;index" json:"-"`
	Image     string `gorm:"size:255;not null" json:"url"`
	Title     string `gorm:"size:255" json:"title"`
	Caption   string `gorm:"type:text" json:"caption"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Ordering  int    `gorm:"index" json:"ordering"`
}

// TableName returns the table name for GORM.
func (HearingImage) TableName() string {
	return "hearing_images"
}

// SectionImage is an illustration attached to a section.
type SectionImage struct {
	ModifiableBase
	SectionID string `gorm:"size:32;not null;index" json:"-"`
	Image     string `gorm:"size:255;not null" json:"url"`
	Title     string `gorm:"size:255" json:"title"`
	Caption   string `gorm:"type:text" json:"caption"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Ordering  int    `gorm:"index" json:"ordering"`
}

// TableName returns the table name for GORM.
func (SectionImage) TableName() string {
	return "section_images"
}
