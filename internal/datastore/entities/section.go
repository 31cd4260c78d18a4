package entities

// Section is an ordered sub-document of a hearing. Exactly one
// introduction section per hearing is expected, occupying the lowest
// ordering slot.
type Section struct {
	ModifiableBase
	Commentable
	HearingID string      `gorm:"size:32;not null;index" json:"hearing"`
	Type      SectionType `gorm:"size:20;default:plain;index" json:"type"`
	Ordering  int         `gorm:"index" json:"ordering"`
	Title     string      `gorm:"size:255" json:"title"`
	Abstract  string      `gorm:"type:text" json:"abstract"`
	Content   string      `gorm:"type:text" json:"content"`

	Images   []*SectionImage `gorm:"foreignKey:SectionID" json:"images,omitempty"`
	Comments []*Comment      `gorm:"foreignKey:SectionID" json:"comments,omitempty"`
}

// TableName returns the table name for GORM.
func (Section) TableName() string {
	return "sections"
}

// Parent returns the comment parent variant for this section.
func (s *Section) Parent() CommentParent {
	return SectionParent(s.ID)
}
