package entities

// Label is a free-form tag attached to hearings. Labels are shared:
// the relation is many-to-many and label lifetime is independent of
// any hearing.
type Label struct {
	ModifiableBase
	Label string `gorm:"size:200;not null" json:"label"`
}

// TableName returns the table name for GORM.
func (Label) TableName() string {
	return "labels"
}
