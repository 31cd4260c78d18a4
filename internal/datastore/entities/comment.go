package entities

// ParentKind discriminates the owner of a polymorphic comment.
type ParentKind string

const (
	ParentHearing ParentKind = "hearing"
	ParentSection ParentKind = "section"
)

// CommentParent is the tagged variant identifying the commentable a
// comment belongs to: either a hearing or a section, by id.
type CommentParent struct {
	Kind ParentKind
	ID   string
}

// HearingParent returns the parent variant for a hearing id.
func HearingParent(id string) CommentParent {
	return CommentParent{Kind: ParentHearing, ID: id}
}

// SectionParent returns the parent variant for a section id.
func SectionParent(id string) CommentParent {
	return CommentParent{Kind: ParentSection, ID: id}
}

// Comment is a citizen comment on a hearing or a section. Exactly one
// of HearingID and SectionID is set.
//
// NVotes caches count(voters) + NLegacyVotes and is recomputed from
// the authoritative voter set after every membership change. Legacy
// votes come from imported archives and have no resolvable user
// identity, so they are frozen as a scalar.
type Comment struct {
	ModifiableBase
	HearingID    *string `gorm:"size:32;index" json:"-"`
	SectionID    *string `gorm:"size:32;index" json:"-"`
	Title        string  `gorm:"size:80" json:"title"`
	Content      string  `gorm:"type:text;not null" json:"content"`
	AuthorName   string  `gorm:"size:40" json:"author_name"`
	NVotes       int     `gorm:"default:0" json:"n_votes"`
	NLegacyVotes int     `gorm:"default:0" json:"-"`

	Voters []*User `gorm:"many2many:comment_voters" json:"-"`
}

// TableName returns the table name for GORM.
func (Comment) TableName() string {
	return "comments"
}

// Parent resolves the tagged parent variant. The zero CommentParent is
// returned for a comment with neither foreign key set, which indicates
// a bug in the writer.
func (c *Comment) Parent() CommentParent {
	switch {
	case c.HearingID != nil:
		return HearingParent(*c.HearingID)
	case c.SectionID != nil:
		return SectionParent(*c.SectionID)
	default:
		return CommentParent{}
	}
}

// SetParent points the comment at the given parent, clearing the other
// variant's foreign key.
func (c *Comment) SetParent(parent CommentParent) {
	switch parent.Kind {
	case ParentHearing:
		id := parent.ID
		c.HearingID = &id
		c.SectionID = nil
	case ParentSection:
		id := parent.ID
		c.SectionID = &id
		c.HearingID = nil
	}
}
