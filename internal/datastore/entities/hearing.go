package entities

import (
	"encoding/json"
	"time"
)

// Hearing is a published consultation document with a lifetime window,
// sections, comments, labels and followers.
type Hearing struct {
	ModifiableBase
	Commentable
	OpenAt        time.Time       `json:"open_at"`
	CloseAt       time.Time       `json:"close_at"`
	ForceClosed   bool            `gorm:"default:false" json:"force_closed"`
	Title         string          `gorm:"size:255;not null" json:"title"`
	Abstract      string          `gorm:"type:text" json:"abstract"`
	Borough       string          `gorm:"size:200" json:"borough"`
	ServicemapURL string          `gorm:"size:255" json:"servicemap_url"`
	Latitude      *float64        `json:"latitude"`
	Longitude     *float64        `json:"longitude"`
	GeoJSON       json.RawMessage `gorm:"type:text" json:"geojson"`

	Labels    []*Label        `gorm:"many2many:hearing_labels" json:"labels,omitempty"`
	Followers []*User         `gorm:"many2many:hearing_followers" json:"-"`
	Images    []*HearingImage `gorm:"foreignKey:HearingID" json:"images,omitempty"`
	Sections  []*Section      `gorm:"foreignKey:HearingID" json:"sections,omitempty"`
	Comments  []*Comment      `gorm:"foreignKey:HearingID" json:"comments,omitempty"`
}

// TableName returns the table name for GORM.
func (Hearing) TableName() string {
	return "hearings"
}

// Closed reports whether the hearing currently rejects new comments:
// either force-closed by an editor or outside the open_at..close_at
// window.
func (h *Hearing) Closed(now time.Time) bool {
	return h.ForceClosed || now.Before(h.OpenAt) || now.After(h.CloseAt)
}

// Parent returns the comment parent variant for this hearing.
func (h *Hearing) Parent() CommentParent {
	return HearingParent(h.ID)
}
