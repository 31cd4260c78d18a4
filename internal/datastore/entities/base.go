package entities

import (
	"time"

	"gorm.io/gorm"

	"github.com/civicvoice/hearing-go/internal/idgen"
)

// ModifiableBase carries the fields shared by all persistent entities:
// a string primary key assigned at first persistence, creation and
// modification metadata and the soft-delete flag.
//
// ModifiedAt is refreshed on every write unless PreserveTimestamps is
// set on the instance. The importer uses this to carry source
// timestamps over unchanged.
type ModifiableBase struct {
	ID           string    `gorm:"primaryKey;size:32" json:"id"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	CreatedByID  *uint     `json:"-"`
	ModifiedAt   time.Time `json:"modified_at"`
	ModifiedByID *uint     `json:"-"`
	// Published is stored verbatim; writers set it explicitly on
	// create (a gorm default tag would swallow explicit false values).
	Published bool `gorm:"index" json:"published"`
	Deleted   bool `gorm:"index" json:"-"`

	// PreserveTimestamps suppresses the ModifiedAt refresh for the
	// next save of this instance. Not persisted.
	PreserveTimestamps bool `gorm:"-" json:"-"`
}

// BeforeCreate assigns a generated id when none is set. Generated ids
// can collide under microsecond-level bursts; creates retry once with
// a fresh id on unique-constraint violations (see datastore).
func (m *ModifiableBase) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = idgen.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

// BeforeSave refreshes ModifiedAt unless the writer suppressed it.
func (m *ModifiableBase) BeforeSave(*gorm.DB) error {
	if !m.PreserveTimestamps {
		m.ModifiedAt = time.Now().UTC()
	}
	return nil
}

// RegenerateID discards the assigned id so the next create draws a
// fresh one. Used by the collision retry path.
func (m *ModifiableBase) RegenerateID() {
	m.ID = idgen.New()
}

// Commentable carries the cached comment count and commenting policy
// shared by entities that aggregate comments (Hearing, Section).
type Commentable struct {
	NComments  int        `gorm:"default:0;index" json:"n_comments"`
	Commenting Commenting `gorm:"default:0" json:"commenting"`
}
