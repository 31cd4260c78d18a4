// Package datastore provides the persistence layer of the hearing
// platform: GORM-backed storage for hearings, sections, comments,
// labels and users, plus the commentable recache operations that keep
// the denormalized counters consistent.
package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/civicvoice/hearing-go/internal/conf"
	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
)

// Sentinel errors surfaced to callers. API handlers map these to HTTP
// statuses.
var (
	ErrHearingNotFound = errors.Newf("hearing not found").Category(errors.CategoryNotFound).Component("datastore").Build()
	ErrSectionNotFound = errors.Newf("section not found").Category(errors.CategoryNotFound).Component("datastore").Build()
	ErrCommentNotFound = errors.Newf("comment not found").Category(errors.CategoryNotFound).Component("datastore").Build()
	ErrUserNotFound    = errors.Newf("user not found").Category(errors.CategoryNotFound).Component("datastore").Build()

	// ErrHearingHasSections is returned on a hard-delete attempt of a
	// hearing that still owns sections. Editors soft-delete instead.
	ErrHearingHasSections = errors.Newf("hearing has sections and cannot be hard-deleted").
				Category(errors.CategoryConflict).Component("datastore").Build()
)

// ToggleResult reports the outcome of an idempotent set-membership
// toggle (vote/unvote, follow/unfollow).
type ToggleResult int

const (
	// ToggleCreated: the membership was added.
	ToggleCreated ToggleResult = iota
	// ToggleNotModified: the set was already in the target state.
	ToggleNotModified
	// ToggleRemoved: the membership was removed.
	ToggleRemoved
)

// Interface abstracts the store for handlers, the importer and tests.
type Interface interface {
	// Hearings
	CreateHearing(ctx context.Context, hearing *entities.Hearing) error
	GetHearing(ctx context.Context, id string) (*entities.Hearing, error)
	GetHearingDetail(ctx context.Context, id string) (*entities.Hearing, error)
	ListHearings(ctx context.Context, filter HearingFilter) ([]*entities.Hearing, error)
	SaveHearing(ctx context.Context, hearing *entities.Hearing) error
	SoftDeleteHearing(ctx context.Context, id string) error
	ListDeletedHearings(ctx context.Context) ([]*entities.Hearing, error)
	HardDeleteHearing(ctx context.Context, id string) error
	AddHearingLabels(ctx context.Context, hearing *entities.Hearing, labels []*entities.Label) error

	// Follows
	Follow(ctx context.Context, hearingID string, userID uint) (ToggleResult, error)
	Unfollow(ctx context.Context, hearingID string, userID uint) (ToggleResult, error)
	IsFollowing(ctx context.Context, hearingID string, userID uint) (bool, error)
	ListFollowers(ctx context.Context, hearingID string) ([]*entities.User, error)

	// Sections
	CreateSection(ctx context.Context, section *entities.Section) error
	GetSection(ctx context.Context, id string) (*entities.Section, error)
	ListSections(ctx context.Context, hearingID string) ([]*entities.Section, error)
	CompactSectionOrdering(ctx context.Context, hearingID string) error

	// Comments
	CreateComment(ctx context.Context, comment *entities.Comment) error
	GetComment(ctx context.Context, id string) (*entities.Comment, error)
	ListComments(ctx context.Context, parent entities.CommentParent) ([]*entities.Comment, error)
	SoftDeleteComment(ctx context.Context, id string) error
	Vote(ctx context.Context, commentID string, userID uint) (ToggleResult, error)
	Unvote(ctx context.Context, commentID string, userID uint) (ToggleResult, error)
	RecacheNComments(ctx context.Context, parent entities.CommentParent) error
	RecacheNVotes(ctx context.Context, commentID string) error

	// Labels and users
	CreateLabel(ctx context.Context, label *entities.Label) error
	ListLabels(ctx context.Context) ([]*entities.Label, error)
	CreateUser(ctx context.Context, user *entities.User) error
	GetUserByToken(ctx context.Context, token string) (*entities.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entities.User, error)

	// Images
	CreateHearingImage(ctx context.Context, image *entities.HearingImage) error
	CreateSectionImage(ctx context.Context, image *entities.SectionImage) error
	ListHearingImages(ctx context.Context, hearingID string) ([]*entities.HearingImage, error)
	ListSectionImages(ctx context.Context, sectionID string) ([]*entities.SectionImage, error)

	// Transaction runs fn inside a database transaction. The Interface
	// passed to fn routes all operations through the transaction.
	Transaction(ctx context.Context, fn func(tx Interface) error) error

	Close() error
}

// HearingFilter narrows and pages the hearing list. Zero values mean
// "no constraint".
type HearingFilter struct {
	Limit int
	// NextClosing selects the single hearing with the smallest
	// close_at strictly after this instant.
	NextClosing *time.Time
}

// DataStore implements Interface on a GORM connection.
type DataStore struct {
	db *gorm.DB
	// MySQL supports SELECT ... FOR UPDATE row locks; SQLite relies on
	// its single-writer model instead.
	supportsRowLock bool
}

// New wraps an open GORM connection. Most callers use Open instead.
func New(db *gorm.DB, supportsRowLock bool) *DataStore {
	return &DataStore{db: db, supportsRowLock: supportsRowLock}
}

// Open connects to the configured database and runs automigration.
func Open(settings *conf.Settings) (*DataStore, error) {
	switch settings.Database.Type {
	case "sqlite":
		return openSQLite(settings)
	case "mysql":
		return openMySQL(settings)
	default:
		return nil, errors.Newf("unsupported database type %q", settings.Database.Type).
			Category(errors.CategoryConfiguration).
			Component("datastore").
			Build()
	}
}

// Transaction runs fn in a transaction, routing nested operations
// through it.
func (d *DataStore) Transaction(ctx context.Context, fn func(tx Interface) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DataStore{db: tx, supportsRowLock: d.supportsRowLock})
	})
}

// Close closes the underlying SQL connection.
func (d *DataStore) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Nuke drops all tables and re-runs automigration. Used by the import
// and mock CLI commands behind the --nuke flag.
func (d *DataStore) Nuke() error {
	tables := []string{
		"comment_voters", "hearing_followers", "hearing_labels",
		"comments", "section_images", "sections",
		"hearing_images", "hearings", "labels", "users",
	}
	for _, table := range tables {
		if d.db.Migrator().HasTable(table) {
			if err := d.db.Migrator().DropTable(table); err != nil {
				return errors.New(err).
					Category(errors.CategoryDatabase).
					Component("datastore").
					Context("table", table).
					Build()
			}
		}
	}
	return autoMigrate(d.db)
}

func autoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.User{},
		&entities.Label{},
		&entities.Hearing{},
		&entities.HearingImage{},
		&entities.Section{},
		&entities.SectionImage{},
		&entities.Comment{},
	)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return nil
}

// createWithIDRetry creates value, retrying once with a regenerated id
// when the generated primary key collides. Id generation is wall-clock
// based, so same-microsecond bursts can collide.
func (d *DataStore) createWithIDRetry(ctx context.Context, value interface{ RegenerateID() }) error {
	err := d.db.WithContext(ctx).Create(value).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		value.RegenerateID()
		err = d.db.WithContext(ctx).Create(value).Error
	}
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return nil
}

// active scopes a query to rows not soft-deleted, the default manager
// behavior.
func active(db *gorm.DB) *gorm.DB {
	return db.Where("deleted = ?", false)
}

// deletedOnly scopes a query to soft-deleted rows.
func deletedOnly(db *gorm.DB) *gorm.DB {
	return db.Where("deleted = ?", true)
}
