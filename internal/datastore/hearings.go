package datastore

import (
	"context"

	"gorm.io/gorm"

	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
)

// CreateHearing persists a new hearing. An explicit id (importer slug)
// is kept; otherwise one is generated, with a single retry on
// collision.
func (d *DataStore) CreateHearing(ctx context.Context, hearing *entities.Hearing) error {
	if hearing.ID != "" {
		if err := d.db.WithContext(ctx).Create(hearing).Error; err != nil {
			return errors.New(err).
				Category(errors.CategoryDatabase).
				Component("datastore").
				Context("hearing_id", hearing.ID).
				Build()
		}
		return nil
	}
	return d.createWithIDRetry(ctx, hearing)
}

// GetHearing fetches a hearing by id, excluding soft-deleted rows.
func (d *DataStore) GetHearing(ctx context.Context, id string) (*entities.Hearing, error) {
	var hearing entities.Hearing
	err := active(d.db.WithContext(ctx)).First(&hearing, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHearingNotFound
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("hearing_id", id).
			Build()
	}
	return &hearing, nil
}

// GetHearingDetail fetches a hearing with sections, images, labels and
// comments preloaded. Soft-deleted children are filtered out and
// sections come back in ordering sequence.
func (d *DataStore) GetHearingDetail(ctx context.Context, id string) (*entities.Hearing, error) {
	var hearing entities.Hearing
	err := active(d.db.WithContext(ctx)).
		Preload("Labels", "deleted = ?", false).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("deleted = ?", false).Order("ordering")
		}).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Where("deleted = ?", false).Order("ordering")
		}).
		Preload("Sections.Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("deleted = ?", false).Order("ordering")
		}).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Where("deleted = ?", false).Order("created_at")
		}).
		First(&hearing, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHearingNotFound
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("hearing_id", id).
			Build()
	}
	return &hearing, nil
}

// ListHearings returns hearings newest-created first. With NextClosing
// set it instead returns the single hearing whose close_at is the
// smallest strictly greater than the given instant.
func (d *DataStore) ListHearings(ctx context.Context, filter HearingFilter) ([]*entities.Hearing, error) {
	query := active(d.db.WithContext(ctx))

	if filter.NextClosing != nil {
		query = query.Where("close_at > ?", *filter.NextClosing).
			Order("close_at").
			Limit(1)
	} else {
		query = query.Order("created_at DESC")
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
	}

	var hearings []*entities.Hearing
	if err := query.Find(&hearings).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return hearings, nil
}

// SaveHearing persists all fields of an existing hearing.
func (d *DataStore) SaveHearing(ctx context.Context, hearing *entities.Hearing) error {
	if err := d.db.WithContext(ctx).Save(hearing).Error; err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("hearing_id", hearing.ID).
			Build()
	}
	return nil
}

// SoftDeleteHearing marks the hearing deleted. The row remains
// referenceable by id but disappears from default queries.
func (d *DataStore) SoftDeleteHearing(ctx context.Context, id string) error {
	res := d.db.WithContext(ctx).Model(&entities.Hearing{}).
		Where("id = ?", id).
		Update("deleted", true)
	if res.Error != nil {
		return errors.New(res.Error).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("hearing_id", id).
			Build()
	}
	if res.RowsAffected == 0 {
		return ErrHearingNotFound
	}
	return nil
}

// ListDeletedHearings returns only soft-deleted hearings.
func (d *DataStore) ListDeletedHearings(ctx context.Context) ([]*entities.Hearing, error) {
	var hearings []*entities.Hearing
	err := deletedOnly(d.db.WithContext(ctx)).Order("created_at DESC").Find(&hearings).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return hearings, nil
}

// HardDeleteHearing removes the row permanently. The delete is
// protected: it fails while the hearing still owns sections.
func (d *DataStore) HardDeleteHearing(ctx context.Context, id string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sections int64
		err := tx.Model(&entities.Section{}).
			Where("hearing_id = ?", id).
			Count(&sections).Error
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryDatabase).
				Component("datastore").
				Build()
		}
		if sections > 0 {
			return ErrHearingHasSections
		}
		res := tx.Delete(&entities.Hearing{}, "id = ?", id)
		if res.Error != nil {
			return errors.New(res.Error).
				Category(errors.CategoryDatabase).
				Component("datastore").
				Build()
		}
		if res.RowsAffected == 0 {
			return ErrHearingNotFound
		}
		return nil
	})
}

// AddHearingLabels attaches labels to a hearing.
func (d *DataStore) AddHearingLabels(ctx context.Context, hearing *entities.Hearing, labels []*entities.Label) error {
	err := d.db.WithContext(ctx).Model(hearing).Association("Labels").Append(labels)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("hearing_id", hearing.ID).
			Build()
	}
	return nil
}
