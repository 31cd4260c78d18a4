package datastore

import (
	"context"

	"gorm.io/gorm"

	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
)

// CreateSection persists a new section. When no explicit ordering is
// given the section is appended after its siblings
// (max(ordering) + 1).
func (d *DataStore) CreateSection(ctx context.Context, section *entities.Section) error {
	if !section.Type.Valid() {
		return errors.Newf("invalid section type %q", section.Type).
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}
	return d.Transaction(ctx, func(tx Interface) error {
		txd := tx.(*DataStore)
		if section.Ordering == 0 {
			var maxOrdering int
			err := txd.db.WithContext(ctx).Model(&entities.Section{}).
				Where("hearing_id = ?", section.HearingID).
				Select("COALESCE(MAX(ordering), 0)").
				Scan(&maxOrdering).Error
			if err != nil {
				return errors.New(err).
					Category(errors.CategoryDatabase).
					Component("datastore").
					Build()
			}
			section.Ordering = maxOrdering + 1
		}
		return txd.createWithIDRetry(ctx, section)
	})
}

// GetSection fetches a section by id, excluding soft-deleted rows.
func (d *DataStore) GetSection(ctx context.Context, id string) (*entities.Section, error) {
	var section entities.Section
	err := active(d.db.WithContext(ctx)).First(&section, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("section_id", id).
			Build()
	}
	return &section, nil
}

// ListSections returns a hearing's sections in ordering sequence.
func (d *DataStore) ListSections(ctx context.Context, hearingID string) ([]*entities.Section, error) {
	var sections []*entities.Section
	err := active(d.db.WithContext(ctx)).
		Where("hearing_id = ?", hearingID).
		Order("ordering").
		Find(&sections).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return sections, nil
}

// CompactSectionOrdering rewrites a hearing's section orderings to a
// dense 1..n sequence, preserving the current relative order. Only the
// ordering column is written. The importer runs this after inserting
// sections at offset slots.
func (d *DataStore) CompactSectionOrdering(ctx context.Context, hearingID string) error {
	return d.Transaction(ctx, func(tx Interface) error {
		txd := tx.(*DataStore)
		sections, err := txd.ListSections(ctx, hearingID)
		if err != nil {
			return err
		}
		for index, section := range sections {
			ordering := index + 1
			if section.Ordering == ordering {
				continue
			}
			err := txd.db.WithContext(ctx).Model(&entities.Section{}).
				Where("id = ?", section.ID).
				Update("ordering", ordering).Error
			if err != nil {
				return errors.New(err).
					Category(errors.CategoryDatabase).
					Component("datastore").
					Context("section_id", section.ID).
					Build()
			}
		}
		return nil
	})
}
