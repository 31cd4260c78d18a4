package datastore

import (
	"context"

	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
)

// CreateHearingImage persists a hearing image record. The blob itself
// is written by the caller under the images directory.
func (d *DataStore) CreateHearingImage(ctx context.Context, image *entities.HearingImage) error {
	return d.createWithIDRetry(ctx, image)
}

// CreateSectionImage persists a section image record.
func (d *DataStore) CreateSectionImage(ctx context.Context, image *entities.SectionImage) error {
	return d.createWithIDRetry(ctx, image)
}

// ListHearingImages returns a hearing's images in ordering sequence.
func (d *DataStore) ListHearingImages(ctx context.Context, hearingID string) ([]*entities.HearingImage, error) {
	var images []*entities.HearingImage
	err := active(d.db.WithContext(ctx)).
		Where("hearing_id = ?", hearingID).
		Order("ordering").
		Find(&images).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return images, nil
}

// ListSectionImages returns a section's images in ordering sequence.
func (d *DataStore) ListSectionImages(ctx context.Context, sectionID string) ([]*entities.SectionImage, error) {
	var images []*entities.SectionImage
	err := active(d.db.WithContext(ctx)).
		Where("section_id = ?", sectionID).
		Order("ordering").
		Find(&images).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return images, nil
}
