package datastore

import (
	"context"

	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
)

// CreateLabel persists a new label.
func (d *DataStore) CreateLabel(ctx context.Context, label *entities.Label) error {
	return d.createWithIDRetry(ctx, label)
}

// ListLabels returns all non-deleted labels.
func (d *DataStore) ListLabels(ctx context.Context) ([]*entities.Label, error) {
	var labels []*entities.Label
	err := active(d.db.WithContext(ctx)).Order("label").Find(&labels).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return labels, nil
}
