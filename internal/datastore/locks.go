package datastore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
)

// Membership toggles serialize on the owning row. On MySQL this takes
// a FOR UPDATE lock held until the surrounding transaction commits;
// SQLite's single-writer model already serializes conflicting writes.

func (d *DataStore) lockHearing(ctx context.Context, id string) (*entities.Hearing, error) {
	query := active(d.db.WithContext(ctx))
	if d.supportsRowLock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var hearing entities.Hearing
	if err := query.First(&hearing, "id = ?", id).Error; err != nil {
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

func (d *DataStore) lockComment(ctx context.Context, id string) (*entities.Comment, error) {
	query := active(d.db.WithContext(ctx))
	if d.supportsRowLock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var comment entities.Comment
	if err := query.First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("comment_id", id).
			Build()
	}
	return &comment, nil
}
