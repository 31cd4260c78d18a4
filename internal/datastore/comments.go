package datastore

import (
	"context"

	"gorm.io/gorm"

	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
)

// CreateComment persists a comment and recaches the parent's comment
// count before returning. When the comment was created by a known
// user, AuthorName is derived from the user record.
func (d *DataStore) CreateComment(ctx context.Context, comment *entities.Comment) error {
	parent := comment.Parent()
	if parent.ID == "" {
		return errors.Newf("comment has no parent").
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}
	return d.Transaction(ctx, func(tx Interface) error {
		txd := tx.(*DataStore)
		if comment.CreatedByID != nil {
			var user entities.User
			err := txd.db.WithContext(ctx).First(&user, *comment.CreatedByID).Error
			if err == nil {
				comment.AuthorName = user.Username
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(err).
					Category(errors.CategoryDatabase).
					Component("datastore").
					Build()
			}
		}
		if err := txd.createWithIDRetry(ctx, comment); err != nil {
			return err
		}
		return txd.RecacheNComments(ctx, parent)
	})
}

// GetComment fetches a comment by id, excluding soft-deleted rows.
func (d *DataStore) GetComment(ctx context.Context, id string) (*entities.Comment, error) {
	var comment entities.Comment
	err := active(d.db.WithContext(ctx)).First(&comment, "id = ?", id).Error
	if err != nil {
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

// ListComments returns a parent's non-deleted comments in creation
// order.
func (d *DataStore) ListComments(ctx context.Context, parent entities.CommentParent) ([]*entities.Comment, error) {
	var comments []*entities.Comment
	err := active(d.db.WithContext(ctx)).
		Where(parentCondition(parent), parent.ID).
		Order("created_at").
		Find(&comments).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return comments, nil
}

// SoftDeleteComment marks the comment deleted and recaches the
// parent's comment count in the same transaction.
func (d *DataStore) SoftDeleteComment(ctx context.Context, id string) error {
	return d.Transaction(ctx, func(tx Interface) error {
		txd := tx.(*DataStore)
		comment, err := txd.GetComment(ctx, id)
		if err != nil {
			return err
		}
		err = txd.db.WithContext(ctx).Model(&entities.Comment{}).
			Where("id = ?", id).
			Update("deleted", true).Error
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryDatabase).
				Component("datastore").
				Context("comment_id", id).
				Build()
		}
		return txd.RecacheNComments(ctx, comment.Parent())
	})
}

// Vote adds the user to the comment's voter set. Voting twice is
// idempotent and reports ToggleNotModified. The voter insert and the
// recache run in one transaction holding the comment row.
func (d *DataStore) Vote(ctx context.Context, commentID string, userID uint) (ToggleResult, error) {
	result := ToggleNotModified
	err := d.Transaction(ctx, func(tx Interface) error {
		txd := tx.(*DataStore)
		comment, err := txd.lockComment(ctx, commentID)
		if err != nil {
			return err
		}
		voted, err := txd.hasVoted(ctx, comment.ID, userID)
		if err != nil {
			return err
		}
		if voted {
			return nil
		}
		err = txd.db.WithContext(ctx).Model(comment).
			Association("Voters").Append(&entities.User{ID: userID})
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryDatabase).
				Component("datastore").
				Context("comment_id", commentID).
				Build()
		}
		if err := txd.RecacheNVotes(ctx, comment.ID); err != nil {
			return err
		}
		result = ToggleCreated
		return nil
	})
	return result, err
}

// Unvote removes the user from the voter set, reporting
// ToggleNotModified when the user had not voted.
func (d *DataStore) Unvote(ctx context.Context, commentID string, userID uint) (ToggleResult, error) {
	result := ToggleNotModified
	err := d.Transaction(ctx, func(tx Interface) error {
		txd := tx.(*DataStore)
		comment, err := txd.lockComment(ctx, commentID)
		if err != nil {
			return err
		}
		voted, err := txd.hasVoted(ctx, comment.ID, userID)
		if err != nil {
			return err
		}
		if !voted {
			return nil
		}
		err = txd.db.WithContext(ctx).Model(comment).
			Association("Voters").Delete(&entities.User{ID: userID})
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryDatabase).
				Component("datastore").
				Context("comment_id", commentID).
				Build()
		}
		if err := txd.RecacheNVotes(ctx, comment.ID); err != nil {
			return err
		}
		result = ToggleRemoved
		return nil
	})
	return result, err
}

// RecacheNComments recomputes the parent's cached comment count from
// its non-deleted comments and persists only that column. The cache is
// derived state: even if a concurrent writer loses an update, the next
// mutation rebuilds it from ground truth.
func (d *DataStore) RecacheNComments(ctx context.Context, parent entities.CommentParent) error {
	var count int64
	err := active(d.db.WithContext(ctx)).Model(&entities.Comment{}).
		Where(parentCondition(parent), parent.ID).
		Count(&count).Error
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}

	var model any
	switch parent.Kind {
	case entities.ParentHearing:
		model = &entities.Hearing{}
	case entities.ParentSection:
		model = &entities.Section{}
	default:
		return errors.Newf("unknown comment parent kind %q", parent.Kind).
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}

	err = d.db.WithContext(ctx).Model(model).
		Where("id = ?", parent.ID).
		Update("n_comments", count).Error
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return nil
}

// RecacheNVotes recomputes n_votes = count(voters) + n_legacy_votes
// from the authoritative voter set and persists only that column.
func (d *DataStore) RecacheNVotes(ctx context.Context, commentID string) error {
	var comment entities.Comment
	err := d.db.WithContext(ctx).First(&comment, "id = ?", commentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}

	var voters int64
	err = d.db.WithContext(ctx).Table("comment_voters").
		Where("comment_id = ?", commentID).
		Count(&voters).Error
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}

	err = d.db.WithContext(ctx).Model(&entities.Comment{}).
		Where("id = ?", commentID).
		Update("n_votes", int(voters)+comment.NLegacyVotes).Error
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return nil
}

func (d *DataStore) hasVoted(ctx context.Context, commentID string, userID uint) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Table("comment_voters").
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Count(&count).Error
	if err != nil {
		return false, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return count > 0, nil
}

// parentCondition returns the WHERE fragment selecting comments of the
// given parent variant.
func parentCondition(parent entities.CommentParent) string {
	if parent.Kind == entities.ParentSection {
		return "section_id = ?"
	}
	return "hearing_id = ?"
}
