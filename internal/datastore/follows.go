package datastore

import (
	"context"

	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
)

// Follow adds the user to the hearing's follower set. Adding an
// existing follower reports ToggleNotModified. No counter is cached
// for followers.
func (d *DataStore) Follow(ctx context.Context, hearingID string, userID uint) (ToggleResult, error) {
	result := ToggleNotModified
	err := d.Transaction(ctx, func(tx Interface) error {
		txd := tx.(*DataStore)
		hearing, err := txd.lockHearing(ctx, hearingID)
		if err != nil {
			return err
		}
		following, err := txd.IsFollowing(ctx, hearing.ID, userID)
		if err != nil {
			return err
		}
		if following {
			return nil
		}
		err = txd.db.WithContext(ctx).Model(hearing).
			Association("Followers").Append(&entities.User{ID: userID})
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryDatabase).
				Component("datastore").
				Context("hearing_id", hearingID).
				Build()
		}
		result = ToggleCreated
		return nil
	})
	return result, err
}

// Unfollow removes the user from the follower set, reporting
// ToggleNotModified when the user was not following.
func (d *DataStore) Unfollow(ctx context.Context, hearingID string, userID uint) (ToggleResult, error) {
	result := ToggleNotModified
	err := d.Transaction(ctx, func(tx Interface) error {
		txd := tx.(*DataStore)
		hearing, err := txd.lockHearing(ctx, hearingID)
		if err != nil {
			return err
		}
		following, err := txd.IsFollowing(ctx, hearing.ID, userID)
		if err != nil {
			return err
		}
		if !following {
			return nil
		}
		err = txd.db.WithContext(ctx).Model(hearing).
			Association("Followers").Delete(&entities.User{ID: userID})
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryDatabase).
				Component("datastore").
				Context("hearing_id", hearingID).
				Build()
		}
		result = ToggleRemoved
		return nil
	})
	return result, err
}

// IsFollowing reports membership in the follower set.
func (d *DataStore) IsFollowing(ctx context.Context, hearingID string, userID uint) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Table("hearing_followers").
		Where("hearing_id = ? AND user_id = ?", hearingID, userID).
		Count(&count).Error
	if err != nil {
		return false, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return count > 0, nil
}

// ListFollowers returns the users following a hearing.
func (d *DataStore) ListFollowers(ctx context.Context, hearingID string) ([]*entities.User, error) {
	hearing, err := d.GetHearing(ctx, hearingID)
	if err != nil {
		return nil, err
	}
	var followers []*entities.User
	err = d.db.WithContext(ctx).Model(hearing).Association("Followers").Find(&followers)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return followers, nil
}
