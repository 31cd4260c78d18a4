package datastore

import (
	"context"

	"gorm.io/gorm"

	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
)

// CreateUser persists a new user.
func (d *DataStore) CreateUser(ctx context.Context, user *entities.User) error {
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("username", user.Username).
			Build()
	}
	return nil
}

// GetUserByToken resolves an API token to a user. Used by the API
// authentication middleware.
func (d *DataStore) GetUserByToken(ctx context.Context, token string) (*entities.User, error) {
	var user entities.User
	err := d.db.WithContext(ctx).First(&user, "api_token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return &user, nil
}

// GetUserByUsername fetches a user by username.
func (d *DataStore) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := d.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("username", username).
			Build()
	}
	return &user, nil
}
