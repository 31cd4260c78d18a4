package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/civicvoice/hearing-go/internal/conf"
	"github.com/civicvoice/hearing-go/internal/errors"
)

// openMySQL sets up the MySQL database connection.
func openMySQL(settings *conf.Settings) (*DataStore, error) {
	c := settings.Database.MySQL
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.Database)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         newGormLogger(settings.Database.Debug),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("host", c.Host).
			Build()
	}

	if err := autoMigrate(db); err != nil {
		return nil, err
	}
	return New(db, true), nil
}
