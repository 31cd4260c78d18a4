package entities

import "time"

// User is the minimal identity referenced by votes, follows and the
// created_by/modified_by audit columns. References to users are weak:
// foreign keys are nullable and nothing cascades.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254" json:"email"`
	PasswordHash string    `gorm:"size:128" json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"-"`
	APIToken     string    `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (User) TableName() string {
	return "users"
}
