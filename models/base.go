package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base holds the shared audit columns of the UUID-keyed business
// entities.
type Base struct {
	UUID            string    `gorm:"primaryKey;column:uuid" json:"uuid"`
	DateCreated     time.Time `gorm:"column:date_created;autoCreateTime;index" json:"date_created"`
	DateUpdated     time.Time `gorm:"column:date_updated;autoUpdateTime;index" json:"date_updated"`
	UsernameCreated string    `gorm:"column:username_created" json:"username_created,omitempty"`
	UsernameUpdated string    `gorm:"column:username_updated" json:"username_updated,omitempty"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == "" {
		b.UUID = uuid.NewString()
	}
	return nil
}
