package models

import "time"

// Item is the only domain entity. ID and timestamps are assigned by the store.
type Item struct {
	ID          uint      `gorm:"primaryKey"               json:"id"`
	Title       string    `gorm:"size:255;not null;index"  json:"title"`
	Description *string   `gorm:"type:text"                json:"description"`
	CreatedAt   time.Time `gorm:"not null"                 json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null"                 json:"updated_at"`
}

// TableName pins the table name regardless of naming strategy.
func (Item) TableName() string { return "items" }
