// Package migrations lists the schema migrations of the items API.
package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/itemsapi/app/models"
	"github.com/shashiranjanraj/itemsapi/pkg/migration"
)

// All returns every migration, oldest first.
func All() []migration.Entry {
	return []migration.Entry{
		{Name: "20250101000000_create_items_table", Migration: &CreateItemsTable{}},
	}
}

// -------- 0001: items --------

type CreateItemsTable struct{}

func (m *CreateItemsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Item{})
}

func (m *CreateItemsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Item{})
}
