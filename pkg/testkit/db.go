package testkit

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/itemsapi/pkg/database"
	"github.com/shashiranjanraj/itemsapi/pkg/migration"
)

// SQLite opens a private in-memory database, runs the given migrations on it
// and closes it when the test ends.
//
//	db := testkit.SQLite(t, migrations.All()...)
func SQLite(t testing.TB, entries ...migration.Entry) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), nil, false)
	if err != nil {
		t.Fatalf("testkit: open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("testkit: sqlite handle: %v", err)
	}
	// the in-memory database lives as long as its only connection
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if len(entries) > 0 {
		if err := migration.New(db, nil, nil, entries...).Run(); err != nil {
			t.Fatalf("testkit: migrate: %v", err)
		}
	}
	return db
}
