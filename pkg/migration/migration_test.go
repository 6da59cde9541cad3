package migration_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shashiranjanraj/itemsapi/pkg/migration"
)

type widget struct {
	ID   uint
	Name string
}

type gadget struct {
	ID uint
}

type createTable struct{ model any }

func (c createTable) Up(db *gorm.DB) error   { return db.AutoMigrate(c.model) }
func (c createTable) Down(db *gorm.DB) error { return db.Migrator().DropTable(c.model) }

type failing struct{}

func (failing) Up(*gorm.DB) error   { return errors.New("boom") }
func (failing) Down(*gorm.DB) error { return nil }

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestRunRollbackStatus(t *testing.T) {
	db := openDB(t)
	var out bytes.Buffer

	first := migration.New(db, nil, &out,
		migration.Entry{Name: "0002_gadgets", Migration: createTable{&gadget{}}},
		migration.Entry{Name: "0001_widgets", Migration: createTable{&widget{}}},
	)
	require.NoError(t, first.Run())
	assert.True(t, db.Migrator().HasTable(&widget{}))
	assert.True(t, db.Migrator().HasTable(&gadget{}))
	assert.Contains(t, out.String(), "Migrated:  0001_widgets")

	pending, err := first.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	out.Reset()
	require.NoError(t, first.Run())
	assert.Contains(t, out.String(), "Nothing to migrate.")

	statuses, err := first.Status()
	require.NoError(t, err)
	assert.Equal(t, []migration.Status{
		{Name: "0001_widgets", Ran: true, Batch: 1},
		{Name: "0002_gadgets", Ran: true, Batch: 1},
	}, statuses)

	require.NoError(t, first.Rollback())
	assert.False(t, db.Migrator().HasTable(&widget{}))
	assert.False(t, db.Migrator().HasTable(&gadget{}))

	out.Reset()
	require.NoError(t, first.Rollback())
	assert.Contains(t, out.String(), "Nothing to roll back.")
}

func TestBatchesAreSeparate(t *testing.T) {
	db := openDB(t)

	require.NoError(t, migration.New(db, nil, nil,
		migration.Entry{Name: "0001_widgets", Migration: createTable{&widget{}}},
	).Run())

	r := migration.New(db, nil, nil,
		migration.Entry{Name: "0001_widgets", Migration: createTable{&widget{}}},
		migration.Entry{Name: "0002_gadgets", Migration: createTable{&gadget{}}},
	)
	require.NoError(t, r.Run())

	statuses, err := r.Status()
	require.NoError(t, err)
	assert.Equal(t, 1, statuses[0].Batch)
	assert.Equal(t, 2, statuses[1].Batch)

	require.NoError(t, r.Rollback())
	assert.True(t, db.Migrator().HasTable(&widget{}))
	assert.False(t, db.Migrator().HasTable(&gadget{}))

	var out bytes.Buffer
	printer := migration.New(db, nil, &out,
		migration.Entry{Name: "0001_widgets", Migration: createTable{&widget{}}},
		migration.Entry{Name: "0002_gadgets", Migration: createTable{&gadget{}}},
	)
	require.NoError(t, printer.PrintStatus())
	assert.Contains(t, out.String(), "Pending")
}

func TestRunStopsOnError(t *testing.T) {
	db := openDB(t)
	r := migration.New(db, nil, nil,
		migration.Entry{Name: "0001_widgets", Migration: createTable{&widget{}}},
		migration.Entry{Name: "0002_broken", Migration: failing{}},
	)
	err := r.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0002_broken up: boom")

	pending, err := r.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "0002_broken", pending[0].Name)
}

func TestRollbackUnknownMigration(t *testing.T) {
	db := openDB(t)
	require.NoError(t, migration.New(db, nil, nil,
		migration.Entry{Name: "0001_widgets", Migration: createTable{&widget{}}},
	).Run())

	err := migration.New(db, nil, nil).Rollback()
	assert.ErrorIs(t, err, migration.ErrNotRegistered)
}
