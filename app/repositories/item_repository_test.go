package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"

	"github.com/shashiranjanraj/itemsapi/app/models"
	"github.com/shashiranjanraj/itemsapi/app/repositories"
	"github.com/shashiranjanraj/itemsapi/database/migrations"
	"github.com/shashiranjanraj/itemsapi/pkg/database"
	"github.com/shashiranjanraj/itemsapi/pkg/testkit"
)

func newRepo(t *testing.T) *repositories.ItemRepository {
	t.Helper()
	return repositories.NewItemRepository(testkit.SQLite(t, migrations.All()...))
}

func strPtr(s string) *string { return &s }

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first := &models.Item{Title: "Book", Description: strPtr("A novel")}
	require.NoError(t, repo.Create(ctx, first))
	second := &models.Item{Title: "Pen"}
	require.NoError(t, repo.Create(ctx, second))

	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, uint(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.False(t, first.UpdatedAt.IsZero())

	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Book", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "A novel", *got.Description)

	got, err = repo.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Description)
}

func TestFindByIDMissing(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, repositories.ErrItemNotFound)
}

func TestListPaginatesInIDOrder(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	empty, err := repo.List(ctx, 0, 100)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Item{Title: string(rune('a' + i))}))
	}

	page, err := repo.List(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, []uint{2, 3, 4}, []uint{page[0].ID, page[1].ID, page[2].ID})

	none, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestUpdateAppliesOnlyGivenColumns(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	item := &models.Item{Title: "Book", Description: strPtr("A novel")}
	require.NoError(t, repo.Create(ctx, item))
	time.Sleep(2 * time.Millisecond)

	same, err := repo.Update(ctx, item.ID, nil)
	require.NoError(t, err)
	assert.True(t, same.UpdatedAt.Equal(item.UpdatedAt))

	updated, err := repo.Update(ctx, item.ID, map[string]any{"title": "Revised"})
	require.NoError(t, err)
	assert.Equal(t, "Revised", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "A novel", *updated.Description)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	cleared, err := repo.Update(ctx, item.ID, map[string]any{"description": nil})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
	assert.Equal(t, "Revised", cleared.Title)

	_, err = repo.Update(ctx, 99, map[string]any{"title": "x"})
	assert.ErrorIs(t, err, repositories.ErrItemNotFound)
}

func TestDeleteReportsExistence(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	item := &models.Item{Title: "Book"}
	require.NoError(t, repo.Create(ctx, item))

	ok, err := repo.Delete(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.FindByID(ctx, item.ID)
	assert.ErrorIs(t, err, repositories.ErrItemNotFound)
}

func TestStoreFaultIsWrapped(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := database.Open(postgres.New(postgres.Config{Conn: sqlDB}), nil, false)
	require.NoError(t, err)
	repo := repositories.NewItemRepository(db)

	boom := errors.New("connection reset by peer")
	mock.ExpectQuery("SELECT").WillReturnError(boom)
	_, err = repo.FindByID(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, repositories.ErrItemNotFound)

	mock.ExpectQuery("SELECT").WillReturnError(boom)
	_, err = repo.List(context.Background(), 0, 10)
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}
