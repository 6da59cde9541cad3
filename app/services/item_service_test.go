package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/itemsapi/app/models"
	"github.com/shashiranjanraj/itemsapi/app/repositories"
	"github.com/shashiranjanraj/itemsapi/app/services"
	"github.com/shashiranjanraj/itemsapi/database/migrations"
	"github.com/shashiranjanraj/itemsapi/pkg/testkit"
	"github.com/shashiranjanraj/itemsapi/pkg/validate"
)

func newService(t *testing.T, maxLimit int) *services.ItemService {
	t.Helper()
	db := testkit.SQLite(t, migrations.All()...)
	return services.NewItemService(repositories.NewItemRepository(db), maxLimit)
}

func create(t *testing.T, svc *services.ItemService, title string, description *string) *models.Item {
	t.Helper()
	item, err := svc.Create(context.Background(), services.ItemCreate{
		Title:       validate.Some(title),
		Description: description,
	})
	require.NoError(t, err)
	return item
}

func strPtr(s string) *string { return &s }

func TestCreateThenGetRoundTrips(t *testing.T) {
	svc := newService(t, 0)
	ctx := context.Background()

	for _, tc := range []struct {
		title string
		desc  *string
	}{
		{"Book", strPtr("A novel")},
		{"Pen", nil},
		{"Ünïcødé ✓", strPtr("")},
	} {
		created := create(t, svc, tc.title, tc.desc)
		got, err := svc.Get(ctx, int64(created.ID))
		require.NoError(t, err)

		assert.Equal(t, tc.title, got.Title)
		assert.Equal(t, tc.desc, got.Description)
		assert.False(t, got.CreatedAt.IsZero())
		assert.False(t, got.UpdatedAt.IsZero())
	}
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	svc := newService(t, 0)

	_, err := svc.Create(context.Background(), services.ItemCreate{})
	assert.ErrorIs(t, err, services.ErrInvalidItem)

	long := make([]rune, 256)
	for i := range long {
		long[i] = 'x'
	}
	_, err = svc.Create(context.Background(), services.ItemCreate{Title: validate.Some(string(long))})
	assert.ErrorIs(t, err, services.ErrInvalidItem)
}

func TestGetMissing(t *testing.T) {
	svc := newService(t, 0)

	for _, id := range []int64{0, -1, 7} {
		_, err := svc.Get(context.Background(), id)
		assert.ErrorIs(t, err, services.ErrItemNotFound, "id %d", id)
	}
}

func TestUpdateWithoutFieldsIsNoOp(t *testing.T) {
	svc := newService(t, 0)
	item := create(t, svc, "Book", strPtr("A novel"))
	time.Sleep(2 * time.Millisecond)

	got, err := svc.Update(context.Background(), int64(item.ID), services.ItemUpdate{})
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(item.UpdatedAt))
	assert.Equal(t, "Book", got.Title)
}

func TestUpdateTitleOnly(t *testing.T) {
	svc := newService(t, 0)
	item := create(t, svc, "Book", strPtr("A novel"))
	time.Sleep(2 * time.Millisecond)

	got, err := svc.Update(context.Background(), int64(item.ID), services.ItemUpdate{Title: validate.Some("X")})
	require.NoError(t, err)
	assert.Equal(t, "X", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "A novel", *got.Description)
	assert.True(t, got.UpdatedAt.After(item.UpdatedAt))
	assert.True(t, got.CreatedAt.Equal(item.CreatedAt))
}

func TestUpdateDecodedFromJSON(t *testing.T) {
	svc := newService(t, 0)
	item := create(t, svc, "Book", strPtr("A novel"))

	var in services.ItemUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"description":null}`), &in))
	assert.Equal(t, map[string]any{"description": (*string)(nil)}, in.Changes())

	got, err := svc.Update(context.Background(), int64(item.ID), in)
	require.NoError(t, err)
	assert.Nil(t, got.Description)
	assert.Equal(t, "Book", got.Title)

	var bad services.ItemUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"title":null}`), &bad))
	_, err = svc.Update(context.Background(), int64(item.ID), bad)
	assert.ErrorIs(t, err, services.ErrInvalidItem)
}

func TestUpdateRejectsBlankTitle(t *testing.T) {
	svc := newService(t, 0)
	item := create(t, svc, "Book", nil)

	for _, title := range []string{"", "   ", "\t"} {
		_, err := svc.Update(context.Background(), int64(item.ID), services.ItemUpdate{Title: validate.Some(title)})
		assert.ErrorIs(t, err, services.ErrInvalidItem, "%q", title)
	}

	got, err := svc.Get(context.Background(), int64(item.ID))
	require.NoError(t, err)
	assert.Equal(t, "Book", got.Title)
}

func TestUpdateMissing(t *testing.T) {
	svc := newService(t, 0)
	_, err := svc.Update(context.Background(), 5, services.ItemUpdate{Title: validate.Some("X")})
	assert.ErrorIs(t, err, services.ErrItemNotFound)

	_, err = svc.Update(context.Background(), 5, services.ItemUpdate{})
	assert.ErrorIs(t, err, services.ErrItemNotFound)
}

func TestDeleteThenGetIsNotFound(t *testing.T) {
	svc := newService(t, 0)
	ctx := context.Background()
	item := create(t, svc, "Book", nil)

	ok, err := svc.Delete(ctx, int64(item.ID))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Get(ctx, int64(item.ID))
	assert.ErrorIs(t, err, services.ErrItemNotFound)

	ok, err = svc.Delete(ctx, int64(item.ID))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Delete(ctx, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListPagination(t *testing.T) {
	svc := newService(t, 0)
	ctx := context.Background()
	for i := 0; i < 150; i++ {
		create(t, svc, "item", nil)
	}

	first, err := svc.List(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, first, 100)
	assert.Equal(t, uint(1), first[0].ID)

	rest, err := svc.List(ctx, 100, 100)
	require.NoError(t, err)
	assert.Len(t, rest, 50)
	assert.Equal(t, uint(101), rest[0].ID)

	beyond, err := svc.List(ctx, 500, 100)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	all, err := svc.List(ctx, -3, 1000)
	require.NoError(t, err)
	assert.Len(t, all, 150)
}

func TestListHonoursMaxLimit(t *testing.T) {
	svc := newService(t, 10)
	for i := 0; i < 15; i++ {
		create(t, svc, "item", nil)
	}
	got, err := svc.List(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

// ─── Store faults ─────────────────────────────────────────────────────────────

type storeMock struct {
	mock.Mock
}

func (m *storeMock) Create(ctx context.Context, item *models.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *storeMock) FindByID(ctx context.Context, id uint) (*models.Item, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*models.Item)
	return item, args.Error(1)
}

func (m *storeMock) List(ctx context.Context, skip, limit int) ([]models.Item, error) {
	args := m.Called(ctx, skip, limit)
	items, _ := args.Get(0).([]models.Item)
	return items, args.Error(1)
}

func (m *storeMock) Update(ctx context.Context, id uint, changes map[string]any) (*models.Item, error) {
	args := m.Called(ctx, id, changes)
	item, _ := args.Get(0).(*models.Item)
	return item, args.Error(1)
}

func (m *storeMock) Delete(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func TestStoreFaultsPropagate(t *testing.T) {
	boom := errors.New("database is locked")
	store := new(storeMock)
	store.On("Create", mock.Anything, mock.Anything).Return(boom)
	store.On("FindByID", mock.Anything, uint(1)).Return(nil, boom)
	store.On("List", mock.Anything, 0, 100).Return(nil, boom)
	store.On("Update", mock.Anything, uint(1), map[string]any{"title": "X"}).Return(nil, boom)
	store.On("Delete", mock.Anything, uint(1)).Return(false, boom)

	svc := services.NewItemService(store, 0)
	ctx := context.Background()

	_, err := svc.Create(ctx, services.ItemCreate{Title: validate.Some("Book")})
	assert.ErrorIs(t, err, boom)
	_, err = svc.Get(ctx, 1)
	assert.ErrorIs(t, err, boom)
	_, err = svc.List(ctx, 0, 100)
	assert.ErrorIs(t, err, boom)
	_, err = svc.Update(ctx, 1, services.ItemUpdate{Title: validate.Some("X")})
	assert.ErrorIs(t, err, boom)
	_, err = svc.Delete(ctx, 1)
	assert.ErrorIs(t, err, boom)

	store.AssertExpectations(t)
}

func TestDefaultsPassedToStore(t *testing.T) {
	store := new(storeMock)
	store.On("List", mock.Anything, services.DefaultSkip, services.DefaultLimit).Return([]models.Item{}, nil).Once()

	got, err := services.NewItemService(store, 0).List(context.Background(), -1, -1)
	require.NoError(t, err)
	assert.Empty(t, got)
	store.AssertExpectations(t)
}
