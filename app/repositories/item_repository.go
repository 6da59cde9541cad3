package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/itemsapi/app/models"
	"github.com/shashiranjanraj/itemsapi/pkg/orm"
)

// ErrItemNotFound is returned when no item has the requested id.
var ErrItemNotFound = errors.New("item not found")

// ItemRepository handles database operations for Item.
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts item and fills in its id and timestamps.
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	if err := orm.New(ctx, r.db).Create(item); err != nil {
		return fmt.Errorf("items: create: %w", err)
	}
	return nil
}

// FindByID looks up an item by primary key.
func (r *ItemRepository) FindByID(ctx context.Context, id uint) (*models.Item, error) {
	return findByID(orm.New(ctx, r.db), id)
}

// List returns up to limit items after skipping skip, in id order. The
// result is never nil.
func (r *ItemRepository) List(ctx context.Context, skip, limit int) ([]models.Item, error) {
	items := make([]models.Item, 0)
	err := orm.New(ctx, r.db).
		Model(&models.Item{}).
		Order("id").
		Offset(skip).
		Limit(limit).
		Get(&items)
	if err != nil {
		return nil, fmt.Errorf("items: list: %w", err)
	}
	return items, nil
}

// Update applies changes (column → value) to the item and returns the
// re-read row. An empty change set returns the current row without writing.
func (r *ItemRepository) Update(ctx context.Context, id uint, changes map[string]any) (*models.Item, error) {
	var updated *models.Item
	err := orm.Transaction(ctx, r.db, func(tx *orm.Query) error {
		current, err := findByID(tx, id)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			updated = current
			return nil
		}

		values := make(map[string]any, len(changes)+1)
		for k, v := range changes {
			values[k] = v
		}
		values["updated_at"] = time.Now().UTC()

		if _, err := tx.Model(&models.Item{}).Where("id = ?", id).Updates(values); err != nil {
			return fmt.Errorf("items: update %d: %w", id, err)
		}
		updated, err = findByID(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the item and reports whether a row existed.
func (r *ItemRepository) Delete(ctx context.Context, id uint) (bool, error) {
	rows, err := orm.New(ctx, r.db).Where("id = ?", id).Delete(&models.Item{})
	if err != nil {
		return false, fmt.Errorf("items: delete %d: %w", id, err)
	}
	return rows > 0, nil
}

// Count returns the number of stored items.
func (r *ItemRepository) Count(ctx context.Context) (int64, error) {
	n, err := orm.New(ctx, r.db).Model(&models.Item{}).Count()
	if err != nil {
		return 0, fmt.Errorf("items: count: %w", err)
	}
	return n, nil
}

func findByID(q *orm.Query, id uint) (*models.Item, error) {
	var item models.Item
	err := q.Model(&models.Item{}).Where("id = ?", id).First(&item)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrItemNotFound
	case err != nil:
		return nil, fmt.Errorf("items: find %d: %w", id, err)
	}
	return &item, nil
}
