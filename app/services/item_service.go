package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/itemsapi/app/models"
	"github.com/shashiranjanraj/itemsapi/app/repositories"
	"github.com/shashiranjanraj/itemsapi/pkg/logger"
	"github.com/shashiranjanraj/itemsapi/pkg/metrics"
	"github.com/shashiranjanraj/itemsapi/pkg/validate"
)

// Pagination defaults for List.
const (
	DefaultSkip  = 0
	DefaultLimit = 100
)

// ErrItemNotFound is returned when no item has the requested id. It is a
// normal outcome, not a fault.
var ErrItemNotFound = repositories.ErrItemNotFound

// ErrInvalidItem is returned when a payload reaches the service without
// passing validation.
var ErrInvalidItem = errors.New("invalid item")

// ItemStore is the persistence the service needs.
type ItemStore interface {
	Create(ctx context.Context, item *models.Item) error
	FindByID(ctx context.Context, id uint) (*models.Item, error)
	List(ctx context.Context, skip, limit int) ([]models.Item, error)
	Update(ctx context.Context, id uint, changes map[string]any) (*models.Item, error)
	Delete(ctx context.Context, id uint) (bool, error)
}

// ItemCreate is the payload for creating an item.
type ItemCreate struct {
	Title       validate.Optional[string] `json:"title"       validate:"required,min=1,max=255"`
	Description *string                   `json:"description"`
}

// ItemUpdate is a partial update. Absent fields are left unchanged; a null
// description clears it. Title may not be null.
type ItemUpdate struct {
	Title       validate.Optional[string] `json:"title"       validate:"filled,min=1,max=255"`
	Description validate.Optional[string] `json:"description"`
}

// Changes returns the column → value map for the fields that were sent.
func (u ItemUpdate) Changes() map[string]any {
	changes := make(map[string]any, 2)
	if u.Title.Set {
		changes["title"] = u.Title.Value
	}
	if u.Description.Set {
		changes["description"] = u.Description.Ptr()
	}
	return changes
}

// ItemService is the façade the HTTP layer talks to.
type ItemService struct {
	store    ItemStore
	maxLimit int
}

// NewItemService builds the service. A positive maxLimit caps List's limit;
// zero leaves it unbounded.
func NewItemService(store ItemStore, maxLimit int) *ItemService {
	return &ItemService{store: store, maxLimit: maxLimit}
}

// Create persists a new item and returns it with its id and timestamps.
func (s *ItemService) Create(ctx context.Context, in ItemCreate) (*models.Item, error) {
	if errs := validate.Struct(&in); validate.HasErrors(errs) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidItem, errs)
	}
	log := logger.WithCtx(ctx)
	log.Info(fmt.Sprintf("Creating item: %s", in.Title.Value))

	item := &models.Item{Title: in.Title.Value, Description: in.Description}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}
	metrics.RecordItemMutation("create")
	log.Info(fmt.Sprintf("Item created with ID: %d", item.ID), "item_id", item.ID)
	return item, nil
}

// Get returns the item with the given id or ErrItemNotFound.
func (s *ItemService) Get(ctx context.Context, id int64) (*models.Item, error) {
	log := logger.WithCtx(ctx)
	log.Info(fmt.Sprintf("Fetching item with ID: %d", id), "item_id", id)

	if id < 1 {
		log.Warn(fmt.Sprintf("Item not found: %d", id), "item_id", id)
		return nil, ErrItemNotFound
	}
	item, err := s.store.FindByID(ctx, uint(id))
	if errors.Is(err, ErrItemNotFound) {
		log.Warn(fmt.Sprintf("Item not found: %d", id), "item_id", id)
	}
	return item, err
}

// List returns up to limit items after skipping skip, in insertion order.
// Negative values fall back to the defaults.
func (s *ItemService) List(ctx context.Context, skip, limit int) ([]models.Item, error) {
	if skip < 0 {
		skip = DefaultSkip
	}
	if limit < 0 {
		limit = DefaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}
	logger.WithCtx(ctx).Info(fmt.Sprintf("Fetching items (skip=%d, limit=%d)", skip, limit))
	return s.store.List(ctx, skip, limit)
}

// Update applies the fields present in in. With nothing to change the
// current item is returned and nothing is written.
func (s *ItemService) Update(ctx context.Context, id int64, in ItemUpdate) (*models.Item, error) {
	if errs := validate.Struct(&in); validate.HasErrors(errs) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidItem, errs)
	}
	log := logger.WithCtx(ctx)
	log.Info(fmt.Sprintf("Updating item with ID: %d", id), "item_id", id)

	if id < 1 {
		log.Warn(fmt.Sprintf("Item not found for update: %d", id), "item_id", id)
		return nil, ErrItemNotFound
	}
	changes := in.Changes()
	item, err := s.store.Update(ctx, uint(id), changes)
	switch {
	case errors.Is(err, ErrItemNotFound):
		log.Warn(fmt.Sprintf("Item not found for update: %d", id), "item_id", id)
		return nil, err
	case err != nil:
		return nil, err
	}
	if len(changes) > 0 {
		metrics.RecordItemMutation("update")
	}
	log.Info(fmt.Sprintf("Item updated: %d", id), "item_id", id)
	return item, nil
}

// Delete removes the item and reports whether it existed.
func (s *ItemService) Delete(ctx context.Context, id int64) (bool, error) {
	log := logger.WithCtx(ctx)
	log.Info(fmt.Sprintf("Deleting item with ID: %d", id), "item_id", id)

	deleted := false
	if id >= 1 {
		var err error
		if deleted, err = s.store.Delete(ctx, uint(id)); err != nil {
			return false, err
		}
	}
	if !deleted {
		log.Warn(fmt.Sprintf("Item not found for deletion: %d", id), "item_id", id)
		return false, nil
	}
	metrics.RecordItemMutation("delete")
	log.Info(fmt.Sprintf("Item deleted: %d", id), "item_id", id)
	return true, nil
}
