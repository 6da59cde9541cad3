package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/itemsapi/app/services"
	"github.com/shashiranjanraj/itemsapi/pkg/ctx"
	"github.com/shashiranjanraj/itemsapi/pkg/validate"
)

// ItemController serves the /items resource.
type ItemController struct {
	service *services.ItemService
}

func NewItemController(service *services.ItemService) *ItemController {
	return &ItemController{service: service}
}

// Store handles POST /items.
func (ic *ItemController) Store(c *ctx.Context) error {
	var in services.ItemCreate
	if !c.BindJSON(&in) {
		return nil
	}

	item, err := ic.service.Create(c.Context(), in)
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, item)
	return nil
}

// Index handles GET /items?skip=&limit=.
func (ic *ItemController) Index(c *ctx.Context) error {
	q, errs := readPage(c)
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return nil
	}

	items, err := ic.service.List(c.Context(), q.Skip, q.Limit)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, items)
	return nil
}

// Show handles GET /items/{item_id}.
func (ic *ItemController) Show(c *ctx.Context) error {
	id, ok := c.PathID("item_id")
	if !ok {
		return nil
	}

	item, err := ic.service.Get(c.Context(), id)
	if errors.Is(err, services.ErrItemNotFound) {
		c.NotFound(notFound(id))
		return nil
	}
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, item)
	return nil
}

// Update handles PUT /items/{item_id}.
func (ic *ItemController) Update(c *ctx.Context) error {
	id, ok := c.PathID("item_id")
	if !ok {
		return nil
	}
	var in services.ItemUpdate
	if !c.BindJSON(&in) {
		return nil
	}

	item, err := ic.service.Update(c.Context(), id, in)
	if errors.Is(err, services.ErrItemNotFound) {
		c.NotFound(notFound(id))
		return nil
	}
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, item)
	return nil
}

// Destroy handles DELETE /items/{item_id}.
func (ic *ItemController) Destroy(c *ctx.Context) error {
	id, ok := c.PathID("item_id")
	if !ok {
		return nil
	}

	deleted, err := ic.service.Delete(c.Context(), id)
	if err != nil {
		return err
	}
	if !deleted {
		c.NotFound(notFound(id))
		return nil
	}
	c.NoContent()
	return nil
}

func notFound(id int64) string {
	return fmt.Sprintf("Item with ID %d not found", id)
}

type page struct {
	Skip  int `json:"skip"  validate:"min=0"`
	Limit int `json:"limit" validate:"min=0"`
}

// readPage parses skip and limit. A malformed value is reported as such and
// is not range-checked.
func readPage(c *ctx.Context) (page, validate.Errors) {
	errs := validate.Errors{}
	q := page{Skip: services.DefaultSkip, Limit: services.DefaultLimit}
	for key, dst := range map[string]*int{"skip": &q.Skip, "limit": &q.Limit} {
		n, err := c.QueryInt(key, *dst)
		if err != nil {
			errs[key] = err.Error()
			continue
		}
		*dst = n
	}
	for key, msg := range validate.Struct(q) {
		if _, malformed := errs[key]; !malformed {
			errs[key] = msg
		}
	}
	return q, errs
}
