package routes

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/itemsapi/app/controllers"
	"github.com/shashiranjanraj/itemsapi/app/repositories"
	"github.com/shashiranjanraj/itemsapi/app/services"
	"github.com/shashiranjanraj/itemsapi/config"
	"github.com/shashiranjanraj/itemsapi/pkg/ctx"
	"github.com/shashiranjanraj/itemsapi/pkg/router"
)

// RegisterAPI mounts the root, health and item endpoints. db may be nil when
// the routes are only listed.
func RegisterAPI(r *router.Router, cfg *config.Config, db *gorm.DB) {
	itemService := services.NewItemService(repositories.NewItemRepository(db), cfg.ItemsMaxLimit)

	home := controllers.NewHomeController(cfg.AppName, cfg.AppVersion, cfg.APIPrefix)
	health := controllers.NewHealthController(db, cfg.ServiceName)
	items := controllers.NewItemController(itemService)

	r.Get("/", "home", ctx.Wrap(home.Index))

	api := r.Group(cfg.APIPrefix)
	api.Get("/health", "health", ctx.Wrap(health.Check))
	api.Get("/health/db", "health.db", ctx.Wrap(health.Database))

	api.Post("/items", "items.store", ctx.Wrap(items.Store))
	api.Get("/items", "items.index", ctx.Wrap(items.Index))
	api.Get("/items/{item_id}", "items.show", ctx.Wrap(items.Show))
	api.Put("/items/{item_id}", "items.update", ctx.Wrap(items.Update))
	api.Delete("/items/{item_id}", "items.destroy", ctx.Wrap(items.Destroy))
}
