// Package kernel assembles the HTTP handler: global middleware, the
// /metrics endpoint and the application routes.
package kernel

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/itemsapi/app/routes"
	"github.com/shashiranjanraj/itemsapi/config"
	"github.com/shashiranjanraj/itemsapi/pkg/ctx"
	"github.com/shashiranjanraj/itemsapi/pkg/metrics"
	"github.com/shashiranjanraj/itemsapi/pkg/middleware"
	"github.com/shashiranjanraj/itemsapi/pkg/router"
)

// HTTPKernel owns the router and the finished handler chain.
type HTTPKernel struct {
	router *router.Router
}

// NewHTTP builds the kernel. db may be nil when the kernel is only used to
// list routes.
func NewHTTP(cfg *config.Config, log *slog.Logger, db *gorm.DB) *HTTPKernel {
	r := router.New()

	// Outermost first. Metrics sees the status Lifecycle writes for faults.
	// Lifecycle wraps CORS so preflights are logged and carry X-Request-ID.
	r.Use(metrics.Middleware())
	r.Use(middleware.Lifecycle(log))
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(cfg.CORSOriginsList())))
	r.Use(chimw.StripSlashes)
	r.Use(ctx.BodyLimit(cfg.MaxBodyBytes))

	r.Get("/metrics", "metrics", metrics.Handler())

	routes.RegisterAPI(r, cfg, db)

	return &HTTPKernel{router: r}
}

// Handler returns the root http.Handler.
func (k *HTTPKernel) Handler() http.Handler {
	return k.router.Handler()
}

// Routes lists every registered route.
func (k *HTTPKernel) Routes() []router.Route {
	return k.router.Routes()
}
