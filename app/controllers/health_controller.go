package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/itemsapi/pkg/ctx"
	"github.com/shashiranjanraj/itemsapi/pkg/database"
	"github.com/shashiranjanraj/itemsapi/pkg/metrics"
)

const dbPingTimeout = 5 * time.Second

type serviceHealth struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type databaseHealth struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// HealthController reports liveness of the service and its store.
type HealthController struct {
	db      *gorm.DB
	service string
}

func NewHealthController(db *gorm.DB, service string) *HealthController {
	return &HealthController{db: db, service: service}
}

// Check handles GET /health.
func (hc *HealthController) Check(c *ctx.Context) error {
	c.Logger().Info("Health check requested")
	c.JSON(http.StatusOK, serviceHealth{Status: "healthy", Service: hc.service})
	return nil
}

// Database handles GET /health/db. A failed ping is reported in the body,
// always with 200.
func (hc *HealthController) Database(c *ctx.Context) error {
	pingCtx, cancel := context.WithTimeout(c.Context(), dbPingTimeout)
	defer cancel()

	err := database.Ping(pingCtx, hc.db)
	metrics.SetDatabaseUp(err == nil)
	if err != nil {
		c.Logger().Error(fmt.Sprintf("Database health check failed: %v", err), "error", err.Error())
		c.JSON(http.StatusOK, databaseHealth{Status: "unhealthy", Database: "disconnected", Error: err.Error()})
		return nil
	}

	c.Logger().Info("Database health check passed")
	c.JSON(http.StatusOK, databaseHealth{Status: "healthy", Database: "connected"})
	return nil
}
