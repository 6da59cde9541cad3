package controllers

import (
	"net/http"
	"path"

	"github.com/shashiranjanraj/itemsapi/pkg/ctx"
)

type welcome struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Health  string `json:"health"`
}

// HomeController answers the service root.
type HomeController struct {
	body welcome
}

func NewHomeController(appName, version, apiPrefix string) *HomeController {
	return &HomeController{body: welcome{
		Message: "Welcome to " + appName,
		Version: version,
		Health:  path.Join("/", apiPrefix, "health"),
	}}
}

// Index handles GET /.
func (hc *HomeController) Index(c *ctx.Context) error {
	c.JSON(http.StatusOK, hc.body)
	return nil
}
