// Package api exposes the HTTP surface: plan submission, status
// polling, and a health probe. Submission validates input, resolves
// eligible spots, persists the pending job, and hands it to the
// dispatch bus; the response returns immediately with a check
// reference while generation runs in the background.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vapodego/aibabyapp-project-sub001/event"
	"github.com/vapodego/aibabyapp-project-sub001/resolver"
	"github.com/vapodego/aibabyapp-project-sub001/store"
)

// API wires the HTTP handlers for the plan generation service.
type API struct {
	store    store.Store
	resolver resolver.Resolver
	bus      *event.Bus
	logger   *slog.Logger
}

// New creates an API.
func New(st store.Store, res resolver.Resolver, bus *event.Bus, logger *slog.Logger) *API {
	return &API{
		store:    st,
		resolver: res,
		bus:      bus,
		logger:   logger,
	}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	a.RegisterRoutes(router)
	return router
}

// RegisterRoutes registers all routes into the given router.
func (a *API) RegisterRoutes(router *gin.Engine) {
	router.POST("/jobs", a.submitJob)
	router.GET("/jobs", a.getJob)
	router.GET("/healthz", a.healthz)
}

func (a *API) healthz(c *gin.Context) {
	if err := a.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
