package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/apidoxsearch/api/handlers"
	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/meghashyamc/apidoxsearch/metrics"
	"github.com/meghashyamc/apidoxsearch/render"
	"github.com/meghashyamc/apidoxsearch/services/lookup"
	"github.com/meghashyamc/apidoxsearch/services/offline"
	"github.com/meghashyamc/apidoxsearch/services/scan"
	"github.com/meghashyamc/apidoxsearch/validation"
)

type routeDeps struct {
	mounts    []corpus.Mount
	fetcher   *corpus.Fetcher
	scan      *scan.Service
	index     *offline.Index
	lookup    *lookup.Service
	renderer  *render.Renderer
	validator *validation.Validator
	docsRoot  string
}

func setupRoutes(router *gin.Engine, logger logger.Logger, deps routeDeps) {
	router.GET("/health", health())
	router.GET("/metrics", metrics.Handler())

	handlers.SetupScan(router, logger, deps.mounts, deps.fetcher, deps.scan, deps.renderer, deps.validator)
	handlers.SetupOffline(router, logger, deps.index, deps.renderer, deps.validator)
	handlers.SetupCache(router, logger, deps.fetcher, deps.validator)
	handlers.SetupLookup(router, logger, deps.lookup, deps.renderer, deps.validator)

	// Serve the documentation tree itself
	if deps.docsRoot != "" {
		router.NoRoute(staticFiles(deps.docsRoot))
	}
}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter(logger logger.Logger) *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.Use(gin.Recovery())
	router.Use(_CORSMiddleware())
	router.Use(metrics.Middleware())
	router.Use(loggingMiddleware(logger))

	return router
}
