package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/meghashyamc/apidoxsearch/metrics"
	"github.com/meghashyamc/apidoxsearch/query"
	"github.com/meghashyamc/apidoxsearch/render"
	"github.com/meghashyamc/apidoxsearch/services/offline"
	"github.com/meghashyamc/apidoxsearch/validation"
)

type OfflineSearchRequest struct {
	Query     string  `form:"q" json:"q" validate:"valid_query,max=1000"`
	Top       float64 `form:"top" json:"top"`
	ScrollTop float64 `form:"scroll_top" json:"scroll_top"`
}

type OfflineSearchResponse struct {
	Query   string           `json:"query"`
	Results []offline.Result `json:"results"`
	HTML    string           `json:"html"`
}

// OfflineIndex is what the offline search handlers need from offline.Index.
type OfflineIndex interface {
	offline.Querier
	Wait(ctx context.Context) error
}

func SetupOffline(router gin.IRoutes, logger logger.Logger, index OfflineIndex, renderer *render.Renderer, validator *validation.Validator) {
	router.GET("/offline-search", handleOfflineSearch(index, renderer, logger, validator))
	router.GET("/offline-search/live", handleLiveSearch(index, renderer, logger))
}

func handleOfflineSearch(index OfflineIndex, renderer *render.Renderer, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		request := OfflineSearchRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from offline search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate offline search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		if query.Blank(request.Query) {
			metrics.ObserveSearch(metrics.EngineOffline, metrics.OutcomeBlank, start)
			writeResponse(c, OfflineSearchResponse{Query: request.Query, Results: []offline.Result{}}, http.StatusOK, nil)
			return
		}

		if err := index.Wait(c.Request.Context()); err != nil {
			metrics.ObserveSearch(metrics.EngineOffline, metrics.OutcomeNotReady, start)
			logger.Warn("offline search index did not become ready", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusServiceUnavailable, []string{offline.ErrNotReady.Error()})
			return
		}

		results, err := index.Query(c.Request.Context(), request.Query)
		if err != nil {
			metrics.ObserveSearch(metrics.EngineOffline, metrics.OutcomeError, start)
			logger.Error("offline search failed", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		anchor := offline.Anchor{Top: request.Top, ScrollTop: request.ScrollTop}
		html, err := renderer.PopoverString(request.Query, anchor, results)
		if err != nil {
			logger.Error("could not render offline search results", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{"failed to render results"})
			return
		}

		outcome := metrics.OutcomeHits
		if len(results) == 0 {
			outcome = metrics.OutcomeNoHits
		}
		metrics.ObserveSearch(metrics.EngineOffline, outcome, start)

		writeResponse(c, OfflineSearchResponse{Query: request.Query, Results: results, HTML: html}, http.StatusOK, nil)
	}
}
