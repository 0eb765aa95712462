package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/meghashyamc/apidoxsearch/validation"
)

type CacheRequest struct {
	Type string `json:"type" validate:"valid_message_type"`
	URL  string `json:"url" validate:"required,url,max=2048"`
}

type CacheResponse struct {
	Cached bool `json:"cached"`
}

type AssetCacher interface {
	ConsiderCaching(ctx context.Context, url string) (bool, error)
}

func SetupCache(router gin.IRoutes, logger logger.Logger, cacher AssetCacher, validator *validation.Validator) {
	router.POST("/cache", handleCache(cacher, logger, validator))
}

func handleCache(cacher AssetCacher, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := CacheRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected params from cache request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate cache request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		cached, err := cacher.ConsiderCaching(c.Request.Context(), request.URL)
		if errors.Is(err, corpus.ErrNotCacheable) {
			logger.Warn("cache request for a disallowed location", "url", request.URL)
			c.Abort()
			writeResponse(c, nil, http.StatusForbidden, []string{"url may not be cached"})
			return
		}
		if err != nil {
			logger.Error("could not cache documentation tree", "url", request.URL, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusBadGateway, []string{"could not cache documentation tree"})
			return
		}

		writeResponse(c, CacheResponse{Cached: cached}, http.StatusOK, nil)
	}
}
