package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/meghashyamc/apidoxsearch/render"
	"github.com/meghashyamc/apidoxsearch/services/lookup"
	"github.com/meghashyamc/apidoxsearch/validation"
)

func SetupLookup(router gin.IRoutes, logger logger.Logger, service *lookup.Service, renderer *render.Renderer, validator *validation.Validator) {
	router.GET("/lookup", handleLookup(service, renderer, logger, validator))
}

func handleLookup(service *lookup.Service, renderer *render.Renderer, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := lookup.Request{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from lookup request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate lookup request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		result, err := service.Lookup(request)
		if err != nil {
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{"failed to look up class"})
			return
		}

		if result.Redirect != "" {
			c.Redirect(http.StatusFound, result.Redirect)
			return
		}

		if wantsJSON(c) {
			writeResponse(c, result, http.StatusOK, nil)
			return
		}
		writeHTML(c, logger, http.StatusOK, func(w io.Writer) error {
			return renderer.Candidates(w, result.Candidates)
		})
	}
}
