package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/meghashyamc/apidoxsearch/metrics"
	"github.com/meghashyamc/apidoxsearch/query"
	"github.com/meghashyamc/apidoxsearch/render"
	"github.com/meghashyamc/apidoxsearch/services/scan"
	"github.com/meghashyamc/apidoxsearch/validation"
)

type ScanRequest struct {
	Query string `form:"query" json:"query" validate:"valid_query,max=1000"`
}

type ShapeFetcher interface {
	FetchShape(ctx context.Context, location string, scope corpus.Scope) (corpus.Shape, error)
}

// SetupScan mounts one search page per corpus mount.
func SetupScan(router gin.IRoutes, logger logger.Logger, mounts []corpus.Mount, fetcher ShapeFetcher, service *scan.Service, renderer *render.Renderer, validator *validation.Validator) {
	for _, mount := range mounts {
		router.GET(mount.Route, handleScan(mount, fetcher, service, renderer, logger, validator))
		logger.Debug("mounted search page", "route", mount.Route, "scope", string(mount.Scope), "corpus", mount.Corpus)
	}
}

func handleScan(mount corpus.Mount, fetcher ShapeFetcher, service *scan.Service, renderer *render.Renderer, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		request := ScanRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from scan request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request query parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate scan request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		q := query.Extract(c.Request.URL.RawQuery)
		if query.Blank(q) {
			metrics.ObserveSearch(metrics.EngineScan, metrics.OutcomeBlank, start)
			if wantsJSON(c) {
				writeResponse(c, emptyResults(q, mount.Scope), http.StatusOK, nil)
				return
			}
			writeHTML(c, logger, http.StatusOK, func(w io.Writer) error {
				return renderer.NothingToSearch(w, q)
			})
			return
		}

		results, outcome, err := runScan(c, mount, fetcher, service, q)
		metrics.ObserveSearch(metrics.EngineScan, outcome, start)
		if err != nil {
			logger.Warn("scan search aborted", "route", mount.Route, "err", err.Error())
			if wantsJSON(c) {
				c.Abort()
				writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
				return
			}
			writeHTML(c, logger, http.StatusOK, func(w io.Writer) error {
				return renderer.Loading(w, q, mount.Scope)
			})
			return
		}

		if wantsJSON(c) {
			writeResponse(c, results, http.StatusOK, nil)
			return
		}
		writeHTML(c, logger, http.StatusOK, func(w io.Writer) error {
			return renderer.ScanResults(w, q, results)
		})
	}
}

// runScan fetches the mount's corpus and searches it. A corpus that cannot be
// fetched gives empty results; only an invalid pattern is returned as an error.
func runScan(c *gin.Context, mount corpus.Mount, fetcher ShapeFetcher, service *scan.Service, q string) (*scan.Results, string, error) {
	shape, err := fetcher.FetchShape(c.Request.Context(), mount.Corpus, mount.Scope)
	if err != nil {
		// logged by the fetcher
		return emptyResults(q, mount.Scope), metrics.OutcomeTransport, nil
	}

	results, err := service.Search(shape, q)
	if err != nil {
		return nil, metrics.OutcomePattern, err
	}

	if results.Empty() {
		return results, metrics.OutcomeNoHits, nil
	}
	return results, metrics.OutcomeHits, nil
}

func emptyResults(q string, scope corpus.Scope) *scan.Results {
	return &scan.Results{Query: q, Scope: scope, Names: []scan.Entry{}, Texts: []scan.Entry{}}
}
