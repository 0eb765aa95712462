package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/db/searchdb"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/meghashyamc/apidoxsearch/render"
	"github.com/meghashyamc/apidoxsearch/services/lookup"
	"github.com/meghashyamc/apidoxsearch/services/offline"
	"github.com/meghashyamc/apidoxsearch/services/scan"
	"github.com/meghashyamc/apidoxsearch/validation"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, docsRoot string) *gin.Engine {
	assert := require.New(t)
	gin.SetMode(gin.TestMode)
	testLogger := logger.Discard()

	searchDB, err := searchdb.New(testLogger)
	assert.NoError(err)
	t.Cleanup(func() { searchDB.Close() })

	validator, err := validation.New(testLogger)
	assert.NoError(err)
	renderer, err := render.New()
	assert.NoError(err)

	fetcher := corpus.NewFetcher(testLogger, docsRoot, nil)
	router := newRouter(testLogger)
	setupRoutes(router, testLogger, routeDeps{
		mounts:    []corpus.Mount{{Route: "/kcoreaddons/search.html", Scope: corpus.ScopeLibrary, Corpus: "kcoreaddons/searchdata.json"}},
		fetcher:   fetcher,
		scan:      scan.New(testLogger, scan.Options{}),
		index:     offline.NewIndex(testLogger, searchDB, fetcher, "", "/"),
		lookup:    lookup.New(testLogger, t.TempDir(), "http://api.kde.org/", "/index.php"),
		renderer:  renderer,
		validator: validator,
		docsRoot:  docsRoot,
	})

	return router
}

func serve(router *gin.Engine, method string, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, http.NoBody))
	return w
}

func TestRoutes(t *testing.T) {
	assert := require.New(t)
	root := t.TempDir()
	assert.NoError(os.MkdirAll(filepath.Join(root, "kcoreaddons"), 0755))
	assert.NoError(os.WriteFile(filepath.Join(root, "kcoreaddons", "searchdata.json"), []byte(`{"docfields": [{"name": "KJob", "text": "jobs", "url": "kjob.html"}]}`), 0644))
	assert.NoError(os.WriteFile(filepath.Join(root, "kcoreaddons", "kjob.html"), []byte("<h1>KJob</h1>"), 0644))
	assert.NoError(os.WriteFile(filepath.Join(root, "kcoreaddons", "search.html"), []byte("static search page"), 0644))

	router := newTestRouter(t, root)

	w := serve(router, http.MethodGet, "/health")
	assert.Equal(http.StatusOK, w.Code)
	assert.Equal("OK", w.Body.String())

	w = serve(router, http.MethodGet, "/kcoreaddons/kjob.html")
	assert.Equal(http.StatusOK, w.Code)
	assert.Contains(w.Body.String(), "<h1>KJob</h1>")

	// mounted routes win over files of the same name
	w = serve(router, http.MethodGet, "/kcoreaddons/search.html?query=kjob")
	assert.Equal(http.StatusOK, w.Code)
	assert.Contains(w.Body.String(), `<a href="kjob.html">KJob</a>`)

	w = serve(router, http.MethodGet, "/kcoreaddons/missing.html")
	assert.Equal(http.StatusNotFound, w.Code)

	w = serve(router, http.MethodPost, "/kcoreaddons/kjob.html")
	assert.Equal(http.StatusNotFound, w.Code)

	w = serve(router, http.MethodOptions, "/cache")
	assert.Equal(http.StatusNoContent, w.Code)
	assert.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(router, http.MethodGet, "/metrics")
	assert.Equal(http.StatusOK, w.Code)
	assert.Contains(w.Body.String(), "apidox_http_requests_total")
}

func TestMergeMounts(t *testing.T) {
	assert := require.New(t)

	configured := []corpus.Mount{{Route: "/a/search.html", Scope: corpus.ScopeGroup, Corpus: "a.json"}}
	discovered := []corpus.Mount{
		{Route: "/a/search.html", Scope: corpus.ScopeLibrary, Corpus: "a/searchdata.json"},
		{Route: "/b/search.html", Scope: corpus.ScopeLibrary, Corpus: "b/searchdata.json"},
	}

	merged := mergeMounts(configured, discovered)
	assert.Len(merged, 2)
	assert.Equal(corpus.ScopeGroup, merged[0].Scope)
	assert.Equal("/b/search.html", merged[1].Route)
}
