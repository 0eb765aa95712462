// Common test helpers
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/apidoxsearch/config"
	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/db/kvdb"
	"github.com/meghashyamc/apidoxsearch/db/searchdb"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/meghashyamc/apidoxsearch/render"
	"github.com/meghashyamc/apidoxsearch/services/lookup"
	"github.com/meghashyamc/apidoxsearch/services/offline"
	"github.com/meghashyamc/apidoxsearch/services/scan"
	"github.com/meghashyamc/apidoxsearch/validation"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

var jsonAcceptHeaders = map[string]string{"Accept": "application/json"}

var testFiles = map[string]string{
	"frameworks/kcoreaddons/html/searchdata.json": `{"docfields": [
		{"name": "KJob", "text": "Base class for asynchronous jobs", "url": "classKJob.html"},
		{"name": "QString", "text": "Unicode character string", "url": "qstring.html"},
		{"name": "Broken"}
	]}`,
	"frameworks/searchdata.json": `{"libraries": [
		{"fancyname": "KCoreAddons", "docfields": [{"name": "KJob", "text": "Base class for jobs", "url": "kcoreaddons/classKJob.html"}]},
		{"fancyname": "KIO", "docfields": [{"name": "KIO::Job", "text": "A file transfer", "url": "kio/classKIO_1_1Job.html"}]}
	]}`,
	"searchdata.json": `{"all": [
		{"fancyname": "Frameworks", "libraries": [
			{"fancyname": "KCoreAddons", "docfields": [{"name": "KJob", "text": "Base class for jobs", "url": "frameworks/kcoreaddons/html/classKJob.html"}]}
		]}
	]}`,
	"search-index.json": `[
		{"ref": "/kjob/", "title": "KJob", "body": "Base class for asynchronous jobs", "excerpt": "The base class for all jobs"},
		{"ref": "/kio/", "title": "KIO", "body": "Network transparent file access", "excerpt": "File access"}
	]`,
	"searchmaps/map-ALL-ALL.json": `{
		"http://api.kde.org/frameworks-api/frameworks-apidocs/kcoreaddons/html/classKJob.html": "kjob",
		"http://api.kde.org/frameworks-api/frameworks-apidocs/kio/html/classKIO_1_1Job.html": "kio::job",
		"http://api.kde.org/frameworks-api/frameworks-apidocs/kconfig/html/classKConfig.html": "kconfig"
	}`,
}

var testMounts = []corpus.Mount{
	{Route: "/frameworks/kcoreaddons/html/search.html", Scope: corpus.ScopeLibrary, Corpus: "frameworks/kcoreaddons/html/searchdata.json"},
	{Route: "/frameworks/search.html", Scope: corpus.ScopeGroup, Corpus: "/frameworks/searchdata.json"},
	{Route: "/search.html", Scope: corpus.ScopeGlobal, Corpus: "searchdata.json"},
	{Route: "/missing/search.html", Scope: corpus.ScopeLibrary, Corpus: "missing/searchdata.json"},
}

type testDeps struct {
	cfg       *config.Config
	logger    logger.Logger
	fetcher   *corpus.Fetcher
	renderer  *render.Renderer
	validator *validation.Validator
	index     *offline.Index
}

func newTestLogger() logger.Logger {
	return logger.New("debug")
}

func writeTestFiles(assert *require.Assertions, root string) {
	for relPath, content := range testFiles {
		fullPath := filepath.Join(root, relPath)
		err := os.MkdirAll(filepath.Dir(fullPath), 0755)
		assert.NoError(err, "could not create test sub-directory")
		err = os.WriteFile(fullPath, []byte(content), 0644)
		assert.NoError(err, "could not write test file")
	}
}

func setupTestServer(t *testing.T, assert *require.Assertions) (*gin.Engine, *testDeps) {

	t.Setenv("ENV", "test")

	cfg, err := config.Load("")
	assert.NoError(err, "could not load config")

	root := t.TempDir()
	writeTestFiles(assert, root)

	testLogger := newTestLogger()

	kvDB, err := kvdb.New(testLogger, filepath.Join(t.TempDir(), "assets.db"), cfg.GetCacheVersion())
	assert.NoError(err, "could not create asset cache")

	searchDB, err := searchdb.New(testLogger)
	assert.NoError(err, "could not create search database")

	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")

	renderer, err := render.New()
	assert.NoError(err, "could not create renderer")

	fetcher := corpus.NewFetcher(testLogger, root, kvDB)
	index := offline.NewIndex(testLogger, searchDB, fetcher, "search-index.json", cfg.GetOfflineBaseHref())
	index.Build(context.Background())

	lookupService := lookup.New(testLogger, filepath.Join(root, "searchmaps"), cfg.GetLookupSiteRoot(), cfg.GetLookupFallback())
	scanService := scan.New(testLogger, scan.Options{LiteralQuery: cfg.GetScanLiteralQuery()})

	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupScan(router, testLogger, testMounts, fetcher, scanService, renderer, validator)
	SetupOffline(router, testLogger, index, renderer, validator)
	SetupCache(router, testLogger, fetcher, validator)
	SetupLookup(router, testLogger, lookupService, renderer, validator)

	t.Cleanup(func() {
		assert.NoError(searchDB.Close(), "could not close search database")
		assert.NoError(kvDB.Close(), "could not close asset cache")
	})

	return router, &testDeps{
		cfg:       cfg,
		logger:    testLogger,
		fetcher:   fetcher,
		renderer:  renderer,
		validator: validator,
		index:     index,
	}
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]interface{}, queryParams map[string]string) *httptest.ResponseRecorder {

	var err error
	w := httptest.NewRecorder()

	if len(queryParams) > 0 {
		values := url.Values{}
		for key, value := range queryParams {
			values.Set(key, value)
		}
		endpoint = endpoint + "?" + values.Encode()
	}
	var jsonBody []byte
	var req *http.Request
	if requestBodyMap != nil {
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

// decodeData returns the data member of a {data, errors} response.
func decodeData(assert *require.Assertions, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	data, ok := body["data"].(map[string]any)
	assert.True(ok, "response has no data object: %s", w.Body.String())
	return data
}
