package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheHandler(t *testing.T) {
	assert := require.New(t)
	router, deps := setupTestServer(t, assert)

	var hits atomic.Int32
	docs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("<html>documentation root</html>"))
	}))
	t.Cleanup(docs.Close)
	deps.fetcher.AllowOrigins(docs.URL)

	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		_, _ = w.Write([]byte("credentials"))
	}))
	t.Cleanup(internal.Close)

	testCases := []struct {
		name           string
		requestBody    map[string]any
		expectedStatus int
		expectedCached any
		expectedErrors []any
	}{
		{
			name:           "CachesTreeRoot",
			requestBody:    map[string]any{"type": "CONSIDER_CACHING", "url": docs.URL + "/frameworks/html/index.html"},
			expectedStatus: http.StatusOK,
			expectedCached: true,
		},
		{
			name:           "IgnoresPagesOutsideHTMLTree",
			requestBody:    map[string]any{"type": "CONSIDER_CACHING", "url": docs.URL + "/frameworks/index.html"},
			expectedStatus: http.StatusOK,
			expectedCached: false,
		},
		{
			name:           "UnknownMessageType",
			requestBody:    map[string]any{"type": "SKIP_WAITING", "url": docs.URL + "/frameworks/html/index.html"},
			expectedStatus: http.StatusNotAcceptable,
		},
		{
			name:           "MissingURL",
			requestBody:    map[string]any{"type": "CONSIDER_CACHING"},
			expectedStatus: http.StatusNotAcceptable,
		},
		{
			name:           "WrongFieldType",
			requestBody:    map[string]any{"type": 1},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "TreeRootMissing",
			requestBody:    map[string]any{"type": "CONSIDER_CACHING", "url": docs.URL + "/gone/html/index.html"},
			expectedStatus: http.StatusBadGateway,
			expectedErrors: []any{"could not cache documentation tree"},
		},
		{
			name:           "UnlistedOrigin",
			requestBody:    map[string]any{"type": "CONSIDER_CACHING", "url": internal.URL + "/latest/meta-data/html/x"},
			expectedStatus: http.StatusForbidden,
			expectedErrors: []any{"url may not be cached"},
		},
		{
			name:           "OpaqueSchemeTraversal",
			requestBody:    map[string]any{"type": "CONSIDER_CACHING", "url": "a:../../../secret.txt/html/x"},
			expectedStatus: http.StatusForbidden,
			expectedErrors: []any{"url may not be cached"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			w := makeTestHTTPRequest(router, assert, http.MethodPost, "/cache", defaultTestRequestHeaders, tc.requestBody, nil)
			assert.Equal(tc.expectedStatus, w.Code, w.Body.String())
			if tc.expectedCached != nil {
				assert.Equal(tc.expectedCached, decodeData(assert, w)["cached"])
			}
			if tc.expectedErrors != nil {
				var body map[string]any
				assert.NoError(json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(tc.expectedErrors, body["errors"])
			}
		})
	}

	// the tree root is served from the cache from now on
	before := hits.Load()
	w := makeTestHTTPRequest(router, assert, http.MethodPost, "/cache", defaultTestRequestHeaders, map[string]any{"type": "CONSIDER_CACHING", "url": docs.URL + "/frameworks/html/kjob.html"}, nil)
	assert.Equal(http.StatusOK, w.Code)
	assert.Equal(before, hits.Load())
	assert.Equal(int32(0), internalHits.Load())
}
