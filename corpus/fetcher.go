package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/meghashyamc/apidoxsearch/db/kvdb"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/meghashyamc/apidoxsearch/metrics"
)

// maxAssetSize caps every fetched body, compressed or not.
const maxAssetSize = 32 << 20

// AssetCache is the cache consulted before any network or disk access.
type AssetCache interface {
	Get(key string) (string, error)
	Set(key string, value string) error
}

// Fetcher retrieves corpora from http(s) URLs or from files below the
// documentation root. Requests carry no timeout and are never retried.
type Fetcher struct {
	client  *http.Client
	root    string
	cache   AssetCache
	origins map[string]bool
	logger  logger.Logger
}

// NewFetcher creates a fetcher. cache may be nil.
func NewFetcher(logger logger.Logger, root string, cache AssetCache) *Fetcher {
	return &Fetcher{
		client: &http.Client{},
		root:   root,
		cache:   cache,
		origins: map[string]bool{},
		logger:  logger,
	}
}

// AllowOrigins lists the http(s) origins whose pages ConsiderCaching may fetch.
// Call it before the fetcher is shared.
func (f *Fetcher) AllowOrigins(origins ...string) {
	for _, origin := range origins {
		if key, ok := originOf(origin); ok {
			f.origins[key] = true
		}
	}
}

func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, &TransportError{Location: location, Err: errors.New("empty location")}
	}

	if cached, ok := f.fromCache(location); ok {
		return cached, nil
	}

	var body []byte
	var err error
	if isRemote(location) {
		body, err = f.fetchRemote(ctx, location)
	} else {
		body, err = f.fetchLocal(location)
	}
	if err != nil {
		f.logger.Error("failed to fetch corpus", "location", location, "err", err.Error())
		return nil, err
	}

	f.toCache(location, body)

	return body, nil
}

func (f *Fetcher) FetchShape(ctx context.Context, location string, scope Scope) (Shape, error) {
	body, err := f.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	shape, err := Decode(body, scope)
	if err != nil {
		f.logger.Error("failed to decode corpus", "location", location, "scope", string(scope), "err", err.Error())
		return nil, &TransportError{Location: location, Err: err}
	}

	return shape, nil
}

func (f *Fetcher) FetchDocuments(ctx context.Context, location string) ([]IndexDocument, error) {
	body, err := f.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	docs, err := DecodeDocuments(body)
	if err != nil {
		f.logger.Error("failed to decode index corpus", "location", location, "err", err.Error())
		return nil, &TransportError{Location: location, Err: err}
	}

	return docs, nil
}

// ConsiderCaching caches the documentation tree root of a page URL, i.e. the part
// before "/html/". URLs without "/html/" are ignored and report false. The root
// must belong to an allowed origin or be a path inside the documentation root,
// otherwise ErrNotCacheable is returned.
func (f *Fetcher) ConsiderCaching(ctx context.Context, url string) (bool, error) {
	if !strings.Contains(url, "/html/") {
		return false, nil
	}
	toCache := strings.SplitN(url, "/html/", 2)[0]
	if toCache == "" {
		return false, nil
	}

	if !f.cacheable(toCache) {
		f.logger.Warn("refusing to cache documentation tree", "location", toCache)
		return false, ErrNotCacheable
	}

	if _, err := f.Fetch(ctx, toCache); err != nil {
		return false, err
	}

	return true, nil
}

func (f *Fetcher) cacheable(location string) bool {
	if isRemote(location) {
		key, ok := originOf(location)
		return ok && f.origins[key]
	}

	if f.root == "" || !strings.HasPrefix(location, "/") || strings.Contains(location, ":") {
		return false
	}
	_, err := f.localPath(location)
	return err == nil
}

// originOf returns the lower-cased scheme://host of an http(s) URL.
func originOf(location string) (string, bool) {
	u, err := neturl.Parse(location)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}

	return strings.ToLower(u.Scheme + "://" + u.Host), true
}

// Precache warms the cache with locations. Failures are logged and skipped.
func (f *Fetcher) Precache(ctx context.Context, locations []string) int {
	cached := 0
	for _, location := range locations {
		if ctx.Err() != nil {
			break
		}
		if _, err := f.Fetch(ctx, location); err != nil {
			f.logger.Warn("failed to precache asset", "location", location, "err", err.Error())
			continue
		}
		cached++
	}

	return cached
}

func (f *Fetcher) fromCache(location string) ([]byte, bool) {
	if f.cache == nil {
		return nil, false
	}

	value, err := f.cache.Get(location)
	if err != nil {
		if !errors.Is(err, kvdb.ErrNotFound) {
			f.logger.Warn("asset cache lookup failed", "location", location, "err", err.Error())
		}
		metrics.AssetCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.AssetCacheTotal.WithLabelValues("hit").Inc()
	return []byte(value), true
}

func (f *Fetcher) toCache(location string, body []byte) {
	if f.cache == nil {
		return
	}

	if err := f.cache.Set(location, string(body)); err != nil {
		f.logger.Warn("failed to store asset in cache", "location", location, "err", err.Error())
	}
}

func (f *Fetcher) fetchRemote(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &TransportError{Location: location, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{Location: location, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &TransportError{
			Location:   location,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, &TransportError{Location: location, Err: err}
	}
	if len(body) > maxAssetSize {
		return nil, &TransportError{Location: location, Err: ErrTooLarge}
	}

	body, err = decompress(location, resp.Header.Get("Content-Encoding"), body)
	if err != nil {
		return nil, &TransportError{Location: location, Err: err}
	}

	return body, nil
}

func (f *Fetcher) fetchLocal(location string) ([]byte, error) {
	path, err := f.localPath(location)
	if err != nil {
		return nil, &TransportError{Location: location, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &TransportError{Location: location, Err: err}
	}
	if info.Size() > maxAssetSize {
		return nil, &TransportError{Location: location, Err: ErrTooLarge}
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, &TransportError{Location: location, Err: err}
	}

	body, err = decompress(location, "", body)
	if err != nil {
		return nil, &TransportError{Location: location, Err: err}
	}

	return body, nil
}

// localPath resolves location below the documentation root and rejects paths
// that leave it. Without a root the location is used as given.
func (f *Fetcher) localPath(location string) (string, error) {
	if f.root == "" {
		return location, nil
	}

	path := filepath.Join(f.root, filepath.FromSlash(strings.TrimPrefix(location, "/")))
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}

	return path, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func decompress(location string, encoding string, body []byte) ([]byte, error) {
	switch {
	case encoding == "zstd" || strings.HasSuffix(location, ".zst"):
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer decoder.Close()

		out, err := decoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decode zstd body: %w", err)
		}
		return out, nil

	case encoding == "gzip" || strings.HasSuffix(location, ".gz"):
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}
		defer reader.Close()

		out, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to decode gzip body: %w", err)
		}
		return out, nil
	}

	return body, nil
}
