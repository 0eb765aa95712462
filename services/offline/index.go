// Package offline serves the full-text popover search: an index built once per
// process and one Session per page session.
package offline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/db/searchdb"
	"github.com/meghashyamc/apidoxsearch/logger"
)

// ResultLimit is the maximum number of results a query returns.
const ResultLimit = 10

var ErrNotReady = errors.New("offline search index is not ready")

// DocumentSource loads the index corpus.
type DocumentSource interface {
	FetchDocuments(ctx context.Context, location string) ([]corpus.IndexDocument, error)
}

type Result struct {
	Ref     string  `json:"ref"`
	Title   string  `json:"title"`
	Excerpt string  `json:"excerpt"`
	Href    string  `json:"href"`
	Score   float64 `json:"score"`
}

type entry struct {
	title   string
	excerpt string
}

type Index struct {
	logger   logger.Logger
	db       searchdb.DB
	source   DocumentSource
	location string
	baseHref string

	once    sync.Once
	ready   chan struct{}
	entries map[string]entry
	count   int
}

func NewIndex(logger logger.Logger, db searchdb.DB, source DocumentSource, location string, baseHref string) *Index {
	return &Index{
		logger:   logger,
		db:       db,
		source:   source,
		location: location,
		baseHref: baseHref,
		ready:    make(chan struct{}),
		entries:  map[string]entry{},
	}
}

// Build fetches the corpus and indexes it. Only the first call does any work;
// later calls return immediately. A corpus that cannot be fetched yields an
// empty index, which still becomes ready.
func (i *Index) Build(ctx context.Context) {
	i.once.Do(func() {
		defer close(i.ready)

		if i.location == "" {
			i.logger.Info("no offline search corpus configured, index will be empty")
			return
		}

		docs, err := i.source.FetchDocuments(ctx, i.location)
		if err != nil {
			i.logger.Error("could not load offline search corpus, index will be empty", "location", i.location, "err", err.Error())
			return
		}

		if err := i.db.BuildIndex(docs); err != nil {
			i.logger.Error("could not build offline search index", "err", err.Error())
			return
		}

		for _, doc := range docs {
			i.entries[doc.Ref] = entry{title: doc.Title, excerpt: doc.Excerpt}
		}
		i.count = len(docs)

		i.logger.Info("offline search index built", "location", i.location, "documents", i.count)
	})
}

// Ready is closed once Build has finished.
func (i *Index) Ready() <-chan struct{} {
	return i.ready
}

func (i *Index) IsReady() bool {
	select {
	case <-i.ready:
		return true
	default:
		return false
	}
}

// Wait blocks until the index is ready or ctx is done.
func (i *Index) Wait(ctx context.Context) error {
	select {
	case <-i.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DocumentCount is the number of indexed documents, 0 until the index is ready.
func (i *Index) DocumentCount() int {
	if !i.IsReady() {
		return 0
	}
	return i.count
}

// Query returns up to ResultLimit results for q, best first.
func (i *Index) Query(ctx context.Context, q string) ([]Result, error) {
	if !i.IsReady() {
		return nil, ErrNotReady
	}

	hits, err := i.db.Search(ctx, q, ResultLimit)
	if err != nil {
		i.logger.Error("offline search failed", "query", q, "err", err.Error())
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		e := i.entries[hit.Ref]
		results = append(results, Result{
			Ref:     hit.Ref,
			Title:   e.title,
			Excerpt: e.excerpt,
			Href:    i.href(hit.Ref),
			Score:   hit.Score,
		})
	}

	return results, nil
}

// href appends ref to the base href after dropping one leading "/" from ref.
// The base is used verbatim, so an empty base yields a relative link.
func (i *Index) href(ref string) string {
	return i.baseHref + strings.TrimPrefix(ref, "/")
}
