package searchdb

import (
	"context"

	"github.com/meghashyamc/apidoxsearch/corpus"
)

type DB interface {
	BuildIndex(documents []corpus.IndexDocument) error
	Search(ctx context.Context, queryString string, limit int) ([]Hit, error)
	GetDocCount() (uint64, error)
	Close() error
}
