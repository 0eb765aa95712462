package searchdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/logger"
)

const IndexingBatchSize = 100

const analyzerName = "apidox"

const (
	indexFieldTitle = "title"
	indexFieldBody  = "body"
)

const (
	boostForExactTerm    = 100.0
	boostForWildcardTerm = 10.0
	boostForFuzzyTerm    = 1.0

	fuzzyEditDistance = 2
)

// fieldWeights multiply every term boost; titles count twice as much as bodies.
var fieldWeights = []struct {
	field  string
	weight float64
}{
	{field: indexFieldTitle, weight: 2.0},
	{field: indexFieldBody, weight: 1.0},
}

type BleveDB struct {
	logger logger.Logger
	index  bleve.Index
}

// New creates an empty in-memory index.
func New(logger logger.Logger) (*BleveDB, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		logger.Error("could not create index mapping", "err", err.Error())
		return nil, err
	}

	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		logger.Error("could not create index", "err", err.Error())
		return nil, err
	}
	return &BleveDB{logger: logger, index: index}, nil
}

func (b *BleveDB) BuildIndex(documents []corpus.IndexDocument) error {

	batch := b.index.NewBatch()

	for i, doc := range documents {

		err := batch.Index(doc.Ref, document{Title: doc.Title, Body: doc.Body})
		if err != nil {
			b.logger.Error("could not index document", "ref", doc.Ref, "err", err.Error())
			return err
		}

		// Execute batch when it reaches the batch size
		if (i+1)%IndexingBatchSize == 0 {
			err = b.index.Batch(batch)
			if err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not index document", "err", err.Error())
			return err
		}
	}

	return nil
}

func createIndexMapping() (mapping.IndexMapping, error) {

	indexMapping := bleve.NewIndexMapping()
	err := indexMapping.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}
	indexMapping.DefaultAnalyzer = analyzerName

	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = false

	for _, name := range []string{indexFieldTitle, indexFieldBody} {
		fieldMapping := bleve.NewTextFieldMapping()
		fieldMapping.Analyzer = analyzerName
		fieldMapping.Store = false
		fieldMapping.Index = true
		fieldMapping.IncludeInAll = false
		docMapping.AddFieldMappingsAt(name, fieldMapping)
	}

	indexMapping.DefaultMapping = docMapping

	return indexMapping, nil
}

// Search returns at most limit hits ordered by descending score, ties broken by ref.
func (b *BleveDB) Search(ctx context.Context, queryString string, limit int) ([]Hit, error) {
	terms := b.tokenize(queryString)
	if len(terms) == 0 {
		return []Hit{}, nil
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(terms), limit, 0, false)
	searchRequest.SortBy([]string{"-_score", "_id"})

	searchResult, err := b.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		b.logger.Error("search failed", "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, len(searchResult.Hits))
	for i, hit := range searchResult.Hits {
		hits[i] = Hit{Ref: hit.ID, Score: hit.Score}
	}

	return hits, nil
}

// tokenize runs the lower-cased query through the analyzer used for documents.
func (b *BleveDB) tokenize(queryString string) []string {
	queryString = strings.ToLower(strings.TrimSpace(queryString))
	if queryString == "" {
		return nil
	}

	analyzer := b.index.Mapping().AnalyzerNamed(analyzerName)
	if analyzer == nil {
		b.logger.Error("analyzer not found", "analyzer", analyzerName)
		return strings.Fields(queryString)
	}

	var terms []string
	for _, token := range analyzer.Analyze([]byte(queryString)) {
		terms = append(terms, string(token.Term))
	}

	return terms
}

// buildSearchQuery ORs, per term and field, an exact term, a "*term*" wildcard
// and a fuzzy term query.
func buildSearchQuery(terms []string) query.Query {
	disjunctQuery := bleve.NewDisjunctionQuery()

	for _, term := range terms {
		for _, fw := range fieldWeights {
			exactQuery := bleve.NewTermQuery(term)
			exactQuery.SetField(fw.field)
			exactQuery.SetBoost(boostForExactTerm * fw.weight)
			disjunctQuery.AddQuery(exactQuery)

			wildcardQuery := bleve.NewWildcardQuery("*" + term + "*")
			wildcardQuery.SetField(fw.field)
			wildcardQuery.SetBoost(boostForWildcardTerm * fw.weight)
			disjunctQuery.AddQuery(wildcardQuery)

			fuzzyQuery := bleve.NewFuzzyQuery(term)
			fuzzyQuery.SetField(fw.field)
			fuzzyQuery.SetFuzziness(fuzzyEditDistance)
			fuzzyQuery.SetBoost(boostForFuzzyTerm * fw.weight)
			disjunctQuery.AddQuery(fuzzyQuery)
		}
	}

	return disjunctQuery
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	return b.index.DocCount()
}

func (b *BleveDB) Close() error {

	if b.index != nil {
		if err := b.index.Close(); err != nil {
			b.logger.Error("could not close search index", "err", err.Error())
			return err
		}
	}
	return nil
}
