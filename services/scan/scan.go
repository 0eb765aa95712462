// Package scan matches a query against every field of a structured corpus.
package scan

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/logger"
)

var ErrPattern = errors.New("invalid search pattern")

// PatternError is returned when the query does not compile to a pattern.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid search pattern %q: %s", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

func (e *PatternError) Is(target error) bool {
	return target == ErrPattern
}

type MatchKind int

const (
	NameMatch MatchKind = iota
	TextMatch
)

func (k MatchKind) String() string {
	if k == NameMatch {
		return "name"
	}
	return "text"
}

type Entry struct {
	Field     corpus.Field `json:"field"`
	MatchedOn MatchKind    `json:"-"`
}

// Results keep corpus traversal order. A field may appear in both lists.
type Results struct {
	Query string       `json:"query"`
	Scope corpus.Scope `json:"scope"`
	Names []Entry      `json:"names"`
	Texts []Entry      `json:"texts"`
}

func (r *Results) Empty() bool {
	return len(r.Names) == 0 && len(r.Texts) == 0
}

type Options struct {
	// LiteralQuery quotes regular expression metacharacters in the query.
	// When false the query is used as a raw pattern.
	LiteralQuery bool
}

type Service struct {
	logger  logger.Logger
	options Options
}

func New(logger logger.Logger, options Options) *Service {
	return &Service{
		logger:  logger,
		options: options,
	}
}

func (s *Service) Search(shape corpus.Shape, query string) (*Results, error) {
	pattern, err := s.compile(query)
	if err != nil {
		s.logger.Warn("could not compile search pattern", "query", query, "err", err.Error())
		return nil, err
	}

	results := &Results{
		Query: query,
		Scope: shape.Scope(),
		Names: []Entry{},
		Texts: []Entry{},
	}

	switch c := shape.(type) {
	case corpus.LibraryCorpus:
		collect(results, pattern, c.Fields, func(f corpus.Field) corpus.Field { return f })

	case corpus.GroupCorpus:
		for _, library := range c.Libraries {
			collect(results, pattern, library.Fields, func(f corpus.Field) corpus.Field {
				f.LibraryName = library.DisplayName
				return f
			})
		}

	case corpus.GlobalCorpus:
		for _, product := range c.Products {
			for _, library := range product.Libraries {
				collect(results, pattern, library.Fields, func(f corpus.Field) corpus.Field {
					f.LibraryName = library.DisplayName
					f.ProductName = product.DisplayName
					return f
				})
			}
		}

	default:
		return nil, fmt.Errorf("unsupported corpus shape %T", shape)
	}

	s.logger.Debug("scan search finished", "scope", string(results.Scope), "query", query, "name_matches", len(results.Names), "text_matches", len(results.Texts))
	return results, nil
}

func (s *Service) compile(query string) (*regexp.Regexp, error) {
	source := query
	if s.options.LiteralQuery {
		source = regexp.QuoteMeta(query)
	}

	pattern, err := regexp.Compile("(?i)" + source)
	if err != nil {
		return nil, &PatternError{Pattern: query, Err: err}
	}

	return pattern, nil
}

// collect appends the searchable fields matching pattern. stamp receives a copy
// of each matched field, so the corpus itself is never modified.
func collect(results *Results, pattern *regexp.Regexp, fields []corpus.Field, stamp func(corpus.Field) corpus.Field) {
	for _, field := range fields {
		if !field.Searchable() {
			continue
		}

		if pattern.MatchString(field.Name) {
			results.Names = append(results.Names, Entry{Field: stamp(field), MatchedOn: NameMatch})
		}
		if pattern.MatchString(field.Text) {
			results.Texts = append(results.Texts, Entry{Field: stamp(field), MatchedOn: TextMatch})
		}
	}
}
