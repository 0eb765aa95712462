package corpus

import (
	"encoding/json"
	"fmt"
)

// Shape is one of LibraryCorpus, GroupCorpus or GlobalCorpus. Which one a
// document decodes into is chosen by the caller's scope, never by the JSON.
type Shape interface {
	Scope() Scope
	isShape()
}

// LibraryCorpus is the per-library corpus: {"docfields": [...]}.
type LibraryCorpus struct {
	Fields []Field `json:"docfields"`
}

// GroupCorpus is the group-of-libraries corpus: {"libraries": [...]}.
type GroupCorpus struct {
	Libraries []Library `json:"libraries"`
}

// GlobalCorpus is the product catalog corpus: {"all": [...]}.
type GlobalCorpus struct {
	Products []Product `json:"all"`
}

func (LibraryCorpus) Scope() Scope { return ScopeLibrary }
func (GroupCorpus) Scope() Scope   { return ScopeGroup }
func (GlobalCorpus) Scope() Scope  { return ScopeGlobal }

func (LibraryCorpus) isShape() {}
func (GroupCorpus) isShape()   {}
func (GlobalCorpus) isShape()  {}

func Decode(data []byte, scope Scope) (Shape, error) {
	switch scope {
	case ScopeLibrary:
		var c LibraryCorpus
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to decode library corpus: %w", err)
		}
		return c, nil
	case ScopeGroup:
		var c GroupCorpus
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to decode group corpus: %w", err)
		}
		return c, nil
	case ScopeGlobal:
		var c GlobalCorpus
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to decode global corpus: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown scope %q", scope)
	}
}

func DecodeDocuments(data []byte) ([]IndexDocument, error) {
	var docs []IndexDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode index corpus: %w", err)
	}

	return docs, nil
}
