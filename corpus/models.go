package corpus

import (
	"encoding/json"
	"fmt"
)

type Scope string

const (
	ScopeLibrary Scope = "library"
	ScopeGroup   Scope = "group"
	ScopeGlobal  Scope = "global"
)

func ParseScope(s string) (Scope, error) {
	scope := Scope(s)
	if !scope.Valid() {
		return "", fmt.Errorf("unknown scope %q", s)
	}

	return scope, nil
}

func (s Scope) Valid() bool {
	switch s {
	case ScopeLibrary, ScopeGroup, ScopeGlobal:
		return true
	}
	return false
}

// Field is one documented symbol.
type Field struct {
	Name        string `json:"name"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	LibraryName string `json:"libname,omitempty"`
	ProductName string `json:"productname,omitempty"`

	// set when the JSON entry had no usable name or text
	malformed bool
}

// Searchable reports whether the field takes part in matching. Entries decoded
// without a string name or text are kept but never matched.
func (f Field) Searchable() bool {
	return !f.malformed
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        json.RawMessage `json:"name"`
		Text        json.RawMessage `json:"text"`
		URL         json.RawMessage `json:"url"`
		LibraryName json.RawMessage `json:"libname"`
		ProductName json.RawMessage `json:"productname"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		// not an object: skipped by matching like any other malformed entry
		*f = Field{malformed: true}
		return nil
	}

	name, hasName := optionalString(raw.Name)
	text, hasText := optionalString(raw.Text)
	url, _ := optionalString(raw.URL)
	libraryName, _ := optionalString(raw.LibraryName)
	productName, _ := optionalString(raw.ProductName)

	*f = Field{
		Name:        name,
		Text:        text,
		URL:         url,
		LibraryName: libraryName,
		ProductName: productName,
		malformed:   !hasName || !hasText,
	}

	return nil
}

func optionalString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// null and non-string values count as missing
		return "", false
	}
	return s, true
}

type Library struct {
	DisplayName string  `json:"fancyname"`
	Fields      []Field `json:"docfields"`
}

type Product struct {
	DisplayName string    `json:"fancyname"`
	Libraries   []Library `json:"libraries"`
}

// IndexDocument is one entry of the full-text index corpus.
type IndexDocument struct {
	Ref     string `json:"ref"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Excerpt string `json:"excerpt"`
}

// Mount binds a search page route to a scan corpus and the scope it is read at.
type Mount struct {
	Route  string `mapstructure:"route" json:"route" validate:"valid_route"`
	Scope  Scope  `mapstructure:"scope" json:"scope" validate:"valid_scope"`
	Corpus string `mapstructure:"corpus" json:"corpus" validate:"required"`
}
