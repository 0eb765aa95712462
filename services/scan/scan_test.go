package scan

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, data string, scope corpus.Scope) corpus.Shape {
	shape, err := corpus.Decode([]byte(data), scope)
	require.NoError(t, err)
	return shape
}

func names(entries []Entry) []string {
	var out []string
	for _, entry := range entries {
		out = append(out, entry.Field.Name)
	}
	return out
}

func TestLibraryScopeScenario(t *testing.T) {
	assert := require.New(t)
	service := New(logger.Discard(), Options{})
	shape := mustDecode(t, `{"docfields":[{"name":"QString","text":"a string class","url":"qstring.html"}]}`, corpus.ScopeLibrary)

	results, err := service.Search(shape, "string")
	assert.NoError(err)

	// "QString" contains "String", case-insensitively
	assert.Len(results.Names, 1)
	assert.Len(results.Texts, 1)
	assert.Equal("QString", results.Texts[0].Field.Name)
	assert.Equal("qstring.html", results.Texts[0].Field.URL)
	assert.Equal(TextMatch, results.Texts[0].MatchedOn)
	assert.Empty(results.Texts[0].Field.LibraryName)
}

func TestLibraryScopeTextOnlyScenario(t *testing.T) {
	assert := require.New(t)
	service := New(logger.Discard(), Options{})
	shape := mustDecode(t, `{"docfields":[{"name":"QString","text":"a string class","url":"qstring.html"}]}`, corpus.ScopeLibrary)

	results, err := service.Search(shape, "class")
	assert.NoError(err)
	assert.Empty(results.Names)
	assert.Len(results.Texts, 1)
	assert.Equal("QString", results.Texts[0].Field.Name)
	assert.Equal("qstring.html", results.Texts[0].Field.URL)
}

func TestGlobalScopeScenario(t *testing.T) {
	assert := require.New(t)
	service := New(logger.Discard(), Options{})
	shape := mustDecode(t, `{"all":[{"fancyname":"Frameworks","libraries":[
		{"fancyname":"KCoreAddons","docfields":[{"name":"KJob","text":"base class for asynchronous work","url":"kjob.html"}]}
	]}]}`, corpus.ScopeGlobal)

	results, err := service.Search(shape, "kjob")
	assert.NoError(err)
	assert.Len(results.Names, 1)
	assert.Empty(results.Texts)

	field := results.Names[0].Field
	assert.Equal("KJob", field.Name)
	assert.Equal("kjob.html", field.URL)
	assert.Equal("KCoreAddons", field.LibraryName)
	assert.Equal("Frameworks", field.ProductName)
	assert.Equal(corpus.ScopeGlobal, results.Scope)
}

func TestGroupScopeStampsLibraryOnly(t *testing.T) {
	assert := require.New(t)
	service := New(logger.Discard(), Options{})
	shape := mustDecode(t, `{"libraries":[
		{"fancyname":"KIO","docfields":[{"name":"Job","text":"KIO job","url":"kio/job.html"}]},
		{"fancyname":"KCoreAddons","docfields":[{"name":"Job","text":"generic job","url":"kcoreaddons/job.html"}]}
	]}`, corpus.ScopeGroup)

	results, err := service.Search(shape, "^job$")
	assert.NoError(err)
	assert.Len(results.Names, 2)
	assert.Equal("KIO", results.Names[0].Field.LibraryName)
	assert.Equal("KCoreAddons", results.Names[1].Field.LibraryName)
	assert.Empty(results.Names[0].Field.ProductName)
	assert.Empty(results.Names[1].Field.ProductName)

	group := shape.(corpus.GroupCorpus)
	assert.Empty(group.Libraries[0].Fields[0].LibraryName, "the corpus must not be modified")
}

func TestTraversalOrder(t *testing.T) {
	assert := require.New(t)
	service := New(logger.Discard(), Options{})
	shape := mustDecode(t, `{"all":[
		{"fancyname":"Frameworks","libraries":[
			{"fancyname":"A","docfields":[{"name":"Widget3","text":"","url":"a3"},{"name":"Widget1","text":"","url":"a1"}]},
			{"fancyname":"B","docfields":[{"name":"Widget2","text":"","url":"b2"}]}
		]},
		{"fancyname":"Plasma","libraries":[
			{"fancyname":"C","docfields":[{"name":"Widget0","text":"","url":"c0"}]}
		]}
	]}`, corpus.ScopeGlobal)

	results, err := service.Search(shape, "widget")
	assert.NoError(err)
	assert.Equal([]string{"Widget3", "Widget1", "Widget2", "Widget0"}, names(results.Names))
	assert.Equal("Plasma", results.Names[3].Field.ProductName)
}

func TestMalformedFieldsAreSkipped(t *testing.T) {
	assert := require.New(t)
	service := New(logger.Discard(), Options{})
	shape := mustDecode(t, `{"docfields":[
		{"name":"KJob","url":"kjob.html"},
		{"text":"KJob text","url":"x.html"},
		{"name":"KJobTracker","text":"tracks jobs","url":"tracker.html"}
	]}`, corpus.ScopeLibrary)

	results, err := service.Search(shape, "kjob")
	assert.NoError(err)
	assert.Equal([]string{"KJobTracker"}, names(results.Names))
	assert.Empty(results.Texts)
}

func TestNameAndTextMatchIndependently(t *testing.T) {
	assert := require.New(t)
	service := New(logger.Discard(), Options{})
	fields := []corpus.Field{
		{Name: "KJob", Text: "no match here", URL: "1"},
		{Name: "Other", Text: "uses a KJob", URL: "2"},
		{Name: "KJobs", Text: "many kjob instances", URL: "3"},
		{Name: "Nothing", Text: "at all", URL: "4"},
	}
	shape := corpus.LibraryCorpus{Fields: fields}

	for _, query := range []string{"kjob", "job", "K", "o", "z"} {
		results, err := service.Search(shape, query)
		assert.NoError(err)

		pattern := regexp.MustCompile("(?i)" + query)
		var expectedNames, expectedTexts []string
		for _, field := range fields {
			if pattern.MatchString(field.Name) {
				expectedNames = append(expectedNames, field.Name)
			}
			if pattern.MatchString(field.Text) {
				expectedTexts = append(expectedTexts, field.Name)
			}
		}
		assert.Equal(expectedNames, names(results.Names), query)
		assert.Equal(expectedTexts, names(results.Texts), query)
	}
}

func TestInvalidPatternFailsSearch(t *testing.T) {
	assert := require.New(t)
	service := New(logger.Discard(), Options{})
	shape := corpus.LibraryCorpus{Fields: []corpus.Field{{Name: "operator()", Text: "call", URL: "x"}}}

	_, err := service.Search(shape, "operator(")
	assert.True(errors.Is(err, ErrPattern))

	var patternErr *PatternError
	assert.True(errors.As(err, &patternErr))
	assert.Equal("operator(", patternErr.Pattern)
}

func TestRawPatternSyntax(t *testing.T) {
	assert := require.New(t)
	service := New(logger.Discard(), Options{})
	shape := corpus.LibraryCorpus{Fields: []corpus.Field{
		{Name: "KJob", Text: "", URL: "1"},
		{Name: "KJobTracker", Text: "", URL: "2"},
	}}

	results, err := service.Search(shape, "job$")
	assert.NoError(err)
	assert.Equal([]string{"KJob"}, names(results.Names))
}

func TestLiteralQueryOption(t *testing.T) {
	assert := require.New(t)
	service := New(logger.Discard(), Options{LiteralQuery: true})
	shape := corpus.LibraryCorpus{Fields: []corpus.Field{
		{Name: "operator()", Text: "call operator", URL: "1"},
		{Name: "KJob", Text: "", URL: "2"},
	}}

	results, err := service.Search(shape, "OPERATOR(")
	assert.NoError(err)
	assert.Equal([]string{"operator()"}, names(results.Names))

	results, err = service.Search(shape, "job$")
	assert.NoError(err)
	assert.True(results.Empty())
}

func TestLargeCorpus(t *testing.T) {
	assert := require.New(t)
	service := New(logger.Discard(), Options{})
	var fields []corpus.Field
	for i := 0; i < 1000; i++ {
		fields = append(fields, corpus.Field{Name: "Class" + strings.Repeat("x", i%5), Text: "text", URL: "u"})
	}

	results, err := service.Search(corpus.LibraryCorpus{Fields: fields}, "xxxx")
	assert.NoError(err)
	assert.Len(results.Names, 200)
}
