package render

// scanPageTemplate is the result page of a scan search. .Query is already
// HTML-escaped and is written as is.
const scanPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Search results</title>
</head>
<body>
  <form class="search-form" method="get">
    <input type="text" id="search-input" name="query" value="{{.Query}}" autocomplete="off">
  </form>
  <h1 id="search-title">Search results for "<i>{{.Query}}</i>"</h1>
  <div id="results" data-state="{{.State}}" data-scope="{{.Scope}}">
{{- if eq .State "empty"}}
    <p class="search-nothing">Nothing to search</p>
{{- else if eq .State "loading"}}
    <p class="search-loading">Loading search results...</p>
{{- else}}
    <h2>Matches in names</h2>
    <ul class="search-names">
{{- range .Names}}
      {{template "entry" .}}
{{- end}}
    </ul>
    <h2>Matches in text</h2>
    <ul class="search-texts">
{{- range .Texts}}
      {{template "entry" .}}
{{- end}}
    </ul>
{{- end}}
  </div>
</body>
</html>
{{define "entry"}}<li{{if .Field.LibraryName}} data-libname="{{.Field.LibraryName}}"{{end}}{{if .Field.ProductName}} data-productname="{{.Field.ProductName}}"{{end}}><a href="{{.Field.URL}}">{{.Field.Name}}</a>: {{.Field.Text}}
{{- if .Field.ProductName}} <span class="search-origin">({{.Field.ProductName}} / {{.Field.LibraryName}})</span>
{{- else if .Field.LibraryName}} <span class="search-origin">({{.Field.LibraryName}})</span>
{{- end}}</li>{{end}}`

// popoverTemplate is the body of the offline search popover.
const popoverTemplate = `<div class="offline-search-result">
  <div style="display: flex; justify-content: space-between; margin-bottom: 1em">
    <span style="font-weight: bold">Search results</span>
    <i class="fas fa-times search-result-close-button" style="cursor: pointer"></i>
  </div>
  <div class="search-result-body" style="max-height: {{.MaxHeight}}; overflow-y: auto">
{{- if not .Results}}
    <p>No results found for query "{{.Query}}"</p>
{{- else}}
{{- range .Results}}
    <div class="card">
      <div class="card-header"><a href="{{.Href}}">{{.Title}}</a></div>
      <div class="card-body"><p class="card-text text-muted">{{.Excerpt}}</p></div>
    </div>
{{- end}}
{{- end}}
  </div>
</div>`

// lookupPageTemplate lists the pages an ambiguous class name matched.
const lookupPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>APIDOX Search Results</title>
</head>
<body>
  <h2>{{len .Candidates}} results found</h2>
  <ul>
{{- range .Candidates}}
    <li><a href="{{.URL}}">{{.ClassName}}</a>{{if .Module}} in module {{.Module}}{{end}}{{if .Project}}, project <a href="{{.ProjectURL}}">{{.Project}}</a>{{end}}</li>
{{- end}}
  </ul>
</body>
</html>`
