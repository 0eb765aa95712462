// Package render turns search results into HTML.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/services/lookup"
	"github.com/meghashyamc/apidoxsearch/services/offline"
	"github.com/meghashyamc/apidoxsearch/services/scan"
)

// popoverBottomMargin is the room, in pixels, kept below the popover body.
const popoverBottomMargin = 180

type PageState string

const (
	StateEmpty   PageState = "empty"
	StateLoading PageState = "loading"
	StateResults PageState = "results"
)

type scanPage struct {
	Query template.HTML
	State PageState
	Scope corpus.Scope
	Names []scan.Entry
	Texts []scan.Entry
}

type popover struct {
	Query     string
	MaxHeight template.CSS
	Results   []offline.Result
}

type lookupPage struct {
	Candidates []lookup.Candidate
}

type Renderer struct {
	scanPage   *template.Template
	popover    *template.Template
	lookupPage *template.Template
}

func New() (*Renderer, error) {
	scanTmpl, err := template.New("scan").Parse(scanPageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scan page template: %w", err)
	}

	popoverTmpl, err := template.New("popover").Parse(popoverTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse popover template: %w", err)
	}

	lookupTmpl, err := template.New("lookup").Parse(lookupPageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lookup page template: %w", err)
	}

	return &Renderer{
		scanPage:   scanTmpl,
		popover:    popoverTmpl,
		lookupPage: lookupTmpl,
	}, nil
}

// ScanResults writes the result page. escapedQuery must already be HTML-escaped.
func (r *Renderer) ScanResults(w io.Writer, escapedQuery string, results *scan.Results) error {
	return r.scanPage.Execute(w, scanPage{
		Query: template.HTML(escapedQuery),
		State: StateResults,
		Scope: results.Scope,
		Names: results.Names,
		Texts: results.Texts,
	})
}

// NothingToSearch writes the page shown for a blank query.
func (r *Renderer) NothingToSearch(w io.Writer, escapedQuery string) error {
	return r.scanPage.Execute(w, scanPage{
		Query: template.HTML(escapedQuery),
		State: StateEmpty,
	})
}

// Loading writes a page whose result list never got filled in.
func (r *Renderer) Loading(w io.Writer, escapedQuery string, scope corpus.Scope) error {
	return r.scanPage.Execute(w, scanPage{
		Query: template.HTML(escapedQuery),
		State: StateLoading,
		Scope: scope,
	})
}

// Popover writes the popover body for results of the raw query q.
func (r *Renderer) Popover(w io.Writer, q string, anchor offline.Anchor, results []offline.Result) error {
	return r.popover.Execute(w, popover{
		Query:     q,
		MaxHeight: PopoverMaxHeight(anchor),
		Results:   results,
	})
}

func (r *Renderer) PopoverString(q string, anchor offline.Anchor, results []offline.Result) (string, error) {
	var buf bytes.Buffer
	if err := r.Popover(&buf, q, anchor, results); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) Candidates(w io.Writer, candidates []lookup.Candidate) error {
	return r.lookupPage.Execute(w, lookupPage{Candidates: candidates})
}

// PopoverMaxHeight keeps the popover body inside the viewport below its anchor.
func PopoverMaxHeight(anchor offline.Anchor) template.CSS {
	offset := anchor.Top - anchor.ScrollTop + popoverBottomMargin
	return template.CSS("calc(100vh - " + strconv.FormatFloat(offset, 'f', -1, 64) + "px)")
}
