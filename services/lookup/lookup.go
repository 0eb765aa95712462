// Package lookup resolves a class name to its documentation page through the
// pre-generated search maps.
package lookup

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meghashyamc/apidoxsearch/logger"
)

// All is the version and module used when a request leaves them out.
const All = "ALL"

type Request struct {
	Version string `form:"version" json:"version"`
	Module  string `form:"module" json:"module"`
	Library string `form:"library" json:"library"`
	Class   string `form:"class" json:"class" validate:"max=256"`
}

// Candidate is one of several pages a class name matched.
type Candidate struct {
	URL        string `json:"url"`
	ClassName  string `json:"class_name"`
	Module     string `json:"module"`
	Project    string `json:"project"`
	ProjectURL string `json:"project_url"`
}

// Result holds either a redirect target or, for ambiguous names, the candidates.
type Result struct {
	Redirect   string      `json:"redirect,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

type Service struct {
	logger   logger.Logger
	mapsDir  string
	siteRoot string
	fallback string
}

func New(logger logger.Logger, mapsDir string, siteRoot string, fallback string) *Service {
	return &Service{
		logger:   logger,
		mapsDir:  mapsDir,
		siteRoot: siteRoot,
		fallback: fallback,
	}
}

func (s *Service) Lookup(req Request) (*Result, error) {
	if req.Class == "" {
		return s.miss(req.Class), nil
	}

	version, module := selectMap(req)
	searchMap, err := s.loadMap(version, module)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("search map not found", "version", version, "module", module)
			return s.miss(req.Class), nil
		}
		s.logger.Error("could not load search map", "version", version, "module", module, "err", err.Error())
		return nil, err
	}

	term := strings.ToLower(req.Class)
	var matches []string
	for pageURL, searchTerm := range searchMap {
		if strings.Contains(searchTerm, term) {
			matches = append(matches, pageURL)
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return s.miss(req.Class), nil
	case 1:
		return &Result{Redirect: matches[0]}, nil
	}

	candidates := make([]Candidate, 0, len(matches))
	for _, pageURL := range matches {
		candidates = append(candidates, s.candidate(pageURL))
	}

	return &Result{Candidates: candidates}, nil
}

func (s *Service) miss(class string) *Result {
	return &Result{Redirect: s.fallback + "?miss=1&class=" + url.QueryEscape(class)}
}

// candidate splits a page URL of the form <site root><collection>-api/<module>-apidocs/<project>/...
func (s *Service) candidate(pageURL string) Candidate {
	file := strings.TrimPrefix(pageURL, s.siteRoot)
	className := strings.NewReplacer("class", "", ".html", "").Replace(path.Base(file))
	className = strings.ReplaceAll(className, "_1_1", "::")

	c := Candidate{URL: pageURL, ClassName: className}

	parts := strings.SplitN(file, "/", 4)
	if len(parts) < 3 {
		return c
	}

	collection := strings.ReplaceAll(parts[0], "-api", "")
	module := strings.ReplaceAll(parts[1], "-apidocs", "")
	c.Module = module + "-" + collection
	c.Project = parts[2]
	c.ProjectURL = s.siteRoot + path.Join(parts[0], parts[1], parts[2], "html", "index.html")

	return c
}

func (s *Service) loadMap(version string, module string) (map[string]string, error) {
	name := fmt.Sprintf("map-%s-%s.json", version, module)
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid search map name %q: %w", name, os.ErrNotExist)
	}

	data, err := os.ReadFile(filepath.Join(s.mapsDir, name))
	if err != nil {
		return nil, err
	}

	var searchMap map[string]string
	if err := json.Unmarshal(data, &searchMap); err != nil {
		return nil, fmt.Errorf("failed to decode search map %s: %w", name, err)
	}

	return searchMap, nil
}

// selectMap applies the defaults; library takes precedence over module.
func selectMap(req Request) (string, string) {
	version := req.Version
	if version == "" {
		version = All
	}

	module := req.Module
	if module == "" {
		module = All
	}
	if req.Library != "" {
		module = req.Library
	}

	return version, module
}
