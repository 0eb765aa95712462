package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/meghashyamc/apidoxsearch/config"
	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/meghashyamc/apidoxsearch/db/searchdb"
	"github.com/meghashyamc/apidoxsearch/logger"
	"github.com/meghashyamc/apidoxsearch/query"
	"github.com/meghashyamc/apidoxsearch/services/offline"
	"github.com/meghashyamc/apidoxsearch/services/scan"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	corpus   string
	scope    string
	index    string
	root     string
	literal  bool
	format   string // "text", "json"
	logLevel string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a corpus from the terminal",
		Long: `Search a scan corpus, or with --index the full-text index corpus.

Examples:
  apidoxsearch search --corpus frameworks/kcoreaddons/html/searchdata.json KJob
  apidoxsearch search --corpus https://api.kde.org/searchdata.json --scope global "Q.*List"
  apidoxsearch search --index search-index.json --format json widget`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd.OutOrStdout(), q, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.corpus, "corpus", "c", "", "Scan corpus path or URL")
	cmd.Flags().StringVarP(&opts.scope, "scope", "s", string(corpus.ScopeLibrary), "Corpus scope: library, group, global")
	cmd.Flags().StringVarP(&opts.index, "index", "i", "", "Full-text index corpus path or URL")
	cmd.Flags().StringVar(&opts.root, "docs-root", "", "Directory relative paths are resolved against (default docs.root)")
	cmd.Flags().BoolVar(&opts.literal, "literal", false, "Match the query literally instead of as a pattern")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "error", "Log level for diagnostics on stderr")

	return cmd
}

func runSearch(ctx context.Context, out io.Writer, q string, opts searchOptions) error {
	if (opts.corpus == "") == (opts.index == "") {
		return fmt.Errorf("exactly one of --corpus or --index is required")
	}

	root := opts.root
	if root == "" {
		cfg, err := config.Load(env)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		root = cfg.GetDocsRoot()
	}

	log := logger.New(opts.logLevel)
	fetcher := corpus.NewFetcher(log, root, nil)

	if opts.index != "" {
		return runIndexSearch(ctx, out, log, fetcher, q, opts)
	}
	return runScanSearch(ctx, out, log, fetcher, q, opts)
}

func runScanSearch(ctx context.Context, out io.Writer, log logger.Logger, fetcher *corpus.Fetcher, q string, opts searchOptions) error {
	scope, err := corpus.ParseScope(opts.scope)
	if err != nil {
		return err
	}

	shape, err := fetcher.FetchShape(ctx, opts.corpus, scope)
	if err != nil {
		return err
	}

	results, err := scan.New(log, scan.Options{LiteralQuery: opts.literal}).Search(shape, query.Escape(q))
	if err != nil {
		return err
	}

	if opts.format == "json" {
		return writeJSON(out, results)
	}

	writeEntries(out, "Matches in names", results.Names)
	fmt.Fprintln(out)
	writeEntries(out, "Matches in text", results.Texts)
	return nil
}

func runIndexSearch(ctx context.Context, out io.Writer, log logger.Logger, fetcher *corpus.Fetcher, q string, opts searchOptions) error {
	searchDB, err := searchdb.New(log)
	if err != nil {
		return err
	}
	defer searchDB.Close()

	index := offline.NewIndex(log, searchDB, fetcher, opts.index, "/")
	index.Build(ctx)

	results, err := index.Query(ctx, q)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		return writeJSON(out, results)
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Search results (%d)", len(results))))
	if len(results) == 0 {
		fmt.Fprintln(out, noDataStyle.Render(fmt.Sprintf("No results found for query %q", q)))
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(out, "%s  %s\n", nameStyle.Render(r.Title), metaStyle.Render(r.Href))
		if r.Excerpt != "" {
			fmt.Fprintf(out, "    %s\n", r.Excerpt)
		}
	}
	return nil
}

func writeEntries(out io.Writer, heading string, entries []scan.Entry) {
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%s (%d)", heading, len(entries))))
	if len(entries) == 0 {
		fmt.Fprintln(out, noDataStyle.Render("  none"))
		return
	}

	for _, entry := range entries {
		field := entry.Field
		line := fmt.Sprintf("  %s: %s", nameStyle.Render(field.Name), field.Text)
		if from := origin(field); from != "" {
			line += " " + metaStyle.Render("("+from+")")
		}
		fmt.Fprintln(out, line)
		if field.URL != "" {
			fmt.Fprintf(out, "    %s\n", metaStyle.Render(field.URL))
		}
	}
}

func origin(field corpus.Field) string {
	switch {
	case field.ProductName != "":
		return field.ProductName + " / " + field.LibraryName
	case field.LibraryName != "":
		return field.LibraryName
	}
	return ""
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
