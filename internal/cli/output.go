// Package cli formats query results for the modelindex command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/modelindex/internal/indexer"
	"github.com/hyperjump/modelindex/internal/models"
	"github.com/hyperjump/modelindex/pkg/utils"
)

// maxMessageLen caps error messages in text output; JSON keeps them whole.
const maxMessageLen = 200

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a -format flag value. Empty means text.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// IndexSummary describes a finished indexing pass.
type IndexSummary struct {
	PassID     string             `json:"pass_id"`
	Generation uint64             `json:"generation"`
	Files      int                `json:"files"`
	IDs        int                `json:"ids"`
	Stats      indexer.Statistics `json:"stats"`
}

// NewIndexSummary summarizes store.
func NewIndexSummary(store *indexer.Store) *IndexSummary {
	return &IndexSummary{
		PassID:     store.PassID(),
		Generation: store.Generation(),
		Files:      store.Len(),
		IDs:        len(store.IDs()),
		Stats:      store.Stats(),
	}
}

// WriteIndexSummary writes s to w in the given format.
func WriteIndexSummary(w io.Writer, s *IndexSummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "Indexed %d files (%d ids) in %s\n", s.Files, s.IDs, s.Stats.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  indexed: %d  recovered: %d  failed: %d  skipped: %d  cached: %d\n",
		s.Stats.Indexed, s.Stats.Recovered, s.Stats.Failed, s.Stats.Skipped, s.Stats.Cached)
	fmt.Fprintf(w, "  pass: %s (generation %d)\n", s.PassID, s.Generation)
	return nil
}

// RefsReport lists where an id is declared and which elements reference it.
type RefsReport struct {
	ID         string         `json:"id"`
	DeclaredBy []string       `json:"declared_by"`
	References []indexer.Link `json:"references"`
}

// NewRefsReport builds the report for id from store.
func NewRefsReport(store *indexer.Store, id string) *RefsReport {
	return &RefsReport{ID: id, DeclaredBy: store.ResolveID(id), References: store.References(id)}
}

// WriteRefs writes r to w in the given format.
func WriteRefs(w io.Writer, r *RefsReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, r)
	}
	if len(r.DeclaredBy) == 0 {
		fmt.Fprintf(w, "%s: not declared by any indexed file\n", r.ID)
	} else {
		fmt.Fprintf(w, "%s declared by:\n", r.ID)
		for _, uri := range r.DeclaredBy {
			fmt.Fprintf(w, "  %s\n", uri)
		}
	}
	if len(r.References) == 0 {
		fmt.Fprintln(w, "no references")
		return nil
	}
	fmt.Fprintf(w, "%d references:\n", len(r.References))
	for _, l := range r.References {
		writeLink(w, l)
	}
	return nil
}

func writeLink(w io.Writer, l indexer.Link) {
	if l.ElementID != "" {
		fmt.Fprintf(w, "  %s#%s [%s -> %s]\n", l.SourceURI, l.ElementID, l.Type, l.TargetID)
		return
	}
	fmt.Fprintf(w, "  %s [%s -> %s]\n", l.SourceURI, l.Type, l.TargetID)
}

// LintReport collects everything wrong with the indexed project.
type LintReport struct {
	Errors     []models.Failure `json:"errors"`
	Warnings   []models.Failure `json:"warnings"`
	Unresolved []indexer.Link   `json:"unresolved_links"`
}

// NewLintReport builds the report from store.
func NewLintReport(store *indexer.Store) *LintReport {
	return &LintReport{
		Errors:     store.AllErrors(),
		Warnings:   store.Warnings(),
		Unresolved: store.UnresolvedLinks(),
	}
}

// Problems returns the total number of reported problems.
func (r *LintReport) Problems() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Unresolved)
}

// WriteLint writes r to w in the given format.
func WriteLint(w io.Writer, r *LintReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, r)
	}
	if r.Problems() == 0 {
		fmt.Fprintln(w, "No problems found")
		return nil
	}
	for _, f := range r.Errors {
		fmt.Fprintf(w, "error   %s [%s]: %s\n", f.URI, f.Type, utils.Truncate(utils.SingleLine(f.Error), maxMessageLen))
	}
	for _, f := range r.Warnings {
		fmt.Fprintf(w, "warning %s [%s]: %s\n", f.URI, f.Type, utils.Truncate(utils.SingleLine(f.Error), maxMessageLen))
	}
	for _, l := range r.Unresolved {
		fmt.Fprintf(w, "unresolved %s", l.SourceURI)
		if l.ElementID != "" {
			fmt.Fprintf(w, "#%s", l.ElementID)
		}
		fmt.Fprintf(w, ": %s %q not found\n", l.Type, l.TargetID)
	}
	fmt.Fprintf(w, "\n%d errors, %d warnings, %d unresolved links\n", len(r.Errors), len(r.Warnings), len(r.Unresolved))
	return nil
}

// WriteSearch writes r to w in the given format.
func WriteSearch(w io.Writer, r *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, r)
	}
	fmt.Fprintf(w, "Found %d results for %q", r.Total, r.Query)
	if r.AutoFuzzy {
		fmt.Fprint(w, " (fuzzy)")
	}
	fmt.Fprintln(w)
	for _, hit := range r.Results {
		fmt.Fprintf(w, "%2d. [%.4f] %s", hit.Rank, hit.Score, hit.URI)
		if hit.Type != "" {
			fmt.Fprintf(w, " (%s)", hit.Type)
		}
		fmt.Fprintln(w)
		for _, id := range hit.IDs {
			fmt.Fprintf(w, "      id: %s\n", id)
		}
	}
	if len(r.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(r.Suggestions, ", "))
	}
	return nil
}
