// Package store is the single source of truth for indexed documentation.
// It persists documents in one SQLite database: an FTS5 virtual table for
// BM25 full-text search plus a metadata table keyed by URI, updated
// together in one transaction so a reader never sees a partially
// indexed document.
package store

import (
	"strings"
	"time"

	"github.com/Aman-CERP/appledocs-mcp/internal/availability"
	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
)

// Source identifies the corpus a document came from.
type Source string

const (
	SourceAppleDocs      Source = "apple-docs"
	SourceAppleArchive   Source = "apple-archive"
	SourceHIG            Source = "hig"
	SourceSwiftEvolution Source = "swift-evolution"
	SourceSwiftOrg       Source = "swift-org"
	SourceSwiftBook      Source = "swift-book"
	SourcePackages       Source = "packages"
	SourceSamples        Source = "samples"
)

// knownSources is the set of valid document sources.
var knownSources = map[Source]struct{}{
	SourceAppleDocs:      {},
	SourceAppleArchive:   {},
	SourceHIG:            {},
	SourceSwiftEvolution: {},
	SourceSwiftOrg:       {},
	SourceSwiftBook:      {},
	SourcePackages:       {},
	SourceSamples:        {},
}

// Kind classifies a document for ranking purposes.
type Kind string

const (
	KindDocumentation Kind = "documentation"
	KindReference     Kind = "reference"
	KindSample        Kind = "sample"
	KindReleaseNotes  Kind = "release-notes"
	KindTutorial      Kind = "tutorial"
	KindUnknown       Kind = "unknown"
)

// Document is one indexed, searchable unit with a unique URI.
// Once indexed it is immutable; re-indexing the same URI replaces every
// field atomically.
type Document struct {
	URI              string
	Source           Source
	Framework        string
	Title            string
	Content          string
	Summary          string // derived at index time
	SummaryTruncated bool   // derived at index time
	FilePath         string
	ContentHash      string // derived at index time (xxhash64 hex)
	LastIndexed      time.Time
	SourceType       string
	Language         string // swift | objc | "" (required by the language filter)
	WordCount        int    // derived at index time
	Availability     availability.Availability
	Kind             Kind
}

// Validate checks that a producer-supplied document is indexable.
// Malformed documents are rejected per-record without aborting a batch.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.URI) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidDocument, "document uri is required", nil)
	}
	if _, ok := knownSources[d.Source]; !ok {
		return apperrors.New(apperrors.ErrCodeInvalidDocument, "unknown document source: "+string(d.Source), nil).
			WithDetail("uri", d.URI)
	}
	if strings.TrimSpace(d.Title) == "" {
		return apperrors.New(apperrors.ErrCodeInvalidDocument, "document title is required", nil).
			WithDetail("uri", d.URI)
	}
	if d.Content == "" {
		return apperrors.New(apperrors.ErrCodeInvalidDocument, "document content is required", nil).
			WithDetail("uri", d.URI)
	}
	return nil
}

// SearchResult is an ephemeral, query-time projection of a document.
// Rank is the BM25-derived adjusted rank: lower means more relevant.
type SearchResult struct {
	URI       string  `json:"uri"`
	Source    Source  `json:"source"`
	Framework string  `json:"framework,omitempty"`
	Title     string  `json:"title"`
	Summary   string  `json:"summary"`
	Rank      float64 `json:"rank"`
	WordCount int     `json:"word_count"`
}

// SearchFilters narrows and shapes a search.
type SearchFilters struct {
	// Source restricts results to one corpus.
	Source Source
	// Framework restricts results to one framework.
	Framework string
	// Language restricts results by language (swift, objc).
	Language string
	// Versions gates results by per-platform minimum versions.
	Versions availability.Filter
	// IncludeArchive includes apple-archive documents, which are
	// suppressed by default.
	IncludeArchive bool
	// Limit caps the result count. Zero means the store default.
	Limit int
}

// SampleProject is a downloadable sample-code project.
type SampleProject struct {
	ID          string
	Title       string
	Framework   string
	Description string
	URL         string
}

// SampleFile is one file inside a sample project, keyed by
// (ProjectID, Path).
type SampleFile struct {
	ProjectID string
	Path      string
	Content   string
}

// Stats summarizes index contents.
type Stats struct {
	DocumentCount  int
	SampleCount    int
	FrameworkCount int
	SchemaVersion  int
}
