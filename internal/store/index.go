package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/Aman-CERP/appledocs-mcp/internal/availability"
	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
)

// DefaultSummaryBudget is the character budget for derived summaries.
const DefaultSummaryBudget = 1500

// IndexResult aggregates the outcome of a batch index operation.
type IndexResult struct {
	Indexed  int
	Rejected int
	// Errors holds one entry per rejected document.
	Errors []error
}

// IndexDocument upserts a single document by URI. The searchable text
// and structured metadata are written in one transaction: a concurrent
// reader sees either the old document or the new one, never a mix.
// Derived fields (summary, word count, content hash) are recomputed.
func (s *Store) IndexDocument(ctx context.Context, doc *Document) error {
	res, err := s.IndexDocuments(ctx, []*Document{doc})
	if err != nil {
		return err
	}
	if len(res.Errors) > 0 {
		return res.Errors[0]
	}
	return nil
}

// IndexDocuments upserts a batch. Malformed documents are rejected
// per-record and reported in the result; storage errors abort the batch.
func (s *Store) IndexDocuments(ctx context.Context, docs []*Document) (*IndexResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	// FTS5 virtual tables don't support REPLACE: delete then insert,
	// inside the same transaction as the metadata upsert.
	ftsDelete, err := tx.PrepareContext(ctx, `DELETE FROM fts_documents WHERE uri = ?`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}
	defer ftsDelete.Close()

	ftsInsert, err := tx.PrepareContext(ctx, `
		INSERT INTO fts_documents (uri, title, content, summary, framework)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}
	defer ftsInsert.Close()

	metaUpsert, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (
			uri, source, framework, title, summary, summary_truncated,
			file_path, content_hash, last_indexed, source_type, language,
			word_count, kind,
			min_ios, min_macos, min_tvos, min_watchos, min_visionos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uri) DO UPDATE SET
			source = excluded.source,
			framework = excluded.framework,
			title = excluded.title,
			summary = excluded.summary,
			summary_truncated = excluded.summary_truncated,
			file_path = excluded.file_path,
			content_hash = excluded.content_hash,
			last_indexed = excluded.last_indexed,
			source_type = excluded.source_type,
			language = excluded.language,
			word_count = excluded.word_count,
			kind = excluded.kind,
			min_ios = excluded.min_ios,
			min_macos = excluded.min_macos,
			min_tvos = excluded.min_tvos,
			min_watchos = excluded.min_watchos,
			min_visionos = excluded.min_visionos`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}
	defer metaUpsert.Close()

	result := &IndexResult{}
	for _, doc := range docs {
		if err := doc.Validate(); err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, err)
			slog.Warn("document_rejected",
				slog.String("uri", doc.URI),
				slog.String("error", err.Error()))
			continue
		}

		derive(doc, s.summaryBudget)

		if _, err := ftsDelete.ExecContext(ctx, doc.URI); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIndexWrite,
				fmt.Errorf("delete fts row %s: %w", doc.URI, err))
		}
		if _, err := ftsInsert.ExecContext(ctx, doc.URI, doc.Title, doc.Content, doc.Summary, doc.Framework); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIndexWrite,
				fmt.Errorf("insert fts row %s: %w", doc.URI, err))
		}
		if _, err := metaUpsert.ExecContext(ctx,
			doc.URI, string(doc.Source), nullable(doc.Framework), doc.Title,
			doc.Summary, doc.SummaryTruncated,
			nullable(doc.FilePath), doc.ContentHash, doc.LastIndexed,
			nullable(doc.SourceType), nullable(doc.Language),
			doc.WordCount, string(doc.Kind),
			versionCol(doc, availability.PlatformIOS),
			versionCol(doc, availability.PlatformMacOS),
			versionCol(doc, availability.PlatformTvOS),
			versionCol(doc, availability.PlatformWatchOS),
			versionCol(doc, availability.PlatformVisionOS),
		); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIndexWrite,
				fmt.Errorf("upsert metadata %s: %w", doc.URI, err))
		}

		result.Indexed++
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}
	return result, nil
}

// GetDocumentContent returns the full content for a URI, or ok=false
// when the document is not indexed.
func (s *Store) GetDocumentContent(ctx context.Context, uri string) (*Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, errClosed()
	}

	doc := &Document{URI: uri}
	var framework, filePath, sourceType, language sql.NullString
	var source, kind string
	var truncated bool

	err := s.db.QueryRowContext(ctx, `
		SELECT d.source, d.framework, d.title, f.content, d.summary,
		       d.summary_truncated, d.file_path, d.content_hash,
		       d.last_indexed, d.source_type, d.language, d.word_count, d.kind,
		       d.min_ios, d.min_macos, d.min_tvos, d.min_watchos, d.min_visionos
		FROM documents d
		JOIN fts_documents f ON f.uri = d.uri
		WHERE d.uri = ?`, uri).Scan(
		&source, &framework, &doc.Title, &doc.Content, &doc.Summary,
		&truncated, &filePath, &doc.ContentHash,
		&doc.LastIndexed, &sourceType, &language, &doc.WordCount, &kind,
		scanVersion(doc, availability.PlatformIOS),
		scanVersion(doc, availability.PlatformMacOS),
		scanVersion(doc, availability.PlatformTvOS),
		scanVersion(doc, availability.PlatformWatchOS),
		scanVersion(doc, availability.PlatformVisionOS),
	)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}

	doc.Source = Source(source)
	doc.Kind = Kind(kind)
	doc.SummaryTruncated = truncated
	doc.Framework = framework.String
	doc.FilePath = filePath.String
	doc.SourceType = sourceType.String
	doc.Language = language.String
	return doc, true, nil
}

// DeleteBySource removes every document belonging to a source.
// Used by explicit rebuilds of a single corpus.
func (s *Store) DeleteBySource(ctx context.Context, source Source) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM fts_documents
		WHERE uri IN (SELECT uri FROM documents WHERE source = ?)`, string(source)); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE source = ?`, string(source))
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}
	return int(n), nil
}

// derive recomputes the fields the store owns: word count, summary,
// content hash, index time, and a resolved kind.
func derive(doc *Document, summaryBudget int) {
	doc.WordCount = len(strings.Fields(doc.Content))
	doc.Summary, doc.SummaryTruncated = summarize(doc.Content, summaryBudget)
	doc.ContentHash = fmt.Sprintf("%016x", xxhash.Sum64String(doc.Content))
	if doc.LastIndexed.IsZero() {
		doc.LastIndexed = time.Now().UTC()
	}
	if doc.Kind == "" {
		doc.Kind = KindUnknown
	}
}

// summarize truncates content to the character budget on a rune
// boundary, preferring to cut at a word break.
func summarize(content string, budget int) (string, bool) {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= budget {
		return content, false
	}

	runes := []rune(content)
	cut := budget
	// Walk back to the nearest space so the summary doesn't end
	// mid-word, unless that would cost more than a fifth of the budget.
	for i := budget - 1; i > budget*4/5; i-- {
		if runes[i] == ' ' || runes[i] == '\n' {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut])), true
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func versionCol(doc *Document, p availability.Platform) any {
	if v, ok := doc.Availability[p]; ok && v != "" {
		return v
	}
	return nil
}

// versionScanner writes a nullable version column back into the
// document's availability map.
type versionScanner struct {
	doc      *Document
	platform availability.Platform
}

func scanVersion(doc *Document, p availability.Platform) *versionScanner {
	return &versionScanner{doc: doc, platform: p}
}

func (v *versionScanner) Scan(src any) error {
	var val string
	switch s := src.(type) {
	case nil:
		return nil
	case string:
		val = s
	case []byte:
		val = string(s)
	default:
		return fmt.Errorf("unexpected version column type %T", src)
	}
	if val == "" {
		return nil
	}
	if v.doc.Availability == nil {
		v.doc.Availability = make(availability.Availability)
	}
	v.doc.Availability[v.platform] = val
	return nil
}
