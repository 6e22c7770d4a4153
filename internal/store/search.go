package store

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/Aman-CERP/appledocs-mcp/internal/availability"
	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
)

const (
	// DefaultSearchLimit applies when the caller passes no limit.
	DefaultSearchLimit = 10
	// MaxSearchLimit is the hard ceiling on result count.
	MaxSearchLimit = 50

	// candidateCap bounds how many FTS matches are pulled before the
	// Go-side version filter and re-ranking run. Version filters
	// discard rows, so we over-fetch relative to the caller's limit.
	candidateCap = 500

	// releaseNotesPenalty divides the (negative) BM25 rank of
	// release-notes documents, pushing them down the result list.
	releaseNotesPenalty = 2.5

	// archivePenalty ranks archive documents below current ones when
	// the caller opts in to archive results.
	archivePenalty = 2.0
)

// Search runs a full-text query and returns results ordered by
// adjusted rank ascending (lower = more relevant), ties broken by URI.
// Identical queries against an unchanged index return identical order.
func (s *Store) Search(ctx context.Context, query string, f SearchFilters) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	match := ftsMatchExpr(query)
	if match == "" {
		return []SearchResult{}, nil
	}

	limit := f.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT d.uri, d.source, d.framework, d.title, d.summary,
		       d.word_count, d.kind,
		       d.min_ios, d.min_macos, d.min_tvos, d.min_watchos, d.min_visionos,
		       bm25(fts_documents) AS rank
		FROM fts_documents
		JOIN documents d ON d.uri = fts_documents.uri
		WHERE fts_documents MATCH ?`)
	args := []any{match}

	if f.Source != "" {
		sb.WriteString(` AND d.source = ?`)
		args = append(args, string(f.Source))
	} else if !f.IncludeArchive {
		// Archive results are suppressed unless explicitly requested
		// or explicitly filtered to.
		sb.WriteString(` AND d.source != ?`)
		args = append(args, string(SourceAppleArchive))
	}
	if f.Framework != "" {
		sb.WriteString(` AND d.framework = ?`)
		args = append(args, f.Framework)
	}
	if f.Language != "" {
		sb.WriteString(` AND d.language = ?`)
		args = append(args, f.Language)
	}

	sb.WriteString(` ORDER BY rank LIMIT ?`)
	args = append(args, candidateCap)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		// FTS5 rejects some match expressions with a syntax error;
		// treat those as no results rather than a failure.
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return []SearchResult{}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}
	defer rows.Close()

	type candidate struct {
		result SearchResult
		avail  availability.Availability
		kind   Kind
	}

	var candidates []candidate
	for rows.Next() {
		var c candidate
		var framework sql.NullString
		var kind string
		var vers [5]sql.NullString

		if err := rows.Scan(
			&c.result.URI, &c.result.Source, &framework, &c.result.Title,
			&c.result.Summary, &c.result.WordCount, &kind,
			&vers[0], &vers[1], &vers[2], &vers[3], &vers[4],
			&c.result.Rank,
		); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
		}

		c.result.Framework = framework.String
		c.kind = Kind(kind)
		c.avail = availabilityFromColumns(vers)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}

	results := make([]SearchResult, 0, limit)
	for _, c := range candidates {
		// Version gating is fail-closed: documents without
		// availability data are excluded whenever a filter is set.
		if !f.Versions.Matches(c.avail) {
			continue
		}

		kind := resolveKind(c.kind, c.result.URI, c.result.Title, c.result.WordCount)

		// bm25() ranks are negative with lower = better. Dividing by a
		// penalty moves a rank toward zero, demoting the document
		// while preserving determinism.
		if kind == KindReleaseNotes {
			c.result.Rank /= releaseNotesPenalty
		}
		if c.result.Source == SourceAppleArchive {
			c.result.Rank /= archivePenalty
		}

		results = append(results, c.result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Rank != results[j].Rank {
			return results[i].Rank < results[j].Rank
		}
		return results[i].URI < results[j].URI
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ftsMatchExpr builds a safe FTS5 MATCH expression: each whitespace
// token becomes a quoted phrase, joined with implicit AND.
func ftsMatchExpr(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.ReplaceAll(field, `"`, ``)
		if field == "" {
			continue
		}
		quoted = append(quoted, `"`+field+`"`)
	}
	return strings.Join(quoted, " ")
}

func availabilityFromColumns(vers [5]sql.NullString) availability.Availability {
	var avail availability.Availability
	platforms := [5]availability.Platform{
		availability.PlatformIOS,
		availability.PlatformMacOS,
		availability.PlatformTvOS,
		availability.PlatformWatchOS,
		availability.PlatformVisionOS,
	}
	for i, v := range vers {
		if v.Valid && v.String != "" {
			if avail == nil {
				avail = make(availability.Availability)
			}
			avail[platforms[i]] = v.String
		}
	}
	return avail
}
