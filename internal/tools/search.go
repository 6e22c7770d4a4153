// Package tools implements the MCP providers exposed by the server:
// document search, document retrieval, sample browsing, sync status,
// framework resources and prompt templates, all backed by the store.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aman-CERP/appledocs-mcp/internal/availability"
	"github.com/Aman-CERP/appledocs-mcp/internal/protocol"
	"github.com/Aman-CERP/appledocs-mcp/internal/store"
)

// teaserLimit caps the cross-source teaser appended to single-source
// searches.
const teaserLimit = 3

// versionArgs maps tool argument names to platforms.
var versionArgs = map[string]availability.Platform{
	"min-ios-version":      availability.PlatformIOS,
	"min-macos-version":    availability.PlatformMacOS,
	"min-tvos-version":     availability.PlatformTvOS,
	"min-watchos-version":  availability.PlatformWatchOS,
	"min-visionos-version": availability.PlatformVisionOS,
}

// Searcher is the slice of the store the search provider needs.
type Searcher interface {
	Search(ctx context.Context, query string, f store.SearchFilters) ([]store.SearchResult, error)
}

// SearchProvider exposes the search_docs tool.
type SearchProvider struct {
	store Searcher
}

// NewSearchProvider creates a search provider over the given store.
func NewSearchProvider(s Searcher) *SearchProvider {
	return &SearchProvider{store: s}
}

func (p *SearchProvider) Tools() []protocol.ToolDef {
	props := map[string]any{
		"query":     map[string]any{"type": "string", "description": "Full-text search query"},
		"source":    map[string]any{"type": "string", "description": "Restrict to one corpus (apple-docs, hig, swift-evolution, ...)"},
		"framework": map[string]any{"type": "string", "description": "Restrict to one framework (swiftui, uikit, ...)"},
		"language":  map[string]any{"type": "string", "description": "Restrict by language (swift, objc)"},
		"limit":     map[string]any{"type": "integer", "description": "Maximum results (default 10, ceiling 50)"},
		"include-archive": map[string]any{
			"type":        "boolean",
			"description": "Include documentation-archive results, suppressed by default",
		},
	}
	for arg, platform := range versionArgs {
		props[arg] = map[string]any{
			"type":        "string",
			"description": fmt.Sprintf("Only APIs available on %s at this version or earlier", platform),
		}
	}
	return []protocol.ToolDef{{
		Name:        "search_docs",
		Description: "Search Apple developer documentation across all indexed sources",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []string{"query"},
		},
	}}
}

func (p *SearchProvider) Call(ctx context.Context, name string, args map[string]any) (*protocol.ToolResult, error) {
	query, ok := stringArg(args, "query")
	if !ok {
		return nil, protocol.NewError(protocol.CodeMissingArgument, "search_docs requires a query argument")
	}

	filters := store.SearchFilters{Limit: intArg(args, "limit")}
	if src, ok := stringArg(args, "source"); ok {
		filters.Source = store.Source(src)
	}
	filters.Framework, _ = stringArg(args, "framework")
	filters.Language, _ = stringArg(args, "language")
	filters.IncludeArchive = boolArg(args, "include-archive")

	versions := availability.Filter{}
	for arg, platform := range versionArgs {
		if v, ok := stringArg(args, arg); ok {
			versions[platform] = v
		}
	}
	if !versions.Empty() {
		filters.Versions = versions
	}

	results, err := p.store.Search(ctx, query, filters)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	writeResults(&b, query, results)

	// With a single-source filter, surface a few hits from the other
	// sources so the caller learns what it is filtering away.
	if filters.Source != "" {
		teasers, err := p.teasers(ctx, query, filters)
		if err == nil && len(teasers) > 0 {
			b.WriteString(fmt.Sprintf("\n---\nAlso found outside %s:\n\n", filters.Source))
			for _, r := range teasers {
				fmt.Fprintf(&b, "- [%s] %s — %s\n", r.Source, r.Title, r.URI)
			}
		}
	}

	return &protocol.ToolResult{Content: protocol.TextContent(b.String())}, nil
}

// teasers reruns the query unrestricted and keeps top hits from other
// sources.
func (p *SearchProvider) teasers(ctx context.Context, query string, f store.SearchFilters) ([]store.SearchResult, error) {
	open := f
	open.Source = ""
	open.Limit = store.DefaultSearchLimit

	all, err := p.store.Search(ctx, query, open)
	if err != nil {
		return nil, err
	}
	var out []store.SearchResult
	for _, r := range all {
		if r.Source == f.Source {
			continue
		}
		out = append(out, r)
		if len(out) == teaserLimit {
			break
		}
	}
	return out, nil
}

func writeResults(b *strings.Builder, query string, results []store.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintf(b, "No results for %q.\n", query)
		return
	}
	fmt.Fprintf(b, "## Results for %q\n\n", query)
	for i, r := range results {
		fmt.Fprintf(b, "%d. **%s**", i+1, r.Title)
		if r.Framework != "" {
			fmt.Fprintf(b, " (%s)", r.Framework)
		}
		fmt.Fprintf(b, " — %s\n", r.Source)
		fmt.Fprintf(b, "   %s\n", r.URI)
		if r.Summary != "" {
			fmt.Fprintf(b, "   %s\n", r.Summary)
		}
		b.WriteString("\n")
	}
}

// Argument coercion helpers. JSON numbers arrive as float64.

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func boolArg(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}
