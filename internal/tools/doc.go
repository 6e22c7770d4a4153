package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/appledocs-mcp/internal/protocol"
	"github.com/Aman-CERP/appledocs-mcp/internal/store"
)

// DocReader is the slice of the store the doc provider needs.
type DocReader interface {
	GetDocumentContent(ctx context.Context, uri string) (*store.Document, bool, error)
	ListFrameworks(ctx context.Context) (map[string]int, error)
}

// DocProvider exposes get_doc and list_frameworks. Rendered documents
// are cached: agents tend to re-read the same few pages while working
// on one API.
type DocProvider struct {
	store DocReader
	cache *lru.Cache[string, string]
}

// NewDocProvider creates a doc provider with an LRU render cache of the
// given size.
func NewDocProvider(s DocReader, cacheSize int) (*DocProvider, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &DocProvider{store: s, cache: cache}, nil
}

func (p *DocProvider) Tools() []protocol.ToolDef {
	return []protocol.ToolDef{
		{
			Name:        "get_doc",
			Description: "Retrieve the full content of a documentation page by URI",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"uri":    map[string]any{"type": "string", "description": "Document URI from a search result"},
					"format": map[string]any{"type": "string", "description": "Output format: markdown (default) or json"},
				},
				"required": []string{"uri"},
			},
		},
		{
			Name:        "list_frameworks",
			Description: "List indexed frameworks with their document counts",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

func (p *DocProvider) Call(ctx context.Context, name string, args map[string]any) (*protocol.ToolResult, error) {
	switch name {
	case "get_doc":
		return p.getDoc(ctx, args)
	case "list_frameworks":
		return p.listFrameworks(ctx)
	default:
		return nil, protocol.NewError(protocol.CodeUnknownTool, "unknown tool: "+name)
	}
}

func (p *DocProvider) getDoc(ctx context.Context, args map[string]any) (*protocol.ToolResult, error) {
	uri, ok := stringArg(args, "uri")
	if !ok {
		return nil, protocol.NewError(protocol.CodeMissingArgument, "get_doc requires a uri argument")
	}
	format, _ := stringArg(args, "format")
	if format == "" {
		format = "markdown"
	}
	if format != "markdown" && format != "json" {
		return nil, protocol.NewError(protocol.CodeInvalidParams, "format must be markdown or json")
	}

	cacheKey := format + "\x00" + uri
	if text, hit := p.cache.Get(cacheKey); hit {
		return &protocol.ToolResult{Content: protocol.TextContent(text)}, nil
	}

	doc, found, err := p.store.GetDocumentContent(ctx, uri)
	if err != nil {
		return nil, err
	}
	if !found {
		return &protocol.ToolResult{
			Content: protocol.TextContent(fmt.Sprintf("No document indexed at %s.", uri)),
			IsError: true,
		}, nil
	}

	text, err := renderDoc(doc, format)
	if err != nil {
		return nil, err
	}
	p.cache.Add(cacheKey, text)
	return &protocol.ToolResult{Content: protocol.TextContent(text)}, nil
}

func renderDoc(doc *store.Document, format string) (string, error) {
	if format == "json" {
		data, err := json.MarshalIndent(map[string]any{
			"uri":          doc.URI,
			"source":       doc.Source,
			"framework":    doc.Framework,
			"title":        doc.Title,
			"content":      doc.Content,
			"wordCount":    doc.WordCount,
			"availability": doc.Availability,
			"kind":         doc.Kind,
		}, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "Source: %s", doc.Source)
	if doc.Framework != "" {
		fmt.Fprintf(&b, " | Framework: %s", doc.Framework)
	}
	if len(doc.Availability) > 0 {
		b.WriteString(" | Available: ")
		platforms := make([]string, 0, len(doc.Availability))
		for platform, ver := range doc.Availability {
			platforms = append(platforms, fmt.Sprintf("%s %s+", platform, ver))
		}
		sort.Strings(platforms)
		b.WriteString(strings.Join(platforms, ", "))
	}
	b.WriteString("\n\n")
	b.WriteString(doc.Content)
	return b.String(), nil
}

func (p *DocProvider) listFrameworks(ctx context.Context) (*protocol.ToolResult, error) {
	counts, err := p.store.ListFrameworks(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "## Indexed frameworks (%d)\n\n", len(names))
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %d documents\n", name, counts[name])
	}
	return &protocol.ToolResult{Content: protocol.TextContent(b.String())}, nil
}
