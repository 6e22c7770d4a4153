package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/appledocs-mcp/internal/protocol"
	"github.com/Aman-CERP/appledocs-mcp/internal/store"
)

// resourceScheme is the URI scheme of framework resources:
// appledocs://{source}/{framework}.
const resourceScheme = "appledocs://"

// resourceDocLimit caps how many documents one framework resource
// returns.
const resourceDocLimit = 20

// FrameworkResources serves framework overviews as MCP resources.
type FrameworkResources struct {
	store interface {
		Searcher
		DocReader
	}
	logger *slog.Logger
}

// NewFrameworkResources creates the resource provider.
func NewFrameworkResources(s interface {
	Searcher
	DocReader
}, logger *slog.Logger) *FrameworkResources {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrameworkResources{store: s, logger: logger}
}

// Resources enumerates one resource per indexed framework. A listing
// failure degrades to an empty resource list; the server keeps serving.
func (p *FrameworkResources) Resources() []protocol.ResourceDef {
	counts, err := p.store.ListFrameworks(context.Background())
	if err != nil {
		p.logger.Error("resource_list_failed", slog.String("error", err.Error()))
		return nil
	}
	defs := make([]protocol.ResourceDef, 0, len(counts))
	for name, count := range counts {
		defs = append(defs, protocol.ResourceDef{
			URI:         resourceScheme + string(store.SourceAppleDocs) + "/" + name,
			Name:        name,
			Description: fmt.Sprintf("%d indexed documents for %s", count, name),
			MimeType:    "text/markdown",
		})
	}
	return defs
}

// Read serves appledocs://{source}/{framework} by listing the
// framework's top documents.
func (p *FrameworkResources) Read(ctx context.Context, uri string) (*protocol.ResourceContents, error) {
	rest, ok := strings.CutPrefix(uri, resourceScheme)
	if !ok {
		return nil, protocol.ErrUnknownResource
	}
	source, framework, ok := strings.Cut(rest, "/")
	if !ok || source == "" || framework == "" {
		return nil, protocol.ErrUnknownResource
	}

	results, err := p.store.Search(ctx, framework, store.SearchFilters{
		Source:    store.Source(source),
		Framework: framework,
		Limit:     resourceDocLimit,
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, protocol.ErrUnknownResource
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", framework)
	for _, r := range results {
		fmt.Fprintf(&b, "- **%s** — %s\n", r.Title, r.URI)
		if r.Summary != "" {
			fmt.Fprintf(&b, "  %s\n", r.Summary)
		}
	}
	return &protocol.ResourceContents{URI: uri, MimeType: "text/markdown", Text: b.String()}, nil
}
