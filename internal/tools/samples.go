package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aman-CERP/appledocs-mcp/internal/protocol"
	"github.com/Aman-CERP/appledocs-mcp/internal/store"
)

// SampleReader is the slice of the store the sample provider needs.
type SampleReader interface {
	ListSampleProjects(ctx context.Context, framework string) ([]store.SampleProject, error)
	ListSampleFiles(ctx context.Context, projectID string) ([]string, error)
	GetSampleFile(ctx context.Context, projectID, path string) (*store.SampleFile, bool, error)
}

// SampleProvider exposes list_samples and get_sample_file.
type SampleProvider struct {
	store SampleReader
}

// NewSampleProvider creates a sample provider over the given store.
func NewSampleProvider(s SampleReader) *SampleProvider {
	return &SampleProvider{store: s}
}

func (p *SampleProvider) Tools() []protocol.ToolDef {
	return []protocol.ToolDef{
		{
			Name:        "list_samples",
			Description: "List sample-code projects, optionally filtered by framework",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"framework": map[string]any{"type": "string", "description": "Filter by framework"},
				},
			},
		},
		{
			Name:        "get_sample_file",
			Description: "Retrieve one source file from a sample project",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"project": map[string]any{"type": "string", "description": "Sample project id"},
					"path":    map[string]any{"type": "string", "description": "File path within the project"},
				},
				"required": []string{"project", "path"},
			},
		},
	}
}

func (p *SampleProvider) Call(ctx context.Context, name string, args map[string]any) (*protocol.ToolResult, error) {
	switch name {
	case "list_samples":
		return p.listSamples(ctx, args)
	case "get_sample_file":
		return p.getSampleFile(ctx, args)
	default:
		return nil, protocol.NewError(protocol.CodeUnknownTool, "unknown tool: "+name)
	}
}

func (p *SampleProvider) listSamples(ctx context.Context, args map[string]any) (*protocol.ToolResult, error) {
	framework, _ := stringArg(args, "framework")
	projects, err := p.store.ListSampleProjects(ctx, framework)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return &protocol.ToolResult{Content: protocol.TextContent("No sample projects indexed.")}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Sample projects (%d)\n\n", len(projects))
	for _, proj := range projects {
		fmt.Fprintf(&b, "- **%s** (`%s`)", proj.Title, proj.ID)
		if proj.Framework != "" {
			fmt.Fprintf(&b, " — %s", proj.Framework)
		}
		b.WriteString("\n")
		if proj.Description != "" {
			fmt.Fprintf(&b, "  %s\n", proj.Description)
		}

		files, err := p.store.ListSampleFiles(ctx, proj.ID)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "  %d files\n", len(files))
	}
	return &protocol.ToolResult{Content: protocol.TextContent(b.String())}, nil
}

func (p *SampleProvider) getSampleFile(ctx context.Context, args map[string]any) (*protocol.ToolResult, error) {
	project, ok := stringArg(args, "project")
	if !ok {
		return nil, protocol.NewError(protocol.CodeMissingArgument, "get_sample_file requires a project argument")
	}
	path, ok := stringArg(args, "path")
	if !ok {
		return nil, protocol.NewError(protocol.CodeMissingArgument, "get_sample_file requires a path argument")
	}

	file, found, err := p.store.GetSampleFile(ctx, project, path)
	if err != nil {
		return nil, err
	}
	if !found {
		return &protocol.ToolResult{
			Content: protocol.TextContent(fmt.Sprintf("No file %s in project %s.", path, project)),
			IsError: true,
		}, nil
	}

	text := fmt.Sprintf("// %s — %s\n\n%s", project, path, file.Content)
	return &protocol.ToolResult{Content: protocol.TextContent(text)}, nil
}
