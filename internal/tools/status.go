package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aman-CERP/appledocs-mcp/internal/protocol"
	"github.com/Aman-CERP/appledocs-mcp/internal/store"
	"github.com/Aman-CERP/appledocs-mcp/internal/syncer"
)

// StatsReader is the slice of the store the status provider needs.
type StatsReader interface {
	Stats(ctx context.Context) (*store.Stats, error)
}

// StatusProvider exposes sync_status: checkpoint progress plus index
// stats.
type StatusProvider struct {
	store  StatsReader
	states *syncer.StateStore
}

// NewStatusProvider creates a status provider.
func NewStatusProvider(s StatsReader, states *syncer.StateStore) *StatusProvider {
	return &StatusProvider{store: s, states: states}
}

func (p *StatusProvider) Tools() []protocol.ToolDef {
	return []protocol.ToolDef{{
		Name:        "sync_status",
		Description: "Report index statistics and any in-progress sync",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}}
}

func (p *StatusProvider) Call(ctx context.Context, name string, args map[string]any) (*protocol.ToolResult, error) {
	stats, err := p.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("## Index\n\n")
	fmt.Fprintf(&b, "- Documents: %d\n", stats.DocumentCount)
	fmt.Fprintf(&b, "- Sample projects: %d\n", stats.SampleCount)
	fmt.Fprintf(&b, "- Frameworks: %d\n", stats.FrameworkCount)

	b.WriteString("\n## Sync\n\n")
	if p.states == nil || !p.states.Exists() {
		b.WriteString("No sync in progress.\n")
		return &protocol.ToolResult{Content: protocol.TextContent(b.String())}, nil
	}

	state, err := p.states.Load()
	if err != nil {
		fmt.Fprintf(&b, "Checkpoint present but unreadable: %v\n", err)
		return &protocol.ToolResult{Content: protocol.TextContent(b.String())}, nil
	}

	fmt.Fprintf(&b, "- Phase: %s\n", state.Phase)
	if state.CurrentFramework != "" {
		fmt.Fprintf(&b, "- Framework: %s (%d/%d)\n",
			state.CurrentFramework, state.FrameworksCompleted, state.FrameworksTotal)
		fmt.Fprintf(&b, "- Files: %d/%d\n", state.CurrentFileIndex, state.FilesTotal)
	}
	fmt.Fprintf(&b, "- Progress: %.0f%%\n", state.Progress(len(syncer.DefaultPhases))*100)
	fmt.Fprintf(&b, "- Last update: %s\n", state.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	return &protocol.ToolResult{Content: protocol.TextContent(b.String())}, nil
}
