package protocol

import (
	"context"
	"errors"
	"log/slog"
)

// ToolProvider contributes tools to the server.
type ToolProvider interface {
	Tools() []ToolDef
	Call(ctx context.Context, name string, args map[string]any) (*ToolResult, error)
}

// ResourceProvider contributes readable resources. Read returns
// ErrUnknownResource for URIs it does not serve.
type ResourceProvider interface {
	Resources() []ResourceDef
	Read(ctx context.Context, uri string) (*ResourceContents, error)
}

// PromptProvider contributes prompt templates.
type PromptProvider interface {
	Prompts() []PromptDef
	Get(ctx context.Context, name string, args map[string]any) (*PromptResult, error)
}

// Registry merges providers in registration order. On a name collision
// the first-registered provider wins and the duplicate is logged.
type Registry struct {
	logger *slog.Logger

	toolProviders []ToolProvider
	toolOwner     map[string]ToolProvider
	toolOrder     []string

	resourceProviders []ResourceProvider
	resourceSeen      map[string]bool

	promptProviders []PromptProvider
	promptOwner     map[string]PromptProvider
	promptOrder     []string
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:       logger,
		toolOwner:    make(map[string]ToolProvider),
		resourceSeen: make(map[string]bool),
		promptOwner:  make(map[string]PromptProvider),
	}
}

// RegisterTools adds a tool provider. Duplicate tool names are ignored
// with a warning.
func (r *Registry) RegisterTools(p ToolProvider) {
	r.toolProviders = append(r.toolProviders, p)
	for _, def := range p.Tools() {
		if _, exists := r.toolOwner[def.Name]; exists {
			r.logger.Warn("duplicate_tool_name", slog.String("tool", def.Name))
			continue
		}
		r.toolOwner[def.Name] = p
		r.toolOrder = append(r.toolOrder, def.Name)
	}
}

// RegisterResources adds a resource provider.
func (r *Registry) RegisterResources(p ResourceProvider) {
	r.resourceProviders = append(r.resourceProviders, p)
	for _, def := range p.Resources() {
		if r.resourceSeen[def.URI] {
			r.logger.Warn("duplicate_resource_uri", slog.String("uri", def.URI))
		}
		r.resourceSeen[def.URI] = true
	}
}

// RegisterPrompts adds a prompt provider.
func (r *Registry) RegisterPrompts(p PromptProvider) {
	r.promptProviders = append(r.promptProviders, p)
	for _, def := range p.Prompts() {
		if _, exists := r.promptOwner[def.Name]; exists {
			r.logger.Warn("duplicate_prompt_name", slog.String("prompt", def.Name))
			continue
		}
		r.promptOwner[def.Name] = p
		r.promptOrder = append(r.promptOrder, def.Name)
	}
}

// Tools lists all registered tools in registration order, collisions
// already resolved.
func (r *Registry) Tools() []ToolDef {
	defs := make([]ToolDef, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		p := r.toolOwner[name]
		for _, def := range p.Tools() {
			if def.Name == name {
				defs = append(defs, def)
				break
			}
		}
	}
	return defs
}

// CallTool dispatches a tools/call to the owning provider.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	p, ok := r.toolOwner[name]
	if !ok {
		return nil, NewError(CodeUnknownTool, "unknown tool: "+name)
	}
	return p.Call(ctx, name, args)
}

// Resources lists all registered resources in registration order.
func (r *Registry) Resources() []ResourceDef {
	var defs []ResourceDef
	seen := make(map[string]bool)
	for _, p := range r.resourceProviders {
		for _, def := range p.Resources() {
			if seen[def.URI] {
				continue
			}
			seen[def.URI] = true
			defs = append(defs, def)
		}
	}
	return defs
}

// ReadResource asks providers in order until one serves the URI.
func (r *Registry) ReadResource(ctx context.Context, uri string) (*ResourceContents, error) {
	for _, p := range r.resourceProviders {
		contents, err := p.Read(ctx, uri)
		if errors.Is(err, ErrUnknownResource) {
			continue
		}
		return contents, err
	}
	return nil, NewError(CodeResourceNotFound, "resource not found: "+uri)
}

// Prompts lists all registered prompts in registration order.
func (r *Registry) Prompts() []PromptDef {
	defs := make([]PromptDef, 0, len(r.promptOrder))
	for _, name := range r.promptOrder {
		p := r.promptOwner[name]
		for _, def := range p.Prompts() {
			if def.Name == name {
				defs = append(defs, def)
				break
			}
		}
	}
	return defs
}

// GetPrompt dispatches a prompts/get to the owning provider.
func (r *Registry) GetPrompt(ctx context.Context, name string, args map[string]any) (*PromptResult, error) {
	p, ok := r.promptOwner[name]
	if !ok {
		return nil, NewError(CodeInvalidParams, "unknown prompt: "+name)
	}
	return p.Get(ctx, name, args)
}
