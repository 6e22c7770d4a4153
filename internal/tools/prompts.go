package tools

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/appledocs-mcp/internal/protocol"
)

// DocPrompts serves prompt templates that steer an agent toward the
// search tools before it answers from memory.
type DocPrompts struct{}

// NewDocPrompts creates the prompt provider.
func NewDocPrompts() *DocPrompts {
	return &DocPrompts{}
}

func (p *DocPrompts) Prompts() []protocol.PromptDef {
	return []protocol.PromptDef{
		{
			Name:        "api-usage",
			Description: "Look up correct, current usage of an Apple API",
			Arguments: []protocol.PromptArgument{
				{Name: "api", Description: "API or type name", Required: true},
				{Name: "platform", Description: "Target platform and version, e.g. ios 17"},
			},
		},
		{
			Name:        "migration-check",
			Description: "Check code for APIs deprecated or changed since a given OS version",
			Arguments: []protocol.PromptArgument{
				{Name: "framework", Description: "Framework the code uses", Required: true},
				{Name: "from-version", Description: "OS version the code was written for", Required: true},
			},
		},
	}
}

func (p *DocPrompts) Get(_ context.Context, name string, args map[string]any) (*protocol.PromptResult, error) {
	switch name {
	case "api-usage":
		api, ok := stringArg(args, "api")
		if !ok {
			return nil, protocol.NewError(protocol.CodeMissingArgument, "api-usage requires an api argument")
		}
		platform, _ := stringArg(args, "platform")
		text := fmt.Sprintf("Use search_docs to find current documentation for %q", api)
		if platform != "" {
			text += fmt.Sprintf(" targeting %s", platform)
		}
		text += ", then use get_doc on the best match before answering. Prefer indexed documentation over memory."
		return &protocol.PromptResult{
			Description: "Grounded API usage lookup",
			Messages: []protocol.PromptMessage{
				{Role: "user", Content: protocol.Content{Type: "text", Text: text}},
			},
		}, nil

	case "migration-check":
		framework, ok := stringArg(args, "framework")
		if !ok {
			return nil, protocol.NewError(protocol.CodeMissingArgument, "migration-check requires a framework argument")
		}
		from, ok := stringArg(args, "from-version")
		if !ok {
			return nil, protocol.NewError(protocol.CodeMissingArgument, "migration-check requires a from-version argument")
		}
		text := fmt.Sprintf(
			"Search %s release notes (search_docs with the framework filter) for API changes since version %s. "+
				"List deprecated or replaced APIs with their documented replacements, citing the indexed pages.",
			framework, from)
		return &protocol.PromptResult{
			Description: "Deprecation and migration review",
			Messages: []protocol.PromptMessage{
				{Role: "user", Content: protocol.Content{Type: "text", Text: text}},
			},
		}, nil

	default:
		return nil, protocol.NewError(protocol.CodeInvalidParams, "unknown prompt: "+name)
	}
}
