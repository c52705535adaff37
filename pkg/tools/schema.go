package tools

import "github.com/mark3labs/mcp-go/mcp"

// BuildToolSchema creates the MCP input schema for a tool
func BuildToolSchema(tool *Tool) mcp.ToolInputSchema {
	properties := make(map[string]any)
	required := make([]string, 0, len(tool.Files))

	for _, f := range tool.Files {
		properties[f.Name] = map[string]any{
			"type":        "string",
			"description": f.Description,
		}
		required = append(required, f.Name)
	}

	for _, opt := range tool.Options {
		properties[opt.Name] = map[string]any{
			"type":        opt.Type,
			"description": opt.Description,
			"default":     opt.Default,
		}
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// MCPTool renders the descriptor as an mcp-go tool declaration.
func MCPTool(tool *Tool) mcp.Tool {
	return mcp.Tool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: BuildToolSchema(tool),
	}
}
