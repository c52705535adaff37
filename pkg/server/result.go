package server

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// errorPayload is the JSON body of a failed invocation. The numeric code
// is the wire compatibility surface: 404, 413, 500, or 504.
type errorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// textResult wraps the tool's raw stdout in an MCP text content block.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

// errorResult renders a typed failure as an MCP error result.
func errorResult(code int, message string) *mcp.CallToolResult {
	payload, err := json.Marshal(errorPayload{Code: code, Message: message})
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"code":500,"message":"failed to encode error: %v"}`, err))
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(payload),
			},
		},
	}
}
