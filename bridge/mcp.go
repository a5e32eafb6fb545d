package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/skosovsky/mcptoolkit"
)

// ToolResultError is returned when an MCP tool answers with IsError set.
type ToolResultError struct {
	Tool    string
	Message string
}

func (e *ToolResultError) Error() string {
	return fmt.Sprintf("mcp tool %q returned an error: %s", e.Tool, e.Message)
}

var errNilResult = errors.New("mcp tool returned a nil result")

type mcpTool struct {
	tool    mcp.Tool
	handler server.ToolHandlerFunc
}

// FromMCP adapts an mcp-go tool definition and its handler. The tool uses
// ConventionAsyncInvoke. Structured content or a JSON object text becomes a map result;
// other text is returned as a string and normalized by the Dispatcher.
func FromMCP(tool mcp.Tool, handler server.ToolHandlerFunc) ExternalTool {
	if handler == nil {
		panic("bridge: FromMCP handler must not be nil")
	}
	return &mcpTool{tool: tool, handler: handler}
}

// FromMCPServer adapts every tool registered on s, sorted by name.
func FromMCPServer(s *server.MCPServer) []ExternalTool {
	listed := s.ListTools()
	names := make([]string, 0, len(listed))
	for name := range listed {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]ExternalTool, 0, len(names))
	for _, name := range names {
		st := listed[name]
		out = append(out, FromMCP(st.Tool, st.Handler))
	}
	return out
}

func (t *mcpTool) Name() string           { return t.tool.Name }
func (t *mcpTool) Convention() Convention { return ConventionAsyncInvoke }

func (t *mcpTool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	for _, name := range t.tool.InputSchema.Required {
		if _, ok := args[name]; !ok {
			return nil, &mcptoolkit.InputError{Field: name, Reason: "required argument is missing"}
		}
	}
	var req mcp.CallToolRequest
	req.Params.Name = t.tool.Name
	req.Params.Arguments = args
	res, err := t.handler(ctx, req)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errNilResult
	}
	text := contentText(res.Content)
	if res.IsError {
		return nil, &ToolResultError{Tool: t.tool.Name, Message: text}
	}
	if m, ok := res.StructuredContent.(map[string]any); ok {
		return m, nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj, nil
	}
	return text, nil
}

// contentText joins the text parts of an MCP result. Non-text parts are ignored.
func contentText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		switch v := c.(type) {
		case mcp.TextContent:
			parts = append(parts, v.Text)
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ServerTool exposes the registry identifier id as an MCP tool that dispatches through d.
// Map results are returned as JSON text with structured content; failures become
// tool error results so MCP clients can show them to the model.
func ServerTool(d *mcptoolkit.Dispatcher, id string, tool mcp.Tool) server.ServerTool {
	return server.ServerTool{
		Tool: tool,
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			res, err := d.Call(ctx, id, req.GetArguments())
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			data, err := json.Marshal(res)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
			}
			return mcp.NewToolResultStructured(res, string(data)), nil
		},
	}
}

// Expose registers every identifier in d's registry on s. Tools whose identifier maps back to an
// external name are published under that name; schemas supplies optional input schemas by
// identifier, and tools without one accept any object.
func Expose(s *server.MCPServer, d *mcptoolkit.Dispatcher, schemas map[string]map[string]any) error {
	external := make(map[string]string, len(toolMapping))
	for name, id := range toolMapping {
		external[id] = name
	}
	var tools []server.ServerTool
	for _, id := range d.Registry().IDs() {
		name := id
		if n, ok := external[id]; ok {
			name = n
		}
		tool := mcp.NewTool(name, mcp.WithDescription(fmt.Sprintf("Dispatches to %s", id)))
		if schema, ok := schemas[id]; ok {
			raw, err := json.Marshal(schema)
			if err != nil {
				return fmt.Errorf("bridge: schema for %q: %w", id, err)
			}
			// mcp-go rejects a tool carrying both schema forms.
			tool.InputSchema = mcp.ToolInputSchema{}
			tool.RawInputSchema = raw
		}
		tools = append(tools, ServerTool(d, id, tool))
	}
	s.AddTools(tools...)
	return nil
}
