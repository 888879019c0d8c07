// Package mcptool exposes context assembly to MCP clients as the
// assemble_context tool.
package mcptool

import (
	"bytes"
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/ctxwin/internal/telemetry"
	"github.com/flemzord/ctxwin/internal/wire"
)

// ToolName is the registered MCP tool name.
const ToolName = "assemble_context"

// AssembleTool assembles a context window from a JSON or YAML request.
type AssembleTool struct {
	builder  telemetry.Builder
	recorder *telemetry.Recorder
}

// NewAssembleTool creates the tool. recorder may be nil.
func NewAssembleTool(builder telemetry.Builder, recorder *telemetry.Recorder) *AssembleTool {
	return &AssembleTool{builder: builder, recorder: recorder}
}

// Definition returns the MCP tool definition.
func (t *AssembleTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolName,
		mcp.WithDescription("Assemble the bounded context window for a conversational turn. "+
			"Selects the newest history that fits the token budget and returns the rendered prompt with a budget breakdown."),
		mcp.WithString("request",
			mcp.Required(),
			mcp.Description("Assembly request document: context_window_tokens, system_prompt, current_message, "+
				"speaker_name, participants, memories, history, cross_channel."),
		),
		mcp.WithString("format",
			mcp.Description("Encoding of request: json (default) or yaml."),
			mcp.Enum("json", "yaml"),
		),
	)
}

// Handle runs the tool. Invalid requests are reported as tool errors, not
// protocol errors.
func (t *AssembleTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, err := req.RequireString("request")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	decode := wire.DecodeJSON
	if strings.EqualFold(req.GetString("format", "json"), "yaml") {
		decode = wire.DecodeYAML
	}
	in, err := decode(strings.NewReader(body))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	assembled := t.recorder.Build(ctx, t.builder, in.Input())

	var buf bytes.Buffer
	if err := wire.EncodeJSON(&buf, wire.NewResponse(assembled)); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// NewServer creates an MCP server with the assemble tool registered.
func NewServer(name, version string, tool *AssembleTool) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	s.AddTool(tool.Definition(), tool.Handle)
	return s
}

// ServeStdio serves s on stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
