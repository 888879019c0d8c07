package mcptool_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	ctxengine "github.com/flemzord/ctxwin/internal/context"
	"github.com/flemzord/ctxwin/internal/mcptool"
	"github.com/flemzord/ctxwin/internal/wire"
)

func newTool() *mcptool.AssembleTool {
	asm := ctxengine.NewAssembler(ctxengine.NewCharEstimator(4), ctxengine.ContextConfig{})
	return mcptool.NewAssembleTool(asm, nil)
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = mcptool.ToolName
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestDefinition(t *testing.T) {
	t.Parallel()

	def := newTool().Definition()
	if def.Name != mcptool.ToolName {
		t.Errorf("Name = %q", def.Name)
	}
	if len(def.InputSchema.Required) != 1 || def.InputSchema.Required[0] != "request" {
		t.Errorf("Required = %v, want [request]", def.InputSchema.Required)
	}
}

func TestHandle_JSON(t *testing.T) {
	t.Parallel()

	body := `{"context_window_tokens":1000,"system_prompt":"SYS","current_message":"hi",` +
		`"history":[{"role":"user","content":"a","tokens":10},{"role":"assistant","content":"b","tokens":10}]}`

	res, err := newTool().Handle(context.Background(), call(map[string]any{"request": body}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}

	var resp wire.Response
	if err := json.Unmarshal([]byte(resultText(t, res)), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Selection.MessagesIncluded != 2 || resp.Budget.HistoryTokensUsed != 20 {
		t.Errorf("selection=%+v budget=%+v", resp.Selection, resp.Budget)
	}
}

func TestHandle_YAML(t *testing.T) {
	t.Parallel()

	body := "current_message: hi\nhistory:\n  - role: user\n    content: hello\n"
	res, err := newTool().Handle(context.Background(), call(map[string]any{"request": body, "format": "yaml"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), `"messages_included": 1`) {
		t.Errorf("unexpected result:\n%s", resultText(t, res))
	}
}

func TestHandle_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing_request", map[string]any{}},
		{"malformed", map[string]any{"request": "{"}},
		{"bad_role", map[string]any{"request": `{"history":[{"role":"bot","content":"x"}]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := newTool().Handle(context.Background(), call(tt.args))
			if err != nil {
				t.Fatalf("protocol error: %v", err)
			}
			if !res.IsError {
				t.Error("expected tool error result")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	if s := mcptool.NewServer("ctxwin", "test", newTool()); s == nil {
		t.Fatal("NewServer returned nil")
	}
}
