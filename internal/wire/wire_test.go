package wire_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	ctxengine "github.com/flemzord/ctxwin/internal/context"
	"github.com/flemzord/ctxwin/internal/wire"
	"github.com/flemzord/ctxwin/pkg/message"
)

const jsonRequest = `{
  "context_window_tokens": 1000,
  "system_prompt": "You are Nova.",
  "current_message": "hi",
  "speaker_name": "Nova",
  "participants": [{"id": "u1", "info": {"display_name": "Dana", "active": true}}],
  "memories": [{"id": "m1", "content": "likes tea", "created_at": "2026-10-11T12:00:00Z"}],
  "history": [
    {"role": "user", "content": "hello", "tokens": 12},
    {"role": "assistant", "content": "hey", "tokens": null}
  ],
  "cross_channel": [
    {"environment": {"type": "guild", "guild_name": "G", "channel_name": "general"},
     "entries": [{"role": "user", "content": "elsewhere"}]}
  ],
  "now": "2026-10-14T12:00:00Z"
}`

const yamlRequest = `
context_window_tokens: 1000
system_prompt: You are Nova.
current_message: hi
speaker_name: Nova
participants:
  - id: u1
    info:
      display_name: Dana
      active: true
memories:
  - id: m1
    content: likes tea
    created_at: "2026-10-11T12:00:00Z"
history:
  - role: user
    content: hello
    tokens: 12
  - role: assistant
    content: hey
cross_channel:
  - environment: {type: guild, guild_name: G, channel_name: general}
    entries:
      - role: user
        content: elsewhere
now: "2026-10-14T12:00:00Z"
`

func TestDecodeJSON_And_YAML_Agree(t *testing.T) {
	t.Parallel()

	fromJSON, err := wire.DecodeJSON(strings.NewReader(jsonRequest))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	fromYAML, err := wire.DecodeYAML(strings.NewReader(yamlRequest))
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}

	for name, req := range map[string]wire.Request{"json": fromJSON, "yaml": fromYAML} {
		if req.ContextWindowTokens != 1000 || req.SpeakerName != "Nova" {
			t.Errorf("%s: header fields = %+v", name, req)
		}
		if len(req.History) != 2 || req.History[1].Role != message.RoleAssistant {
			t.Errorf("%s: history = %+v", name, req.History)
		}
		if n, ok := req.History[0].Tokens.Known(); !ok || n != 12 {
			t.Errorf("%s: history[0].tokens = (%d, %v)", name, n, ok)
		}
		if _, ok := req.History[1].Tokens.Known(); ok {
			t.Errorf("%s: history[1] should need measurement", name)
		}
		if !req.Now.Equal(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)) {
			t.Errorf("%s: now = %v", name, req.Now)
		}
		if len(req.CrossChannel) != 1 || req.CrossChannel[0].Environment.ChannelName != "general" {
			t.Errorf("%s: cross_channel = %+v", name, req.CrossChannel)
		}
		if !req.Participants[0].Info.Active {
			t.Errorf("%s: participant should be active", name)
		}
	}
}

func TestDecode_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"system_prompt":`},
		{"unknown_field", `{"bogus": 1}`},
		{"unknown_role", `{"history":[{"role":"moderator","content":"x"}]}`},
		{"missing_role", `{"history":[{"content":"x"}]}`},
		{"negative_tokens", `{"history":[{"role":"user","content":"x","tokens":-1}]}`},
		{"negative_window", `{"context_window_tokens":-5}`},
		{"participant_without_id", `{"participants":[{"info":{"display_name":"A"}}]}`},
		{"bad_environment", `{"cross_channel":[{"environment":{"type":"forum"},"entries":[]}]}`},
		{"cross_channel_role", `{"cross_channel":[{"environment":{"type":"dm"},"entries":[{"content":"x"}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := wire.DecodeJSON(strings.NewReader(tt.body))
			if !errors.Is(err, wire.ErrInvalidRequest) {
				t.Errorf("DecodeJSON error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestDecodeYAML_Empty(t *testing.T) {
	t.Parallel()

	if _, err := wire.DecodeYAML(strings.NewReader("")); !errors.Is(err, wire.ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestDecodeMeasure(t *testing.T) {
	t.Parallel()

	fromJSON, err := wire.DecodeMeasureJSON(strings.NewReader(
		`{"speaker_name":"Nova","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"yo","tokens":3}]}`))
	if err != nil {
		t.Fatalf("DecodeMeasureJSON: %v", err)
	}
	fromYAML, err := wire.DecodeMeasureYAML(strings.NewReader(
		"speaker_name: Nova\nhistory:\n  - role: user\n    content: hi\n  - role: assistant\n    content: yo\n    tokens: 3\n"))
	if err != nil {
		t.Fatalf("DecodeMeasureYAML: %v", err)
	}
	for name, req := range map[string]wire.MeasureRequest{"json": fromJSON, "yaml": fromYAML} {
		if req.SpeakerName != "Nova" || len(req.History) != 2 {
			t.Errorf("%s: decoded %+v", name, req)
		}
		if n, ok := req.History[1].Tokens.Known(); !ok || n != 3 {
			t.Errorf("%s: history[1].Tokens = (%d, %v), want (3, true)", name, n, ok)
		}
	}

	for _, body := range []string{`{"history":[{"content":"x"}]}`, `{"window":1}`} {
		if _, err := wire.DecodeMeasureJSON(strings.NewReader(body)); !errors.Is(err, wire.ErrInvalidRequest) {
			t.Errorf("DecodeMeasureJSON(%s) error = %v, want ErrInvalidRequest", body, err)
		}
	}
}

func TestNewMeasureResponse_EmptyHistoryIsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := wire.EncodeJSON(&buf, wire.NewMeasureResponse(nil)); err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"history": []`) {
		t.Errorf("history must encode as an empty array:\n%s", buf.String())
	}
}

func TestRequest_Input(t *testing.T) {
	t.Parallel()

	req, err := wire.DecodeJSON(strings.NewReader(jsonRequest))
	if err != nil {
		t.Fatal(err)
	}
	in := req.Input()
	if in.SystemPrompt != req.SystemPrompt || len(in.History) != 2 || len(in.Memories) != 1 || !in.Now.Equal(req.Now) {
		t.Errorf("Input() lost fields: %+v", in)
	}
}

func TestResponse_RoundTrip(t *testing.T) {
	t.Parallel()

	req, err := wire.DecodeJSON(strings.NewReader(jsonRequest))
	if err != nil {
		t.Fatal(err)
	}
	asm := ctxengine.NewAssembler(ctxengine.NewCharEstimator(4), ctxengine.ContextConfig{})
	assembled := asm.BuildContext(req.Input())

	var buf bytes.Buffer
	if err := wire.EncodeJSON(&buf, wire.NewResponse(assembled)); err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if out["prompt"] != assembled.Render() {
		t.Error("prompt must be the rendered context")
	}
	budget, ok := out["budget"].(map[string]any)
	if !ok || budget["history_budget"] == nil {
		t.Errorf("budget missing: %v", out["budget"])
	}
	sel, ok := out["selection"].(map[string]any)
	if !ok || sel["strategy"] != ctxengine.StrategyRecency {
		t.Errorf("selection missing: %v", out["selection"])
	}
}

func TestNewResponse_EmptyHistoryIsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := wire.EncodeJSON(&buf, wire.NewResponse(ctxengine.AssembledContext{})); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"selected_history": []`) {
		t.Errorf("selected_history should encode as []:\n%s", buf.String())
	}
}
