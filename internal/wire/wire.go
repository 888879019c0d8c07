// Package wire is the JSON and YAML request/response format shared by the
// gateway, the MCP tool and the CLI.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	ctxengine "github.com/flemzord/ctxwin/internal/context"
	"github.com/flemzord/ctxwin/pkg/message"
)

// ErrInvalidRequest marks a request that could not be decoded or failed
// validation.
var ErrInvalidRequest = errors.New("wire: invalid request")

// Request is the wire form of ctxengine.AssemblyInput.
type Request struct {
	ContextWindowTokens int                           `json:"context_window_tokens"`
	SystemPrompt        string                        `json:"system_prompt"`
	CurrentMessage      string                        `json:"current_message"`
	SpeakerName         string                        `json:"speaker_name"`
	Participants        message.Participants          `json:"participants,omitempty"`
	Memories            []message.MemoryDocument      `json:"memories,omitempty"`
	History             []message.HistoryEntry        `json:"history,omitempty"`
	CrossChannel        []message.ChannelHistoryGroup `json:"cross_channel,omitempty"`

	// Now pins the reference instant for relative times.
	Now time.Time `json:"now,omitzero"`
}

// Input converts the request to an engine input.
func (r Request) Input() ctxengine.AssemblyInput {
	return ctxengine.AssemblyInput{
		ContextWindowTokens: r.ContextWindowTokens,
		SystemPrompt:        r.SystemPrompt,
		CurrentMessage:      r.CurrentMessage,
		SpeakerName:         r.SpeakerName,
		Participants:        r.Participants,
		Memories:            r.Memories,
		History:             r.History,
		CrossChannel:        r.CrossChannel,
		Now:                 r.Now,
	}
}

// Validate checks the fields JSON decoding cannot. Every problem is
// reported, each wrapped in ErrInvalidRequest.
func (r Request) Validate() error {
	var errs []error
	if r.ContextWindowTokens < 0 {
		errs = append(errs, fmt.Errorf("%w: context_window_tokens must be non-negative, got %d", ErrInvalidRequest, r.ContextWindowTokens))
	}
	for i, p := range r.Participants {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("%w: participants[%d]: id is required", ErrInvalidRequest, i))
		}
	}
	errs = append(errs, validateEntries("history", r.History)...)
	for g, group := range r.CrossChannel {
		switch group.Environment.Type {
		case "", message.ChatDM, message.ChatGuild:
		default:
			errs = append(errs, fmt.Errorf("%w: cross_channel[%d]: unknown environment type %q", ErrInvalidRequest, g, group.Environment.Type))
		}
		errs = append(errs, validateEntries(fmt.Sprintf("cross_channel[%d].entries", g), group.Entries)...)
	}
	return errors.Join(errs...)
}

func validateEntries(field string, entries []message.HistoryEntry) []error {
	var errs []error
	for i, e := range entries {
		if !e.Role.Valid() {
			errs = append(errs, fmt.Errorf("%w: %s[%d]: role is required", ErrInvalidRequest, field, i))
		}
	}
	return errs
}

// DecodeJSON reads and validates a JSON request. Unknown fields are
// rejected.
func DecodeJSON(r io.Reader) (Request, error) {
	return decodeJSON[Request](r)
}

// DecodeYAML reads a YAML request. The document is normalised to JSON so
// both formats share one set of field names and validation rules.
func DecodeYAML(r io.Reader) (Request, error) {
	return decodeYAML[Request](r)
}

// MeasureRequest asks for token counts of history entries.
type MeasureRequest struct {
	SpeakerName string                 `json:"speaker_name"`
	History     []message.HistoryEntry `json:"history"`
}

// Validate checks every entry's role.
func (r MeasureRequest) Validate() error {
	return errors.Join(validateEntries("history", r.History)...)
}

// MeasureResponse carries the entries with every token count filled in.
type MeasureResponse struct {
	History []message.HistoryEntry `json:"history"`
}

// NewMeasureResponse wraps measured entries. History is always an array.
func NewMeasureResponse(entries []message.HistoryEntry) MeasureResponse {
	if entries == nil {
		entries = []message.HistoryEntry{}
	}
	return MeasureResponse{History: entries}
}

// DecodeMeasureJSON reads and validates a JSON measure request.
func DecodeMeasureJSON(r io.Reader) (MeasureRequest, error) {
	return decodeJSON[MeasureRequest](r)
}

// DecodeMeasureYAML reads and validates a YAML measure request.
func DecodeMeasureYAML(r io.Reader) (MeasureRequest, error) {
	return decodeYAML[MeasureRequest](r)
}

type validatable interface {
	Validate() error
}

func decodeJSON[T validatable](r io.Reader) (T, error) {
	var v, zero T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := v.Validate(); err != nil {
		return zero, err
	}
	return v, nil
}

func decodeYAML[T validatable](r io.Reader) (T, error) {
	var (
		doc  any
		zero T
	)
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return zero, fmt.Errorf("%w: empty document", ErrInvalidRequest)
		}
		return zero, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return decodeJSON[T](bytes.NewReader(raw))
}

// Response is the wire form of an assembled context.
type Response struct {
	// Prompt is the full rendered prompt.
	Prompt string `json:"prompt"`

	SystemPrompt      string                      `json:"system_prompt"`
	MemoryBlock       string                      `json:"memory_block,omitempty"`
	SerializedHistory string                      `json:"serialized_history"`
	CurrentMessage    string                      `json:"current_message"`
	SelectedHistory   []message.HistoryEntry      `json:"selected_history"`
	Budget            ctxengine.TokenBudget       `json:"budget"`
	Selection         ctxengine.SelectionMetadata `json:"selection"`
}

// NewResponse builds the response for an assembled context.
func NewResponse(c ctxengine.AssembledContext) Response {
	selected := c.SelectedHistory
	if selected == nil {
		selected = []message.HistoryEntry{}
	}
	return Response{
		Prompt:            c.Render(),
		SystemPrompt:      c.SystemPrompt,
		MemoryBlock:       c.MemoryBlock,
		SerializedHistory: c.SerializedHistory,
		CurrentMessage:    c.CurrentMessage,
		SelectedHistory:   selected,
		Budget:            c.Budget,
		Selection:         c.Selection,
	}
}

// EncodeJSON writes v as indented JSON followed by a newline.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("wire: encode: %w", err)
	}
	return nil
}
