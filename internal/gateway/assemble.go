package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/flemzord/ctxwin/internal/wire"
)

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// decodeBody reads the size-limited request body, as YAML when sent as
// application/yaml and as JSON otherwise. On failure the error reply has
// already been written and ok is false.
func decodeBody[T any](g *Gateway, w http.ResponseWriter, r *http.Request, fromJSON, fromYAML func(io.Reader) (T, error)) (T, bool) {
	body := http.MaxBytesReader(w, r.Body, g.config.MaxBodyBytes)

	decode := fromJSON
	if isYAML(r.Header.Get("Content-Type")) {
		decode = fromYAML
	}

	v, err := decode(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return v, false
		}
		g.logger.Debug("gateway: rejected request", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return v, false
	}
	return v, true
}

func (g *Gateway) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := wire.EncodeJSON(w, v); err != nil {
		g.logger.Error("gateway: write response", "error", err)
	}
}

// handleAssemble returns an http.HandlerFunc for POST /v1/context.
func (g *Gateway) handleAssemble() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeBody(g, w, r, wire.DecodeJSON, wire.DecodeYAML)
		if !ok {
			return
		}

		assembled := g.opts.Recorder.Build(r.Context(), g.opts.Builder, req.Input())
		if g.opts.Limiter != nil {
			g.opts.Limiter.Charge(clientKey(r), assembled.Budget.Used())
		}
		g.writeJSON(w, wire.NewResponse(assembled))
	}
}

// handleMeasure returns an http.HandlerFunc for POST /v1/measure. Callers
// store the returned counts with their history so later assemblies skip
// estimation.
func (g *Gateway) handleMeasure() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeBody(g, w, r, wire.DecodeMeasureJSON, wire.DecodeMeasureYAML)
		if !ok {
			return
		}
		g.writeJSON(w, wire.NewMeasureResponse(g.opts.Measurer.MeasureEntries(req.History, req.SpeakerName)))
	}
}

func isYAML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return true
	}
	return false
}
