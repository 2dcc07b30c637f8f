package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ziadkadry99/turnguard/internal/pipeline"
	"github.com/ziadkadry99/turnguard/internal/schema"
)

const deltaChunkSize = 240

// handleRespondStream runs a turn and streams it as server-sent events.
// EventSource clients only speak GET, so the request arrives as query
// parameters. Event order: meta, checkpoint*, delta*, done (or error).
func (s *Server) handleRespondStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	req := requestFromQuery(r.URL.Query())
	if strings.TrimSpace(req.Task) == "" {
		writeError(w, http.StatusBadRequest, "task is required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The sink runs on the turn's goroutine; a full buffer drops the
	// event rather than stalling the pipeline.
	events := make(chan pipeline.Event, 64)
	type turnResult struct {
		res *pipeline.Result
		err error
	}
	done := make(chan turnResult, 1)
	go func() {
		res, err := s.engine.Respond(r.Context(), req, func(ev pipeline.Event) {
			select {
			case events <- ev:
			default:
			}
		})
		close(events)
		done <- turnResult{res, err}
	}()

	writeSSE(w, flusher, "meta", map[string]any{
		"session_id":          req.SessionID,
		"task":                req.Task,
		"provider":            s.cfg.Provider,
		"model":               s.cfg.Model,
		"ambiguity_threshold": s.cfg.Pipeline.AmbiguityThreshold,
		"pass_threshold":      s.cfg.Pipeline.PassThreshold,
	})

	for ev := range events {
		writeSSE(w, flusher, "checkpoint", ev)
	}

	out := <-done
	if out.err != nil {
		writeSSE(w, flusher, "error", map[string]string{"error": out.err.Error()})
		return
	}
	if out.res.Response != nil {
		for _, chunk := range chunkText(out.res.Response.Answer, deltaChunkSize) {
			writeSSE(w, flusher, "delta", map[string]string{"text": chunk})
		}
	}
	writeSSE(w, flusher, "done", out.res)
}

func requestFromQuery(q url.Values) *schema.UserRequest {
	req := &schema.UserRequest{
		Task:            q.Get("task"),
		Context:         q.Get("context"),
		Format:          q.Get("format"),
		RiskTolerance:   schema.RiskTolerance(q.Get("risk_tolerance")),
		SessionID:       q.Get("session_id"),
		Constraints:     q["constraint"],
		SuccessCriteria: q["criterion"],
	}
	return req
}

// chunkText splits s into chunks of at most size bytes, breaking on
// rune boundaries.
func chunkText(s string, size int) []string {
	if s == "" {
		return nil
	}
	var chunks []string
	runes := []rune(s)
	for start := 0; start < len(runes); {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		start = end
	}
	return chunks
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
