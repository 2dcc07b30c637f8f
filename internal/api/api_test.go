package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/turnguard/internal/arbiter"
	"github.com/ziadkadry99/turnguard/internal/audit"
	"github.com/ziadkadry99/turnguard/internal/config"
	"github.com/ziadkadry99/turnguard/internal/db"
	"github.com/ziadkadry99/turnguard/internal/logging"
	"github.com/ziadkadry99/turnguard/internal/pipeline"
	"github.com/ziadkadry99/turnguard/internal/planner"
	"github.com/ziadkadry99/turnguard/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	cfg := config.DefaultConfig()
	sessions := session.NewStore(d)
	auditStore := audit.NewStore(d)
	engine := pipeline.NewEngine(cfg, logging.Nop(), sessions, auditStore, nil, planner.NewLocalComposer())
	return New(cfg, logging.Nop(), engine, sessions, auditStore, nil)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func clearRequest(sessionID string) map[string]any {
	return map[string]any{
		"context":          "Go service with a REST API behind chi",
		"task":             "implement a rate limiter middleware for the public endpoints",
		"success_criteria": []string{"requests above the limit get 429"},
		"session_id":       sessionID,
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRespondEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/respond", clearRequest("s1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var res pipeline.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Outcome != arbiter.OutcomeEmit {
		t.Errorf("Outcome = %s, want emit", res.Outcome)
	}
	if res.Response == nil || res.Response.Answer == "" {
		t.Error("response answer missing")
	}
}

func TestRespondRejectsBadJSON(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/respond", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRespondMissingTask(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/respond", map[string]any{"context": "just context"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestSessionEndpoint(t *testing.T) {
	s := newTestServer(t)
	if rec := doJSON(t, s, http.MethodPost, "/api/respond", clearRequest("s1")); rec.Code != http.StatusOK {
		t.Fatalf("respond status = %d", rec.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/sessions/s1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body struct {
		Session session.Session      `json:"session"`
		Turns   []session.TurnRecord `json:"turns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Session.ID != "s1" {
		t.Errorf("session id = %q", body.Session.ID)
	}
	if len(body.Turns) != 1 {
		t.Errorf("turns = %d, want 1", len(body.Turns))
	}
}

func TestSessionNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/sessions/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAuditEndpoint(t *testing.T) {
	s := newTestServer(t)
	if rec := doJSON(t, s, http.MethodPost, "/api/respond", clearRequest("s1")); rec.Code != http.StatusOK {
		t.Fatalf("respond status = %d", rec.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/audit?session_id=s1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var entries []audit.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) == 0 {
		t.Error("no audit entries for the turn")
	}
}

func TestEvidenceUnconfigured(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/evidence", map[string]any{
		"items": []map[string]string{{"content": "x"}},
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestModelsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/models", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["provider"] != string(config.ProviderLocal) {
		t.Errorf("provider = %v, want local default", body["provider"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	if rec := doJSON(t, s, http.MethodPost, "/api/respond", clearRequest("s1")); rec.Code != http.StatusOK {
		t.Fatalf("respond status = %d", rec.Code)
	}
	rec := doJSON(t, s, http.MethodGet, "/api/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var m pipeline.Metrics
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Turns != 1 {
		t.Errorf("Turns = %d, want 1", m.Turns)
	}
}

func TestRespondStream(t *testing.T) {
	s := newTestServer(t)

	q := url.Values{}
	q.Set("task", "implement a health check endpoint for the service")
	q.Set("context", "Go service")
	q.Add("criterion", "endpoint returns 200")
	q.Set("session_id", "s1")

	req := httptest.NewRequest(http.MethodGet, "/api/respond/stream?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"event: meta", "event: checkpoint", "event: delta", "event: done"} {
		if !strings.Contains(body, want) {
			t.Errorf("stream missing %q", want)
		}
	}
	if strings.Contains(body, "event: error") {
		t.Errorf("unexpected error event in stream: %s", body)
	}
}

func TestRespondStreamRequiresTask(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/respond/stream", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWebSocketRespond(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{
		"type":    "respond",
		"request": clearRequest("s1"),
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	sawCheckpoint := false
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		switch msg.Type {
		case "checkpoint":
			sawCheckpoint = true
		case "result":
			if msg.Result == nil || msg.Result.Outcome != arbiter.OutcomeEmit {
				t.Fatalf("result = %+v, want emit", msg.Result)
			}
			if !sawCheckpoint {
				t.Error("no checkpoint before result")
			}
			return
		case "error":
			t.Fatalf("error message: %s", msg.Error)
		}
	}
}
