package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/turnguard/internal/audit"
	"github.com/ziadkadry99/turnguard/internal/retrieval"
	"github.com/ziadkadry99/turnguard/internal/schema"
	"github.com/ziadkadry99/turnguard/internal/session"
)

func (s *Server) registerRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/respond", s.handleRespond)
		r.Get("/respond/stream", s.handleRespondStream)
		r.Get("/ws", s.handleWS)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/evidence", s.handleAddEvidence)
		r.Get("/evidence/search", s.handleSearchEvidence)
		r.Get("/audit", s.handleQueryAudit)
		r.Get("/models", s.handleModels)
		r.Get("/metrics", s.handleMetrics)
	})
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var req schema.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.engine.Respond(r.Context(), &req, nil)
	if err != nil {
		s.writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	turns, err := s.sessions.Turns(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess,
		"turns":   turns,
	})
}

func (s *Server) handleAddEvidence(w http.ResponseWriter, r *http.Request) {
	if s.evidence == nil {
		writeError(w, http.StatusServiceUnavailable, "evidence store not configured")
		return
	}

	var body struct {
		Items []retrieval.Evidence `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(body.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}

	accepted, err := s.evidence.Add(r.Context(), body.Items)
	quarantined := 0
	if err != nil {
		if !errors.Is(err, retrieval.ErrQuarantined) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		quarantined = len(body.Items) - len(accepted)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accepted":    len(accepted),
		"quarantined": quarantined,
	})
}

func (s *Server) handleSearchEvidence(w http.ResponseWriter, r *http.Request) {
	if s.evidence == nil {
		writeError(w, http.StatusServiceUnavailable, "evidence store not configured")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := s.evidence.Search(r.Context(), q, limit, nil)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if results == nil {
		results = []retrieval.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleQueryAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		TurnID:    q.Get("turn_id"),
		SessionID: q.Get("session_id"),
		Module:    audit.Module(q.Get("module")),
		Limit:     100,
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	entries, err := s.audit.Query(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"provider":           s.cfg.Provider,
		"model":              s.cfg.Model,
		"embedding_provider": s.cfg.EmbeddingProvider,
		"embedding_model":    s.cfg.EmbeddingModel,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Metrics())
}

// writeTurnError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schema.ErrSchemaViolation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, schema.ErrToolFailure):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.log.Error("turn failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
