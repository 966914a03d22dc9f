package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hupe1980/agentrouter/auth"
	"github.com/hupe1980/agentrouter/core"
)

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var cfg core.AgentConfig
	if !s.decode(w, r, &cfg) {
		return
	}

	stored, err := s.registry.Register(cfg)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "agent": stored})
}

func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cfg, ok := s.registry.LookupConfig(id)
	if !ok {
		writeDetail(w, http.StatusNotFound, core.NotFoundReply(id))
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req core.MessageRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, req)
}

// handleAgentMessage addresses the agent named in the path. An empty toId is
// filled from the path; an empty toType follows the registered config.
func (s *Server) handleAgentMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req core.MessageRequest
	if !s.decode(w, r, &req) {
		return
	}

	switch req.ToID {
	case "":
		req.ToID = id
	case id:
	default:
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("toId %q does not match path agent %q", req.ToID, id))
		return
	}

	if req.ToType == "" {
		req.ToType = core.DestinationLocal
		if cfg, ok := s.registry.LookupConfig(id); ok && cfg.IsRemote() {
			req.ToType = core.DestinationRemote
			if req.RemoteURL == "" {
				req.RemoteURL = cfg.RemoteURL
			}
		}
	}

	s.dispatch(w, r, req)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req core.MessageRequest) {
	rec, err := s.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "log": rec})
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	recs, err := s.telemetry.Read(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type converseRequest struct {
	FromID    string         `json:"fromId"`
	Message   string         `json:"message"`
	SessionID string         `json:"sessionId,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

type converseResponse struct {
	Reply     string         `json:"reply"`
	AgentID   string         `json:"agentId"`
	SessionID string         `json:"sessionId"`
	Context   map[string]any `json:"context"`
}

// handleConverse runs the agent named by fromId directly. Nothing is recorded.
func (s *Server) handleConverse(w http.ResponseWriter, r *http.Request) {
	var req converseRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.FromID == "" {
		writeError(w, &core.ValidationError{Field: "fromId", Message: "fromId is required"})
		return
	}

	reply, found, err := s.dispatcher.Converse(r.Context(), req.FromID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := converseResponse{
		Reply:     reply,
		AgentID:   req.FromID,
		SessionID: req.SessionID,
		Context:   req.Context,
	}
	if !found {
		resp.AgentID = "unknown"
	}
	if resp.SessionID == "" {
		resp.SessionID = uuid.NewString()
	}
	if resp.Context == nil {
		resp.Context = map[string]any{}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"url": s.opts.Google.AuthURL()})
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("code") == "" {
		writeDetail(w, http.StatusBadRequest, "missing code")
		return
	}

	res, err := s.opts.Google.Callback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		s.opts.Logger.Warn("auth.google.callback.failed", "error", err.Error())
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": claims.Email})
}
