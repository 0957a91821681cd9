package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dxerrors "github.com/docdex/docdex/internal/errors"
	"github.com/docdex/docdex/internal/search"
	"github.com/docdex/docdex/internal/text"
)

// SearchRequest is the POST /search payload.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// SearchResponse is the POST /search reply.
type SearchResponse struct {
	Results []search.Result `json:"results"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	svc := s.currentService()
	if svc == nil {
		s.respondError(w, http.StatusServiceUnavailable, dxerrors.ServiceNotReady())
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Query == "" {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "query must not be empty"})
		return
	}
	if req.TopK == 0 {
		req.TopK = s.config.DefaultTopK
	}

	query := req.Query
	if s.expander != nil {
		query = s.expander.Expand(query)
		s.logger.Debug("query_expanded",
			slog.String("original", req.Query), slog.String("expanded", query))
	}

	queryVec, err := s.embedder.Embed(r.Context(), text.Normalize(query))
	if err != nil {
		s.logger.Error("query_embed_failed", slog.String("error", err.Error()))
		s.respondError(w, http.StatusBadGateway, dxerrors.EmbeddingFailure(nil, err))
		return
	}

	results, err := svc.Search(queryVec, req.TopK)
	if err != nil {
		s.logger.Error("search_failed", slog.String("error", err.Error()))
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("search_completed",
		slog.String("query", req.Query),
		slog.Int("top_k", req.TopK),
		slog.Int("results", len(results)))
	s.respondJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"ready": false}
	if svc := s.currentService(); svc != nil {
		resp["ready"] = true
		resp["documents"] = svc.Len()
		resp["dimensions"] = svc.Dims()
	}
	if s.embedder != nil {
		resp["model"] = s.embedder.ModelName()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response_encode_failed", slog.String("error", err.Error()))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var derr *dxerrors.Error
	if errors.As(err, &derr) {
		resp.Code = derr.Code
		resp.Retryable = derr.Retryable
	}
	s.respondJSON(w, status, resp)
}
