package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/modelindex/internal/indexer"
	"github.com/hyperjump/modelindex/internal/models"
	"github.com/hyperjump/modelindex/internal/project"
	"github.com/hyperjump/modelindex/internal/storage"
	"go.uber.org/zap"
)

func (s *Server) store() *indexer.Store {
	return s.project.Indexer().Current()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	PassID         string             `json:"pass_id"`
	Generation     uint64             `json:"generation"`
	BuiltAt        *time.Time         `json:"built_at,omitempty"`
	Root           string             `json:"root"`
	Files          int                `json:"files"`
	IDs            int                `json:"ids"`
	Links          int                `json:"links"`
	Unresolved     int                `json:"unresolved_links"`
	Errors         int                `json:"errors"`
	Warnings       int                `json:"warnings"`
	LastPass       indexer.Statistics `json:"last_pass"`
	KeywordDocs    *uint64            `json:"keyword_docs,omitempty"`
	Persisted      *project.Persisted `json:"persisted,omitempty"`
	DiskUsageBytes *int64             `json:"disk_usage_bytes,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.store()
	resp := statusResponse{
		PassID:     st.PassID(),
		Generation: st.Generation(),
		Root:       s.project.Root(),
		Files:      st.Len(),
		IDs:        len(st.IDs()),
		Links:      len(st.Links()),
		Unresolved: len(st.UnresolvedLinks()),
		Errors:     len(st.AllErrors()),
		Warnings:   len(st.Warnings()),
		LastPass:   st.Stats(),
	}
	if !st.BuiltAt().IsZero() {
		builtAt := st.BuiltAt()
		resp.BuiltAt = &builtAt
	}
	if s.keyword != nil {
		if n, err := s.keyword.DocCount(); err == nil {
			resp.KeywordDocs = &n
		}
	}
	if persisted, err := s.project.Persisted(r.Context()); err != nil {
		s.logger.Warn("status: reading stored snapshot failed", zap.Error(err))
	} else {
		resp.Persisted = persisted
	}
	if s.config != nil {
		if n, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Storage.BleveIndexPath); err == nil {
			resp.DiskUsageBytes = &n
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		s.respondError(w, http.StatusBadRequest, "uri is required")
		return
	}
	meta, ok := s.store().GetMetadata(uri)
	if !ok {
		s.respondError(w, http.StatusNotFound, "file not indexed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"uri": uri, "metadata": meta})
}

func (s *Server) handleResolveID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "uris": s.store().ResolveID(id)})
}

func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st := s.store()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":          id,
		"declared_by": st.ResolveID(id),
		"references":  st.References(id),
	})
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	st := s.store()
	s.respondJSON(w, http.StatusOK, map[string][]models.Failure{
		"errors":   st.AllErrors(),
		"warnings": st.Warnings(),
	})
}

func (s *Server) handleUnresolved(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string][]indexer.Link{"links": s.store().UnresolvedLinks()})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		s.respondError(w, http.StatusNotImplemented, "search not enabled")
		return
	}
	q := r.URL.Query()
	query := &models.SearchQuery{
		Query:        q.Get("q"),
		Type:         q.Get("type"),
		FuzzyEnabled: q.Get("fuzzy") == "true",
	}
	if strings.TrimSpace(query.Query) == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		query.Limit = n
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	resp, err := s.search.Search(r.Context(), s.store(), query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("reindex request", zap.String("root", s.project.Root()))
	st, err := s.project.Reindex(r.Context())
	if errors.Is(err, indexer.ErrSuperseded) {
		s.respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"pass_id":    st.PassID(),
		"generation": st.Generation(),
		"stats":      st.Stats(),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
