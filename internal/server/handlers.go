package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type crawlRequest struct {
	URL       string `json:"url" validate:"required,url"`
	ProjectID string `json:"project_id" validate:"required"`
	MaxDepth  int    `json:"max_depth" validate:"omitempty,min=1,max=10"`
}

type embeddingsRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
}

type questionRequest struct {
	Question  string `json:"question" validate:"required"`
	ProjectID string `json:"project_id" validate:"required"`
}

// withAuth requires the configured bearer token on every route except the
// health check.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		// The bot token may arrive bare or with a Bearer prefix.
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if s.cfg.BotAuth == "" || token != s.cfg.BotAuth {
			s.errorResponse(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleCrawl kicks off a background crawl and returns immediately.
func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if !s.decode(w, r, &req) {
		return
	}

	maxDepth := req.MaxDepth
	if maxDepth == 0 {
		maxDepth = s.cfg.MaxDepth
	}

	s.background("crawl", req.ProjectID, func(ctx context.Context) error {
		result, err := s.crawler.Crawl(ctx, req.URL, maxDepth)
		if err != nil {
			return err
		}
		s.log.Info("crawl finished",
			zap.String("project", req.ProjectID),
			zap.String("url", req.URL),
			zap.Int("found", len(result.Found)),
			zap.Int("errors", len(result.Errors)),
		)
		if len(result.Found) == 0 {
			return nil
		}
		if err := s.store.EnsureProject(ctx, req.ProjectID); err != nil {
			return err
		}
		inserted, err := s.store.SetDocumentURLs(ctx, req.ProjectID, result.Found)
		if err != nil {
			return err
		}
		s.log.Info("stored discovered URLs",
			zap.String("project", req.ProjectID),
			zap.Int64("inserted", inserted),
		)
		return nil
	})

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"note": "Successfully started crawling operation. This endpoint only starts the crawl; check the store for discovered records.",
	})
}

// handleEmbeddings kicks off background embedding of a project's pending URLs.
func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingsRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.background("embeddings", req.ProjectID, func(ctx context.Context) error {
		return s.ingestor.SetEmbeddings(ctx, req.ProjectID)
	})

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"note": "Successfully started embeddings. This endpoint only starts the job; check the store for embedded records.",
	})
}

// handleQuestion answers synchronously.
func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !s.decode(w, r, &req) {
		return
	}

	answer, err := s.answerer.Answer(r.Context(), req.ProjectID, req.Question)
	if err != nil {
		s.log.Error("failed to answer question",
			zap.String("project", req.ProjectID),
			zap.Error(err),
		)
		s.errorResponse(w, http.StatusInternalServerError, "failed to answer question")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode unmarshals and validates a JSON request body, writing a 400 and
// returning false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			s.errorResponse(w, http.StatusBadRequest, "invalid field: "+strings.ToLower(verrs[0].Field()))
			return false
		}
		s.errorResponse(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
