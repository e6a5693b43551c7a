package web

import (
	"context"
	"net/http"

	"lyricpass/internal/config"
	"lyricpass/internal/logger"
	"lyricpass/internal/lyrics"
)

type Server struct {
	ctx     context.Context
	jobMgr  *JobManager
	config  config.Config
	sources []lyrics.Source
	logger  *logger.Logger
}

// NewServer creates a server whose jobs run against sources and stop when
// ctx is cancelled.
func NewServer(ctx context.Context, jobMgr *JobManager, cfg config.Config, sources []lyrics.Source, log *logger.Logger) *Server {
	return &Server{
		ctx:     ctx,
		jobMgr:  jobMgr,
		config:  cfg,
		sources: sources,
		logger:  log,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/wordlists", s.handleCreateWordlist)
	mux.HandleFunc("/api/jobs", s.handleListJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobAction)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
