package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lyricpass/internal/pipeline"
	"lyricpass/pkg/utils"
)

type WordlistRequest struct {
	Artist    string `json:"artist"`
	Lowercase *bool  `json:"lowercase,omitempty"` // nil keeps the configured default
}

type JobResponse struct {
	ID          string    `json:"id"`
	Artist      string    `json:"artist"`
	Status      JobStatus `json:"status"`
	Progress    int       `json:"progress"`
	Total       int       `json:"total"`
	WithLyrics  int       `json:"with_lyrics"`
	Candidates  int       `json:"candidates"`
	Warnings    []string  `json:"warnings,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   string    `json:"created_at"`
	StartedAt   *string   `json:"started_at,omitempty"`
	CompletedAt *string   `json:"completed_at,omitempty"`
}

func (s *Server) handleCreateWordlist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req WordlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Artist = strings.TrimSpace(req.Artist)
	if req.Artist == "" {
		http.Error(w, "artist is required", http.StatusBadRequest)
		return
	}

	opts := s.config.PipelineOptions()
	if req.Lowercase != nil {
		opts.Wordlist.Lowercase = *req.Lowercase
	}

	job := s.jobMgr.CreateJob(req.Artist, opts)
	s.logger.Info("Created job %s for artist: %s", job.ID, req.Artist)

	go s.processJob(job)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(s.jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobs := s.jobMgr.ListJobs()
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = s.jobToResponse(job)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	// Extract job ID from path: /api/jobs/{id}, /api/jobs/{id}/cancel or /api/jobs/{id}/wordlist
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]
	job, err := s.jobMgr.GetJob(jobID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	switch {
	// GET /api/jobs/{id}
	case r.Method == http.MethodGet && len(parts) == 1:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.jobToResponse(job))

	// GET /api/jobs/{id}/wordlist
	case r.Method == http.MethodGet && len(parts) == 2 && parts[1] == "wordlist":
		if job.Status != StatusCompleted {
			http.Error(w, fmt.Sprintf("job is %s", job.Status), http.StatusConflict)
			return
		}
		name, _ := utils.OutputNames([]string{job.Artist}, *job.CompletedAt)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		for _, c := range job.Candidates {
			fmt.Fprintln(w, c)
		}

	// POST /api/jobs/{id}/cancel
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "cancel":
		if job.Status.Finished() {
			http.Error(w, fmt.Sprintf("job already %s", job.Status), http.StatusConflict)
			return
		}
		if job.Cancel != nil {
			job.Cancel()
		}
		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusCancelled
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})

	default:
		http.Error(w, "Invalid request", http.StatusBadRequest)
	}
}

func (s *Server) processJob(job *Job) {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	// Store cancel function in job
	var cancelledEarly bool
	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		cancelledEarly = j.Status.Finished()
		j.Cancel = cancel
		j.Status = StatusRunning
	})
	if cancelledEarly {
		s.logger.Info("Job %s cancelled before it started", job.ID)
		return
	}

	s.logger.Info("Starting job %s", job.ID)

	hooks := pipeline.Hooks{
		OnCatalogResolved: func(_ string, total int) {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) {
				j.Total += total
			})
		},
		OnProgress: func() {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) {
				j.Progress++
			})
		},
		OnWarning: func(msg string) {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) {
				if len(j.Warnings) < maxWarnings {
					j.Warnings = append(j.Warnings, msg)
				}
			})
		},
	}

	res, err := pipeline.Run(ctx, job.Artist, s.sources, job.Options, s.logger, hooks)
	if err != nil {
		s.logger.Error("Job %s failed: %v", job.ID, err)
		s.jobMgr.UpdateJob(job.ID, func(j *Job) {
			j.Status = StatusFailed
			j.Error = err.Error()
		})
		return
	}

	if ctx.Err() != nil {
		s.logger.Info("Job %s cancelled", job.ID)
		s.jobMgr.UpdateJob(job.ID, func(j *Job) {
			j.Status = StatusCancelled
		})
		return
	}

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Candidates = res.Candidates
		j.WithLyrics = res.WithLyrics
		j.Status = StatusCompleted
	})

	s.logger.Info("Job %s completed: %d candidates from %d/%d songs", job.ID, len(res.Candidates), res.WithLyrics, res.Songs)
}

func (s *Server) jobToResponse(job *Job) *JobResponse {
	resp := &JobResponse{
		ID:         job.ID,
		Artist:     job.Artist,
		Status:     job.Status,
		Progress:   job.Progress,
		Total:      job.Total,
		WithLyrics: job.WithLyrics,
		Candidates: len(job.Candidates),
		Warnings:   job.Warnings,
		Error:      job.Error,
		CreatedAt:  job.CreatedAt.Format(time.DateTime),
	}

	if job.StartedAt != nil {
		started := job.StartedAt.Format(time.DateTime)
		resp.StartedAt = &started
	}

	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format(time.DateTime)
		resp.CompletedAt = &completed
	}

	return resp
}
