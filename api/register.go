// Package api exposes report submission and job status over HTTP with JWT auth.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"onmydesk/auth"
	"onmydesk/config"
	"onmydesk/logging"
	"onmydesk/metrics"
	"onmydesk/report"
	"onmydesk/storage"
	"onmydesk/worker"
)

// JobStore is what the handlers need from the job table (store.Store).
type JobStore interface {
	SaveJob(ctx context.Context, job *worker.Job) error
	GetJob(ctx context.Context, id int64) (*worker.Job, error)
	ListJobs(ctx context.Context, owner string, limit int) ([]*worker.Job, error)
}

// JobRunner runs a saved job synchronously (worker.Runner).
type JobRunner interface {
	Run(ctx context.Context, job *worker.Job) error
}

type Server struct {
	Config  config.ServerConfig
	Reports *report.Registry
	Jobs    JobStore
	Runner  JobRunner // nil: jobs always stay pending
	Links   storage.Linker
	Metrics *metrics.Metrics

	AccessLog *logging.Logger
	LoginLog  *logging.Logger

	mu    sync.RWMutex
	users *auth.UsersFile
}

// SetUsers remplace la liste des utilisateurs (rechargement sur SIGHUP).
func (s *Server) SetUsers(uf *auth.UsersFile) {
	s.mu.Lock()
	s.users = uf
	s.mu.Unlock()
}

func (s *Server) usersFile() *auth.UsersFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.users == nil {
		return &auth.UsersFile{Users: map[string]auth.UserInfo{}}
	}
	return s.users
}

func (s *Server) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/api/login", s.LoginHandler())
	mux.HandleFunc("/api/reports", s.ReportsHandler())
	mux.HandleFunc("/api/reports/available", s.AvailableHandler())
	mux.HandleFunc("/api/reports/status", s.ReportStatusHandler())
	mux.HandleFunc("/api/reports/download", s.DownloadHandler())
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics.Handler())
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterHandlers(mux)
	return mux
}

// StartServer listens until ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, listenAddr string, h http.Handler) error {
	srv := &http.Server{Addr: listenAddr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// claims valide le JWT; écrit 401 et renvoie false sinon.
func (s *Server) claims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	c, err := auth.FromRequest(r, s.Config.JWTSecret)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return c, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
