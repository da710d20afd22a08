package api

import (
	"errors"
	"net/http"
	"strconv"

	"onmydesk/auth"
	"onmydesk/storage"
	"onmydesk/store"
	"onmydesk/worker"
)

// ReportStatusHandler renvoie l'état d'un job et les liens de ses fichiers.
func (s *Server) ReportStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Méthode non autorisée", http.StatusMethodNotAllowed)
			return
		}
		claims, ok := s.claims(w, r)
		if !ok {
			return
		}
		job, ok := s.ownedJob(w, r, claims)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.withResults(r, job, ""))
	}
}

// ownedJob charge le job ?id=. Un utilisateur non admin ne voit que les siens;
// les autres répondent 404 comme un id inconnu.
func (s *Server) ownedJob(w http.ResponseWriter, r *http.Request, claims *auth.Claims) (*worker.Job, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "missing or invalid id")
		return nil, false
	}
	job, err := s.Jobs.GetJob(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !claims.Admin && job.CreatedBy != claims.Subject) {
		writeError(w, http.StatusNotFound, "job not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load job")
		s.AccessLog.Writef("STATUS_FAIL id=%d err=%v", id, err)
		return nil, false
	}
	return job, true
}

func (s *Server) withResults(r *http.Request, job *worker.Job, errMsg string) jobView {
	view := viewOf(job)
	view.Error = errMsg
	for _, p := range job.ResultsList() {
		link := storage.NoLink
		if s.Links != nil {
			l, err := s.Links.Link(r.Context(), p)
			if err != nil {
				s.AccessLog.Writef("LINK_FAIL id=%d path=%s err=%v", job.ID, p, err)
			} else {
				link = l
			}
		}
		view.Results = append(view.Results, resultView{Path: p, Link: link})
	}
	return view
}
