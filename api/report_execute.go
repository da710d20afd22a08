package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"onmydesk/auth"
	"onmydesk/report"
	"onmydesk/worker"
)

const defaultListLimit = 50

// jobView is the JSON shape of a job.
type jobView struct {
	ID         int64         `json:"id"`
	Report     string        `json:"report"`
	Params     report.Params `json:"params"`
	Status     worker.Status `json:"status"`
	CreatedBy  string        `json:"created_by"`
	InsertDate time.Time     `json:"insert_date"`
	UpdateDate time.Time     `json:"update_date"`
	Results    []resultView  `json:"results,omitempty"`
	Error      string        `json:"error,omitempty"`
}

type resultView struct {
	Path string `json:"path"`
	Link string `json:"link"`
}

func viewOf(j *worker.Job) jobView {
	return jobView{
		ID:         j.ID,
		Report:     j.Report,
		Params:     j.Params,
		Status:     j.Status,
		CreatedBy:  j.CreatedBy,
		InsertDate: j.InsertDate,
		UpdateDate: j.UpdateDate,
	}
}

// ReportsHandler: GET liste les jobs de l'utilisateur (tous pour un admin),
// POST crée un job {report, params, process}.
func (s *Server) ReportsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.claims(w, r)
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodGet:
			s.listJobs(w, r, claims)
		case http.MethodPost:
			s.submitJob(w, r, claims)
		default:
			http.Error(w, "Méthode non autorisée", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	owner := claims.Subject
	if claims.Admin {
		owner = ""
	}
	jobs, err := s.Jobs.ListJobs(r.Context(), owner, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list jobs")
		s.AccessLog.Writef("LIST_FAIL user=%s err=%v", claims.Subject, err)
		return
	}
	out := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, viewOf(j))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request, claims *auth.Claims) {
	var payload struct {
		Report  string        `json:"report"`
		Params  report.Params `json:"params"`
		Process bool          `json:"process"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad JSON")
		s.AccessLog.Write("EXECUTE_FAIL user=" + claims.Subject + " bad_json")
		return
	}
	if payload.Params == nil {
		payload.Params = report.Params{}
	}
	t, err := s.Reports.Get(payload.Report)
	if err == nil {
		err = t.Validate(payload.Params)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		s.AccessLog.Writef("EXECUTE_FAIL user=%s report=%s err=%v", claims.Subject, payload.Report, err)
		return
	}

	job := worker.NewJob(payload.Report, payload.Params, claims.Subject)
	if err := s.Jobs.SaveJob(r.Context(), job); err != nil {
		writeError(w, http.StatusInternalServerError, "could not save job")
		s.AccessLog.Writef("EXECUTE_FAIL user=%s report=%s err=%v", claims.Subject, payload.Report, err)
		return
	}
	s.AccessLog.Writef("EXECUTE_OK user=%s id=%d report=%s", claims.Subject, job.ID, job.Report)

	view := viewOf(job)
	if payload.Process && s.Runner != nil {
		// l'état final (processed ou error) est déjà enregistré par le runner
		errMsg := ""
		if err := s.Runner.Run(r.Context(), job); err != nil {
			errMsg = err.Error()
		}
		view = s.withResults(r, job, errMsg)
	}
	writeJSON(w, http.StatusCreated, view)
}
