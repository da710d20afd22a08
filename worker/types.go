package worker

import (
	"errors"
	"strings"
	"time"

	"onmydesk/report"
)

// Statuts possibles d’un job
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusError      Status = "error"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusProcessed || s == StatusError
}

// ResultsSeparator joins result paths in the persisted results field.
// A path containing it cannot be stored unambiguously.
const ResultsSeparator = ";"

var (
	// ErrNotSaved is returned when running a job that has no persisted id.
	ErrNotSaved = errors.New("worker: job not saved")
	// ErrFinished is returned when running a job already processed or in error.
	ErrFinished = errors.New("worker: job already finished")
)

// Job est l’unité de travail persistée : un rapport, ses paramètres,
// son statut et les fichiers produits.
type Job struct {
	ID         int64
	Report     string // clé du registre
	Params     report.Params
	Status     Status
	Results    string
	InsertDate time.Time
	UpdateDate time.Time
	CreatedBy  string
}

// NewJob returns an unsaved pending job.
func NewJob(reportKey string, params report.Params, owner string) *Job {
	if params == nil {
		params = report.Params{}
	}
	return &Job{Report: reportKey, Params: params, Status: StatusPending, CreatedBy: owner}
}

// ResultsList splits Results, an empty field giving an empty list.
func (j *Job) ResultsList() []string {
	if j.Results == "" {
		return []string{}
	}
	return strings.Split(j.Results, ResultsSeparator)
}

func (j *Job) SetResults(paths []string) {
	j.Results = strings.Join(paths, ResultsSeparator)
}
