package api

import (
	"net/http"

	"onmydesk/report"
)

type availableView struct {
	Key    string         `json:"key"`
	Name   string         `json:"name"`
	Fields []report.Field `json:"fields"`
}

// AvailableHandler liste les types de rapport et leurs champs de formulaire.
func (s *Server) AvailableHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Méthode non autorisée", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := s.claims(w, r); !ok {
			return
		}
		types := s.Reports.Available()
		out := make([]availableView, 0, len(types))
		for _, t := range types {
			fields := t.Fields
			if fields == nil {
				fields = []report.Field{}
			}
			out = append(out, availableView{Key: t.Key, Name: t.Name, Fields: fields})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
