package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"onmydesk/worker"
)

// DownloadHandler sert le fichier n° file (0 par défaut) d'un job traité.
// Si le stockage fournit une URL, on redirige; sinon le fichier local est envoyé.
func (s *Server) DownloadHandler() http.HandlerFunc {
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
		idx := 0
		if v := r.URL.Query().Get("file"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid file index")
				return
			}
			idx = n
		}
		results := job.ResultsList()
		if job.Status != worker.StatusProcessed || idx < 0 || idx >= len(results) {
			writeError(w, http.StatusNotFound, "file not found for this job")
			return
		}
		result := results[idx]

		if s.Links != nil {
			link, err := s.Links.Link(r.Context(), result)
			if err == nil && (strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://")) {
				s.AccessLog.Writef("[DOWNLOAD] user=%s id=%d redirect=%s", claims.Subject, job.ID, link)
				http.Redirect(w, r, link, http.StatusFound)
				return
			}
		}
		if _, err := os.Stat(result); err != nil {
			writeError(w, http.StatusNotFound, "file not found for this job")
			return
		}
		s.AccessLog.Writef("[DOWNLOAD] user=%s id=%d path=%s", claims.Subject, job.ID, result)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"report_%d%s\"", job.ID, filepath.Ext(result)))
		http.ServeFile(w, r, result)
	}
}
