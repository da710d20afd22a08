package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"onmydesk/auth"
)

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Méthode non autorisée", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "JSON invalide", http.StatusBadRequest)
			s.LoginLog.Write("LOGIN FAIL (bad json)")
			return
		}
		u, err := s.usersFile().Authenticate(s.Config, req.Username, req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			s.LoginLog.Write("LOGIN FAIL user=" + req.Username)
			return
		}
		if err != nil {
			http.Error(w, "Erreur serveur", http.StatusInternalServerError)
			s.LoginLog.Writef("LOGIN FAIL (hash) user=%s err=%v", req.Username, err)
			return
		}
		token, err := auth.GenerateJWT(s.Config.JWTSecret, req.Username, u.Admin, s.Config.JWTExpirationMinutes)
		if err != nil {
			http.Error(w, "Erreur serveur", http.StatusInternalServerError)
			s.LoginLog.Writef("LOGIN FAIL (jwt) user=%s err=%v", req.Username, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
		s.LoginLog.Write("LOGIN OK user=" + req.Username)
	}
}
