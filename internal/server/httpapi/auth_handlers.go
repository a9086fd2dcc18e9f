package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/interntrack/internal/server/auth"
	"github.com/dmitrijs2005/interntrack/internal/server/services"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type profileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func newSessionResponse(s *services.Session) sessionResponse {
	return sessionResponse{ID: s.User.ID, Name: s.User.Name, Email: s.User.Email, Token: s.Token}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, "")
		return
	}

	sess, err := s.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, "")
		return
	}

	sess, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	u, err := s.users.Profile(r.Context(), id.UserID)
	if err != nil {
		s.fail(w, r, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt})
}
