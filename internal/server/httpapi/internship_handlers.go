package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/interntrack/internal/server/auth"
	"github.com/dmitrijs2005/interntrack/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const internshipNotFound = "internship not found"

func (s *Server) handleListInternships(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	list, err := s.internships.List(r.Context(), id.UserID)
	if err != nil {
		s.fail(w, r, err, internshipNotFound)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateInternship(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var in services.InternshipInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err, "")
		return
	}

	it, err := s.internships.Create(r.Context(), id.UserID, in)
	if err != nil {
		s.fail(w, r, err, internshipNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) handleInternshipStats(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	st, err := s.internships.Stats(r.Context(), id.UserID)
	if err != nil {
		s.fail(w, r, err, internshipNotFound)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetInternship(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	it, err := s.internships.Get(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, internshipNotFound)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleUpdateInternship(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var in services.InternshipInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err, "")
		return
	}

	it, err := s.internships.Update(r.Context(), id.UserID, chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, r, err, internshipNotFound)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleDeleteInternship(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := s.internships.Delete(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, internshipNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Internship deleted successfully"})
}
