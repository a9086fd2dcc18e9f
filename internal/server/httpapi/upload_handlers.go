package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/interntrack/internal/common"
	"github.com/dmitrijs2005/interntrack/internal/server/auth"
	"github.com/dmitrijs2005/interntrack/internal/server/models"
	"github.com/go-chi/chi/v5"
)

const (
	fileNotFound = "file not found"

	// multipartOverhead covers boundaries and part headers around the file.
	multipartOverhead = 64 << 10
	multipartMemory   = 1 << 20
)

type uploadResponse struct {
	Message string             `json:"message"`
	File    *models.StoredFile `json:"file"`
}

type downloadResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	limit := s.uploads.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, common.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", limit)), "")
			return
		}
		s.fail(w, r, common.NewValidationError("file", "please upload a file"), "")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, common.NewValidationError("file", "please upload a file"), "")
		return
	}
	defer file.Close()

	stored, err := s.uploads.Upload(r.Context(), id.UserID, header.Filename,
		header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		s.fail(w, r, err, fileNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{Message: "File uploaded successfully", File: stored})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	files, err := s.uploads.List(r.Context(), id.UserID)
	if err != nil {
		s.fail(w, r, err, fileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleDownloadURL(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	url, err := s.uploads.DownloadURL(r.Context(), id.UserID, chi.URLParam(r, "filename"))
	if err != nil {
		s.fail(w, r, err, fileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, downloadResponse{URL: url})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := s.uploads.Delete(r.Context(), id.UserID, chi.URLParam(r, "filename")); err != nil {
		s.fail(w, r, err, fileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "File deleted successfully"})
}
