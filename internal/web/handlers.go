package web

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/JonMunkholm/tidycsv/internal/core"
	"github.com/JonMunkholm/tidycsv/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// multipartSlack covers form fields and part headers on top of the file.
const multipartSlack = 1 << 20

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 32 << 20

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	templ.Handler(templates.IndexPage(templates.FormDefaults{
		Numeric:     s.cfg.Upload.DefaultNumeric,
		Categorical: s.cfg.Upload.DefaultCategorical,
		MaxFileSize: s.cfg.Upload.MaxFileSize,
	})).ServeHTTP(w, r)
}

// handleUpload cleans a form upload and renders the summary page, or the
// run as JSON when the client asks for it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	res, err := s.cleanUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if wantsJSON(r) {
		render.JSON(w, r, res)
		return
	}
	templ.Handler(templates.SummaryPage(res)).ServeHTTP(w, r)
}

// handleAPIClean is the JSON-only form of handleUpload.
func (s *Server) handleAPIClean(w http.ResponseWriter, r *http.Request) {
	res, err := s.cleanUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, res)
}

// cleanUpload reads the multipart form and runs it through the service.
func (s *Server) cleanUpload(w http.ResponseWriter, r *http.Request) (*core.RunResult, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartSlack)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, errNoFile
		}
		return nil, fmt.Errorf("parse upload form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errNoFile
		}
		return nil, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, fmt.Errorf("file too large: %d bytes exceeds %d", header.Size, maxSize)
	}

	form := uploadForm{
		FileName:            header.Filename,
		NumericStrategy:     r.FormValue("numeric_strategy"),
		CategoricalStrategy: r.FormValue("categorical_strategy"),
	}
	if err := s.validate.Struct(form); err != nil {
		return nil, err
	}

	ctx := WithRequestMetadata(r.Context(), r)
	return s.service.Clean(ctx, core.CleanRequest{
		FileName:            form.FileName,
		Body:                file,
		NumericStrategy:     form.NumericStrategy,
		CategoricalStrategy: form.CategoricalStrategy,
	})
}

// handleDownload serves a cleaned file as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}

	req := downloadRequest{FileName: name}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, err)
		return
	}

	f, format, err := s.service.OpenCleaned(req.FileName)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": req.FileName}))
	http.ServeContent(w, r, req.FileName, time.Time{}, f)
}

// handleRun returns a recent run by id.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req := runRequest{RunID: chi.URLParam(r, "runID")}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Run(req.RunID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}
