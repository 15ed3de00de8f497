package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
	"github.com/dmitrijs2005/pagekeeper/internal/server/services"
)

type pageBody struct {
	PageName string          `json:"pageName"`
	Sections json.RawMessage `json:"sections"`
}

type fieldBody struct {
	Path  string          `json:"path"`
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

type uploadResult struct {
	File models.UploadedFile `json:"file"`
	Page *models.Page        `json:"updatedPage,omitempty"`
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	list, err := s.pages.List(r.Context())
	if err != nil {
		s.writeError(w, r, "error retrieving pages", err)
		return
	}
	writeList(w, "Pages retrieved successfully", list)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.pages.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "page not found", err)
		return
	}
	writeOK(w, http.StatusOK, "Page retrieved successfully", page)
}

func (s *Server) handleGetPageByName(w http.ResponseWriter, r *http.Request) {
	page, err := s.pages.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, "page not found", err)
		return
	}
	writeOK(w, http.StatusOK, "Page retrieved successfully", page)
}

// readPageInput accepts either a JSON body or a multipart form with pageName,
// sections (JSON text) and any number of files.
func (s *Server) readPageInput(w http.ResponseWriter, r *http.Request) (services.PageInput, func(), error) {
	var in services.PageInput

	if isMultipart(r) {
		uploads, release, err := s.parseMultipart(w, r)
		if err != nil {
			return in, release, err
		}
		in.PageName = r.FormValue("pageName")
		if raw := strings.TrimSpace(r.FormValue("sections")); raw != "" {
			in.Sections = raw
		}
		in.Uploads = uploads
		return in, release, nil
	}

	var body pageBody
	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes())
	if err := decodeJSON(r, &body); err != nil {
		return in, func() {}, err
	}
	sections, err := sectionsValue(body.Sections)
	if err != nil {
		return in, func() {}, err
	}
	in.PageName = body.PageName
	in.Sections = sections
	return in, func() {}, nil
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	in, release, err := s.readPageInput(w, r)
	defer release()
	if err != nil {
		s.writeError(w, r, "invalid page request", err)
		return
	}

	page, err := s.pages.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, "error creating page", err)
		return
	}
	writeOK(w, http.StatusCreated, "Page created successfully", page)
}

func (s *Server) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	in, release, err := s.readPageInput(w, r)
	defer release()
	if err != nil {
		s.writeError(w, r, "invalid page request", err)
		return
	}

	page, err := s.pages.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, "error updating page", err)
		return
	}
	writeOK(w, http.StatusOK, "Page updated successfully", page)
}

func (s *Server) handleUpdatePageField(w http.ResponseWriter, r *http.Request) {
	path, value, err := readFieldBody(r)
	if err != nil {
		s.writeError(w, r, "invalid field update", err)
		return
	}

	page, err := s.pages.UpdateField(r.Context(), chi.URLParam(r, "id"), path, value)
	if err != nil {
		s.writeError(w, r, "error updating page field", err)
		return
	}
	writeOK(w, http.StatusOK, "Field updated successfully", page)
}

func (s *Server) handleUploadToPage(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		s.writeError(w, r, "multipart form expected", &requestError{msg: "multipart form expected"})
		return
	}
	uploads, release, err := s.parseMultipart(w, r)
	defer release()
	if err != nil {
		s.writeError(w, r, "invalid upload", err)
		return
	}
	if len(uploads) != 1 {
		s.writeError(w, r, "exactly one file expected", &requestError{msg: "exactly one file expected"})
		return
	}
	path := strings.TrimSpace(r.FormValue("fieldPath"))
	if path == "" {
		s.writeError(w, r, "fieldPath is required", &requestError{msg: "fieldPath is required"})
		return
	}

	page, file, err := s.pages.UploadToField(r.Context(), chi.URLParam(r, "id"), path, uploads[0])
	if err != nil {
		s.writeError(w, r, "error uploading file", err)
		return
	}
	writeOK(w, http.StatusOK, "File uploaded and page updated successfully", uploadResult{File: file, Page: page})
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	page, err := s.pages.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "error deleting page", err)
		return
	}
	writeOK(w, http.StatusOK, "Page deleted successfully", page)
}

// handleUpload stores files without touching any page.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		s.writeError(w, r, "multipart form expected", &requestError{msg: "multipart form expected"})
		return
	}
	uploads, release, err := s.parseMultipart(w, r)
	defer release()
	if err != nil {
		s.writeError(w, r, "invalid upload", err)
		return
	}
	if len(uploads) == 0 {
		s.writeError(w, r, "no file provided", &requestError{msg: "no file provided"})
		return
	}

	files, err := s.uploads.Save(r.Context(), uploads)
	if err != nil {
		s.writeError(w, r, "error uploading file", err)
		return
	}
	writeList(w, "Files uploaded successfully", files)
}

// readFieldBody decodes {path|field, value}. value must be present but may
// be null.
func readFieldBody(r *http.Request) (string, any, error) {
	var body fieldBody
	if err := decodeJSON(r, &body); err != nil {
		return "", nil, err
	}
	path := body.Path
	if path == "" {
		path = body.Field
	}
	if len(body.Value) == 0 {
		return "", nil, &requestError{msg: "value is required"}
	}
	var value any
	if err := json.Unmarshal(body.Value, &value); err != nil {
		return "", nil, &requestError{msg: "invalid value: " + err.Error()}
	}
	return path, value, nil
}
