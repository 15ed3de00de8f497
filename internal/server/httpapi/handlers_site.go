package httpapi

import (
	"net/http"
	"path"
	"strings"

	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
)

type siteListing struct {
	Files       []models.FileEntry `json:"files"`
	CurrentPath string             `json:"currentPath"`
	ParentPath  string             `json:"parentPath"`
}

type siteFileBody struct {
	FilePath string  `json:"filePath"`
	Content  *string `json:"content"`
}

func (s *Server) handleListSiteFiles(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("filePath")
	if dir == "" {
		dir = r.URL.Query().Get("directory")
	}

	files, err := s.site.List(r.Context(), dir)
	if err != nil {
		s.writeError(w, r, "error reading directory", err)
		return
	}
	if files == nil {
		files = []models.FileEntry{}
	}
	writeOK(w, http.StatusOK, "Directory listed successfully", siteListing{
		Files:       files,
		CurrentPath: dir,
		ParentPath:  parentOf(dir),
	})
}

func (s *Server) handleReadSiteFile(w http.ResponseWriter, r *http.Request) {
	f, err := s.site.Read(r.Context(), r.URL.Query().Get("filePath"))
	if err != nil {
		s.writeError(w, r, "error reading file", err)
		return
	}
	writeOK(w, http.StatusOK, "File retrieved successfully", f)
}

func (s *Server) handleWriteSiteFile(w http.ResponseWriter, r *http.Request) {
	var body siteFileBody
	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes())
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "invalid file request", err)
		return
	}
	if body.FilePath == "" || body.Content == nil {
		s.writeError(w, r, "file path and content are required", &requestError{msg: "file path and content are required"})
		return
	}

	if err := s.site.Write(r.Context(), body.FilePath, *body.Content); err != nil {
		s.writeError(w, r, "error updating file", err)
		return
	}
	writeOK(w, http.StatusOK, "File updated successfully", nil)
}

func parentOf(dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return ""
	}
	parent := path.Dir(dir)
	if parent == "." {
		return ""
	}
	return parent
}
