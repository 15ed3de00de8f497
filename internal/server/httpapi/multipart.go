package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/server/filestore"
)

const multipartMemory = 32 << 20

// maxRequestBytes caps a whole request body; single files are limited by the
// upload policy.
func (s *Server) maxRequestBytes() int64 {
	return s.settings.MaxUploadBytes*16 + 1<<20
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mt, "multipart/")
}

// parseMultipart reads the form and opens every file part. Parts of the
// "images" field come first, then the other fields by name, each in the
// order the client sent them. The returned closer releases the files.
func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) ([]filestore.Upload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, func() {}, fmt.Errorf("%w: request exceeds %d bytes", common.ErrFileTooLarge, tooBig.Limit)
		}
		return nil, func() {}, &requestError{msg: "invalid multipart form: " + err.Error()}
	}

	fields := make([]string, 0, len(r.MultipartForm.File))
	for name := range r.MultipartForm.File {
		fields = append(fields, name)
	}
	sort.Slice(fields, func(i, j int) bool {
		if (fields[i] == "images") != (fields[j] == "images") {
			return fields[i] == "images"
		}
		return fields[i] < fields[j]
	})

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		_ = r.MultipartForm.RemoveAll()
	}

	var uploads []filestore.Upload
	for _, field := range fields {
		for _, fh := range r.MultipartForm.File[field] {
			f, err := fh.Open()
			if err != nil {
				closeAll()
				return nil, func() {}, fmt.Errorf("open part %s: %w", fh.Filename, err)
			}
			opened = append(opened, f)
			uploads = append(uploads, filestore.Upload{
				Name:     fh.Filename,
				MimeType: fh.Header.Get("Content-Type"),
				Size:     fh.Size,
				Body:     f,
			})
		}
	}
	return uploads, closeAll, nil
}

// sectionsValue turns a sections field into something doctree.Normalize
// accepts. A JSON string holding JSON text is unwrapped.
func sectionsValue(raw json.RawMessage) (any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidSectionsJSON, err)
		}
		return text, nil
	}
	return raw, nil
}
