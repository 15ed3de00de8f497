// Package filestore validates, names and stores uploaded media and computes
// the public URLs pages refer to.
package filestore

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
)

// DefaultMaxBytes is the per-file upload limit.
const DefaultMaxBytes = 5 << 20

// Policy is the upload allow-list. Extensions are compared case-insensitively
// and include the leading dot.
type Policy struct {
	MaxBytes  int64
	Images    []string
	Videos    []string
	Documents []string
}

func DefaultPolicy() Policy {
	return Policy{
		MaxBytes:  DefaultMaxBytes,
		Images:    []string{".jpg", ".jpeg", ".png", ".gif"},
		Videos:    []string{".mp4", ".avi", ".mov"},
		Documents: []string{".pdf"},
	}
}

// Classify decides the category from the declared MIME type and checks the
// extension against that category's allow-list. Without a usable MIME type
// the extension alone decides.
func (p Policy) Classify(name, mimeType string) (models.FileCategory, error) {
	ext := strings.ToLower(filepath.Ext(name))
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	var category models.FileCategory
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		category = models.CategoryImage
	case strings.HasPrefix(mimeType, "video/"):
		category = models.CategoryVideo
	case mimeType == "application/pdf":
		category = models.CategoryDocument
	case mimeType == "" || mimeType == "application/octet-stream":
		category = p.categoryByExt(ext)
	}

	if category == "" || !slices.Contains(p.allowed(category), ext) {
		return "", fmt.Errorf("%w: %s (%s)", common.ErrUnsupportedFileType, name, mimeType)
	}
	return category, nil
}

// Check validates size and type of one upload.
func (p Policy) Check(u Upload) (models.FileCategory, error) {
	if u.Size <= 0 {
		return "", fmt.Errorf("%w: %s is empty", common.ErrArgumentInvalid, u.Name)
	}
	if p.MaxBytes > 0 && u.Size > p.MaxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes, limit is %d", common.ErrFileTooLarge, u.Name, u.Size, p.MaxBytes)
	}
	return p.Classify(u.Name, u.MimeType)
}

func (p Policy) allowed(c models.FileCategory) []string {
	var list []string
	switch c {
	case models.CategoryImage:
		list = p.Images
	case models.CategoryVideo:
		list = p.Videos
	case models.CategoryDocument:
		list = p.Documents
	}
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = strings.ToLower(e)
	}
	return out
}

func (p Policy) categoryByExt(ext string) models.FileCategory {
	for _, c := range []models.FileCategory{models.CategoryImage, models.CategoryVideo, models.CategoryDocument} {
		if slices.Contains(p.allowed(c), ext) {
			return c
		}
	}
	return ""
}
