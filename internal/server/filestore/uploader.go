package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/logging"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
)

// Upload is one incoming file as handed over by the transport.
type Upload struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.Reader
}

// Uploader ties the policy, the naming rules and a Store together.
type Uploader struct {
	policy  Policy
	store   Store
	baseURL string
	logger  logging.Logger
	now     func() time.Time
	randHex func(int) (string, error)
}

func NewUploader(policy Policy, store Store, publicBaseURL string, logger logging.Logger) *Uploader {
	return &Uploader{
		policy:  policy,
		store:   store,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger.With("module", "filestore"),
		now:     time.Now,
		randHex: common.MakeRandHexString,
	}
}

func (u *Uploader) Policy() Policy {
	return u.policy
}

// Save validates every upload first and only then writes them in order, so a
// rejected file means nothing was stored. If a write fails midway the files
// already stored are removed again.
func (u *Uploader) Save(ctx context.Context, uploads []Upload) ([]models.UploadedFile, error) {
	categories := make([]models.FileCategory, len(uploads))
	for i, up := range uploads {
		c, err := u.policy.Check(up)
		if err != nil {
			return nil, err
		}
		categories[i] = c
	}

	saved := make([]models.UploadedFile, 0, len(uploads))
	for i, up := range uploads {
		name, err := u.storedName(up.Name, categories[i])
		if err != nil {
			return nil, err
		}
		key := path.Join(Folder(categories[i]), name)

		location, err := u.store.Put(ctx, key, up.Body, up.Size, up.MimeType)
		if err != nil {
			if derr := u.Discard(ctx, saved); derr != nil {
				u.logger.Error(ctx, "discard partial upload", "error", derr)
			}
			return nil, fmt.Errorf("store %s: %w", up.Name, err)
		}

		f := models.UploadedFile{
			OriginalName:   up.Name,
			SizeBytes:      up.Size,
			MimeType:       up.MimeType,
			StoredFilename: name,
			PublicURL:      u.publicURL(key),
			StorageKey:     key,
			Category:       categories[i],
		}
		if filepath.IsAbs(location) {
			f.OnDiskPath = location
		}
		saved = append(saved, f)
		u.logger.Debug(ctx, "upload stored", "key", key, "size", up.Size)
	}
	return saved, nil
}

// Discard deletes stored uploads, attempting every file even when some fail.
func (u *Uploader) Discard(ctx context.Context, files []models.UploadedFile) error {
	var errs []error
	for _, f := range files {
		if err := u.store.Delete(ctx, f.StorageKey); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Folder is the URL and storage folder of a category.
func Folder(c models.FileCategory) string {
	switch c {
	case models.CategoryImage:
		return "images"
	case models.CategoryVideo:
		return "videos"
	default:
		return "pdfs"
	}
}

// storedName generates unique names for images; videos and PDFs keep their
// sanitized original name, so a second upload with the same name replaces
// the first.
func (u *Uploader) storedName(original string, c models.FileCategory) (string, error) {
	if c != models.CategoryImage {
		return SanitizeFilename(original), nil
	}
	suffix, err := u.randHex(4)
	if err != nil {
		return "", fmt.Errorf("random name: %w", err)
	}
	return fmt.Sprintf("image-%d-%s%s", u.now().UnixMilli(), suffix, filepath.Ext(original)), nil
}

func (u *Uploader) publicURL(key string) string {
	dir, name := path.Split(key)
	return u.baseURL + "/uploads/" + dir + url.PathEscape(name)
}

// SanitizeFilename strips directories and separators from a client-supplied
// file name.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	if name == "." || name == ".." || name == "" {
		return "upload"
	}
	return name
}
