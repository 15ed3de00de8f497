package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/filex"
	"github.com/dmitrijs2005/pagekeeper/internal/logging"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
)

// SiteFile is the content of one static site file.
type SiteFile struct {
	Content string    `json:"content"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// SiteService browses and edits the static site under a fixed root. Paths
// escaping the root are rejected before the filesystem is touched.
type SiteService struct {
	root   string
	logger logging.Logger
}

// Site root states reported by Status.
const (
	SiteNotConfigured = "not_configured"
	SiteAccessible    = "accessible"
	SiteInaccessible  = "inaccessible"
)

// dashboardEntries caps the names Status returns.
const dashboardEntries = 10

// SiteStatus tells whether the site root can be read and names its first
// entries.
type SiteStatus struct {
	Path   string   `json:"path"`
	Status string   `json:"status"`
	Files  []string `json:"files"`
}

func NewSiteService(root string, logger logging.Logger) *SiteService {
	return &SiteService{root: root, logger: logger.With("module", "site")}
}

func (s *SiteService) resolve(rel string) (string, error) {
	if s.root == "" {
		return "", fmt.Errorf("%w: site root not configured", common.ErrArgumentInvalid)
	}
	path, err := filex.ResolveReal(s.root, rel)
	if err != nil {
		return "", siteError(err)
	}
	return path, nil
}

// List returns the entries of a directory, directories first.
func (s *SiteService) List(ctx context.Context, rel string) ([]models.FileEntry, error) {
	dir, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, siteError(err)
	}

	root, _ := filepath.Abs(s.root)
	out := make([]models.FileEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			s.logger.Debug(ctx, "skip entry", "name", e.Name(), "error", err)
			continue
		}
		relPath, err := filepath.Rel(root, filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		entry := models.FileEntry{
			Name:    e.Name(),
			Path:    filepath.ToSlash(relPath),
			IsDir:   e.IsDir(),
			ModTime: info.ModTime().UTC(),
		}
		if !e.IsDir() {
			entry.Size = info.Size()
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Status reports on the site root for the admin dashboard.
func (s *SiteService) Status(ctx context.Context) SiteStatus {
	st := SiteStatus{Path: s.root, Status: SiteNotConfigured, Files: []string{}}
	if s.root == "" {
		return st
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.logger.Warn(ctx, "site root unreadable", "root", s.root, "error", err)
		st.Status = SiteInaccessible
		return st
	}
	st.Status = SiteAccessible
	for _, e := range entries {
		if len(st.Files) == dashboardEntries {
			break
		}
		st.Files = append(st.Files, e.Name())
	}
	return st
}

// Read returns a file's content as text.
func (s *SiteService) Read(_ context.Context, rel string) (*SiteFile, error) {
	if rel == "" {
		return nil, fmt.Errorf("%w: file path is required", common.ErrArgumentInvalid)
	}
	path, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, siteError(err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", common.ErrArgumentInvalid, rel)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, siteError(err)
	}
	return &SiteFile{Content: string(b), Size: info.Size(), ModTime: info.ModTime().UTC()}, nil
}

// Write replaces a file's content. The parent directory must already exist.
func (s *SiteService) Write(ctx context.Context, rel, content string) error {
	if rel == "" {
		return fmt.Errorf("%w: file path is required", common.ErrArgumentInvalid)
	}
	path, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", common.ErrArgumentInvalid, rel)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return siteError(err)
	}
	s.logger.Info(ctx, "site file written", "path", rel, "bytes", len(content))
	return nil
}

func siteError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", common.ErrorNotFound, err)
	}
	return err
}
