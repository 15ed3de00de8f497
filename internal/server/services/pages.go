package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/docpath"
	"github.com/dmitrijs2005/pagekeeper/internal/doctree"
	"github.com/dmitrijs2005/pagekeeper/internal/logging"
	"github.com/dmitrijs2005/pagekeeper/internal/server/filestore"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
	"github.com/dmitrijs2005/pagekeeper/internal/server/repositories/pages"
)

// FileSaver stores validated uploads and can remove them again.
// *filestore.Uploader implements it.
type FileSaver interface {
	Save(ctx context.Context, uploads []filestore.Upload) ([]models.UploadedFile, error)
	Discard(ctx context.Context, files []models.UploadedFile) error
}

// PageInput is the body of a create or update request. Sections may be JSON
// text, raw JSON or an already decoded object; nil means "not supplied".
type PageInput struct {
	PageName string
	Sections any
	Uploads  []filestore.Upload
}

// PageService runs page CRUD and the upload merge.
type PageService struct {
	repo     pages.Repository
	files    FileSaver
	logger   logging.Logger
	rollback bool
	onCreate doctree.PlaceholderStrategy
	onUpdate doctree.PlaceholderStrategy
	now      func() time.Time
}

type PageOption func(*PageService)

// WithUploadCompensation makes the service delete the files of a request
// whose document write failed.
func WithUploadCompensation(enabled bool) PageOption {
	return func(s *PageService) { s.rollback = enabled }
}

// WithStrategies overrides the placeholder strategies used by Create and
// Update.
func WithStrategies(create, update doctree.PlaceholderStrategy) PageOption {
	return func(s *PageService) {
		s.onCreate = create
		s.onUpdate = update
	}
}

func NewPageService(repo pages.Repository, files FileSaver, logger logging.Logger, opts ...PageOption) *PageService {
	s := &PageService{
		repo:     repo,
		files:    files,
		logger:   logger.With("module", "pages"),
		onCreate: doctree.TextSubstitution{},
		onUpdate: doctree.ImageKeySubstitution{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns all pages, newest first.
func (s *PageService) List(ctx context.Context) ([]*models.Page, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError("list pages", err)
	}
	return list, nil
}

func (s *PageService) Get(ctx context.Context, id string) (*models.Page, error) {
	if !models.IsValidID(id) {
		return nil, common.ErrorNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("get page", err)
	}
	return p, nil
}

// GetByName returns the oldest page carrying name.
func (s *PageService) GetByName(ctx context.Context, name string) (*models.Page, error) {
	if strings.TrimSpace(name) == "" {
		return nil, common.ErrorNotFound
	}
	p, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, storageError("get page by name", err)
	}
	return p, nil
}

// Create stores the uploads, substitutes their URLs into the sections text
// and inserts the page.
func (s *PageService) Create(ctx context.Context, in PageInput) (*models.Page, error) {
	name := strings.TrimSpace(in.PageName)
	if name == "" {
		return nil, fmt.Errorf("%w: pageName is required", common.ErrArgumentInvalid)
	}
	sections, err := doctree.Normalize(in.Sections)
	if err != nil {
		return nil, err
	}

	files, err := s.save(ctx, in.Uploads)
	if err != nil {
		return nil, err
	}

	page := &models.Page{PageName: name}
	page.Sections = s.substitute(s.onCreate, sections, files)
	appendUploads(page, files)
	page.CreatedAt = s.now()
	page.UpdatedAt = page.CreatedAt
	page.EnsureDefaults()

	var created *models.Page
	err = s.withUploadCompensation(ctx, files, func() error {
		var err error
		created, err = s.repo.Create(ctx, page)
		return err
	})
	if err != nil {
		return nil, storageError("create page", err)
	}
	s.logger.Info(ctx, "page created", "id", created.ID, "name", created.PageName, "uploads", len(files))
	return created, nil
}

// Update merges incoming sections over the stored ones, substitutes uploaded
// image URLs into "image" keys and writes the whole page back.
func (s *PageService) Update(ctx context.Context, id string, in PageInput) (*models.Page, error) {
	page, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	incoming := map[string]any{}
	if in.Sections != nil {
		if incoming, err = doctree.Normalize(in.Sections); err != nil {
			return nil, err
		}
	}

	files, err := s.save(ctx, in.Uploads)
	if err != nil {
		return nil, err
	}

	page.EnsureDefaults()
	merged := doctree.MergeSections(page.Sections, incoming)
	page.Sections = s.substitute(s.onUpdate, merged, files)
	if name := strings.TrimSpace(in.PageName); name != "" {
		page.PageName = name
	}
	appendUploads(page, files)
	page.UpdatedAt = s.now()

	err = s.withUploadCompensation(ctx, files, func() error {
		return s.repo.Update(ctx, page)
	})
	if err != nil {
		return nil, storageError("update page", err)
	}
	s.logger.Info(ctx, "page updated", "id", page.ID, "uploads", len(files))
	return page, nil
}

// UpdateField writes value at a path such as "sections.hero.0.title" or
// "images.2". Missing arrays are padded with empty objects.
func (s *PageService) UpdateField(ctx context.Context, id, path string, value any) (*models.Page, error) {
	p, err := parsePagePath(path)
	if err != nil {
		return nil, err
	}
	page, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(p) == 1 && p.Head().Key == models.FieldSections {
		if value, err = doctree.Normalize(value); err != nil {
			return nil, err
		}
	}

	if err := s.apply(ctx, page, p, value, doctree.PadObject, nil); err != nil {
		return nil, err
	}
	return page, nil
}

// UploadToField stores a single file and writes its URL at path, padding
// missing array slots with empty strings.
func (s *PageService) UploadToField(ctx context.Context, id, path string, upload filestore.Upload) (*models.Page, models.UploadedFile, error) {
	var none models.UploadedFile

	p, err := parsePagePath(path)
	if err != nil {
		return nil, none, err
	}
	page, err := s.Get(ctx, id)
	if err != nil {
		return nil, none, err
	}
	// The path must accept a string before anything is stored.
	if err := mutate(clonePage(page), p, "", doctree.PadString); err != nil {
		return nil, none, err
	}

	files, err := s.save(ctx, []filestore.Upload{upload})
	if err != nil {
		return nil, none, err
	}
	if len(files) != 1 {
		return nil, none, fmt.Errorf("%w: expected exactly one stored file", common.ErrorInternal)
	}

	if err := s.apply(ctx, page, p, files[0].PublicURL, doctree.PadString, files); err != nil {
		return nil, none, err
	}
	return page, files[0], nil
}

// Delete removes a page after checking that it exists.
func (s *PageService) Delete(ctx context.Context, id string) (*models.Page, error) {
	page, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, storageError("delete page", err)
	}
	if !deleted {
		return nil, common.ErrorNotFound
	}
	s.logger.Info(ctx, "page deleted", "id", id)
	return page, nil
}

// apply mutates the page document at p and persists the touched top-level
// field only.
func (s *PageService) apply(ctx context.Context, page *models.Page, p docpath.Path, value any, padding doctree.Padding, files []models.UploadedFile) error {
	field := p.Head().Key
	var matched bool
	err := s.withUploadCompensation(ctx, files, func() error {
		if err := mutate(page, p, value, padding); err != nil {
			return err
		}
		page.UpdatedAt = s.now()
		var err error
		matched, err = s.repo.UpdateField(ctx, page.ID, field, fieldValue(page, field), page.UpdatedAt)
		return err
	})
	if err != nil {
		return storageError("update page field", err)
	}
	if !matched {
		return common.ErrorNotFound
	}
	s.logger.Debug(ctx, "page field updated", "id", page.ID, "path", p.String())
	return nil
}

// mutate writes value at p into the page's document and copies the touched
// top-level field back onto the page.
func mutate(page *models.Page, p docpath.Path, value any, padding doctree.Padding) error {
	field := p.Head().Key
	doc := page.Document()
	if err := doctree.SetPath(doc, p, value, doctree.DefaultOptions(padding)); err != nil {
		return err
	}
	return page.ApplyField(field, doc[field])
}

// clonePage copies a page deeply enough that mutate on the copy leaves the
// original untouched.
func clonePage(page *models.Page) *models.Page {
	c := *page
	if page.Sections != nil {
		c.Sections = doctree.Clone(page.Sections).(map[string]any)
	}
	c.Images = append([]string(nil), page.Images...)
	c.Videos = append([]string(nil), page.Videos...)
	c.PDFs = append([]string(nil), page.PDFs...)
	return &c
}

func (s *PageService) save(ctx context.Context, uploads []filestore.Upload) ([]models.UploadedFile, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	return s.files.Save(ctx, uploads)
}

// substitute feeds image URLs, in upload order, into the placeholder
// strategy. A strategy returning something other than an object leaves the
// sections as they were.
func (s *PageService) substitute(strategy doctree.PlaceholderStrategy, sections map[string]any, files []models.UploadedFile) map[string]any {
	urls := urlsOf(files, models.CategoryImage)
	if len(urls) == 0 {
		return sections
	}
	out, ok := strategy.Substitute(sections, urls).(map[string]any)
	if !ok {
		return sections
	}
	return out
}

// withUploadCompensation runs write and, when it fails and compensation is
// enabled, deletes the files stored for the request.
func (s *PageService) withUploadCompensation(ctx context.Context, files []models.UploadedFile, write func() error) error {
	err := write()
	if err == nil || len(files) == 0 {
		return err
	}
	if !s.rollback {
		s.logger.Warn(ctx, "document write failed, uploads left in storage", "files", len(files), "error", err)
		return err
	}
	if derr := s.files.Discard(ctx, files); derr != nil {
		s.logger.Error(ctx, "discard uploads after failed write", "error", derr)
	}
	return err
}

func parsePagePath(path string) (docpath.Path, error) {
	p, err := docpath.Parse(path)
	if err != nil {
		return nil, err
	}
	if !models.IsPageField(p.Head().Key) {
		return nil, fmt.Errorf("%w: %q is not a page field", common.ErrArgumentInvalid, p.Head().String())
	}
	return p, nil
}

func appendUploads(page *models.Page, files []models.UploadedFile) {
	page.Images = append(page.Images, urlsOf(files, models.CategoryImage)...)
	page.Videos = append(page.Videos, urlsOf(files, models.CategoryVideo)...)
	page.PDFs = append(page.PDFs, urlsOf(files, models.CategoryDocument)...)
}

func urlsOf(files []models.UploadedFile, c models.FileCategory) []string {
	var out []string
	for _, f := range files {
		if f.Category == c {
			out = append(out, f.PublicURL)
		}
	}
	return out
}

func fieldValue(page *models.Page, field string) any {
	switch field {
	case models.FieldPageName:
		return page.PageName
	case models.FieldSections:
		return page.Sections
	case models.FieldImages:
		return page.Images
	case models.FieldVideos:
		return page.Videos
	default:
		return page.PDFs
	}
}
