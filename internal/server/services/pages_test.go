package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/logging"
	"github.com/dmitrijs2005/pagekeeper/internal/server/filestore"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
	"github.com/dmitrijs2005/pagekeeper/internal/server/repositories/pages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakePagesRepo struct {
	pages.Repository

	byID map[string]*models.Page

	createErr      error
	updateErr      error
	updateFieldErr error

	deleteCalls      int
	updateCalls      int
	updateFieldCalls int
	lastField        string
	lastValue        any
}

func newFakePagesRepo(seed ...*models.Page) *fakePagesRepo {
	r := &fakePagesRepo{byID: map[string]*models.Page{}}
	for _, p := range seed {
		r.byID[p.ID] = p
	}
	return r
}

func (f *fakePagesRepo) GetByID(_ context.Context, id string) (*models.Page, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePagesRepo) Create(_ context.Context, p *models.Page) (*models.Page, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	cp := *p
	cp.ID = models.NewID()
	f.byID[cp.ID] = &cp
	return &cp, nil
}

func (f *fakePagesRepo) Update(_ context.Context, p *models.Page) error {
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePagesRepo) UpdateField(_ context.Context, id, field string, value any, _ time.Time) (bool, error) {
	f.updateFieldCalls++
	f.lastField, f.lastValue = field, value
	if f.updateFieldErr != nil {
		return false, f.updateFieldErr
	}
	_, ok := f.byID[id]
	return ok, nil
}

func (f *fakePagesRepo) Delete(_ context.Context, id string) (bool, error) {
	f.deleteCalls++
	_, ok := f.byID[id]
	delete(f.byID, id)
	return ok, nil
}

type fakeStore struct {
	puts    []string
	deleted []string
}

func (s *fakeStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.puts = append(s.puts, key)
	return key, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func newPageService(repo pages.Repository, store *fakeStore, opts ...PageOption) *PageService {
	up := filestore.NewUploader(filestore.DefaultPolicy(), store, "http://cms.example", logging.Nop())
	return NewPageService(repo, up, logging.Nop(), opts...)
}

func fileUpload(name, mime, body string) filestore.Upload {
	return filestore.Upload{Name: name, MimeType: mime, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func seededPage() *models.Page {
	p := &models.Page{ID: models.NewID(), PageName: "home"}
	p.EnsureDefaults()
	return p
}

// --- tests ---

func TestPageService_Create_SubstitutesUploadedImages(t *testing.T) {
	repo := newFakePagesRepo()
	store := &fakeStore{}
	s := newPageService(repo, store)

	got, err := s.Create(context.Background(), PageInput{
		PageName: " home ",
		Sections: `{"hero":{"image":"placeholder"},"title":{"en":"Welcome"}}`,
		Uploads: []filestore.Upload{
			fileUpload("hero.png", "image/png", "png"),
			fileUpload("brochure.pdf", "application/pdf", "pdf"),
		},
	})
	require.NoError(t, err)

	require.Len(t, got.Images, 1)
	assert.True(t, strings.HasPrefix(got.Images[0], "http://cms.example/uploads/images/image-"))
	assert.Equal(t, []string{"http://cms.example/uploads/pdfs/brochure.pdf"}, got.PDFs)
	assert.Equal(t, []string{}, got.Videos)
	assert.Equal(t, "home", got.PageName)
	assert.Equal(t, map[string]any{"image": got.Images[0]}, got.Sections["hero"])
	assert.Equal(t, map[string]any{"en": "Welcome"}, got.Sections["title"])
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
	assert.Len(t, store.puts, 2)
}

func TestPageService_Create_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input PageInput
		want  error
	}{
		{"missing name", PageInput{PageName: "  "}, common.ErrArgumentInvalid},
		{"bad sections", PageInput{PageName: "home", Sections: `{"hero":`}, common.ErrInvalidSectionsJSON},
		{"array sections", PageInput{PageName: "home", Sections: `[1,2]`}, common.ErrInvalidSectionsJSON},
		{"unsupported file", PageInput{PageName: "home", Uploads: []filestore.Upload{fileUpload("x.exe", "application/x-msdownload", "x")}}, common.ErrUnsupportedFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			s := newPageService(newFakePagesRepo(), store)
			tt.input.Uploads = append(tt.input.Uploads, fileUpload("a.png", "image/png", "a"))

			_, err := s.Create(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, store.puts)
		})
	}
}

func TestPageService_Create_WriteFailure(t *testing.T) {
	for _, rollback := range []bool{false, true} {
		store := &fakeStore{}
		repo := newFakePagesRepo()
		repo.createErr = errors.New("connection refused")
		s := newPageService(repo, store, WithUploadCompensation(rollback))

		_, err := s.Create(context.Background(), PageInput{
			PageName: "home",
			Uploads:  []filestore.Upload{fileUpload("a.png", "image/png", "a")},
		})
		require.ErrorIs(t, err, common.ErrStorageUnavailable)

		if rollback {
			assert.Equal(t, store.puts, store.deleted)
		} else {
			assert.Empty(t, store.deleted)
		}
	}
}

func TestPageService_Update_MergesSectionsAndSubstitutesImageKeys(t *testing.T) {
	current := seededPage()
	current.Sections = map[string]any{
		"title": map[string]any{"en": "Old"},
		"about": map[string]any{"text": "keep me"},
	}
	current.Images = []string{"http://cms.example/uploads/images/old.png"}
	repo := newFakePagesRepo(current)
	s := newPageService(repo, &fakeStore{})

	got, err := s.Update(context.Background(), current.ID, PageInput{
		Sections: map[string]any{
			"title":   map[string]any{"en": "New"},
			"gallery": []any{map[string]any{"image": "placeholder", "caption": "placeholder text"}},
		},
		Uploads: []filestore.Upload{fileUpload("g.jpg", "image/jpeg", "jpg")},
	})
	require.NoError(t, err)

	require.Len(t, got.Images, 2)
	newURL := got.Images[1]
	assert.Equal(t, "home", got.PageName)
	assert.Equal(t, map[string]any{"text": "keep me"}, got.Sections["about"])
	assert.Equal(t, map[string]any{"en": "New"}, got.Sections["title"])
	assert.Equal(t, []any{map[string]any{"image": newURL, "caption": "placeholder text"}}, got.Sections["gallery"])
	assert.Equal(t, 1, repo.updateCalls)
}

func TestPageService_Update_RenamesOnlyWhenGiven(t *testing.T) {
	current := seededPage()
	repo := newFakePagesRepo(current)
	s := newPageService(repo, &fakeStore{})

	got, err := s.Update(context.Background(), current.ID, PageInput{PageName: "landing"})
	require.NoError(t, err)
	assert.Equal(t, "landing", got.PageName)
	assert.Equal(t, map[string]any{}, got.Sections)
}

func TestPageService_Update_NotFoundBeforeUpload(t *testing.T) {
	store := &fakeStore{}
	repo := newFakePagesRepo()
	s := newPageService(repo, store)

	_, err := s.Update(context.Background(), models.NewID(), PageInput{
		Uploads: []filestore.Upload{fileUpload("a.png", "image/png", "a")},
	})
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Empty(t, store.puts)
	assert.Zero(t, repo.updateCalls)
}

func TestPageService_UpdateField(t *testing.T) {
	t.Run("creates nested path with object padding", func(t *testing.T) {
		current := seededPage()
		repo := newFakePagesRepo(current)
		s := newPageService(repo, &fakeStore{})

		got, err := s.UpdateField(context.Background(), current.ID, "sections.hero.1.title", "Hi")
		require.NoError(t, err)

		assert.Equal(t, []any{map[string]any{}, map[string]any{"title": "Hi"}}, got.Sections["hero"])
		assert.Equal(t, models.FieldSections, repo.lastField)
		assert.Equal(t, got.Sections, repo.lastValue)
	})

	t.Run("whole sections from text", func(t *testing.T) {
		current := seededPage()
		repo := newFakePagesRepo(current)
		s := newPageService(repo, &fakeStore{})

		got, err := s.UpdateField(context.Background(), current.ID, "sections", `{"a":1}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": float64(1)}, got.Sections)
	})

	t.Run("list item", func(t *testing.T) {
		current := seededPage()
		current.Images = []string{"a"}
		repo := newFakePagesRepo(current)
		s := newPageService(repo, &fakeStore{})

		got, err := s.UpdateField(context.Background(), current.ID, "images.1", "b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got.Images)
		assert.Equal(t, []string{"a", "b"}, repo.lastValue)
	})

	errCases := []struct {
		name  string
		path  string
		value any
		want  error
	}{
		{"empty path", "", "x", common.ErrMalformedPath},
		{"unknown field", "title.en", "x", common.ErrArgumentInvalid},
		{"padding breaks list", "images.3", "x", common.ErrArgumentInvalid},
		{"name not string", "pageName", 5.0, common.ErrArgumentInvalid},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			current := seededPage()
			repo := newFakePagesRepo(current)
			s := newPageService(repo, &fakeStore{})

			_, err := s.UpdateField(context.Background(), current.ID, tt.path, tt.value)
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, repo.updateFieldCalls)
		})
	}
}

func TestPageService_UploadToField_CreatesMissingStructure(t *testing.T) {
	current := seededPage()
	repo := newFakePagesRepo(current)
	store := &fakeStore{}
	s := newPageService(repo, store)

	got, file, err := s.UploadToField(context.Background(), current.ID, "sections.hero.0.image",
		fileUpload("hero.png", "image/png", "png"))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"hero": []any{map[string]any{"image": file.PublicURL}}}, got.Sections)
	assert.Equal(t, []string{}, got.Images)
	assert.Len(t, store.puts, 1)
}

func TestPageService_UploadToField_RollsBackWhenEnabled(t *testing.T) {
	current := seededPage()
	repo := newFakePagesRepo(current)
	repo.updateFieldErr = errors.New("timeout")
	store := &fakeStore{}
	s := newPageService(repo, store, WithUploadCompensation(true))

	_, _, err := s.UploadToField(context.Background(), current.ID, "pdfs.0",
		fileUpload("menu.pdf", "application/pdf", "pdf"))
	require.ErrorIs(t, err, common.ErrStorageUnavailable)
	assert.Equal(t, []string{"pdfs/menu.pdf"}, store.deleted)
}

func TestPageService_UploadToField_RejectsPathBeforeStoring(t *testing.T) {
	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "whole sections", path: "sections", want: common.ErrArgumentInvalid},
		{name: "object inside media list", path: "images.0.x", want: common.ErrArgumentInvalid},
		{name: "object under page name", path: "pageName.x", want: common.ErrArgumentInvalid},
		{name: "unknown top-level field", path: "title", want: common.ErrArgumentInvalid},
		{name: "malformed", path: "sections..hero", want: common.ErrMalformedPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := seededPage()
			current.Sections = map[string]any{"hero": map[string]any{"title": "hi"}}
			repo := newFakePagesRepo(current)
			store := &fakeStore{}
			s := newPageService(repo, store, WithUploadCompensation(true))

			_, _, err := s.UploadToField(context.Background(), current.ID, tt.path,
				fileUpload("hero.png", "image/png", "png"))
			require.ErrorIs(t, err, tt.want)

			assert.Empty(t, store.puts)
			assert.Zero(t, repo.updateFieldCalls)
			assert.Equal(t, map[string]any{"hero": map[string]any{"title": "hi"}}, repo.byID[current.ID].Sections)
		})
	}
}

func TestPageService_Delete(t *testing.T) {
	t.Run("missing id never reaches repository delete", func(t *testing.T) {
		repo := newFakePagesRepo()
		s := newPageService(repo, &fakeStore{})

		_, err := s.Delete(context.Background(), models.NewID())
		require.ErrorIs(t, err, common.ErrorNotFound)
		assert.Zero(t, repo.deleteCalls)
	})

	t.Run("invalid id", func(t *testing.T) {
		repo := newFakePagesRepo()
		s := newPageService(repo, &fakeStore{})

		_, err := s.Delete(context.Background(), "not-an-id")
		require.ErrorIs(t, err, common.ErrorNotFound)
		assert.Zero(t, repo.deleteCalls)
	})

	t.Run("existing", func(t *testing.T) {
		current := seededPage()
		repo := newFakePagesRepo(current)
		s := newPageService(repo, &fakeStore{})

		got, err := s.Delete(context.Background(), current.ID)
		require.NoError(t, err)
		assert.Equal(t, current.ID, got.ID)
		assert.Equal(t, 1, repo.deleteCalls)
	})
}

type failingPagesRepo struct {
	pages.Repository
}

func (failingPagesRepo) List(context.Context) ([]*models.Page, error) {
	return nil, errors.New("db error: connection reset")
}

func TestPageService_List_WrapsStorageErrors(t *testing.T) {
	s := newPageService(failingPagesRepo{}, &fakeStore{})

	_, err := s.List(context.Background())
	require.ErrorIs(t, err, common.ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "connection reset")
}
