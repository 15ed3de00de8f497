package filestore

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/logging"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	files   map[string]string
	failOn  string
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{files: map[string]string{}}
}

func (m *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if key == m.failOn {
		return "", errors.New("disk full")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.files[key] = string(b)
	return key, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.files, key)
	return nil
}

func newTestUploader(store Store) *Uploader {
	u := NewUploader(DefaultPolicy(), store, "http://cms.example/", logging.Nop())
	u.now = func() time.Time { return time.UnixMilli(1700000000000) }
	u.randHex = func(int) (string, error) { return "0a1b2c3d", nil }
	return u
}

func upload(name, mime, body string) Upload {
	return Upload{Name: name, MimeType: mime, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestUploader_Save(t *testing.T) {
	store := newMemStore()
	u := newTestUploader(store)

	got, err := u.Save(context.Background(), []Upload{
		upload("Hero.PNG", "image/png", "png-bytes"),
		upload("brochure 2024.pdf", "application/pdf", "pdf"),
		upload("intro.mp4", "video/mp4", "mp4"),
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, models.UploadedFile{
		OriginalName:   "Hero.PNG",
		SizeBytes:      9,
		MimeType:       "image/png",
		StoredFilename: "image-1700000000000-0a1b2c3d.PNG",
		PublicURL:      "http://cms.example/uploads/images/image-1700000000000-0a1b2c3d.PNG",
		StorageKey:     "images/image-1700000000000-0a1b2c3d.PNG",
		Category:       models.CategoryImage,
	}, got[0])

	assert.Equal(t, "brochure 2024.pdf", got[1].StoredFilename)
	assert.Equal(t, "http://cms.example/uploads/pdfs/brochure%202024.pdf", got[1].PublicURL)
	assert.Equal(t, models.CategoryDocument, got[1].Category)

	assert.Equal(t, "http://cms.example/uploads/videos/intro.mp4", got[2].PublicURL)
	assert.Equal(t, "mp4", store.files["videos/intro.mp4"])
}

func TestUploader_ImageNameShape(t *testing.T) {
	u := NewUploader(DefaultPolicy(), newMemStore(), "", logging.Nop())

	got, err := u.Save(context.Background(), []Upload{upload("a.jpg", "image/jpeg", "x")})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^image-\d+-[0-9a-f]{8}\.jpg$`), got[0].StoredFilename)
}

func TestUploader_ValidatesAllBeforeWriting(t *testing.T) {
	store := newMemStore()
	u := newTestUploader(store)

	_, err := u.Save(context.Background(), []Upload{
		upload("ok.png", "image/png", "x"),
		upload("bad.exe", "application/x-msdownload", "x"),
	})
	assert.True(t, errors.Is(err, common.ErrUnsupportedFileType))
	assert.Empty(t, store.files, "nothing may be written when any file is rejected")

	_, err = u.Save(context.Background(), []Upload{
		upload("ok.png", "image/png", "x"),
		{Name: "huge.mp4", MimeType: "video/mp4", Size: DefaultMaxBytes + 1, Body: strings.NewReader("")},
	})
	assert.True(t, errors.Is(err, common.ErrFileTooLarge))
	assert.Empty(t, store.files)
}

func TestUploader_DiscardsPartialBatch(t *testing.T) {
	store := newMemStore()
	store.failOn = "pdfs/b.pdf"
	u := newTestUploader(store)

	_, err := u.Save(context.Background(), []Upload{
		upload("a.pdf", "application/pdf", "a"),
		upload("b.pdf", "application/pdf", "b"),
	})
	require.Error(t, err)
	assert.Equal(t, []string{"pdfs/a.pdf"}, store.deleted)
	assert.Empty(t, store.files)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"report.pdf":           "report.pdf",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\clip.mp4`: "clip.mp4",
		"":                     "upload",
		"..":                   "upload",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}
}
