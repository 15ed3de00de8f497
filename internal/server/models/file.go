package models

import "time"

// FileCategory groups uploads by the page list they belong to.
type FileCategory string

const (
	CategoryImage    FileCategory = "image"
	CategoryVideo    FileCategory = "video"
	CategoryDocument FileCategory = "document"
)

// UploadedFile describes a stored upload. It is produced by the file store,
// consumed once by the upload merge and never persisted on its own.
type UploadedFile struct {
	OriginalName   string       `json:"originalName"`
	SizeBytes      int64        `json:"sizeBytes"`
	MimeType       string       `json:"mimeType"`
	StoredFilename string       `json:"storedFilename"`
	PublicURL      string       `json:"publicUrl"`
	OnDiskPath     string       `json:"-"`
	StorageKey     string       `json:"-"`
	Category       FileCategory `json:"category"`
}

// FileEntry is one item of the static site listing.
type FileEntry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	IsDir   bool      `json:"isDir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}
