package filestorage

import (
	"mime/multipart"
)

// Upload subdirectories
const (
	DirListings = "listings"
	DirPosts    = "posts"
	DirAvatars  = "avatars"
)

// StoredFile describes a saved upload
type StoredFile struct {
	Name string // Generated filename
	Path string // Path relative to the storage root, e.g. posts/ab12.png
	URL  string // Public URL under /uploads
}

// NameFunc generates a stored filename from the lower-cased extension (without dot)
type NameFunc func(ext string) (string, error)

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveImage validates the extension and stores the upload under subDir
	SaveImage(fileHeader *multipart.FileHeader, subDir string, name NameFunc) (*StoredFile, error)

	// DeleteFile removes a file stored under subDir. Missing files are not an error.
	DeleteFile(subDir, filename string) error

	// URL returns the public URL of a stored file
	URL(subDir, filename string) string
}
