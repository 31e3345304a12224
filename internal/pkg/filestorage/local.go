package filestorage

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/slug"
)

// AllowedImageExtensions lists the accepted upload extensions
var AllowedImageExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// HexName names files with the hex encoding of n random bytes plus the original extension
func HexName(n int) NameFunc {
	return func(ext string) (string, error) {
		h, err := slug.RandomHex(n)
		if err != nil {
			return "", err
		}
		return h + "." + ext, nil
	}
}

// UUIDName names files with a dashless uuid plus the extension
func UUIDName(ext string) (string, error) {
	return strings.ReplaceAll(uuid.New().String(), "-", "") + "." + ext, nil
}

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
	baseURL  string // Public prefix for stored files, e.g. http://host/uploads
	logger   zerolog.Logger
}

// NewLocalStorage creates a new LocalStorage instance and ensures basePath exists.
func NewLocalStorage(basePath, baseURL string, logger zerolog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}, nil
}

// Root returns the directory files are stored under
func (ls *LocalStorage) Root() string {
	return ls.basePath
}

// SaveImage stores an image upload under subDir using name to pick the filename
func (ls *LocalStorage) SaveImage(fileHeader *multipart.FileHeader, subDir string, name NameFunc) (*StoredFile, error) {
	if fileHeader == nil {
		return nil, apperrors.NewValidationError("file", "no file uploaded")
	}

	ext := Extension(fileHeader.Filename)
	if !AllowedImageExtensions[ext] {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidFileType, "Only jpg, jpeg, png and webp images are allowed").WithField("file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		ls.logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	dir := filepath.Join(ls.basePath, subDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		ls.logger.Error().Err(err).Str("path", dir).Msg("Failed to create subdirectory")
		return nil, fmt.Errorf("failed to create subdirectory: %w", err)
	}

	filename, err := name(ext)
	if err != nil {
		return nil, fmt.Errorf("failed to generate filename: %w", err)
	}
	dstPath := filepath.Join(dir, filename)

	dst, err := os.Create(dstPath)
	if err != nil {
		ls.logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		ls.logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		return nil, fmt.Errorf("failed to save file content: %w", err)
	}

	stored := &StoredFile{
		Name: filename,
		Path: subDir + "/" + filename,
		URL:  ls.URL(subDir, filename),
	}
	ls.logger.Info().Str("filename", fileHeader.Filename).Str("savedAs", stored.Path).Msg("File saved successfully")
	return stored, nil
}

// DeleteFile removes subDir/filename. A missing file is treated as deleted.
func (ls *LocalStorage) DeleteFile(subDir, filename string) error {
	filename = filepath.Base(filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return fmt.Errorf("invalid file name: %q", filename)
	}

	physicalPath := filepath.Join(ls.basePath, subDir, filename)
	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			ls.logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		ls.logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	ls.logger.Info().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}

// URL returns the public URL of subDir/filename
func (ls *LocalStorage) URL(subDir, filename string) string {
	return ls.baseURL + "/" + subDir + "/" + filename
}

// Extension returns the lower-cased extension of filename without the dot
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// SniffImageType reads the head of the upload and returns jpeg, png or webp.
// Any other content yields ErrInvalidFileType.
func SniffImageType(fileHeader *multipart.FileHeader) (string, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read uploaded file: %w", err)
	}

	switch http.DetectContentType(head[:n]) {
	case "image/jpeg":
		return "jpeg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	}
	return "", apperrors.NewCustomError(apperrors.ErrInvalidFileType, "Uploaded file is not a valid image").WithField("file")
}
