package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage stores uploaded images and resolves their public URLs
type Storage interface {
	Put(ctx context.Context, obj Object) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// Presigner issues direct-upload URLs
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// Object is one file to upload under a folder prefix
type Object struct {
	Folder      string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResult contains the result of a file upload
type UploadResult struct {
	URL      string
	Key      string
	FileName string
	FileSize int64
	MimeType string
}

// ObjectKey builds "<folder>/<yyyy>/<mm>/<dd>/<uuid><ext>"
func ObjectKey(folder, fileName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s/%s%s",
		strings.Trim(folder, "/"),
		now.UTC().Format("2006/01/02"),
		uuid.New().String(),
		ext,
	)
}

// ContentTypeFor returns the declared type, falling back to the extension
func ContentTypeFor(declared, fileName string) string {
	if declared != "" {
		return declared
	}
	return detectContentType(filepath.Ext(fileName))
}

// detectContentType returns MIME type based on file extension
func detectContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
