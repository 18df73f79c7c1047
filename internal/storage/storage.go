// Package storage contains object storage abstractions for document images kept in an
// S3-compatible store. Implementations rely on streaming I/O only and never touch local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrUnsupportedImageType is returned for uploads that are not a supported image format.
	ErrUnsupportedImageType = errors.New("unsupported image type")
	// ErrObjectNotFound is returned when the referenced image is missing from the bucket.
	ErrObjectNotFound = errors.New("object not found")
)

// imageExtensions maps accepted image content types to the object key extension.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ImageKey returns the object key of a document image. Keys are grouped per user so a
// bucket listing never mixes owners. The nonce keeps replaced images from colliding
// with presigned URLs handed out for the previous upload.
func ImageKey(userID, documentID, nonce, contentType string) (string, error) {
	ext, ok := imageExtensions[normalizeContentType(contentType)]
	if !ok {
		return "", ErrUnsupportedImageType
	}
	return path.Join("documents", userID, documentID, nonce+ext), nil
}

func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
