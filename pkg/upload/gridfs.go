package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultGridFSBucket is the bucket name MongoDB uses when none is set.
const DefaultGridFSBucket = "fs"

// GridFSUploader is implemented by *mongo.GridFSBucket.
type GridFSUploader interface {
	UploadFromStream(ctx context.Context, filename string, source io.Reader, opts ...options.Lister[options.GridFSUploadOptions]) (bson.ObjectID, error)
}

// GridFSSaver stores files in a MongoDB GridFS bucket.
// Locations have the form gridfs://<bucket>/<object id hex>.
type GridFSSaver struct {
	bucket          GridFSUploader
	bucketName      string
	chunkSize       int32
	uploadTimeout   time.Duration
	customDirectory func(r *http.Request, original string) string
}

// GridFSOption configures a GridFSSaver.
type GridFSOption func(*GridFSSaver)

// WithGridFSBucketName sets the bucket name used in locations.
// It should match the name the bucket was opened with.
func WithGridFSBucketName(name string) GridFSOption {
	return func(s *GridFSSaver) {
		if name != "" {
			s.bucketName = name
		}
	}
}

// WithGridFSChunkSize overrides the chunk size of uploaded files.
func WithGridFSChunkSize(size int32) GridFSOption {
	return func(s *GridFSSaver) {
		s.chunkSize = size
	}
}

// WithGridFSUploadTimeout bounds a single upload.
func WithGridFSUploadTimeout(timeout time.Duration) GridFSOption {
	return func(s *GridFSSaver) {
		s.uploadTimeout = timeout
	}
}

// WithGridFSCustomDirectory sets the directory-naming hook.
func WithGridFSCustomDirectory(fn func(r *http.Request, original string) string) GridFSOption {
	return func(s *GridFSSaver) {
		s.customDirectory = fn
	}
}

// NewGridFSSaver creates a saver writing to bucket.
func NewGridFSSaver(bucket GridFSUploader, opts ...GridFSOption) (*GridFSSaver, error) {
	if bucket == nil {
		return nil, fmt.Errorf("%w: gridfs bucket is required", ErrInvalidConfig)
	}

	s := &GridFSSaver{
		bucket:     bucket,
		bucketName: DefaultGridFSBucket,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Directory implements DirectoryNamer.
func (s *GridFSSaver) Directory(r *http.Request, original string) string {
	if s.customDirectory != nil {
		return s.customDirectory(r, original)
	}
	return original
}

// Save uploads the file content with its descriptor metadata.
// GridFS allows duplicate filenames, so no collision handling is needed.
func (s *GridFSSaver) Save(ctx context.Context, f *File) (string, error) {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	dir := strings.Trim(f.Directory, "/")
	if strings.Contains(dir, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, f.Directory)
	}

	uploadOpts := options.GridFSUpload().SetMetadata(bson.D{
		{Key: "field", Value: f.Field},
		{Key: "original_name", Value: f.OriginalName},
		{Key: "mime_type", Value: f.MIMEType.String()},
		{Key: "size", Value: f.Size},
	})
	if s.chunkSize > 0 {
		uploadOpts.SetChunkSizeBytes(s.chunkSize)
	}

	id, err := s.bucket.UploadFromStream(ctx, path.Join(dir, f.FullName), bytes.NewReader(f.Content), uploadOpts)
	if err != nil {
		return "", fmt.Errorf("gridfs upload %s: %w", f.FullName, err)
	}

	return fmt.Sprintf("gridfs://%s/%s", s.bucketName, id.Hex()), nil
}
