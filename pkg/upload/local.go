package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// LocalSaver stores files on a filesystem below a prefix directory.
// It is the default Saver and is safe for concurrent use.
type LocalSaver struct {
	fs              afero.Fs
	prefix          string
	baseURL         string
	policy          CollisionPolicy
	uploadTimeout   time.Duration
	customDirectory func(r *http.Request, original string) string
}

// LocalOption configures a LocalSaver.
type LocalOption func(*LocalSaver)

// WithCustomDirectory sets the directory-naming hook. It receives the request
// and the directory declared for the field.
func WithCustomDirectory(fn func(r *http.Request, original string) string) LocalOption {
	return func(s *LocalSaver) {
		s.customDirectory = fn
	}
}

// WithBaseURL makes Save return baseURL joined with the path relative to the prefix
// instead of the filesystem path.
func WithBaseURL(baseURL string) LocalOption {
	return func(s *LocalSaver) {
		if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		s.baseURL = baseURL
	}
}

// WithCollisionPolicy sets what happens when the target file already exists.
func WithCollisionPolicy(p CollisionPolicy) LocalOption {
	return func(s *LocalSaver) {
		s.policy = p
	}
}

// WithFs replaces the filesystem, e.g. with afero.NewMemMapFs() in tests.
func WithFs(fs afero.Fs) LocalOption {
	return func(s *LocalSaver) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithLocalUploadTimeout bounds a single Save call.
// If not set, only the caller's context deadline applies.
func WithLocalUploadTimeout(timeout time.Duration) LocalOption {
	return func(s *LocalSaver) {
		s.uploadTimeout = timeout
	}
}

// NewLocalSaver creates a saver rooted at prefixDir and makes sure the directory exists.
func NewLocalSaver(prefixDir string, opts ...LocalOption) (*LocalSaver, error) {
	if strings.TrimSpace(prefixDir) == "" {
		return nil, fmt.Errorf("%w: prefix directory is required", ErrInvalidConfig)
	}

	s := &LocalSaver{
		fs:     afero.NewOsFs(),
		prefix: filepath.Clean(prefixDir),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.fs.MkdirAll(s.prefix, 0o755); err != nil {
		return nil, fmt.Errorf("create prefix directory: %w", err)
	}

	return s, nil
}

// Prefix returns the root directory files are stored under.
func (s *LocalSaver) Prefix() string {
	return s.prefix
}

// Directory implements DirectoryNamer.
func (s *LocalSaver) Directory(r *http.Request, original string) string {
	if s.customDirectory != nil {
		return s.customDirectory(r, original)
	}
	return original
}

// Save writes f.Content to prefix/f.Directory/f.FullName and returns its
// location: the filesystem path, or the public URL when a base URL is set.
func (s *LocalSaver) Save(ctx context.Context, f *File) (string, error) {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir, err := s.resolveDir(f.Directory)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}

	target, err := s.write(ctx, dir, f)
	if err != nil {
		return "", err
	}

	return s.location(target), nil
}

// write stores the content honoring the collision policy and returns the final path.
func (s *LocalSaver) write(ctx context.Context, dir string, f *File) (string, error) {
	switch s.policy {
	case CollisionOverwrite:
		target := filepath.Join(dir, f.FullName)
		return target, s.writeFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Content)

	case CollisionError:
		target := filepath.Join(dir, f.FullName)
		err := s.writeFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, f.Content)
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrFileExists, target)
		}
		return target, err

	default:
		for attempt := range maxCollisionAttempts {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			target := filepath.Join(dir, candidateName(f, attempt))
			err := s.writeFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, f.Content)
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return target, err
		}
		return "", fmt.Errorf("%w: %s", ErrTooManyCollisions, filepath.Join(dir, f.FullName))
	}
}

func (s *LocalSaver) writeFile(target string, flag int, content []byte) error {
	dst, err := s.fs.OpenFile(target, flag, 0o644)
	if err != nil {
		return err
	}

	if _, err := dst.Write(content); err != nil {
		_ = dst.Close()
		_ = s.fs.Remove(target)
		return fmt.Errorf("write %s: %w", target, err)
	}
	if err := dst.Close(); err != nil {
		_ = s.fs.Remove(target)
		return fmt.Errorf("close %s: %w", target, err)
	}
	return nil
}

// resolveDir joins dir with the prefix and ensures the result stays inside it.
func (s *LocalSaver) resolveDir(dir string) (string, error) {
	resolved := filepath.Join(s.prefix, dir)
	rel, err := filepath.Rel(s.prefix, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, dir)
	}
	return resolved, nil
}

func (s *LocalSaver) location(target string) string {
	if s.baseURL == "" {
		return target
	}
	rel, err := filepath.Rel(s.prefix, target)
	if err != nil {
		return target
	}
	return s.baseURL + filepath.ToSlash(rel)
}
