package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"sync"
)

// File describes one uploaded file: its metadata, buffered content and,
// once saved, the location returned by the Saver.
//
// Files are created by the Interceptor with the Saver and the request bound,
// so application code only calls Save. A File must not be copied after first use.
type File struct {
	// Field is the form field name the file was uploaded under.
	Field string
	// OriginalName is the filename exactly as submitted by the client.
	OriginalName string
	// Name is the assigned name without extension.
	Name string
	// FullName is Name plus "." and Extension (just Name when there is no extension).
	FullName string
	// Directory is the storage directory chosen for the file, relative to the saver root.
	Directory string
	// Encoding is the part's Content-Transfer-Encoding ("7bit" when not declared).
	Encoding string
	// MIMEType is the declared (or sniffed) media type.
	MIMEType MIMEType
	// Extension is the part of OriginalName after its last dot, without the dot.
	Extension string
	// Size is len(Content) at construction time.
	Size int64
	// Content holds the whole file in memory.
	Content []byte
	// Header contains the MIME header fields of the part.
	Header textproto.MIMEHeader

	req   *http.Request
	saver Saver

	mu       sync.Mutex
	location string
	saved    bool
}

// FileOption configures a File built with NewFile.
type FileOption func(*File)

// WithFileName sets the assigned name (without extension).
func WithFileName(name string) FileOption {
	return func(f *File) { f.Name = name }
}

// WithFileDirectory sets the storage directory.
func WithFileDirectory(dir string) FileOption {
	return func(f *File) { f.Directory = dir }
}

// WithFileMIMEType overrides the MIME type, which is sniffed from content otherwise.
func WithFileMIMEType(t MIMEType) FileOption {
	return func(f *File) { f.MIMEType = t }
}

// WithFileSaver binds the saver used by Save.
func WithFileSaver(s Saver) FileOption {
	return func(f *File) { f.saver = s }
}

// WithFileRequest binds the request whose context Save uses.
func WithFileRequest(r *http.Request) FileOption {
	return func(f *File) { f.req = r }
}

// NewFile builds a descriptor outside of the Interceptor, e.g. for imports or tests.
func NewFile(field, originalName string, content []byte, opts ...FileOption) *File {
	f := &File{
		Field:        field,
		OriginalName: originalName,
		Extension:    Extension(SanitizeFilename(originalName)),
		Encoding:     "7bit",
		Size:         int64(len(content)),
		Content:      content,
		Header:       textproto.MIMEHeader{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.Name == "" {
		f.Name = assignName(nil, f.req, originalName)
	}
	if f.MIMEType == "" {
		f.MIMEType = DetectMIMEType(content)
	}
	f.FullName = fullName(f.Name, f.Extension)
	return f
}

func fullName(name, ext string) string {
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// Request returns the request the file was uploaded with, if bound.
func (f *File) Request() *http.Request {
	return f.req
}

// Reader returns a reader over the buffered content.
func (f *File) Reader() io.Reader {
	return bytes.NewReader(f.Content)
}

// Location returns the persisted location and whether the file has been saved.
func (f *File) Location() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.location, f.saved
}

// Save persists the file with the bound Saver using the request context.
//
// The first successful save is cached: later calls return the same location
// without invoking the Saver again. Failed saves are not cached, so the caller
// may retry explicitly.
func (f *File) Save() (string, error) {
	ctx := context.Background()
	if f.req != nil {
		ctx = f.req.Context()
	}
	return f.SaveContext(ctx)
}

// SaveContext is Save with an explicit context.
func (f *File) SaveContext(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saved {
		return f.location, nil
	}
	if f.saver == nil {
		return "", fmt.Errorf("%w: %s/%s: %w", ErrPersistence, f.Field, f.OriginalName, ErrNoSaver)
	}

	location, err := f.saver.Save(ctx, f)
	if err != nil {
		return "", fmt.Errorf("%w: %s/%s: %w", ErrPersistence, f.Field, f.OriginalName, err)
	}

	f.location = location
	f.saved = true
	return location, nil
}
