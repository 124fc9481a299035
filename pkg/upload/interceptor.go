package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/http"
	"strings"

	"github.com/dmitrymomot/uploadkit/core"
	"github.com/dmitrymomot/uploadkit/pkg/logger"
)

// Config is the process-wide upload configuration.
// It is copied by New; changing it afterwards has no effect on the Interceptor.
type Config struct {
	// FileName assigns the stored name. OriginalName is used when nil.
	FileName NamingFunc

	// Saver persists files when File.Save is called. Required.
	Saver Saver

	// Directories declares a storage directory per form field. The value is
	// passed to the saver's DirectoryNamer hook, or used as is without one.
	Directories map[string]string

	// MaxBodySize caps the whole multipart body in bytes. Zero disables the cap.
	MaxBodySize int64

	// MaxFileSize caps a single file in bytes. Zero disables the cap.
	MaxFileSize int64
}

// ErrorHandlerFunc reports a failed interception to the client.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

// Interceptor extracts multipart uploads into a Body of strings and Files.
// It is safe for concurrent use; every request gets its own descriptors.
type Interceptor struct {
	cfg          Config
	logger       *slog.Logger
	errorHandler ErrorHandlerFunc
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithLogger sets the logger. Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interceptor) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithErrorHandler replaces the handler Middleware uses for rejected requests.
func WithErrorHandler(h ErrorHandlerFunc) Option {
	return func(i *Interceptor) {
		if h != nil {
			i.errorHandler = h
		}
	}
}

// New creates an Interceptor from cfg.
func New(cfg Config, opts ...Option) (*Interceptor, error) {
	if cfg.Saver == nil {
		return nil, fmt.Errorf("%w: saver is required", ErrInvalidConfig)
	}
	if cfg.MaxBodySize < 0 || cfg.MaxFileSize < 0 {
		return nil, fmt.Errorf("%w: size limits must not be negative", ErrInvalidConfig)
	}
	cfg.Directories = maps.Clone(cfg.Directories)

	i := &Interceptor{
		cfg:          cfg,
		logger:       slog.New(slog.DiscardHandler),
		errorHandler: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Middleware parses multipart requests before calling next.
// The resulting Body is available through BodyFromContext. Requests that are
// not multipart/form-data pass through untouched. On failure next is not
// called and the error goes to the configured error handler.
func (i *Interceptor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsMultipart(r) {
			next.ServeHTTP(w, r)
			return
		}

		body, err := i.Parse(r)
		if err != nil {
			i.errorHandler(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithBody(r.Context(), body)))
	})
}

// Parse reads the multipart body of r in arrival order and builds the Body.
// Files are named and bound to the configured Saver but not persisted.
func (i *Interceptor) Parse(r *http.Request) (Body, error) {
	boundary, err := multipartBoundary(r)
	if err != nil {
		return nil, err
	}
	if r.Body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrParse)
	}

	limited := &limitedReader{r: r.Body, remaining: i.cfg.MaxBodySize}
	var src io.Reader = r.Body
	if i.cfg.MaxBodySize > 0 {
		src = limited
	}

	tracker := newCloseDelimiterReader(src, boundary)
	mr := multipart.NewReader(tracker, boundary)
	body := make(Body)
	var files, fields int
	var total int64

	for {
		if err := r.Context().Err(); err != nil {
			return nil, i.reject(r, fmt.Errorf("%w: %v", ErrConnectionAborted, err))
		}

		part, err := mr.NextRawPart()
		if err == io.EOF {
			if !tracker.seen {
				// A body cut inside part headers also ends with io.EOF.
				return nil, i.reject(r, fmt.Errorf("%w: missing close delimiter", ErrParse))
			}
			break
		}
		if err != nil {
			return nil, i.reject(r, i.classify(r, limited, err))
		}

		name, filename, isFile, err := partNames(part)
		if err != nil {
			return nil, i.reject(r, err)
		}
		if name == "" || (isFile && filename == "") {
			// Unnamed parts and empty file inputs carry nothing to bind.
			continue
		}

		var limit int64
		if isFile {
			limit = i.cfg.MaxFileSize
		}
		content, err := readPart(part, limit)
		if err != nil {
			if !errors.Is(err, ErrPayloadTooLarge) {
				err = i.classify(r, limited, err)
			}
			return nil, i.reject(r, err)
		}

		if !isFile {
			body.add(name, string(content))
			fields++
			continue
		}

		body.add(name, i.newFile(r, part, name, filename, content))
		files++
		total += int64(len(content))
	}

	i.logger.DebugContext(r.Context(), "multipart request parsed",
		logger.Component("upload"),
		slog.Int("files", files),
		slog.Int("fields", fields),
		logger.Bytes(total),
	)

	return body, nil
}

// newFile builds the descriptor for one file part.
func (i *Interceptor) newFile(r *http.Request, part *multipart.Part, field, filename string, content []byte) *File {
	mimeType := ParseMIMEType(part.Header.Get("Content-Type"))
	if mimeType == "" {
		mimeType = DetectMIMEType(content)
	}

	encoding := strings.ToLower(strings.TrimSpace(part.Header.Get("Content-Transfer-Encoding")))
	if encoding == "" {
		encoding = "7bit"
	}

	f := &File{
		Field:        field,
		OriginalName: filename,
		Extension:    Extension(SanitizeFilename(filename)),
		Encoding:     encoding,
		MIMEType:     mimeType,
		Size:         int64(len(content)),
		Content:      content,
		Header:       part.Header,
		req:          r,
		saver:        i.cfg.Saver,
	}
	f.Name = assignName(i.cfg.FileName, r, filename)
	f.FullName = fullName(f.Name, f.Extension)
	f.Directory = i.directory(r, field)

	return f
}

// directory resolves the storage directory through the saver hook when present.
func (i *Interceptor) directory(r *http.Request, field string) string {
	declared := i.cfg.Directories[field]
	if namer, ok := i.cfg.Saver.(DirectoryNamer); ok {
		return namer.Directory(r, declared)
	}
	return declared
}

// classify maps a read failure onto an error kind.
func (i *Interceptor) classify(r *http.Request, limited *limitedReader, err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case limited.exceeded, errors.As(err, &maxErr):
		return fmt.Errorf("%w: body exceeds %d bytes", ErrPayloadTooLarge, i.cfg.MaxBodySize)
	case r.Context().Err() != nil:
		return fmt.Errorf("%w: %v", ErrConnectionAborted, err)
	default:
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
}

func (i *Interceptor) reject(r *http.Request, err error) error {
	i.logger.WarnContext(r.Context(), "multipart request rejected",
		logger.Component("upload"),
		logger.Error(err),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	return err
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	var httpErr core.HTTPError
	if errors.As(err, &httpErr) {
		http.Error(w, httpErr.Key, httpErr.Code)
		return
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// IsMultipart reports whether r declares a multipart/form-data body.
// Malformed parameters still count so Parse can report them as ErrParse.
func IsMultipart(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType, _, _ = strings.Cut(ct, ";")
		mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	}
	return mediaType == "multipart/form-data"
}

// multipartBoundary validates the Content-Type header and returns its boundary.
func multipartBoundary(r *http.Request) (string, error) {
	if !IsMultipart(r) {
		return "", ErrNotMultipart
	}

	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%w: malformed content type: %v", ErrParse, err)
	}

	boundary := params["boundary"]
	if boundary == "" {
		return "", fmt.Errorf("%w: missing boundary in content type", ErrParse)
	}
	if !validBoundary(boundary) {
		return "", fmt.Errorf("%w: invalid boundary parameter", ErrParse)
	}

	return boundary, nil
}

// validBoundary checks the RFC 2046 boundary grammar: 1 to 70 characters from
// bchars, not ending with a space.
func validBoundary(boundary string) bool {
	if len(boundary) == 0 || len(boundary) > 70 || strings.HasSuffix(boundary, " ") {
		return false
	}
	for _, c := range boundary {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.ContainsRune("'()+_,-./:=? ", c):
		default:
			return false
		}
	}
	return true
}

// partNames extracts the field name and, for file parts, the raw filename.
func partNames(part *multipart.Part) (name, filename string, isFile bool, err error) {
	disposition := part.Header.Get("Content-Disposition")
	if disposition == "" {
		return "", "", false, nil
	}

	kind, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return "", "", false, fmt.Errorf("%w: malformed content disposition: %v", ErrParse, err)
	}
	if kind != "form-data" {
		return "", "", false, nil
	}

	filename, isFile = params["filename"]
	return params["name"], filename, isFile, nil
}

// readPart buffers one part, decoding quoted-printable content.
// A positive limit fails parts larger than limit bytes with ErrPayloadTooLarge.
func readPart(part *multipart.Part, limit int64) ([]byte, error) {
	var src io.Reader = part
	if strings.EqualFold(part.Header.Get("Content-Transfer-Encoding"), "quoted-printable") {
		src = quotedprintable.NewReader(part)
	}

	if limit <= 0 {
		return io.ReadAll(src)
	}

	content, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > limit {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrPayloadTooLarge, limit)
	}
	return content, nil
}

// closeDelimiterReader records whether the multipart close delimiter has
// been read from the underlying stream.
type closeDelimiterReader struct {
	r     io.Reader
	delim []byte
	tail  []byte
	seen  bool
}

func newCloseDelimiterReader(r io.Reader, boundary string) *closeDelimiterReader {
	return &closeDelimiterReader{r: r, delim: []byte("--" + boundary + "--")}
}

func (c *closeDelimiterReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && !c.seen {
		buf := append(c.tail, p[:n]...)
		if bytes.Contains(buf, c.delim) {
			c.seen = true
		}
		if keep := len(c.delim) - 1; len(buf) > keep {
			buf = buf[len(buf)-keep:]
		}
		c.tail = append(c.tail[:0], buf...)
	}
	return n, err
}

var errBodyTooLarge = errors.New("request body too large")

// limitedReader fails once more than remaining bytes are read.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		// Probe a single byte so a body of exactly the limit still succeeds.
		var probe [1]byte
		n, err := l.r.Read(probe[:])
		if n > 0 {
			l.exceeded = true
			return 0, errBodyTooLarge
		}
		return 0, err
	}

	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}
