package upload

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/uploadkit/core"
)

// Error kinds surfaced to the host framework. Each is a core.HTTPError so the
// standard error path maps it to a status code; wrap them with fmt.Errorf and
// test with errors.Is.
var (
	// ErrParse is returned for malformed or truncated multipart payloads.
	ErrParse = core.NewHTTPError(http.StatusBadRequest, "invalid_multipart_payload")

	// ErrConnectionAborted is returned when the client goes away mid-upload.
	ErrConnectionAborted = core.NewHTTPError(http.StatusBadRequest, "connection_aborted")

	// ErrPayloadTooLarge is returned when a configured size ceiling is exceeded.
	ErrPayloadTooLarge = core.NewHTTPError(http.StatusRequestEntityTooLarge, "payload_too_large")

	// ErrPersistence wraps every failure reported by a Saver.
	ErrPersistence = core.NewHTTPError(http.StatusInternalServerError, "file_persistence_failed")
)

var (
	// ErrNotMultipart is returned by Parse for requests without a multipart/form-data body.
	ErrNotMultipart = errors.New("request is not multipart/form-data")

	// ErrInvalidConfig is returned when a constructor receives unusable settings.
	ErrInvalidConfig = errors.New("invalid upload configuration")

	// ErrNoSaver is returned by File.Save when the descriptor has no bound Saver.
	ErrNoSaver = errors.New("no saver bound to file")

	// ErrFileExists is returned when the collision policy forbids replacing a file.
	ErrFileExists = errors.New("file already exists")

	// ErrInvalidPath is returned when a target path escapes the storage root.
	ErrInvalidPath = errors.New("invalid path")

	// ErrTooManyCollisions is returned when no free suffixed name could be found.
	ErrTooManyCollisions = errors.New("too many name collisions")
)

// S3 failures, classified from SDK errors.
var (
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrOperationTimeout   = errors.New("operation timeout")
	ErrOperationCanceled  = errors.New("operation canceled")
	ErrServiceUnavailable = errors.New("storage service unavailable")
)
