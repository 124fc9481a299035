// Package validator builds declarative validation rules for request DTOs,
// including predicates over uploaded files.
//
// A Rule pairs a Check func with a ValidationError carrying a message, a
// translation key and its values. Apply evaluates rules and aggregates the
// failures into ValidationErrors, which implements error and matches
// ErrValidationFailed:
//
//	err := validator.Apply(
//		validator.RequiredString("title", req.Title),
//		validator.RequiredFile("file", req.File),
//		validator.MinFileSize("file", req.File, 2_000_000),
//		validator.MaxFileSize("file", req.File, 4_000_000),
//		validator.FileMIMEType("file", req.File, upload.MIMEPNG),
//		validator.EachFileMIMEType("gallery", req.Gallery, upload.MIMEPNG, "image/avif"),
//	)
//
// # File predicates
//
// File rules accept any value so they work on binder output directly:
//
//   - RequiredFile passes only for a non-nil *upload.File; strings and other
//     values fail even when non-empty.
//   - FileMIMEType, MinFileSize and MaxFileSize fail for non-files; size
//     bounds are inclusive.
//   - The Each* variants check every element of a slice. An empty sequence
//     passes the MIME and size rules and fails EachRequiredFile. A value that
//     is not a slice is checked as a single element.
package validator
