// Package logger builds *slog.Logger values with a consistent set of options
// and attribute helpers.
//
// New returns a JSON logger at info level writing to stdout. Options change
// the format, level, output and static attributes, and register
// ContextExtractor callbacks that add request-scoped values (for example the
// request id) to every record logged with a context:
//
//	log := logger.New(
//		logger.WithFormat(logger.FormatText),
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithService("uploadd"),
//		logger.WithContextExtractors(requestid.Extractor()),
//	)
//	log.InfoContext(ctx, "file saved",
//		logger.Field("avatar"),
//		logger.Location(loc),
//		logger.Bytes(f.Size),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
