// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware keeps a valid client-supplied X-Request-ID or generates a UUIDv4,
// stores it in the request context (see FromContext) and echoes it back in the
// response. Extractor plugs the id into loggers built by pkg/logger:
//
//	log := logger.New(logger.WithContextExtractors(requestid.Extractor()))
package requestid
