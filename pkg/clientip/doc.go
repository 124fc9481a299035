// Package clientip resolves the client IP address of a request, honoring the
// usual reverse proxy headers, and carries it in the request context so log
// records about an upload can name its origin.
//
//	r.Use(clientip.Middleware())
//	log := logger.New(logger.WithContextExtractors(clientip.Extractor()))
package clientip
