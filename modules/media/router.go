package media

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/uploadkit/handler"
	"github.com/dmitrymomot/uploadkit/pkg/upload"
)

// Options configures the media module.
type Options struct {
	// Interceptor parses uploads and binds them to requests. Required.
	Interceptor *upload.Interceptor
	// Limits are the file rules enforced on every upload. Zero values take DefaultLimits.
	Limits Limits
	Logger *slog.Logger
}

// Router mounts the upload endpoint:
//
//	POST /   multipart/form-data with "title", "file" and optional "gallery" files
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/uploads", media.Router(media.Options{Interceptor: interceptor, Logger: log}))
func Router(opts Options) chi.Router {
	if opts.Interceptor == nil {
		panic("media: interceptor is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	svc := &Service{limits: opts.Limits.withDefaults(), logger: log}

	r := chi.NewRouter()
	r.Post("/", handler.Wrap(svc.Upload,
		handler.WithBinders[handler.Context, UploadRequest](requireMultipart, opts.Interceptor.Bind()),
		handler.WithErrorHandler[handler.Context, UploadRequest](handler.NewErrorHandler[handler.Context](log)),
	))
	r.Get("/limits", func(w http.ResponseWriter, r *http.Request) {
		_ = handler.JSON(svc.limits).Render(w, r)
	})
	return r
}
