// Package handler turns typed request handlers into http.HandlerFunc values.
//
// Wrap builds a Context for the request, runs the configured binders on a
// new request value, calls Validate when the request type implements
// Validatable, and renders the returned Response. Failures at any step go to
// the ErrorHandler, by default JSONError:
//
//	type UploadRequest struct {
//		Title string       `form:"title"`
//		File  *upload.File `file:"file"`
//	}
//
//	func (r *UploadRequest) Validate() error {
//		return validator.Apply(
//			validator.RequiredFile("file", r.File),
//			validator.MaxFileSize("file", r.File, 4<<20),
//		)
//	}
//
//	mux.Handle("POST /uploads", handler.Wrap(h,
//		handler.WithBinders[handler.Context, UploadRequest](interceptor.Bind()),
//		handler.WithErrorHandler[handler.Context, UploadRequest](handler.NewErrorHandler[handler.Context](log)),
//	))
//
// JSONError maps validator.ValidationErrors to 422 with per-field details and
// core.HTTPError values (including the upload error kinds) to their status.
package handler
