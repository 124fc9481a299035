// Package upload intercepts multipart/form-data requests and turns every part
// into a Body of text values and File descriptors.
//
// Parts are read in arrival order. A field that occurs once maps to its value;
// a field that occurs several times maps to a []any preserving order. File
// content is buffered in memory and persisted only when File.Save is called,
// through the Saver configured on the Interceptor.
//
// Three savers are provided:
//
//   - LocalSaver writes below a prefix directory (afero filesystem).
//   - S3Saver puts objects into an S3 bucket using conditional writes.
//   - GridFSSaver streams files into a MongoDB GridFS bucket.
//
// Basic usage:
//
//	saver, err := upload.NewLocalSaver("./uploads")
//	if err != nil {
//		return err
//	}
//	interceptor, err := upload.New(upload.Config{
//		Saver:       saver,
//		FileName:    upload.UUIDName,
//		Directories: map[string]string{"avatar": "avatars"},
//		MaxBodySize: 32 << 20,
//	})
//	if err != nil {
//		return err
//	}
//
//	r.With(interceptor.Middleware).Post("/profile", func(w http.ResponseWriter, r *http.Request) {
//		body, _ := upload.BodyFromContext(r.Context())
//		if f := body.File("avatar"); f != nil {
//			location, err := f.Save()
//			...
//		}
//	})
//
// Failures are reported with the HTTP-aware error kinds ErrParse,
// ErrConnectionAborted, ErrPayloadTooLarge and ErrPersistence, all of which
// are core.HTTPError values usable with errors.Is.
package upload
