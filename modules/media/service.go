package media

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/uploadkit/core"
	"github.com/dmitrymomot/uploadkit/handler"
	"github.com/dmitrymomot/uploadkit/pkg/logger"
	"github.com/dmitrymomot/uploadkit/pkg/upload"
	"github.com/dmitrymomot/uploadkit/pkg/validator"
)

// Limits bound what the upload endpoint accepts.
type Limits struct {
	MinFileSize  int64             `json:"min_file_size"`
	MaxFileSize  int64             `json:"max_file_size"`
	AllowedTypes []upload.MIMEType `json:"allowed_types"`
	MaxGallery   int               `json:"max_gallery"`
}

// DefaultLimits accepts PNG, JPEG and WebP images between 2 MB and 4 MB.
func DefaultLimits() Limits {
	return Limits{
		MinFileSize:  2_000_000,
		MaxFileSize:  4_000_000,
		AllowedTypes: []upload.MIMEType{upload.MIMEPNG, upload.MIMEJPEG, upload.MIMEWebP},
		MaxGallery:   10,
	}
}

// withDefaults fills unset limits. Sizes default only when both are unset.
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MinFileSize == 0 && l.MaxFileSize == 0 {
		l.MinFileSize, l.MaxFileSize = d.MinFileSize, d.MaxFileSize
	}
	if l.MaxFileSize <= 0 {
		l.MaxFileSize = d.MaxFileSize
	}
	if len(l.AllowedTypes) == 0 {
		l.AllowedTypes = d.AllowedTypes
	}
	if l.MaxGallery <= 0 {
		l.MaxGallery = d.MaxGallery
	}
	return l
}

// UploadRequest is bound from the multipart body.
// Gallery keeps the raw body values so text parts sent under the gallery
// name reach the presence check instead of being dropped.
type UploadRequest struct {
	Title   string       `form:"title"`
	File    *upload.File `file:"file"`
	Gallery []any        `file:"gallery"`
}

// Validate checks the fields that do not depend on configured limits.
func (r *UploadRequest) Validate() error {
	return validator.Apply(
		validator.RequiredString("title", r.Title),
		validator.MaxLenString("title", r.Title, 200),
		validator.RequiredFile("file", r.File),
	)
}

// UploadResponse lists the stored files.
type UploadResponse struct {
	Title string       `json:"title"`
	Files []StoredFile `json:"files"`
}

// StoredFile describes one persisted file.
type StoredFile struct {
	Field        string `json:"field"`
	OriginalName string `json:"original_name"`
	Name         string `json:"name"`
	MIMEType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	Location     string `json:"location"`
}

// Service validates and stores uploads.
type Service struct {
	limits Limits
	logger *slog.Logger
}

// Upload enforces the limits, saves the main file and the gallery in arrival
// order and returns their locations.
//
// Saving stops at the first failure. Files stored before it are not removed;
// they are listed under meta.saved in the error response.
func (s *Service) Upload(ctx handler.Context, req UploadRequest) handler.Response {
	if err := validator.Apply(s.rules(req.File, req.Gallery)...); err != nil {
		return handler.JSONError(err)
	}

	files := []*upload.File{req.File}
	for _, v := range req.Gallery {
		files = append(files, v.(*upload.File))
	}
	resp := UploadResponse{Title: req.Title, Files: make([]StoredFile, 0, len(files))}
	for _, f := range files {
		loc, err := f.SaveContext(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "file not saved",
				logger.Component("media"),
				logger.Field(f.Field),
				logger.FileName(f.OriginalName),
				logger.Error(err),
			)
			if len(resp.Files) > 0 {
				return handler.JSONError(err, handler.WithJSONMeta(map[string]any{"saved": resp.Files}))
			}
			return handler.JSONError(err)
		}

		s.logger.InfoContext(ctx, "file saved",
			logger.Component("media"),
			logger.Field(f.Field),
			logger.FileName(f.FullName),
			logger.Location(loc),
			logger.Bytes(f.Size),
		)
		resp.Files = append(resp.Files, StoredFile{
			Field:        f.Field,
			OriginalName: f.OriginalName,
			Name:         f.FullName,
			MIMEType:     f.MIMEType.String(),
			Size:         f.Size,
			Location:     loc,
		})
	}

	return handler.JSON(resp, handler.WithJSONStatus(http.StatusCreated))
}

func (s *Service) rules(file *upload.File, gallery []any) []validator.Rule {
	l := s.limits
	rules := []validator.Rule{
		validator.FileMIMEType("file", file, l.AllowedTypes...),
		validator.MinFileSize("file", file, l.MinFileSize),
		validator.MaxFileSize("file", file, l.MaxFileSize),
	}
	return append(rules, validator.When(len(gallery) > 0,
		validator.MaxLenSlice("gallery", gallery, l.MaxGallery),
		validator.EachRequiredFile("gallery", gallery),
		validator.EachFileMIMEType("gallery", gallery, l.AllowedTypes...),
		validator.EachMinFileSize("gallery", gallery, l.MinFileSize),
		validator.EachMaxFileSize("gallery", gallery, l.MaxFileSize),
	)...)
}

// requireMultipart rejects requests the interceptor would leave unbound.
func requireMultipart(r *http.Request, _ any) error {
	if !upload.IsMultipart(r) {
		return core.ErrUnsupportedMediaType
	}
	return nil
}
