package upload

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MIMEType is a media type such as "image/png".
// Known types are listed as constants; anything else is kept as an opaque string.
type MIMEType string

// Known MIME types.
const (
	MIMEOctetStream MIMEType = "application/octet-stream"

	MIMEJPEG MIMEType = "image/jpeg"
	MIMEPNG  MIMEType = "image/png"
	MIMEGIF  MIMEType = "image/gif"
	MIMEWebP MIMEType = "image/webp"
	MIMESVG  MIMEType = "image/svg+xml"
	MIMEBMP  MIMEType = "image/bmp"
	MIMETIFF MIMEType = "image/tiff"
	MIMEHEIC MIMEType = "image/heic"
	MIMEAVIF MIMEType = "image/avif"
	MIMEICO  MIMEType = "image/vnd.microsoft.icon"

	MIMEMP4       MIMEType = "video/mp4"
	MIMEMPEG      MIMEType = "video/mpeg"
	MIMEWebM      MIMEType = "video/webm"
	MIMEQuickTime MIMEType = "video/quicktime"
	MIMEMatroska  MIMEType = "video/x-matroska"

	MIMEMP3  MIMEType = "audio/mpeg"
	MIMEOgg  MIMEType = "audio/ogg"
	MIMEWAV  MIMEType = "audio/wav"
	MIMEAAC  MIMEType = "audio/aac"
	MIMEFLAC MIMEType = "audio/flac"

	MIMEPDF  MIMEType = "application/pdf"
	MIMEJSON MIMEType = "application/json"
	MIMEXML  MIMEType = "application/xml"
	MIMEZip  MIMEType = "application/zip"
	MIMEGzip MIMEType = "application/gzip"
	MIMETar  MIMEType = "application/x-tar"
	MIMEDOC  MIMEType = "application/msword"
	MIMEDOCX MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXLS  MIMEType = "application/vnd.ms-excel"
	MIMEXLSX MIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	MIMEText     MIMEType = "text/plain"
	MIMEHTML     MIMEType = "text/html"
	MIMECSV      MIMEType = "text/csv"
	MIMEMarkdown MIMEType = "text/markdown"
)

var knownMIMETypes = func() map[MIMEType]struct{} {
	types := []MIMEType{
		MIMEOctetStream,
		MIMEJPEG, MIMEPNG, MIMEGIF, MIMEWebP, MIMESVG, MIMEBMP, MIMETIFF, MIMEHEIC, MIMEAVIF, MIMEICO,
		MIMEMP4, MIMEMPEG, MIMEWebM, MIMEQuickTime, MIMEMatroska,
		MIMEMP3, MIMEOgg, MIMEWAV, MIMEAAC, MIMEFLAC,
		MIMEPDF, MIMEJSON, MIMEXML, MIMEZip, MIMEGzip, MIMETar, MIMEDOC, MIMEDOCX, MIMEXLS, MIMEXLSX,
		MIMEText, MIMEHTML, MIMECSV, MIMEMarkdown,
	}
	m := make(map[MIMEType]struct{}, len(types))
	for _, t := range types {
		m[t] = struct{}{}
	}
	return m
}()

// aliases normalizes non-canonical spellings clients commonly send.
var aliases = map[string]MIMEType{
	"image/jpg":                    MIMEJPEG,
	"image/pjpeg":                  MIMEJPEG,
	"image/x-png":                  MIMEPNG,
	"audio/mp3":                    MIMEMP3,
	"audio/x-wav":                  MIMEWAV,
	"audio/wave":                   MIMEWAV,
	"audio/x-flac":                 MIMEFLAC,
	"application/x-gzip":           MIMEGzip,
	"application/x-zip-compressed": MIMEZip,
	"text/xml":                     MIMEXML,
}

// ParseMIMEType normalizes a Content-Type value.
// Parameters are dropped and the media type is lower-cased. Listed types map
// to their constant; unknown types are returned verbatim rather than rejected.
func ParseMIMEType(raw string) MIMEType {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		// Keep whatever precedes the parameters for malformed values.
		mediaType, _, _ = strings.Cut(raw, ";")
		mediaType = strings.TrimSpace(mediaType)
	}
	mediaType = strings.ToLower(mediaType)

	if alias, ok := aliases[mediaType]; ok {
		return alias
	}
	return MIMEType(mediaType)
}

// DetectMIMEType sniffs the media type from file content.
func DetectMIMEType(content []byte) MIMEType {
	return ParseMIMEType(mimetype.Detect(content).String())
}

// IsKnown reports whether the type is one of the listed constants.
func (m MIMEType) IsKnown() bool {
	_, ok := knownMIMETypes[m]
	return ok
}

func (m MIMEType) String() string {
	return string(m)
}
