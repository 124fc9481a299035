package upload

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NamingFunc computes the stored name (without extension) for an uploaded file.
// It receives the original client filename including its extension. Results need
// not be deterministic.
type NamingFunc func(r *http.Request, originalName string) string

// OriginalName keeps the sanitized stem of the client filename.
func OriginalName(_ *http.Request, originalName string) string {
	return Stem(SanitizeFilename(originalName))
}

// UUIDName names every file with a random UUIDv4.
func UUIDName(_ *http.Request, _ string) string {
	return uuid.New().String()
}

// TimestampName appends the current unix time in nanoseconds to the original stem.
func TimestampName(r *http.Request, originalName string) string {
	return OriginalName(r, originalName) + "-" + strconv.FormatInt(time.Now().UnixNano(), 10)
}

// SlugName turns the original stem into a lower-case ASCII slug.
// Diacritics are folded ("Résumé final" becomes "resume-final").
func SlugName(_ *http.Request, originalName string) string {
	return slugify(Stem(SanitizeFilename(originalName)))
}

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func slugify(s string) string {
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	lastWasSep := true
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastWasSep = false
			continue
		}
		if !lastWasSep {
			b.WriteByte('-')
			lastWasSep = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// Extension returns the substring after the last dot of name, or "" when there is none.
func Extension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}

// Stem returns name without the part after its last dot.
func Stem(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return name
	}
	return name[:idx]
}

// SanitizeFilename removes any path components and dangerous characters from a filename
// to prevent path traversal attacks and other security issues.
// Returns "unnamed" for empty or special directory references.
//
// Example:
//
//	safe := upload.SanitizeFilename("../../../etc/passwd") // Returns "passwd"
//	safe = upload.SanitizeFilename("C:\\Windows\\file.txt") // Returns "file.txt"
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "\x00", "")

	if filename == "." || filename == ".." || filename == "" || filename == "/" {
		filename = "unnamed"
	}

	return filename
}

// assignName runs the naming function and guarantees a usable, sanitized stem.
// Empty results fall back to the original stem.
func assignName(fn NamingFunc, r *http.Request, originalName string) string {
	var name string
	if fn != nil {
		name = strings.TrimSpace(fn(r, originalName))
	}
	if name == "" {
		name = OriginalName(r, originalName)
	}
	return SanitizeFilename(name)
}
