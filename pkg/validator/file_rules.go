package validator

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/dmitrymomot/uploadkit/pkg/upload"
)

// RequiredFile passes only when value is a non-nil *upload.File.
// Strings, maps and other values fail even when non-empty.
func RequiredFile(field string, value any) Rule {
	return Rule{
		Check: func() bool {
			_, ok := asFile(value)
			return ok
		},
		Error: requiredFileError(field),
	}
}

// EachRequiredFile passes when value is a non-empty sequence whose every
// element is a file. An empty sequence fails: there is nothing to validate.
func EachRequiredFile(field string, value any) Rule {
	return Rule{
		Check: func() bool {
			items := elements(value)
			if len(items) == 0 {
				return false
			}
			for _, item := range items {
				if _, ok := asFile(item); !ok {
					return false
				}
			}
			return true
		},
		Error: requiredFileError(field),
	}
}

// FileMIMEType passes when value is a file whose MIME type is in allowed.
// Allowed entries may be known constants or raw media types; both are
// normalized with upload.ParseMIMEType.
func FileMIMEType(field string, value any, allowed ...upload.MIMEType) Rule {
	allow := normalizeMIMETypes(allowed)
	return Rule{
		Check: func() bool {
			return mimeAllowed(value, allow)
		},
		Error: mimeTypeError(field, allow),
	}
}

// EachFileMIMEType is FileMIMEType applied to every element of a sequence.
// An empty sequence passes.
func EachFileMIMEType(field string, value any, allowed ...upload.MIMEType) Rule {
	allow := normalizeMIMETypes(allowed)
	return Rule{
		Check: func() bool {
			return every(value, func(item any) bool { return mimeAllowed(item, allow) })
		},
		Error: mimeTypeError(field, allow),
	}
}

// MinFileSize passes when value is a file of at least minSize bytes.
func MinFileSize(field string, value any, minSize int64) Rule {
	return Rule{
		Check: func() bool {
			return sizeAtLeast(value, minSize)
		},
		Error: minFileSizeError(field, minSize),
	}
}

// EachMinFileSize is MinFileSize applied to every element. An empty sequence passes.
func EachMinFileSize(field string, value any, minSize int64) Rule {
	return Rule{
		Check: func() bool {
			return every(value, func(item any) bool { return sizeAtLeast(item, minSize) })
		},
		Error: minFileSizeError(field, minSize),
	}
}

// MaxFileSize passes when value is a file of at most maxSize bytes.
func MaxFileSize(field string, value any, maxSize int64) Rule {
	return Rule{
		Check: func() bool {
			return sizeAtMost(value, maxSize)
		},
		Error: maxFileSizeError(field, maxSize),
	}
}

// EachMaxFileSize is MaxFileSize applied to every element. An empty sequence passes.
func EachMaxFileSize(field string, value any, maxSize int64) Rule {
	return Rule{
		Check: func() bool {
			return every(value, func(item any) bool { return sizeAtMost(item, maxSize) })
		},
		Error: maxFileSizeError(field, maxSize),
	}
}

func asFile(value any) (*upload.File, bool) {
	f, ok := value.(*upload.File)
	return f, ok && f != nil
}

// elements returns the items of a slice or array value. Any other value,
// including strings, is a sequence of one.
func elements(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []*upload.File:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = f
		}
		return out
	case string:
		return []any{v}
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{value}
	}
	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func every(value any, check func(any) bool) bool {
	for _, item := range elements(value) {
		if !check(item) {
			return false
		}
	}
	return true
}

func mimeAllowed(value any, allowed []upload.MIMEType) bool {
	f, ok := asFile(value)
	if !ok {
		return false
	}
	return slices.Contains(allowed, upload.ParseMIMEType(string(f.MIMEType)))
}

func sizeAtLeast(value any, minSize int64) bool {
	f, ok := asFile(value)
	return ok && f.Size >= minSize
}

func sizeAtMost(value any, maxSize int64) bool {
	f, ok := asFile(value)
	return ok && f.Size <= maxSize
}

func normalizeMIMETypes(types []upload.MIMEType) []upload.MIMEType {
	out := make([]upload.MIMEType, 0, len(types))
	for _, t := range types {
		if n := upload.ParseMIMEType(string(t)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func requiredFileError(field string) ValidationError {
	return ValidationError{
		Field:          field,
		Message:        "file is required",
		TranslationKey: "validation.file_required",
		TranslationValues: map[string]any{
			"field": field,
		},
	}
}

func mimeTypeError(field string, allowed []upload.MIMEType) ValidationError {
	names := make([]string, len(allowed))
	for i, t := range allowed {
		names[i] = t.String()
	}
	list := strings.Join(names, ", ")
	return ValidationError{
		Field:          field,
		Message:        fmt.Sprintf("file type must be one of: %s", list),
		TranslationKey: "validation.file_mime_type",
		TranslationValues: map[string]any{
			"field":   field,
			"allowed": list,
		},
	}
}

func minFileSizeError(field string, minSize int64) ValidationError {
	return ValidationError{
		Field:          field,
		Message:        fmt.Sprintf("file must be at least %s", humanBytes(minSize)),
		TranslationKey: "validation.file_min_size",
		TranslationValues: map[string]any{
			"field": field,
			"min":   minSize,
		},
	}
}

func maxFileSizeError(field string, maxSize int64) ValidationError {
	return ValidationError{
		Field:          field,
		Message:        fmt.Sprintf("file must be at most %s", humanBytes(maxSize)),
		TranslationKey: "validation.file_max_size",
		TranslationValues: map[string]any{
			"field": field,
			"max":   maxSize,
		},
	}
}

func humanBytes(n int64) string {
	if n < 0 {
		return fmt.Sprintf("%d B", n)
	}
	return humanize.Bytes(uint64(n))
}
