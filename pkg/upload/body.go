package upload

import (
	"context"
	"slices"
)

// Body is the reconstructed multipart payload keyed by field name.
//
// A value is a string, a *File, or a []any holding strings and files in
// arrival order. A field that occurs once maps to the scalar; a field that
// occurs several times maps to the slice.
type Body map[string]any

type bodyContextKey struct{}

// WithBody returns a copy of ctx carrying the body.
func WithBody(ctx context.Context, b Body) context.Context {
	return context.WithValue(ctx, bodyContextKey{}, b)
}

// BodyFromContext returns the body stored by the Interceptor middleware.
func BodyFromContext(ctx context.Context) (Body, bool) {
	b, ok := ctx.Value(bodyContextKey{}).(Body)
	return b, ok
}

// add appends a value, promoting a scalar to a slice on the second occurrence.
func (b Body) add(name string, value any) {
	existing, ok := b[name]
	if !ok {
		b[name] = value
		return
	}
	if seq, isSeq := existing.([]any); isSeq {
		b[name] = append(seq, value)
		return
	}
	b[name] = []any{existing, value}
}

// Get returns the raw value for name.
func (b Body) Get(name string) any {
	return b[name]
}

// Values returns every value for name in arrival order.
func (b Body) Values(name string) []any {
	v, ok := b[name]
	if !ok {
		return nil
	}
	if seq, isSeq := v.([]any); isSeq {
		return seq
	}
	return []any{v}
}

// String returns the first string value for name.
func (b Body) String(name string) string {
	for _, v := range b.Values(name) {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Strings returns all string values for name.
func (b Body) Strings(name string) []string {
	var out []string
	for _, v := range b.Values(name) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// File returns the first file uploaded under name, or nil.
func (b Body) File(name string) *File {
	for _, v := range b.Values(name) {
		if f, ok := v.(*File); ok {
			return f
		}
	}
	return nil
}

// Files returns all files uploaded under name.
func (b Body) Files(name string) []*File {
	var out []*File
	for _, v := range b.Values(name) {
		if f, ok := v.(*File); ok {
			out = append(out, f)
		}
	}
	return out
}

// AllFiles returns every file in the body, grouped by sorted field name.
func (b Body) AllFiles() []*File {
	var out []*File
	for _, name := range b.Fields() {
		out = append(out, b.Files(name)...)
	}
	return out
}

// Len returns the number of logical values: every scalar counts once and
// every sequence counts its length.
func (b Body) Len() int {
	n := 0
	for name := range b {
		n += len(b.Values(name))
	}
	return n
}

// Fields returns the field names in sorted order.
func (b Body) Fields() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
