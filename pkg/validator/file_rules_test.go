package validator_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadkit/pkg/upload"
	"github.com/dmitrymomot/uploadkit/pkg/validator"
)

func newFile(name string, mimeType upload.MIMEType, size int) *upload.File {
	return upload.NewFile("file", name, bytes.Repeat([]byte{'x'}, size), upload.WithFileMIMEType(mimeType))
}

func passes(r validator.Rule) bool {
	return validator.Apply(r) == nil
}

func TestRequiredFile(t *testing.T) {
	var nilFile *upload.File

	assert.True(t, passes(validator.RequiredFile("file", newFile("a.png", upload.MIMEPNG, 1))))
	assert.False(t, passes(validator.RequiredFile("file", nil)))
	assert.False(t, passes(validator.RequiredFile("file", nilFile)))
	assert.False(t, passes(validator.RequiredFile("file", "a.png")))
	assert.False(t, passes(validator.RequiredFile("file", map[string]any{"OriginalName": "a.png"})))

	err := validator.Apply(validator.RequiredFile("file", ""))
	errs := validator.ExtractValidationErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "file", errs[0].Field)
	assert.Equal(t, "validation.file_required", errs[0].TranslationKey)
}

func TestEachRequiredFile(t *testing.T) {
	png := newFile("a.png", upload.MIMEPNG, 1)

	assert.True(t, passes(validator.EachRequiredFile("gallery", []*upload.File{png, png})))
	assert.True(t, passes(validator.EachRequiredFile("gallery", []any{png})))

	t.Run("sequence with a plain string fails", func(t *testing.T) {
		assert.False(t, passes(validator.EachRequiredFile("gallery", []any{png, "not-a-file"})))
		assert.False(t, passes(validator.EachRequiredFile("gallery", []any{"a.png"})))
	})

	t.Run("empty sequence fails", func(t *testing.T) {
		assert.False(t, passes(validator.EachRequiredFile("gallery", []*upload.File{})))
		assert.False(t, passes(validator.EachRequiredFile("gallery", []any{})))
		assert.False(t, passes(validator.EachRequiredFile("gallery", nil)))
	})

	t.Run("scalar is one element", func(t *testing.T) {
		assert.True(t, passes(validator.EachRequiredFile("gallery", png)))
		assert.False(t, passes(validator.EachRequiredFile("gallery", "a.png")))
	})
}

func TestFileMIMEType(t *testing.T) {
	png := newFile("a.png", upload.MIMEPNG, 1)
	jpeg := newFile("b.jpg", upload.MIMEJPEG, 1)

	assert.True(t, passes(validator.FileMIMEType("file", png, upload.MIMEPNG)))
	assert.False(t, passes(validator.FileMIMEType("file", jpeg, upload.MIMEPNG)))
	assert.False(t, passes(validator.FileMIMEType("file", "image/png", upload.MIMEPNG)))

	t.Run("allow-set mixes known and raw types", func(t *testing.T) {
		avif := newFile("c.avif", upload.MIMEType("image/avif"), 1)
		rule := validator.FileMIMEType("file", avif, upload.MIMEPNG, "Image/AVIF; q=1")
		assert.True(t, passes(rule))
	})

	t.Run("aliases are normalized", func(t *testing.T) {
		assert.True(t, passes(validator.FileMIMEType("file", jpeg, "image/jpg")))
	})

	t.Run("message lists allowed types", func(t *testing.T) {
		errs := validator.ExtractValidationErrors(validator.Apply(
			validator.FileMIMEType("file", jpeg, upload.MIMEPNG, upload.MIMEWebP),
		))
		require.Len(t, errs, 1)
		assert.Equal(t, "file type must be one of: image/png, image/webp", errs[0].Message)
	})
}

func TestEachFileMIMEType(t *testing.T) {
	png := newFile("a.png", upload.MIMEPNG, 1)
	jpeg := newFile("b.jpg", upload.MIMEJPEG, 1)

	assert.True(t, passes(validator.EachFileMIMEType("gallery", []*upload.File{png, png}, upload.MIMEPNG)))
	assert.False(t, passes(validator.EachFileMIMEType("gallery", []*upload.File{png, jpeg}, upload.MIMEPNG)))
	assert.True(t, passes(validator.EachFileMIMEType("gallery", []*upload.File{}, upload.MIMEPNG)))
	assert.True(t, passes(validator.EachFileMIMEType("gallery", nil, upload.MIMEPNG)))
	assert.False(t, passes(validator.EachFileMIMEType("gallery", []any{png, "x"}, upload.MIMEPNG)))
}

func TestFileSize(t *testing.T) {
	const minSize, maxSize = 2000, 4000

	tests := []struct {
		name    string
		size    int
		minPass bool
		maxPass bool
	}{
		{"one byte below minimum", minSize - 1, false, true},
		{"exactly minimum", minSize, true, true},
		{"in range", 3000, true, true},
		{"exactly maximum", maxSize, true, true},
		{"one byte above maximum", maxSize + 1, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFile("a.bin", upload.MIMEOctetStream, tt.size)
			assert.Equal(t, tt.minPass, passes(validator.MinFileSize("file", f, minSize)))
			assert.Equal(t, tt.maxPass, passes(validator.MaxFileSize("file", f, maxSize)))
		})
	}

	assert.False(t, passes(validator.MinFileSize("file", nil, 0)))
	assert.False(t, passes(validator.MaxFileSize("file", "abc", 10)))

	errs := validator.ExtractValidationErrors(validator.Apply(
		validator.MinFileSize("file", newFile("a", "", 1), 2_000_000),
		validator.MaxFileSize("file", newFile("a", "", 5_000_000), 4_000_000),
	))
	require.Len(t, errs, 2)
	assert.Equal(t, "file must be at least 2.0 MB", errs[0].Message)
	assert.Equal(t, int64(2_000_000), errs[0].TranslationValues["min"])
	assert.Equal(t, "file must be at most 4.0 MB", errs[1].Message)
}

func TestEachFileSize(t *testing.T) {
	small := newFile("s.bin", upload.MIMEOctetStream, 10)
	large := newFile("l.bin", upload.MIMEOctetStream, 100)

	assert.True(t, passes(validator.EachMinFileSize("gallery", []*upload.File{small, large}, 10)))
	assert.False(t, passes(validator.EachMinFileSize("gallery", []*upload.File{small, large}, 11)))
	assert.True(t, passes(validator.EachMaxFileSize("gallery", []*upload.File{small, large}, 100)))
	assert.False(t, passes(validator.EachMaxFileSize("gallery", []*upload.File{small, large}, 99)))

	t.Run("empty sequence passes", func(t *testing.T) {
		assert.True(t, passes(validator.EachMinFileSize("gallery", []*upload.File{}, 10)))
		assert.True(t, passes(validator.EachMaxFileSize("gallery", []any{}, 10)))
	})

	t.Run("arrays and typed slices", func(t *testing.T) {
		arr := [2]*upload.File{small, large}
		assert.True(t, passes(validator.EachMaxFileSize("gallery", arr, 100)))
		assert.False(t, passes(validator.EachMinFileSize("gallery", []any{small, 42}, 1)))
	})
}
