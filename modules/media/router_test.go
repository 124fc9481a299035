package media_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadkit/modules/media"
	"github.com/dmitrymomot/uploadkit/pkg/upload"
)

// part is a file part, or a text field when filename is empty.
type part struct {
	field    string
	filename string
	mimeType string
	content  []byte
}

func multipartRequest(t *testing.T, title string, files ...part) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if title != "" {
		require.NoError(t, mw.WriteField("title", title))
	}
	for _, p := range files {
		if p.filename == "" {
			require.NoError(t, mw.WriteField(p.field, string(p.content)))
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		h.Set("Content-Type", p.mimeType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type response struct {
	Data media.UploadResponse `json:"data"`
	Meta struct {
		Saved []media.StoredFile `json:"saved"`
	} `json:"meta"`
	Error struct {
		Code    string              `json:"code"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func newRouter(t *testing.T, saver upload.Saver, limits media.Limits) http.Handler {
	t.Helper()
	interceptor, err := upload.New(upload.Config{Saver: saver})
	require.NoError(t, err)
	return media.Router(media.Options{Interceptor: interceptor, Limits: limits})
}

func TestUpload(t *testing.T) {
	t.Parallel()

	limits := media.Limits{
		MinFileSize:  2_000_000,
		MaxFileSize:  4_000_000,
		AllowedTypes: []upload.MIMEType{upload.MIMEPNG},
	}

	t.Run("stores a valid file under the prefix", func(t *testing.T) {
		t.Parallel()
		prefix := t.TempDir()
		saver, err := upload.NewLocalSaver(prefix)
		require.NoError(t, err)

		content := bytes.Repeat([]byte{0x42}, 3_000_000)
		rec := httptest.NewRecorder()
		newRouter(t, saver, limits).ServeHTTP(rec, multipartRequest(t, "Hello",
			part{field: "file", filename: "a.png", mimeType: "image/png", content: content},
		))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		resp := decode(t, rec)
		assert.Equal(t, "Hello", resp.Data.Title)
		require.Len(t, resp.Data.Files, 1)

		stored := resp.Data.Files[0]
		assert.Equal(t, "file", stored.Field)
		assert.Equal(t, "a.png", stored.OriginalName)
		assert.Equal(t, "a.png", stored.Name)
		assert.Equal(t, "image/png", stored.MIMEType)
		assert.Equal(t, int64(3_000_000), stored.Size)
		assert.Equal(t, filepath.Join(prefix, "a.png"), stored.Location)

		saved, err := os.ReadFile(stored.Location)
		require.NoError(t, err)
		assert.Equal(t, content, saved)
	})

	t.Run("saves gallery files in arrival order", func(t *testing.T) {
		t.Parallel()
		saver, err := upload.NewLocalSaver(t.TempDir())
		require.NoError(t, err)

		content := bytes.Repeat([]byte{0x01}, 2_500_000)
		rec := httptest.NewRecorder()
		newRouter(t, saver, limits).ServeHTTP(rec, multipartRequest(t, "Album",
			part{field: "file", filename: "cover.png", mimeType: "image/png", content: content},
			part{field: "gallery", filename: "one.png", mimeType: "image/png", content: content},
			part{field: "gallery", filename: "two.png", mimeType: "image/png", content: content},
		))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		files := decode(t, rec).Data.Files
		require.Len(t, files, 3)
		assert.Equal(t, "cover.png", files[0].Name)
		assert.Equal(t, "one.png", files[1].Name)
		assert.Equal(t, "two.png", files[2].Name)
		assert.Equal(t, "gallery", files[2].Field)
	})

	t.Run("rejects files outside the limits", func(t *testing.T) {
		t.Parallel()
		var calls int
		saver := upload.SaverFunc(func(context.Context, *upload.File) (string, error) {
			calls++
			return "", nil
		})

		rec := httptest.NewRecorder()
		newRouter(t, saver, limits).ServeHTTP(rec, multipartRequest(t, "Hello",
			part{field: "file", filename: "a.gif", mimeType: "image/gif", content: []byte("GIF89a")},
		))

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decode(t, rec)
		assert.Equal(t, "validation_error", resp.Error.Code)
		assert.Equal(t, []string{
			"file type must be one of: image/png",
			"file must be at least 2.0 MB",
		}, resp.Error.Details["file"])
		assert.Zero(t, calls)
	})

	t.Run("rejects text parts in the gallery", func(t *testing.T) {
		t.Parallel()
		var calls int
		saver := upload.SaverFunc(func(context.Context, *upload.File) (string, error) {
			calls++
			return "stored", nil
		})

		content := bytes.Repeat([]byte{0x42}, 3_000_000)
		rec := httptest.NewRecorder()
		newRouter(t, saver, limits).ServeHTTP(rec, multipartRequest(t, "Hello",
			part{field: "file", filename: "a.png", mimeType: "image/png", content: content},
			part{field: "gallery", content: []byte("not-a-file")},
		))

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		resp := decode(t, rec)
		assert.Equal(t, "validation_error", resp.Error.Code)
		assert.Contains(t, resp.Error.Details["gallery"], "file is required")
		assert.NotContains(t, resp.Error.Details, "file")
		assert.Zero(t, calls)
	})

	t.Run("rejects a text part mixed into gallery files", func(t *testing.T) {
		t.Parallel()
		saver, err := upload.NewLocalSaver(t.TempDir())
		require.NoError(t, err)

		content := bytes.Repeat([]byte{0x42}, 3_000_000)
		rec := httptest.NewRecorder()
		newRouter(t, saver, limits).ServeHTTP(rec, multipartRequest(t, "Hello",
			part{field: "file", filename: "a.png", mimeType: "image/png", content: content},
			part{field: "gallery", filename: "one.png", mimeType: "image/png", content: content},
			part{field: "gallery", content: []byte("not-a-file")},
		))

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		assert.Contains(t, decode(t, rec).Error.Details["gallery"], "file is required")
	})

	t.Run("requires title and file", func(t *testing.T) {
		t.Parallel()
		saver, err := upload.NewLocalSaver(t.TempDir())
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		newRouter(t, saver, limits).ServeHTTP(rec, multipartRequest(t, ""))

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		details := decode(t, rec).Error.Details
		assert.Contains(t, details, "title")
		assert.Contains(t, details, "file")
	})

	t.Run("reports persistence failures", func(t *testing.T) {
		t.Parallel()
		saver := upload.SaverFunc(func(context.Context, *upload.File) (string, error) {
			return "", errors.New("disk full")
		})

		rec := httptest.NewRecorder()
		newRouter(t, saver, limits).ServeHTTP(rec, multipartRequest(t, "Hello",
			part{field: "file", filename: "a.png", mimeType: "image/png", content: make([]byte, 2_000_000)},
		))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decode(t, rec)
		assert.Equal(t, "file_persistence_failed", resp.Error.Code)
		assert.Empty(t, resp.Meta.Saved)
	})

	t.Run("lists files saved before a failure", func(t *testing.T) {
		t.Parallel()
		saver := upload.SaverFunc(func(_ context.Context, f *upload.File) (string, error) {
			if f.Field == "gallery" {
				return "", errors.New("disk full")
			}
			return "/files/" + f.FullName, nil
		})

		content := bytes.Repeat([]byte{0x42}, 2_500_000)
		rec := httptest.NewRecorder()
		newRouter(t, saver, limits).ServeHTTP(rec, multipartRequest(t, "Hello",
			part{field: "file", filename: "a.png", mimeType: "image/png", content: content},
			part{field: "gallery", filename: "b.png", mimeType: "image/png", content: content},
		))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decode(t, rec)
		assert.Equal(t, "file_persistence_failed", resp.Error.Code)
		require.Len(t, resp.Meta.Saved, 1)
		assert.Equal(t, "file", resp.Meta.Saved[0].Field)
		assert.Equal(t, "/files/a.png", resp.Meta.Saved[0].Location)
	})

	t.Run("rejects non-multipart requests", func(t *testing.T) {
		t.Parallel()
		saver, err := upload.NewLocalSaver(t.TempDir())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"title":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		newRouter(t, saver, limits).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestLimits(t *testing.T) {
	t.Parallel()

	saver, err := upload.NewLocalSaver(t.TempDir())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	newRouter(t, saver, media.Limits{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/limits", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data media.Limits `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, media.DefaultLimits(), resp.Data)
}
