package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uploadkit/pkg/config"
	"github.com/dmitrymomot/uploadkit/pkg/upload"
)

func loadTestConfig(t *testing.T, vars map[string]string) Config {
	t.Helper()
	cfg, err := config.Load[Config](config.WithPrefix("UPLOAD_"), config.WithEnvironment(vars))
	require.NoError(t, err)
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := loadTestConfig(t, map[string]string{})
	assert.Equal(t, "local", cfg.Storage)
	assert.Equal(t, "./uploads", cfg.LocalDir)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"image/png", "image/jpeg", "image/webp"}, cfg.AllowedTypes)

	limits := cfg.limits()
	assert.Equal(t, int64(2_000_000), limits.MinFileSize)
	assert.Equal(t, int64(4_000_000), limits.MaxFileSize)
	assert.Equal(t, []upload.MIMEType{upload.MIMEPNG, upload.MIMEJPEG, upload.MIMEWebP}, limits.AllowedTypes)
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Parallel()

	cfg := loadTestConfig(t, map[string]string{
		"UPLOAD_STORAGE":          "s3",
		"UPLOAD_S3_BUCKET":        "media",
		"UPLOAD_S3_REGION":        "eu-west-1",
		"UPLOAD_HTTP_ADDR":        ":9090",
		"UPLOAD_ALLOWED_TYPES":    "image/jpg,application/pdf",
		"UPLOAD_COLLISION_POLICY": "error",
	})
	assert.Equal(t, "s3", cfg.Storage)
	assert.Equal(t, "media", cfg.S3.uploadConfig().Bucket)
	assert.Equal(t, "eu-west-1", cfg.S3.Region)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, []upload.MIMEType{upload.MIMEJPEG, upload.MIMEPDF}, cfg.limits().AllowedTypes)
}

func TestNamingFunc(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "original", "UUID", "timestamp", "slug"} {
		fn, err := Config{Naming: name}.namingFunc()
		require.NoError(t, err, name)
		assert.NotNil(t, fn)
	}

	_, err := Config{Naming: "random"}.namingFunc()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	_, err := Config{LogLevel: "verbose", LogFormat: "json"}.newLogger()
	assert.Error(t, err)

	_, err = Config{LogLevel: "debug", LogFormat: "xml"}.newLogger()
	assert.Error(t, err)

	log, err := Config{LogLevel: "debug", LogFormat: "text"}.newLogger()
	require.NoError(t, err)
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
}

func TestOpenStorage(t *testing.T) {
	t.Parallel()

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()
		_, err := openStorage(context.Background(), Config{Storage: "ftp"}, slog.New(slog.DiscardHandler))
		assert.Error(t, err)
	})

	t.Run("invalid collision policy", func(t *testing.T) {
		t.Parallel()
		_, err := openStorage(context.Background(), Config{CollisionPolicy: "rename"}, slog.New(slog.DiscardHandler))
		assert.ErrorIs(t, err, upload.ErrInvalidConfig)
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		t.Parallel()
		_, err := openStorage(context.Background(), Config{Storage: "s3"}, slog.New(slog.DiscardHandler))
		assert.ErrorIs(t, err, upload.ErrInvalidConfig)
	})
}

func TestRouter(t *testing.T) {
	t.Parallel()

	cfg := loadTestConfig(t, map[string]string{
		"UPLOAD_LOCAL_DIR":         t.TempDir(),
		"UPLOAD_MIN_ACCEPTED_SIZE": "1",
		"UPLOAD_MAX_ACCEPTED_SIZE": "1024",
	})
	log := slog.New(slog.DiscardHandler)

	store, err := openStorage(context.Background(), cfg, log)
	require.NoError(t, err)
	interceptor, err := upload.New(upload.Config{Saver: store.saver, MaxBodySize: cfg.MaxBodySize})
	require.NoError(t, err)

	srv := httptest.NewServer(newRouter(cfg, store, interceptor, log))
	t.Cleanup(srv.Close)

	t.Run("liveness", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health/live")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ALIVE", string(body))
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})

	t.Run("upload then download", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("title", "Logo"))
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="logo.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("png bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		resp, err := http.Post(srv.URL+"/uploads", mw.FormDataContentType(), &buf)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var out struct {
			Data struct {
				Files []struct {
					Location string `json:"location"`
				} `json:"files"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Len(t, out.Data.Files, 1)
		assert.Equal(t, "/files/logo.png", out.Data.Files[0].Location)

		file, err := http.Get(srv.URL + out.Data.Files[0].Location)
		require.NoError(t, err)
		defer file.Body.Close()
		content, _ := io.ReadAll(file.Body)
		assert.Equal(t, http.StatusOK, file.StatusCode)
		assert.Equal(t, "png bytes", string(content))
	})
}
