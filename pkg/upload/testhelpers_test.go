package upload_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/require"
)

type formPart struct {
	name     string
	filename string
	header   map[string]string
	content  string
	isFile   bool
}

func field(name, value string) formPart {
	return formPart{name: name, content: value}
}

func filePart(name, filename, mimeType, content string) formPart {
	p := formPart{name: name, filename: filename, content: content, isFile: true}
	if mimeType != "" {
		p.header = map[string]string{"Content-Type": mimeType}
	}
	return p
}

func multipartBody(t *testing.T, parts ...formPart) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		disposition := `form-data; name="` + p.name + `"`
		if p.isFile {
			disposition += `; filename="` + p.filename + `"`
		}
		h.Set("Content-Disposition", disposition)
		for k, v := range p.header {
			h.Set(k, v)
		}
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func multipartRequest(t *testing.T, parts ...formPart) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, parts...)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	return req
}
