package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/puzzlebox/internal/detector"
	"github.com/MeKo-Tech/puzzlebox/internal/overlay"
	"github.com/MeKo-Tech/puzzlebox/internal/rectify"
)

func newTestServer(t *testing.T, det detector.Detector) *Server {
	t.Helper()
	corrector, err := rectify.New(rectify.DefaultConfig())
	require.NoError(t, err)
	if det == nil {
		det = detector.None()
	}
	return newServer(Config{
		CORSOrigin:  "*",
		MaxUploadMB: 5,
		TimeoutSec:  30,
		Version:     "test",
		Overlay:     overlay.DefaultOptions(),
		Tolerance:   50,
	}, corrector, det, nil)
}

// newUploadRequest builds a multipart POST with an "image" file part and the given fields.
func newUploadRequest(t *testing.T, path string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		part, err := mw.CreateFormFile("image", "upload.bin")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
