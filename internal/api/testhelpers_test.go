package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/cerebroscan/backend/internal/export"
	"github.com/cerebroscan/backend/internal/inference"
	"github.com/cerebroscan/backend/internal/presentation"
	"github.com/cerebroscan/backend/internal/results"
	"github.com/cerebroscan/backend/internal/testutil"
	"github.com/cerebroscan/backend/internal/upload"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	e        *echo.Echo
	fake     *testutil.FakeInference
	store    *results.Store
	pipeline *upload.Pipeline
	theme    *presentation.Theme
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fake := testutil.NewFakeInference(t)
	client := inference.NewClient(inference.Options{BaseURL: fake.URL()})
	store := results.NewStore()
	pipeline := upload.NewPipeline(client, store)
	exports, err := export.NewLocalStore(filepath.Join(t.TempDir(), "exports"))
	require.NoError(t, err)
	theme := presentation.NewTheme(false)

	e := echo.New()
	SetupMiddleware(e)
	handlers := NewHandlers(&Dependencies{
		Pipeline:    pipeline,
		Results:     store,
		Exports:     exports,
		Upstream:    client,
		Theme:       theme,
		AllowedExts: []string{".png", ".jpg", ".jpeg"},
		MaxFiles:    5,
		Version:     "test",
	})
	RegisterRoutes(e, handlers)
	RegisterWebSocketRoutes(e, handlers)

	return &testEnv{e: e, fake: fake, store: store, pipeline: pipeline, theme: theme}
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) get(path string) *httptest.ResponseRecorder {
	return env.do(httptest.NewRequest(http.MethodGet, path, nil))
}

type upFile struct {
	name string
	size int
}

// multipartBody builds a predict request body with one "images" part per file.
func multipartBody(t *testing.T, files ...upFile) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	for _, f := range files {
		part, err := writer.CreateFormFile(ImagesField, f.name)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{0x42}, f.size))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func predictRequest(t *testing.T, files ...upFile) *http.Request {
	body, contentType := multipartBody(t, files...)
	req := httptest.NewRequest(http.MethodPost, "/api/predict", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	return req
}
