package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterStaticRoutes(t *testing.T) {
	require.True(t, HasEmbeddedFiles())

	e := echo.New()
	require.NoError(t, RegisterStaticRoutes(e))

	for _, path := range []string{"/", "/results/anything"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "CerebroScan", path)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndexPage_LabelsAndDrop(t *testing.T) {
	page, err := staticFiles.ReadFile("dist/index.html")
	require.NoError(t, err)
	html := string(page)

	// Server-provided strings are set through textContent, never interpolated as markup.
	assert.NotContains(t, html, "${b.label}</div>")
	assert.NotContains(t, html, "${c.filename}</strong>")
	assert.Contains(t, html, "label.textContent")

	assert.Contains(t, html, `addEventListener("dragover"`)
	assert.Contains(t, html, `addEventListener("drop"`)
	assert.Contains(t, html, "e.dataTransfer.files")
}
