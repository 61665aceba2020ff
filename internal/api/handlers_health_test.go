package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"reachable":true`)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
}

func TestHandleHealth_UpstreamDown(t *testing.T) {
	env := newTestEnv(t)
	env.fake.Server.Close()

	rec := env.get("/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Contains(t, rec.Body.String(), `"reachable":false`)
}
