package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"testing"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/cerebroscan/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

var tinyPNG = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func seedResults(t *testing.T, env *testEnv) []models.PredictionResult {
	t.Helper()
	env.fake.SetResponder(testutil.EchoResponder(map[string]testutil.Prediction{
		"plain.png": {Prediction: "glioma", Confidence: testutil.Confidence(92.3)},
		"rich.png": {
			Prediction: "notumor",
			Confidence: testutil.Confidence(81),
			Scores:     map[string]float64{"notumor": 81, "glioma": 12, "meningioma": 5, "pituitary": 2},
			Heatmap:    base64.StdEncoding.EncodeToString(tinyPNG),
		},
	}))

	rec := env.do(predictRequest(t, upFile{"plain.png", 100}, upFile{"rich.png", 200}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return env.store.All()
}

func TestHandleListResults(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/api/results")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)

	seedResults(t, env)

	rec = env.get("/api/results")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results []models.PredictionResult `json:"results"`
		Count   int                       `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "plain.png", body.Results[0].Filename)
	assert.Equal(t, "rich.png", body.Results[1].Filename)
}

func TestHandleListResultsMsgpack(t *testing.T) {
	env := newTestEnv(t)
	seedResults(t, env)

	rec := env.get("/api/results/msgpack")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))

	var body struct {
		Results []models.PredictionResult `json:"results"`
		Count   int                       `json:"count"`
	}
	dec := msgpack.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	dec.SetCustomStructTag("json")
	require.NoError(t, dec.Decode(&body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Results, 2)
	assert.Equal(t, 92.3, body.Results[0].Confidence)
}

func TestHandleGetResult(t *testing.T) {
	env := newTestEnv(t)
	stored := seedResults(t, env)

	rec := env.get("/api/results/" + stored[1].ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"filename":"rich.png"`)
	assert.Contains(t, rec.Body.String(), `"band":"caution"`)

	rec = env.get("/api/results/does-not-exist")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetHeatmap(t *testing.T) {
	env := newTestEnv(t)
	stored := seedResults(t, env)

	rec := env.get("/api/results/" + stored[1].ID + "/heatmap.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, tinyPNG, rec.Body.Bytes())

	rec = env.get("/api/results/" + stored[0].ID + "/heatmap.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetScoreChart(t *testing.T) {
	env := newTestEnv(t)
	stored := seedResults(t, env)

	rec := env.get("/api/results/" + stored[1].ID + "/chart.png")
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	assert.NoError(t, err)

	rec = env.get("/api/results/" + stored[0].ID + "/chart.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
