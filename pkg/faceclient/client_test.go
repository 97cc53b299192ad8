package faceclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

func TestProcessImagesPostsCaptures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/process-images", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Images []models.FaceImage `json:"images"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Images, 1)
		assert.Equal(t, "S1", body.Images[0].PersonName)

		_, _ = w.Write([]byte(`{"embeddings":{"S1":[[0.5,0.25]]},"logs":["ok"],"timestamp":"2024-05-15T10:00:00"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, false)
	res, err := client.ProcessImages(context.Background(), []models.FaceImage{{PersonName: "S1", ImageName: "frontal.jpg", ImageData: "AAA"}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.5, 0.25}}, res.Embeddings["S1"])
	assert.Equal(t, []string{"ok"}, res.Logs)
}

func TestRecognizeReturnsBestMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/recognize-face", r.URL.Path)
		var body struct {
			Image      string            `json:"image"`
			Embeddings models.Embeddings `json:"embeddings"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "frame", body.Image)
		assert.Contains(t, body.Embeddings, "S1")
		_, _ = w.Write([]byte(`{"recognizedName":"S1","similarity":0.81,"allSimilarities":{"S1":0.81}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, false)
	res, err := client.Recognize(context.Background(), "frame", models.Embeddings{"S1": {{1, 0}}})
	require.NoError(t, err)
	assert.True(t, res.Recognized())
	assert.InDelta(t, 0.81, res.Similarity, 1e-9)
}

func TestRecognizeUnknown(t *testing.T) {
	res := &RecognizeResult{RecognizedName: UnknownName}
	assert.False(t, res.Recognized())
}

func TestUpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to load ResNet50 model"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, false)
	_, err := client.Recognize(context.Background(), "frame", models.Embeddings{"S1": {{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ResNet50")
	assert.Error(t, client.Health(context.Background()))
}

func TestInputValidation(t *testing.T) {
	client := New("http://127.0.0.1:0", time.Second, false)
	_, err := client.ProcessImages(context.Background(), nil)
	assert.Error(t, err)
	_, err = client.Recognize(context.Background(), "", models.Embeddings{"S1": {{1}}})
	assert.Error(t, err)
	_, err = client.Recognize(context.Background(), "frame", nil)
	assert.Error(t, err)
}

func TestSkipModeIsDeterministic(t *testing.T) {
	client := New("", 0, true)

	processed, err := client.ProcessImages(context.Background(), []models.FaceImage{
		{PersonName: "S2", ImageName: "frontal.jpg"},
		{PersonName: "S2", ImageName: "left.jpg"},
	})
	require.NoError(t, err)
	assert.Len(t, processed.Embeddings["S2"], 2)

	res, err := client.Recognize(context.Background(), "frame", models.Embeddings{"S9": {{1}}, "S3": {{1}}})
	require.NoError(t, err)
	assert.Equal(t, "S3", res.RecognizedName)
	assert.NoError(t, client.Health(context.Background()))
}
