package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

// UnknownName is reported when no stored face clears the similarity threshold.
const UnknownName = "Unknown"

// ProcessResult is the embedding extraction response.
type ProcessResult struct {
	Embeddings models.Embeddings `json:"embeddings"`
	Logs       []string          `json:"logs"`
	Timestamp  string            `json:"timestamp"`
}

// RecognizeResult is the best match for a camera frame.
type RecognizeResult struct {
	RecognizedName  string             `json:"recognizedName"`
	Similarity      float64            `json:"similarity"`
	AllSimilarities map[string]float64 `json:"allSimilarities"`
	Message         string             `json:"message,omitempty"`
	Error           string             `json:"error,omitempty"`
	Timestamp       string             `json:"timestamp"`
}

// Recognized reports whether a registered person matched.
func (r *RecognizeResult) Recognized() bool {
	return r != nil && r.RecognizedName != "" && r.RecognizedName != UnknownName
}

// Client calls the face recognition service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. Skip returns canned results without network calls.
func New(baseURL string, timeout time.Duration, skip bool) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// ProcessImages extracts embeddings for every capture, grouped by person name.
func (c *Client) ProcessImages(ctx context.Context, images []models.FaceImage) (*ProcessResult, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images provided")
	}
	if c.Skip {
		out := models.Embeddings{}
		for _, img := range images {
			out[img.PersonName] = append(out[img.PersonName], []float64{0.1, 0.2, 0.3})
		}
		return &ProcessResult{
			Embeddings: out,
			Logs:       []string{"mock embeddings generated"},
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		}, nil
	}

	var out ProcessResult
	if err := c.post(ctx, "/api/process-images", map[string]interface{}{"images": images}, &out); err != nil {
		return nil, err
	}
	if out.Embeddings == nil {
		out.Embeddings = models.Embeddings{}
	}
	return &out, nil
}

// Recognize matches one base64 frame against the stored embeddings.
func (c *Client) Recognize(ctx context.Context, image string, embeddings models.Embeddings) (*RecognizeResult, error) {
	if image == "" {
		return nil, fmt.Errorf("image required")
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embeddings required")
	}
	if c.Skip {
		names := make([]string, 0, len(embeddings))
		for name := range embeddings {
			names = append(names, name)
		}
		sort.Strings(names)
		return &RecognizeResult{
			RecognizedName:  names[0],
			Similarity:      0.92,
			AllSimilarities: map[string]float64{names[0]: 0.92},
			Timestamp:       time.Now().UTC().Format(time.RFC3339),
		}, nil
	}

	var out RecognizeResult
	payload := map[string]interface{}{"image": image, "embeddings": embeddings}
	if err := c.post(ctx, "/api/recognize-face", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks if the face service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("face service error %s: %s", resp.Status, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
