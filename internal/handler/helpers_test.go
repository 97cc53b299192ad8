package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/face-attendance-api/internal/middleware"
	"github.com/noah-isme/face-attendance-api/internal/models"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *apiError              `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

// serve routes a single request through a fresh engine so path params resolve.
func serve(t *testing.T, method, route, path string, body interface{}, claims *models.JWTClaims, handlers ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := []gin.HandlerFunc{middleware.WithResponseMeta(), func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
		c.Next()
	}}
	r.Handle(method, route, append(chain, handlers...)...)

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

var adminClaims = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, Email: "admin@example.com"}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, w.Body.String())
}
