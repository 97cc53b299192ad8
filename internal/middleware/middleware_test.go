package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
	err    error
	seen   string
}

func (v *validatorStub) ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error) {
	v.seen = token
	return v.claims, v.err
}

func perform(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/p", JWT(&validatorStub{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/p", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/p", "Basic abc").Code)
}

func TestJWTStoresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &validatorStub{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}}
	r := gin.New()
	var got *models.JWTClaims
	r.GET("/p", JWT(stub), func(c *gin.Context) {
		got = Claims(c)
		c.Status(http.StatusOK)
	})

	w := perform(r, http.MethodGet, "/p", "Bearer tok-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok-1", stub.seen)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
}

func TestJWTPropagatesValidatorError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &validatorStub{err: appErrors.Clone(appErrors.ErrUnauthorized, "token revoked")}
	r := gin.New()
	r.GET("/p", JWT(stub), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/p", "Bearer tok")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token revoked")
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &validatorStub{err: appErrors.ErrUnauthorized}
	r := gin.New()
	r.GET("/p", OptionalJWT(stub), func(c *gin.Context) {
		assert.Nil(t, Claims(c))
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/p", "Bearer bad").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/p", "").Code)
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

func TestRoleOrSelf(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		claims *models.JWTClaims
		path   string
		want   int
	}{
		{"anonymous", nil, "/settings/a1", http.StatusUnauthorized},
		{"admin", &models.JWTClaims{UserID: "x", Role: models.RoleAdmin}, "/settings/a1", http.StatusOK},
		{"self", &models.JWTClaims{UserID: "a1", Role: models.RoleTeacher}, "/settings/a1", http.StatusOK},
		{"other", &models.JWTClaims{UserID: "a2", Role: models.RoleTeacher}, "/settings/a1", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/settings/:adminId", withClaims(tc.claims), RoleOrSelf("adminId", models.RoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			assert.Equal(t, tc.want, perform(r, http.MethodGet, tc.path, "").Code)
		})
	}
}

func TestRequireRolesIgnoresSelf(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x/:id", withClaims(&models.JWTClaims{UserID: "a1", Role: models.RoleTeacher}), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/x/a1", "").Code)
}

type observerStub struct {
	method, path string
	status       int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.method, o.path, o.status = method, path, status
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	obs := &observerStub{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/attendance/date/:date", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	perform(r, http.MethodGet, "/attendance/date/2024-01-02", "")
	assert.Equal(t, http.MethodGet, obs.method)
	assert.Equal(t, "/attendance/date/:date", obs.path)
	assert.Equal(t, http.StatusTeapot, obs.status)

	perform(r, http.MethodGet, "/nope", "")
	assert.Equal(t, "unmatched", obs.path)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/m", func(c *gin.Context) {
		SetMeta(c, "timezone", "UTC")
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	perform(r, http.MethodGet, "/m", "")
	assert.Equal(t, "UTC", meta["timezone"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestSetMetaWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))
	SetMeta(c, "k", 1)
	assert.Equal(t, 1, ExtractMeta(c)["k"])
}

func TestTokenBucketRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	l := NewTokenBucket(2, 60)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestTokenBucketDropsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	l := NewTokenBucket(2, 60)
	l.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		assert.True(t, l.Allow(fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.True(t, l.Allow("busy"))
	assert.True(t, l.Allow("busy"))
	assert.Len(t, l.state, 51)

	now = now.Add(3 * time.Second)
	assert.True(t, l.Allow("fresh"))
	assert.Len(t, l.state, 1)

	// A dropped client starts with a full bucket, as it would have had anyway.
	assert.True(t, l.Allow("busy"))
	assert.True(t, l.Allow("busy"))
	assert.False(t, l.Allow("busy"))
}

func TestTokenBucketMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewTokenBucket(1, 1)
	r := gin.New()
	r.POST("/recognize", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/recognize", "").Code)
	w := perform(r, http.MethodPost, "/recognize", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestTokenBucketDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewTokenBucket(0, 0)
	r := gin.New()
	r.GET("/x", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/x", "").Code)
	}
}
