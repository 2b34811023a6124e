package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"civictrack-be/metrics"
	"civictrack-be/models"
	"civictrack-be/repositories"
	"civictrack-be/services"
)

func init() {
	gin.SetMode(gin.TestMode)
	models.PasswordCost = bcrypt.MinCost
}

func withUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(userIDKey, id)
		c.Next()
	}
}

func ok(c *gin.Context) { c.Status(http.StatusNoContent) }

func limiterRouter(rdb *redis.Client, limit int, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.POST("/issues", withUser("u1"), IssueRateLimiter(rdb, "issue_limit", limit, 24*time.Hour, m, nil), ok)
	return r
}

func post(r http.Handler) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
	return w
}

func TestIssueRateLimiterBlocksAfterLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m := metrics.New()
	r := limiterRouter(rdb, 2, m)

	assert.Equal(t, http.StatusNoContent, post(r).Code)
	w := post(r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = post(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
	assert.Equal(t, "86400", w.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitHits))

	assert.Equal(t, 24*time.Hour, mr.TTL("issue_limit:u1"))

	mr.FastForward(25 * time.Hour)
	assert.Equal(t, http.StatusNoContent, post(r).Code)
}

func TestIssueRateLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := limiterRouter(rdb, 1, nil)
	mr.Close()

	assert.Equal(t, http.StatusNoContent, post(r).Code)
	assert.Equal(t, http.StatusNoContent, post(r).Code)
}

func TestIssueRateLimiterDisabledWithoutRedis(t *testing.T) {
	r := limiterRouter(nil, 1, nil)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, post(r).Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	users := repositories.NewMemoryUserRepository()
	auth := services.NewAuthService(users, "secret", time.Hour, nil, nil)
	citizen, err := auth.Signup(context.Background(), services.SignupInput{Name: "A", Email: "a@gmail.com", Password: "pw", City: "Pune"})
	require.NoError(t, err)
	official, err := auth.Signup(context.Background(), services.SignupInput{Name: "B", Email: "b@pune.gov.in", Password: "pw", City: "Pune"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthMiddleware(auth, nil), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Email)
	})
	r.PUT("/status", AuthMiddleware(auth, nil), RequireAuthority(), ok)

	do := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/me", "bogus").Code)

	w := do(http.MethodGet, "/me", citizen.Token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@gmail.com", w.Body.String())

	w = do(http.MethodPut, "/status", citizen.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Authority access required"}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, do(http.MethodPut, "/status", official.Token).Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger))
	r.GET("/ping", ok)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, id, entry.Data["request_id"])
	assert.Equal(t, http.StatusNoContent, entry.Data["status"])

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}
