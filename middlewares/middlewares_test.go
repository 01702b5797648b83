package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"urbanfix-be/apperr"
	"urbanfix-be/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	users map[string]*models.User
}

func (f fakeAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	u, ok := f.users[token]
	if !ok {
		return nil, apperr.Auth("Invalid authorization token")
	}
	return u, nil
}

func perform(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	staff := &models.User{ID: primitive.NewObjectID(), Role: models.RoleStaff, IsActive: true}
	r := gin.New()
	r.GET("/me", AuthMiddleware(fakeAuth{users: map[string]*models.User{"good": staff}}), func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID.Hex(), "role": actor.Role})
	})

	w := perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+staff.ID.Hex()+`","role":"STAFF"}`, w.Body.String())

	w = perform(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"No authorization token provided"}`, w.Body.String())

	w = perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/me", map[string]string{"Cookie": AuthCookie + "=good"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		role models.Role
		want int
	}{
		{models.RoleCitizen, http.StatusForbidden},
		{models.RoleStaff, http.StatusOK},
		{models.RoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			r := gin.New()
			r.GET("/staff", func(c *gin.Context) {
				SetActor(c, primitive.NewObjectID(), tt.role)
			}, RequireRoles(models.RoleStaff, models.RoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := perform(r, http.MethodGet, "/staff", nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

type fakeCounter struct {
	counts map[string]int64
	err    error
}

func (f *fakeCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounter) TTL(context.Context, string) (time.Duration, error) {
	return 90 * time.Second, nil
}

func TestRateLimiter(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int64{}}
	m := NewMetrics(prometheus.NewRegistry())
	r := gin.New()
	r.GET("/", RateLimiter(counter, RateLimit{Prefix: "api", Limit: 2, Window: time.Minute, Key: ByIP}, zerolog.Nop(), m),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
	w := perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "90", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"message":"Too many requests, please try again later.","retry_after":90}`, w.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("api")))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	counter := &fakeCounter{err: errors.New("redis down")}
	r := gin.New()
	r.GET("/", RateLimiter(counter, RateLimit{Prefix: "api", Limit: 1, Window: time.Minute, Key: ByIP}, zerolog.Nop(), nil),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
}

func TestRateLimiter_PerUser(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int64{}}
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	current := alice
	r := gin.New()
	r.POST("/issues", func(c *gin.Context) { SetActor(c, current, models.RoleCitizen) },
		RateLimiter(counter, RateLimit{Prefix: "issue_limit", Limit: 1, Window: 24 * time.Hour, Key: ByUser}, zerolog.Nop(), nil),
		func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/issues", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodPost, "/issues", nil).Code)
	current = bob
	assert.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/issues", nil).Code)
	assert.Equal(t, int64(2), counter.counts["issue_limit:"+alice.Hex()])
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	r := gin.New()
	r.Use(m.Handler())
	r.GET("/api/issues/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodGet, "/api/issues/abc", nil)
	perform(r, http.MethodGet, "/nowhere", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/api/issues/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "unmatched", "404")))
}

func TestRecoverer(t *testing.T) {
	r := gin.New()
	r.Use(Recoverer(zerolog.Nop()), RequestLogger(zerolog.Nop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := perform(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Something went wrong"}`, w.Body.String())
}
