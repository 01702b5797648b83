package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"urbanfix-be/apperr"
	"urbanfix-be/controllers"
	"urbanfix-be/middlewares"
	"urbanfix-be/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tokenAuth map[string]*models.User

func (a tokenAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := a[token]; ok {
		return u, nil
	}
	return nil, apperr.Auth("Invalid authorization token")
}

type countingLimiter struct{ hits map[string]int64 }

func (c *countingLimiter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.hits[key]++
	return c.hits[key], nil
}

func (c *countingLimiter) TTL(context.Context, string) (time.Duration, error) { return time.Hour, nil }

func newTestRouter(counter middlewares.WindowCounter) (*gin.Engine, *countingLimiter) {
	limiter, _ := counter.(*countingLimiter)
	reg := prometheus.NewRegistry()
	respond := controllers.NewResponder(false, zerolog.Nop())
	r := NewRouter(Deps{
		Auth:     controllers.NewAuthController(nil, time.Hour, false, respond),
		Issues:   controllers.NewIssueController(nil, nil, nil, respond),
		Orders:   controllers.NewWorkOrderController(nil, respond),
		Users:    controllers.NewUserController(nil, respond),
		Verifier: tokenAuth{
			"citizen": {ID: primitive.NewObjectID(), Role: models.RoleCitizen, IsActive: true},
			"staff":   {ID: primitive.NewObjectID(), Role: models.RoleStaff, IsActive: true},
		},
		Counter:  counter,
		Metrics:  middlewares.NewMetrics(reg),
		Gatherer: reg,
		Log:      zerolog.Nop(),
		Limits: Limits{
			API:             1000,
			APIWindow:       time.Minute,
			IssuePrefix:     "issue_limit",
			IssueDailyLimit: 0,
		},
		Origins:   []string{"http://localhost:5173"},
		DebugMode: true,
	})
	return r, limiter
}

func request(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthAndNotFound(t *testing.T) {
	r, _ := newTestRouter(nil)

	w := request(r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)

	w = request(r, http.MethodGet, "/api/nowhere", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Route not found"}`, w.Body.String())
}

func TestRouter_RoleGates(t *testing.T) {
	r, _ := newTestRouter(nil)
	id := primitive.NewObjectID().Hex()

	tests := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/api/issues/stats", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/issues/stats", "citizen", http.StatusForbidden},
		{http.MethodPatch, "/api/issues/" + id + "/status", "citizen", http.StatusForbidden},
		{http.MethodDelete, "/api/issues/" + id, "citizen", http.StatusForbidden},
		{http.MethodGet, "/api/workorders", "citizen", http.StatusForbidden},
		{http.MethodGet, "/api/admin/users", "staff", http.StatusForbidden},
		{http.MethodGet, "/api/admin/audits", "citizen", http.StatusForbidden},
		{http.MethodGet, "/api/auth/profile", "bogus", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path+" as "+tt.token, func(t *testing.T) {
			w := request(r, tt.method, tt.path, tt.token)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRouter_IssueDailyLimit(t *testing.T) {
	r, limiter := newTestRouter(&countingLimiter{hits: map[string]int64{}})

	w := request(r, http.MethodPost, "/api/issues", "citizen")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))

	var userKeys int
	for key := range limiter.hits {
		if strings.HasPrefix(key, "issue_limit:") {
			userKeys++
		}
	}
	assert.Equal(t, 1, userKeys)
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newTestRouter(nil)
	request(r, http.MethodGet, "/api/health", "")

	w := request(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "urbanfix_http_requests_total")
}
