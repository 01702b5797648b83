package routes

import (
	"net/http"
	"time"

	"urbanfix-be/controllers"
	"urbanfix-be/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps is everything the router needs. Counter may be nil, which disables
// rate limiting.
type Deps struct {
	Auth      *controllers.AuthController
	Issues    *controllers.IssueController
	Orders    *controllers.WorkOrderController
	Users     *controllers.UserController
	Verifier  middlewares.Authenticator
	Counter   middlewares.WindowCounter
	Metrics   *middlewares.Metrics
	Gatherer  prometheus.Gatherer
	Log       zerolog.Logger
	Limits    Limits
	Origins   []string
	DebugMode bool
}

type Limits struct {
	API             int
	APIWindow       time.Duration
	IssuePrefix     string
	IssueDailyLimit int
}

func NewRouter(d Deps) *gin.Engine {
	if !d.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middlewares.Recoverer(d.Log), middlewares.RequestLogger(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Handler())
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/api/health", controllers.Health)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	if d.Counter != nil {
		api.Use(middlewares.RateLimiter(d.Counter, middlewares.RateLimit{
			Prefix: "api_limit",
			Limit:  d.Limits.API,
			Window: d.Limits.APIWindow,
			Key:    middlewares.ByIP,
		}, d.Log, d.Metrics))
	}
	authed := middlewares.AuthMiddleware(d.Verifier)

	AuthRoutes(api, d.Auth, authed)
	IssueRoutes(api, d, authed)
	WorkOrderRoutes(api, d.Orders, authed)
	UserRoutes(api, d.Users, authed)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})
	return r
}
