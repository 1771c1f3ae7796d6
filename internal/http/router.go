package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tempushr/tempus/internal/auth"
	"github.com/tempushr/tempus/internal/cache"
	"github.com/tempushr/tempus/internal/config"
	"github.com/tempushr/tempus/internal/domain/user"
	"github.com/tempushr/tempus/internal/http/handlers"
	"github.com/tempushr/tempus/internal/http/middlewares"
	"github.com/tempushr/tempus/internal/observability"
	"github.com/tempushr/tempus/internal/queue/redisclient"
	"github.com/tempushr/tempus/internal/repo/postgres"
	"github.com/tempushr/tempus/internal/reports"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type Deps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Pool     *pgxpool.Pool
	Redis    *redisclient.Client
	Prom     *observability.Prom
	Registry *prometheus.Registry
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("tempus-api"))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// repositories
	usersRepo := postgres.NewUsersRepo(d.Pool)
	tokensRepo := postgres.NewRefreshTokensRepo(d.Pool)
	entriesRepo := postgres.NewTimeEntriesRepo(d.Pool)
	absencesRepo := postgres.NewAbsencesRepo(d.Pool)
	correctionsRepo := postgres.NewCorrectionsRepo(d.Pool)
	jobsRepo := postgres.NewJobsRepo(d.Pool, d.Prom)
	reportsRepo := postgres.NewReportsRepo(d.Pool, d.Prom)

	// auth core
	codec := auth.NewCodec(d.Cfg.JWTSecret, d.Cfg.RefreshSecret, d.Cfg.AccessTokenTTL, d.Cfg.RefreshTokenTTL)
	authSvc := auth.NewService(codec, usersRepo, tokensRepo)
	guard := middlewares.NewAuthMiddleware(codec, usersRepo)

	// handlers
	healthHandler := handlers.NewHealthHandler(d.Pool)
	authHandler := handlers.NewAuthHandler(authSvc, usersRepo, d.Prom)
	entriesHandler := handlers.NewTimeEntriesHandler(entriesRepo)
	absencesHandler := handlers.NewAbsencesHandler(absencesRepo, jobsRepo, d.Log)
	correctionsHandler := handlers.NewCorrectionsHandler(correctionsRepo, entriesRepo, jobsRepo, d.Log)
	reportsHandler := handlers.NewReportsHandler(reportsRepo, cache.New[reports.MonthlySummary](30*time.Second), jobsRepo, d.Log)
	adminUsersHandler := handlers.NewAdminUsersHandler(usersRepo)
	adminJobsHandler := handlers.NewAdminJobsHandler(jobsRepo)

	// ops surface
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	// unauthenticated surface gets a per-IP limiter; login additionally
	// gets the redis throttle shared across replicas
	publicLimiter := middlewares.NewRateLimiter(60, time.Minute)

	var loginThrottle gin.HandlerFunc
	if d.Redis != nil {
		loginThrottle = middlewares.NewLoginThrottle(d.Redis.Raw(), 10, time.Minute, d.Log).Middleware()
	} else {
		loginThrottle = func(c *gin.Context) { c.Next() }
	}

	authGroup := r.Group("/auth")
	authGroup.Use(publicLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	{
		authGroup.POST("/login", loginThrottle, authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", guard.RequireAuth(), authHandler.Me)
		authGroup.PUT("/password", guard.RequireAuth(), authHandler.UpdatePassword)
	}

	apiLimiter := middlewares.NewRateLimiter(240, time.Minute)

	api := r.Group("/")
	api.Use(guard.RequireAuth())
	api.Use(apiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	{
		api.POST("/time-entries/clock-in", entriesHandler.ClockIn)
		api.POST("/time-entries/clock-out", entriesHandler.ClockOut)
		api.GET("/time-entries", entriesHandler.List)
		api.GET("/time-entries/:id", entriesHandler.GetByID)

		api.POST("/absences", absencesHandler.Create)
		api.GET("/absences", absencesHandler.List)
		api.GET("/absences/:id", absencesHandler.GetByID)
		api.POST("/absences/:id/decision", guard.RequireRole(user.RoleOfficial), absencesHandler.Decide)

		api.POST("/corrections", correctionsHandler.Create)
		api.GET("/corrections", correctionsHandler.List)
		api.GET("/corrections/:id", correctionsHandler.GetByID)
		api.POST("/corrections/:id/decision", guard.RequireRole(user.RoleOfficial), correctionsHandler.Decide)

		api.GET("/reports/summary", guard.RequireRole(user.RoleOfficial), reportsHandler.MonthlySummary)
	}

	admin := r.Group("/admin")
	admin.Use(guard.RequireAuth(), guard.RequireAdmin())
	{
		admin.POST("/users", adminUsersHandler.Create)
		admin.GET("/users", adminUsersHandler.List)
		admin.GET("/users/:id", adminUsersHandler.GetByID)
		admin.PATCH("/users/:id/active", adminUsersHandler.SetActive)

		admin.GET("/jobs", adminJobsHandler.List)
		admin.GET("/jobs/:id", adminJobsHandler.GetByID)
		admin.POST("/jobs/:id/retry", adminJobsHandler.Retry)

		admin.POST("/reports/export", reportsHandler.Export)
	}

	// consistent JSON 404 instead of gin's default empty body
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "not_found",
				"message": "Route not found",
			},
		})
	})

	return r
}
