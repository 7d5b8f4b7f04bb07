package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/refhub/referralhub/internal/cache"
	"github.com/refhub/referralhub/internal/config"
	"github.com/refhub/referralhub/internal/http/handlers"
	"github.com/refhub/referralhub/internal/http/middlewares"
	"github.com/refhub/referralhub/internal/notifications"
	"github.com/refhub/referralhub/internal/observability"
	"github.com/refhub/referralhub/internal/repo/postgres"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(
	cfg config.Config,
	pool *pgxpool.Pool,
	projCache cache.ProjectionCache,
	notifier notifications.Notifier,
	prom *observability.Prom,
) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(otelgin.Middleware("referralhub"))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// wire up the users store and handlers
	usersRepo := postgres.NewUsersRepo(pool, prom)
	usersHandler := handlers.NewUsersHandler(usersRepo, projCache, notifier, prom)

	api := r.Group("/api")
	api.Use(middlewares.RequireJSON())

	api.POST("/register", usersHandler.Register)
	api.GET("/user/:id", usersHandler.GetByID)
	api.GET("/user-by-code/:code", usersHandler.GetByReferralCode)

	return r
}
