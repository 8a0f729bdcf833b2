package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lmoreau/profilhub/internal/auth"
	"github.com/lmoreau/profilhub/internal/config"
	"github.com/lmoreau/profilhub/internal/geo"
	"github.com/lmoreau/profilhub/internal/http/handlers"
	"github.com/lmoreau/profilhub/internal/http/middlewares"
	"github.com/lmoreau/profilhub/internal/observability"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Deps carries the router's collaborators so tests can swap in fakes
// (memory store, stub resolver) without touching the wiring.
type Deps struct {
	Users    handlers.UserStore
	JWT      *auth.Manager
	Resolver handlers.AddressResolver // nil disables address resolution
	Prom     *observability.Prom      // nil disables metrics
	Ping     func() error             // nil means always ready
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(otelgin.Middleware("profilhub"))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// health
	healthHandler := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)

	fence := geo.Fence{
		Center:       geo.Point{Lat: cfg.GeofenceLat, Lon: cfg.GeofenceLon},
		RadiusMeters: cfg.GeofenceRadiusM,
	}

	gate := handlers.NewGeofenceGate(deps.Resolver, fence, cfg.GeofenceEnforced, log)

	// wire up handlers
	authHandler := handlers.NewAuthHandler(deps.Users, deps.JWT, gate, log)
	profileHandler := handlers.NewProfileHandler(deps.Users, gate, log)

	r.POST("/signup", authHandler.SignUp)
	r.POST("/signin", authHandler.SignIn)

	if deps.Resolver != nil {
		addressHandler := handlers.NewAddressHandler(deps.Resolver, fence, log)
		r.GET("/address/check", addressHandler.CheckAddress)
	}

	// protected profile surface
	authMW := middlewares.NewAuthMiddleware(deps.JWT)

	protected := r.Group("/", authMW.RequireAuth())
	protected.GET("/user", profileHandler.GetProfile)
	protected.PUT("/user", profileHandler.UpdateProfile)

	return r
}
