package http

import (
	"net/http"
	"time"

	"github.com/geocoder89/labhub/internal/config"
	"github.com/geocoder89/labhub/internal/domain/permission"
	"github.com/geocoder89/labhub/internal/http/handlers"
	"github.com/geocoder89/labhub/internal/http/middlewares"
	"github.com/geocoder89/labhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router needs that has a lifecycle of its own.
type Deps struct {
	Users    handlers.StaffStore
	Recipes  handlers.RecipeStore
	Tokens   handlers.TokenService
	Resolver middlewares.PrincipalResolver
	Checks   map[string]handlers.Pinger

	// optional; nil disables /metrics and the prometheus middleware
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(handlers.NoMethod)
	r.NoRoute(handlers.NoRoute)

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.HTTP.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.HTTP.MaxBodyBytes))

	// ops
	health := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(deps.Resolver)
	if deps.Prom != nil {
		authMW = authMW.WithDenialRecorder(deps.Prom)
	}

	tokenLimiter := middlewares.NewRateLimiter(cfg.HTTP.TokenRateLimit, cfg.HTTP.TokenRateWindow)

	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Tokens)
	staffHandler := handlers.NewStaffHandler(deps.Users, deps.Tokens)
	recipesHandler := handlers.NewRecipesHandler(deps.Recipes)

	api := r.Group("/")
	api.Use(middlewares.RequireJSON())

	// user lifecycle
	userGroup := api.Group("/user")
	{
		userGroup.POST("/create", usersHandler.Create)
		userGroup.POST("/token", tokenLimiter.RateLimiterMiddleware(middlewares.KeyByIP), usersHandler.Token)
		userGroup.DELETE("/token", authMW.RequireAuth(), usersHandler.RevokeToken)
		userGroup.GET("/me", authMW.RequireAuth(), usersHandler.Me)
		userGroup.PATCH("/me", authMW.RequireAuth(), usersHandler.UpdateMe)
	}

	// role gated staff management
	staff := api.Group("/staff", authMW.RequireAuth())
	{
		staff.POST("/lab-admins", authMW.RequirePermission(permission.LabAdminCreation), staffHandler.CreateLabAdmin)
		staff.PATCH("/lab-admins/:id", authMW.RequirePermission(permission.LabAdminModification), staffHandler.UpdateLabAdmin)

		staff.POST("/assistants", authMW.RequirePermission(permission.AssistantCreation), staffHandler.CreateAssistant)
		staff.GET("/assistants", authMW.RequirePermission(permission.AssistantModification), staffHandler.ListAssistants)
		staff.PATCH("/assistants/:id", authMW.RequirePermission(permission.AssistantModification), staffHandler.UpdateAssistant)
		staff.POST("/assistants/:id/deactivate", authMW.RequirePermission(permission.AssistantInactivation), staffHandler.DeactivateAssistant)
	}

	// recipes, scoped to the caller
	recipes := api.Group("/recipes", authMW.RequireAuth())
	{
		recipes.GET("", recipesHandler.List)
		recipes.POST("", recipesHandler.Create)
		recipes.GET("/:id", recipesHandler.Get)
		recipes.PATCH("/:id", recipesHandler.Update)
		recipes.DELETE("/:id", recipesHandler.Delete)
	}

	return r
}

// Server wraps the router with the timeouts every binary uses.
func Server(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
