package routes

import (
	"net/http"

	"todoapp/internal/controller"
	"todoapp/internal/middleware"
	"todoapp/internal/service"
	"todoapp/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Issuer      *token.Issuer
	Auth        *service.Auth
	Todos       *service.Todos
	Health      *controller.HealthHandler
	CORSOrigins []string
}

func Router(d Deps) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(middleware.RequestID(), middleware.AccessLog(), gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	// Health for load balancers and K8s probes
	router.GET("/", d.Health.Index)
	router.GET("/health", d.Health.Health)
	router.GET("/ready", d.Health.Ready)

	authH := controller.NewAuthHandler(d.Auth)
	todoH := controller.NewTodoHandler(d.Todos)

	access := middleware.Bearer(d.Issuer, token.Access)
	withUser := middleware.LoadUser(d.Auth)

	// Public: no auth
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/google", authH.Google)
		auth.POST("/refresh", middleware.Bearer(d.Issuer, token.Refresh), authH.Refresh)
		auth.GET("/me", access, withUser, authH.Me)
		auth.POST("/logout", access, authH.Logout)
	}

	// Protected: access token and a live user required
	todos := router.Group("/api/todos", access, withUser)
	{
		todos.GET("", todoH.List)
		todos.POST("", todoH.Create)
		todos.GET("/stats", todoH.Stats)
		todos.GET("/:id", todoH.Get)
		todos.PUT("/:id", todoH.Update)
		todos.DELETE("/:id", todoH.Delete)
	}

	return router
}

// Handler wraps the router with CORS for the configured origins.
func Handler(d Deps) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})
	return c.Handler(Router(d))
}
