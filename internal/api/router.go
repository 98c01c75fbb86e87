package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ravlin/whereabouts/internal/config"
	"github.com/ravlin/whereabouts/internal/handler"
	"github.com/ravlin/whereabouts/internal/inference"
	"github.com/ravlin/whereabouts/internal/middleware"
	"github.com/ravlin/whereabouts/internal/store"
)

// SetupRouter wires the middleware stack and the query surface.
func SetupRouter(cfg *config.Config, st *store.Store, engine *inference.Engine, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(middleware.RateLimit(cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow))

	// CORS for the chat front end
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Whereabouts API is running",
		})
	})

	sightings := handler.NewSightingHandler(st)
	infer := handler.NewInferenceHandler(engine)

	api := r.Group("/api/v1")
	{
		// Perception layer ingest
		api.POST("/sightings", middleware.Auth(cfg.Security.JWTSecret), sightings.StoreSighting)

		// Query surface for the chat front end
		objects := api.Group("/objects")
		{
			objects.GET("", sightings.ListLabels)
			objects.GET("/:label/history", sightings.GetHistory)
			objects.GET("/:label/last-seen", sightings.GetLastSeen)
			objects.GET("/:label/prediction", infer.Predict)
			objects.GET("/:label/explanation", infer.Explain)
			objects.POST("/:label/train", infer.Train)
		}

		// Function-call surface (name + JSON arguments)
		api.POST("/dispatch", infer.Dispatch)
	}

	return r
}
