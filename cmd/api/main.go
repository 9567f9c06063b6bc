package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jaider012/easy-reals/auth"
	"github.com/jaider012/easy-reals/internal/platform"
	"github.com/jaider012/easy-reals/middleware"
	"github.com/jaider012/easy-reals/profiles"
	"github.com/jaider012/easy-reals/series"
	"github.com/jaider012/easy-reals/socials"
	"github.com/jaider012/easy-reals/videos"
	"github.com/jaider012/easy-reals/webhooks"
)

type Server struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Router *gin.Engine
	Log    zerolog.Logger
}

func NewServer() (*Server, error) {
	log := platform.NewLogger("api")
	db := platform.NewDBConnection(log)
	rdb := platform.NewRedisClient(log)

	if err := platform.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrating schema")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Audit(log))

	// CORS for the frontend
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", os.Getenv("FRONTEND_URL"))
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	server := &Server{
		DB:     db,
		Redis:  rdb,
		Router: router,
		Log:    log,
	}
	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	// Health check (no auth required)
	s.Router.GET("/health", func(c *gin.Context) {
		sqlDB, err := s.DB.DB()
		if err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		if err := sqlDB.Ping(); err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "healthy", "database": "connected"})
	})

	profileHandler := profiles.NewHandler(s.DB)
	seriesHandler := series.NewHandler(s.DB, s.Redis, s.Log)
	videoHandler := videos.NewHandler(s.DB, s.Redis, s.Log)
	socialHandler := socials.NewHandler(s.DB, s.Log)
	webhookHandler := webhooks.NewHandler(s.DB, s.Log)

	// Webhooks (public, signature verified in handler)
	webhookRoutes := s.Router.Group("/webhooks")
	{
		webhookRoutes.POST("/stripe", webhookHandler.HandleStripeWebhook)
	}

	protected := s.Router.Group("")
	protected.Use(auth.AuthMiddleware())
	{
		profileRoutes := protected.Group("/profile")
		{
			profileRoutes.POST("", profileHandler.CreateProfile)
			profileRoutes.GET("", profileHandler.GetProfile)
			profileRoutes.PUT("", profileHandler.UpdateProfile)
			profileRoutes.DELETE("", profileHandler.DeactivateProfile)
		}

		seriesRoutes := protected.Group("/series")
		{
			seriesRoutes.POST("", seriesHandler.CreateSeries)
			seriesRoutes.GET("", seriesHandler.ListSeries)
			seriesRoutes.GET("/:id", seriesHandler.GetSeries)
			seriesRoutes.PUT("/:id", seriesHandler.UpdateSeries)
			seriesRoutes.POST("/:id/toggle", seriesHandler.ToggleSeries)
			seriesRoutes.PUT("/:id/stats", seriesHandler.UpdateStats)
			seriesRoutes.DELETE("/:id", seriesHandler.DeleteSeries)
			seriesRoutes.GET("/:id/videos", seriesHandler.SeriesVideos)
		}

		videoRoutes := protected.Group("/videos")
		{
			videoRoutes.POST("", videoHandler.CreateVideo)
			videoRoutes.POST("/generate", videoHandler.GenerateVideo)
			videoRoutes.GET("", videoHandler.ListVideos)
			videoRoutes.GET("/:id", videoHandler.GetVideo)
			videoRoutes.PUT("/:id", videoHandler.UpdateVideo)
			videoRoutes.PATCH("/:id/status", videoHandler.UpdateStatus)
			videoRoutes.DELETE("/:id", videoHandler.DeleteVideo)
		}

		socialRoutes := protected.Group("/social-accounts")
		{
			socialRoutes.POST("", socialHandler.Connect)
			socialRoutes.GET("", socialHandler.ListAccounts)
			socialRoutes.GET("/:id", socialHandler.GetAccount)
			socialRoutes.PUT("/:id/tokens", socialHandler.UpdateTokens)
			socialRoutes.PUT("/:id/metrics", socialHandler.UpdateMetrics)
			socialRoutes.POST("/:id/toggle", socialHandler.ToggleActive)
			socialRoutes.POST("/:id/autopost", socialHandler.ToggleAutoPost)
			socialRoutes.DELETE("/:id", socialHandler.Disconnect)
			socialRoutes.GET("/:id/analytics", socialHandler.GetAnalytics)
		}

		protected.GET("/social-platforms", socialHandler.ListPlatforms)
	}
}

func (s *Server) Run() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	s.Log.Info().Str("port", port).Msg("server starting")
	return s.Router.Run(":" + port)
}

func main() {
	server, err := NewServer()
	if err != nil {
		log := platform.NewLogger("api")
		log.Fatal().Err(err).Msg("failed to create server")
	}

	if err := server.Run(); err != nil {
		server.Log.Fatal().Err(err).Msg("failed to run server")
	}
}
