package main

import (
	"context"

	"rateapp/internal/config"
	"rateapp/internal/database"
	"rateapp/internal/handlers"
	"rateapp/internal/middleware"
	"rateapp/internal/realtime"
	"rateapp/internal/redis"
	"rateapp/internal/services"
	"rateapp/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found")
	}

	cfg := config.Load()
	setupLogging(cfg)
	gin.SetMode(cfg.GinMode)

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.SeedCriteria(db); err != nil {
		logrus.WithError(err).Fatal("failed to seed rating criteria")
	}

	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to redis")
	}

	store, err := storage.New(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize storage")
	}

	hub := realtime.NewHub()
	go hub.Run()
	go hub.RunBridge(context.Background(), redisClient)
	publisher := realtime.NewRedisPublisher(redisClient)

	authService := services.NewAuthService(db, cfg)
	photoService := services.NewPhotoService(db, store, cfg)
	userService := services.NewUserService(db, photoService)
	candidateService := services.NewCandidateService(db, photoService, cfg.CandidateOverscan)
	ratingService := services.NewRatingService(db, redisClient, cfg)
	chatService := services.NewChatService(db, publisher)
	sessionService := services.NewSessionService(db, publisher)

	router := setupRoutes(cfg,
		handlers.NewAuthHandler(authService),
		handlers.NewUserHandler(userService),
		handlers.NewPhotoHandler(photoService),
		handlers.NewCandidateHandler(candidateService, cfg.DefaultPageSize),
		handlers.NewRatingHandler(ratingService),
		handlers.NewChatHandler(chatService),
		handlers.NewSessionHandler(sessionService),
		handlers.NewWSHandler(hub, sessionService, chatService),
	)

	logrus.WithField("port", cfg.Port).Info("server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("failed to start server")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.LogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if cfg.GinMode == gin.ReleaseMode {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func setupRoutes(cfg *config.Config,
	authHandler *handlers.AuthHandler, userHandler *handlers.UserHandler,
	photoHandler *handlers.PhotoHandler, candidateHandler *handlers.CandidateHandler,
	ratingHandler *handlers.RatingHandler, chatHandler *handlers.ChatHandler,
	sessionHandler *handlers.SessionHandler, wsHandler *handlers.WSHandler) *gin.Engine {

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Locally stored photos are served straight off disk.
	if cfg.MinIOEndpoint == "" && cfg.AWSAccessKeyID == "" {
		router.Static("/uploads", cfg.UploadsDir)
	}

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		users := api.Group("/users")
		users.Use(middleware.AuthRequired(cfg.JWTSecret))
		{
			users.GET("/profile", userHandler.GetProfile)
			users.PUT("/profile", userHandler.UpdateProfile)
			users.GET("/preferences", userHandler.GetPreferences)
			users.PUT("/preferences", userHandler.UpdatePreferences)
			users.GET("/photos", photoHandler.List)
			users.POST("/photos", photoHandler.Upload)
			users.DELETE("/photos/:id", photoHandler.Delete)
		}

		candidates := api.Group("/candidates")
		candidates.Use(middleware.AuthRequired(cfg.JWTSecret))
		{
			candidates.GET("", candidateHandler.List)
		}

		ratings := api.Group("/ratings")
		ratings.Use(middleware.AuthRequired(cfg.JWTSecret))
		{
			ratings.GET("/criteria", ratingHandler.GetCriteria)
			ratings.POST("", ratingHandler.Submit)
			ratings.GET("/summary/:userId", ratingHandler.GetSummary)
			ratings.GET("/aggregated/:userId", ratingHandler.GetAggregatedScores)
		}

		chats := api.Group("/chats")
		chats.Use(middleware.AuthRequired(cfg.JWTSecret))
		{
			chats.GET("", chatHandler.List)
			chats.GET("/:id/messages", chatHandler.GetMessages)
			chats.POST("/:id/messages", chatHandler.SendMessage)
		}

		sessions := api.Group("/sessions")
		sessions.Use(middleware.AuthRequired(cfg.JWTSecret))
		{
			sessions.POST("", sessionHandler.Create)
			sessions.GET("/:id", sessionHandler.GetState)
			sessions.POST("/:id/join", sessionHandler.Join)
			sessions.POST("/:id/leave", sessionHandler.Leave)
			sessions.POST("/:id/ratings", sessionHandler.SubmitScore)
			sessions.PUT("/:id/ratings", sessionHandler.UpdateScore)
			sessions.GET("/:id/messages", sessionHandler.GetMessages)
			sessions.POST("/:id/messages", sessionHandler.SendMessage)
			sessions.POST("/:id/lock", sessionHandler.Lock)
			sessions.POST("/:id/finalize", sessionHandler.Finalize)
		}

		api.GET("/ws", middleware.AuthRequired(cfg.JWTSecret), wsHandler.Serve)
	}

	return router
}
