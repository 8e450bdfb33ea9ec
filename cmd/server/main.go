package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"taskboard-api/pkg/api"
	"taskboard-api/pkg/auth"
	"taskboard-api/pkg/cache"
	"taskboard-api/pkg/comment"
	"taskboard-api/pkg/event"
	"taskboard-api/pkg/orm"
	"taskboard-api/pkg/task"
	"taskboard-api/utils"
)

func main() {
	utils.GetLogger()
	loadEnvVars()
	go continuouslyReadEnv()

	port := utils.LoadDotEnv("SERVER_PORT")
	db := orm.GetConnHandler().DB()
	boardCache := cache.GetCacheInstance()
	api.InitializeLimiters()

	publisher := event.NewPublisher(&boardCache.Redis)
	hub := event.NewHub()
	go hub.Run()

	// Fan the redis change feed into the websocket hub so every replica
	// delivers events its own writers did not produce.
	feedCtx, stopFeed := context.WithCancel(context.Background())
	go func() {
		if err := event.Subscribe(feedCtx, &boardCache.Redis, hub.Broadcast); err != nil && feedCtx.Err() == nil {
			log.Error().Err(err).Msg("Change feed subscription ended")
		}
	}()

	taskService := task.NewService(db, boardCache, publisher)
	commentService := comment.NewService(db, publisher)

	maintenance := task.NewMaintenance(db, taskService)
	if err := maintenance.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start board maintenance")
	}

	api.Init(api.Dependencies{
		Tasks:    taskService,
		Comments: commentService,
		Auth:     auth.NewAuthService(),
		Hub:      hub,
	})

	router := gin.Default()
	// read allowedOrigins from environment variable which is a comma separated string
	allowedOrigins := strings.Split(utils.LoadDotEnvOr("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",")

	log.Info().Msgf("Allowed origins: %v", allowedOrigins)
	config := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
		AllowWildcard:    true,
	}
	router.Use(cors.New(config))
	api.BoardRoutes(router)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Hello, this is taskboard-api",
		})
	})

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Msgf("Received signal: %s. Shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server Shutdown:")
	}

	stopFeed()
	hub.Stop()
	maintenance.Stop()
	boardCache.Shutdown()
	orm.GetConnHandler().OnShutdown()
	log.Info().Msg("Server exiting")
}

func loadEnvVars() {
	// we need this to grab latest env vars from .env
	if err := godotenv.Overload(); err != nil {
		log.Warn().Err(err).Msg("Error loading .env file")
	}
}

func continuouslyReadEnv() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		log.Debug().Msg("Reloading & overloading .env file")
		loadEnvVars()
	}
}
