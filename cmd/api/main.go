package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"offer-dispatch/internal/api/handlers"
	"offer-dispatch/internal/api/middleware"
	"offer-dispatch/internal/config"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	// Server-side defaults; requests can override per call.
	base := config.Config{}
	if path := os.Getenv("API_CONFIG"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			log.Error("load config", "path", path, "error", err)
			os.Exit(1)
		}
		base = *cfg
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Recovery())

	allocateHandler := handlers.NewAllocateHandler(base, log)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/allocate", allocateHandler.Allocate)
		v1.POST("/indexers/project", allocateHandler.Project)
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)

	log.Info("listening", "port", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
