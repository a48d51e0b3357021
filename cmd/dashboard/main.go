package main

import (
	"context"
	"log"

	"procurement/internal/client"
	"procurement/internal/config"
	"procurement/internal/dashboard"
	"procurement/internal/querycache"
	"procurement/internal/scheduler"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.API.GinMode)

	api := client.New(cfg.Dashboard.APIBaseURL, cfg.Dashboard.HTTPTimeout)
	cache := querycache.New(cfg.Dashboard.CacheTTL)
	pruner := scheduler.NewSweeper("query cache prune", func(context.Context) (int, error) {
		return cache.Prune(), nil
	}, 0)
	if err := pruner.Start("@every 1m"); err != nil {
		log.Fatalf("Cache pruner failed to start: %v", err)
	}
	defer pruner.Stop()

	h := dashboard.NewHandler(dashboard.Connect(api), cache, cfg.API.GinMode == gin.ReleaseMode)

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK", "api": cfg.Dashboard.APIBaseURL, "cached_queries": cache.Len()})
	})
	h.RegisterRoutes(router)

	log.Printf("Dashboard listening on :%s (API %s)", cfg.Dashboard.Port, cfg.Dashboard.APIBaseURL)
	if err := router.Run(":" + cfg.Dashboard.Port); err != nil {
		log.Fatalf("Dashboard failed: %v", err)
	}
}
