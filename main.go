package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/abhishekgusain07/studioanimations.app/models"
	"github.com/abhishekgusain07/studioanimations.app/pkg/cache"
	"github.com/abhishekgusain07/studioanimations.app/pkg/config"
	"github.com/abhishekgusain07/studioanimations.app/pkg/runner"
	"github.com/abhishekgusain07/studioanimations.app/pkg/services"
	"github.com/abhishekgusain07/studioanimations.app/pkg/store"
	"github.com/abhishekgusain07/studioanimations.app/routes"

	"github.com/abhishekgusain07/studioanimations.app/middleware"
)

func main() {
	// config init via package init()

	db, err := gorm.Open(sqlite.Open(config.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.Conversation{}, &models.Animation{}, &models.Message{}); err != nil {
		log.Fatalf("failed migrate: %v", err)
	}

	st := store.New(db)
	cache.SetMaxItems(config.CodeCacheMaxItems)
	middleware.SetRateLimitConfig(time.Duration(config.RateLimitWindowSeconds)*time.Second, config.RateLimitCapacity)
	middleware.SetDuplicateTTL(time.Duration(config.DuplicateWindowSeconds) * time.Second)

	// fail anything a previous process left mid-render before accepting work
	if n, err := st.SweepStale(0); err != nil {
		log.Printf("[main] startup sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("[main] startup sweep marked %d lost jobs as failed", n)
	}

	storage := services.NewVideoStorageService()
	rend := services.NewManimRenderer(storage)
	gen := services.NewCodeGenerator()

	rn := runner.New(st, gen, rend, runner.Options{
		Workers:       config.RenderWorkers,
		QueueSize:     config.RenderQueueSize,
		RenderTimeout: time.Duration(config.RenderTimeoutSecs) * time.Second,
		StaleAfter:    time.Duration(config.StaleProcessSecs) * time.Second,
		SweepInterval: time.Duration(config.StaleSweepSecs) * time.Second,
	})
	rn.Start()

	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, st, rn)

	// serve rendered videos as static files
	r.Static(config.VideoPathPrefix, config.VideosDir)

	srv := &http.Server{Addr: ":" + config.Port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("[main] listening on :%s", config.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("[main] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] http shutdown: %v", err)
	}
	rn.Stop(ctx)
}
