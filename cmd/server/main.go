package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pricewatch_back_end/internal/config"
	"pricewatch_back_end/internal/database"
	"pricewatch_back_end/internal/handlers"
	"pricewatch_back_end/internal/notifier"
	"pricewatch_back_end/internal/routes"
	"pricewatch_back_end/internal/scheduler"
	"pricewatch_back_end/internal/scraper"
	"pricewatch_back_end/internal/store"
)

func main() {
	cfg := config.Load()

	database.ConnectDatabases(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.NewPostgres(database.DB)
	sc := scraper.NewClient(cfg.ScraperURL)
	nt := notifier.NewSMTP(cfg)

	job := scheduler.NewPriceCheckJob(st, sc, nt)
	sched := scheduler.New(job, cfg.CheckInterval)

	h := handlers.New(st, sc, database.Redis, func() { sched.EnsureStarted(ctx) })
	job.OnWrite(h.InvalidateProduct)

	// Products tracked before the last restart must keep being checked even
	// if no new track request arrives.
	sched.EnsureStarted(ctx)

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}
	r := gin.Default()
	r.Use(cors.Default())

	routes.RegisterRoutes(r, h)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "🚀 PriceWatch backend is running"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Println("🚀 PriceWatch server listening on port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ server ListenAndServe: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	database.DB.Close()
	log.Println("✅ graceful shutdown complete")
}
