package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/indureport/indureportgo/internal/ai"
	"github.com/indureport/indureportgo/internal/config"
	"github.com/indureport/indureportgo/internal/database"
	"github.com/indureport/indureportgo/internal/handlers"
	"github.com/indureport/indureportgo/internal/models"
	"github.com/indureport/indureportgo/internal/storage"
	"github.com/indureport/indureportgo/internal/store"
	"github.com/indureport/indureportgo/internal/sync"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema (Critical for Zero-Config)
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.User{},
		&models.Report{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Wire the stores and the sync core
	reports := store.NewReportStore(db)
	users := store.NewUserStore(db)

	engine := sync.NewEngine(reports)
	engine.SetClockSkew(cfg.Sync.ClockSkew)
	coordinator := sync.NewCoordinator(engine, reports, users)
	log.Println("🔄 Sync reconciliation engine ready")

	// 5. Attachment storage
	uploads, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	// 6. Optional AI summarizer
	var summarizer *ai.Summarizer
	var geminiClient *ai.GeminiClient
	if cfg.Gemini.APIKey != "" {
		geminiClient, err = ai.NewGeminiClient(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Printf("⚠️ AI: failed to init Gemini client: %v", err)
		} else {
			summarizer = ai.NewSummarizer(geminiClient)
			log.Printf("✅ AI: report summarizer enabled (%s)", cfg.Gemini.Model)
		}
	} else {
		log.Println("ℹ️ AI: GEMINI_API_KEY not set, summarizer disabled")
	}

	// 7. Set up HTTP router
	router := handlers.NewRouter(cfg, reports, users, coordinator, uploads, summarizer)

	// 8. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.Handler(),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 Server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if geminiClient != nil {
		geminiClient.Close()
	}

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
