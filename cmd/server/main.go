package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shuttleclub/backend/internal/audit"
	"github.com/shuttleclub/backend/internal/config"
	"github.com/shuttleclub/backend/internal/database"
	"github.com/shuttleclub/backend/internal/handlers"
	"github.com/shuttleclub/backend/internal/logger"
	mW "github.com/shuttleclub/backend/internal/middleware"
	"github.com/shuttleclub/backend/internal/services"
	"github.com/shuttleclub/backend/internal/store"
	"github.com/shuttleclub/backend/internal/store/memstore"
	"github.com/shuttleclub/backend/internal/store/postgres"
	"github.com/spf13/viper"
)

func main() {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()
	config.BindEnv()

	logger.InitLogger()
	log := logger.GetLogger()
	defer logger.Close()

	if err := viper.ReadInConfig(); err != nil {
		log.Infow("Config file not found, using environment and defaults", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("Invalid configuration", "error", err)
	}

	ctx := context.Background()

	var st store.Store
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn("Using in-memory storage; data is lost on restart")
		mem := memstore.New()
		n, err := mem.LoadMembersFile(cfg.MemberSeedFile)
		if err != nil {
			log.Fatalw("Failed to seed members", "file", cfg.MemberSeedFile, "error", err)
		}
		log.Infow("Members seeded", "file", cfg.MemberSeedFile, "count", n)
		st = mem
	default:
		db, err := database.InitDB(ctx, database.GetConfig())
		if err != nil {
			log.Fatalw("Failed to connect to database", "error", err)
		}
		defer db.Close()

		if cfg.AutoMigrate {
			if err := database.RunMigrations(db); err != nil {
				log.Fatalw("Failed to run migrations", "error", err)
			}
		}
		st = postgres.New(db)
	}

	redisClient := database.InitRedis(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}

	auditLogger := audit.NewLogger(log)
	ledger := services.NewLedgerService(auditLogger)
	events := services.NewEventPublisher(redisClient, cfg.EventListKey, log)

	api := &handlers.API{
		Sessions: handlers.NewSessionHandler(services.NewSessionService(st, ledger, events, auditLogger, cfg, log)),
		Teams:    handlers.NewTeamHandler(services.NewTeamService(st, ledger, events, auditLogger, log)),
		Payments: handlers.NewPaymentHandler(services.NewPaymentService(st, ledger, events, auditLogger, cfg, log)),
		Ledger:   handlers.NewLedgerHandler(services.NewHistoryService(st, cfg), cfg.Location),
	}
	auth := mW.NewAuthenticator(cfg.JWTSecret)

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		api.Mount(r, auth)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("Server starting", "addr", server.Addr, "storage", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server forced to shutdown", "error", err)
	}

	log.Info("Server stopped")
}
