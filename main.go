package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streakWardenAPI/handlers"
	"streakWardenAPI/internal/chat"
	"streakWardenAPI/internal/config"
	"streakWardenAPI/internal/database"
	"streakWardenAPI/middleware"
	"streakWardenAPI/services"
)

var (
	cfg               *config.Config
	dbPool            *pgxpool.Pool
	gateway           chat.Gateway
	checkinService    *services.CheckinService
	quorumService     *services.QuorumService
	streakService     *services.StreakService
	settingsService   *services.SettingsService
	sweeperService    *services.SweeperService
	motivationService *services.MotivationService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err = database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	log.Println("Successfully connected to database")

	gateway = chat.NewHTTPGateway(cfg.GatewayBaseURL, cfg.GatewayToken)

	settingsService = services.NewSettingsService(dbPool)
	checkinService = services.NewCheckinService(dbPool, cfg)
	streakService = services.NewStreakService(dbPool, cfg, gateway, settingsService)
	quorumService = services.NewQuorumService(dbPool, cfg, gateway, streakService)
	sweeperService = services.NewSweeperService(dbPool, cfg, gateway)
	motivationService = services.NewMotivationService(settingsService, gateway)

	middleware.InitPrometheus()
	services.InitMetrics()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	if err := sweeperService.Start(); err != nil {
		log.Fatal("Failed to start expiry sweeper: ", err)
	}
	defer sweeperService.Stop()
	defer motivationService.Stop()

	checkinHandler := handlers.NewCheckinHandler(checkinService, quorumService, streakService, gateway)
	adminHandler := handlers.NewAdminHandler(streakService, checkinService, settingsService, motivationService, gateway)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "streak-warden-api"}`))
	}).Methods("GET")

	// Everything below requires the gateway service token.
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.ServiceAuthMiddleware(cfg.ServiceTokenSecret))

	api.HandleFunc("/checkins", checkinHandler.Submit).Methods("POST")
	api.HandleFunc("/signals/approval", checkinHandler.ApprovalSignal).Methods("POST")
	api.HandleFunc("/streaks/{platformUserID}", checkinHandler.GetStreak).Methods("GET")
	api.HandleFunc("/leaderboard", checkinHandler.GetLeaderboard).Methods("GET")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminOnlyMiddleware)

	admin.HandleFunc("/streaks/set", adminHandler.SetStreak).Methods("POST")
	admin.HandleFunc("/streaks/add", adminHandler.AddStreak).Methods("POST")
	admin.HandleFunc("/streaks/reset", adminHandler.ResetStreak).Methods("POST")
	admin.HandleFunc("/streaks/freeze", adminHandler.FreezeStreak).Methods("POST")
	admin.HandleFunc("/history/{platformUserID}", adminHandler.GetHistory).Methods("GET")
	admin.HandleFunc("/stats", adminHandler.GetStats).Methods("GET")
	admin.HandleFunc("/motivation/bind", adminHandler.BindMotivation).Methods("POST")
	admin.HandleFunc("/motivation/start", adminHandler.StartMotivation).Methods("POST")
	admin.HandleFunc("/motivation/stop", adminHandler.StopMotivation).Methods("POST")
	admin.HandleFunc("/motivation/trigger", adminHandler.TriggerMotivation).Methods("POST")
	admin.HandleFunc("/leaderboard/bind", adminHandler.BindLeaderboard).Methods("POST")
	admin.HandleFunc("/leaderboard/refresh", adminHandler.RefreshLeaderboard).Methods("POST")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: ", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
