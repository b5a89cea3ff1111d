package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"decihire/internal/cache"
	"decihire/internal/config"
	"decihire/internal/repository"
	"decihire/internal/service"
	"decihire/internal/transport/rest"
	"decihire/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.ConfigureLogging()

	log.Printf("Scoring: pass=%.1f latency fast<%dms optimal=%d..%dms policy=%s limit=%s",
		cfg.Scoring.PassThreshold,
		cfg.Scoring.Latency.TooFastMs,
		cfg.Scoring.Latency.OptimalMinMs,
		cfg.Scoring.Latency.OptimalMaxMs,
		cfg.CompletionPolicy,
		cfg.SessionTimeLimit)
	if cfg.RecruiterPasswordHash == "" {
		log.Warn("RECRUITER_PASSWORD_HASH not set, recruiter login is disabled (run cmd/seed -hash <password>)")
	}

	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		log.Fatalf("Failed to ping Redis: %v", err)
	}
	log.Println("Connected to Redis")

	wsHub := ws.NewHub()
	defer wsHub.Close()

	// Repositories
	questionRepo := repository.NewQuestionRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	resultRepo := repository.NewResultRepo(db)
	txRunner := repository.NewTxRunner(mongoClient)

	// Caches
	bankCache := cache.NewBankCache(rdb, cfg.BankCacheTTL)
	sessionLock := cache.NewSessionLock(rdb, cfg.SessionLockTTL)
	leaderboard := cache.NewLeaderboardCache(rdb)
	invitationCache := cache.NewInvitationCache(rdb)
	analyticsCache := cache.NewAnalyticsCache(rdb)

	// Services
	retry := service.RetryPolicy{Attempts: cfg.RetryAttempts, BaseDelay: cfg.RetryBaseDelay}

	authSvc := service.NewAuthService(cfg.RecruiterUsername, cfg.RecruiterPasswordHash, cfg.JWTSecret, cfg.CandidateTokenTTL)
	bankSvc := service.NewBankService(questionRepo, bankCache, retry)
	reportSvc := service.NewReportService(resultRepo, sessionRepo, bankSvc, leaderboard, cfg.Scoring, retry)
	recorderSvc := service.NewRecorderService(sessionRepo, bankSvc, reportSvc, txRunner, sessionLock, cfg.Scoring, cfg.CompletionPolicy, retry)
	recorderSvc.SetTimeLimit(cfg.SessionTimeLimit)
	inviteSvc := service.NewInvitationService(invitationCache, bankSvc, recorderSvc, authSvc, cfg.InvitationTTL)

	// wsHub implements service.Broadcaster
	reportSvc.SetBroadcaster(wsHub)
	reportSvc.SetAnalyticsCache(analyticsCache)

	router := rest.NewRouter(&rest.Container{
		AuthService:       authSvc,
		BankService:       bankSvc,
		RecorderService:   recorderSvc,
		ReportService:     reportSvc,
		InvitationService: inviteSvc,
		WSHub:             wsHub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST /v1/invitations/{code}/redeem")
		log.Println("  GET  /v1/sessions/current  POST .../answers  POST .../submit")
		log.Println("  POST/GET /v1/questions  PUT /v1/questions/{id}  POST /v1/questions/{id}/publish")
		log.Println("  GET  /v1/results  GET /v1/results/{sessionId}  POST .../rescore")
		log.Println("  GET  /v1/profiles/{profile}/leaderboard  GET .../stats")
		log.Println("  WS   /v1/ws/dashboard")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
