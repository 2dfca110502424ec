package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/megaqc-web/internal/auth"
	"github.com/ayush/megaqc-web/internal/config"
	"github.com/ayush/megaqc-web/internal/logger"
	"github.com/ayush/megaqc-web/internal/middleware"
	"github.com/ayush/megaqc-web/internal/server"
	"github.com/ayush/megaqc-web/internal/store"
	"github.com/ayush/megaqc-web/internal/web"
)

func main() {
	cfg := config.Load()
	log := logger.New("megaqc-web", cfg.LogLevel)
	ctx := context.Background()

	fatal := func(msg string, err error) {
		log.Error(msg, "error", err)
		os.Exit(1)
	}

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		fatal("postgres connect", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		fatal("postgres migrate", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		fatal("mongo connect", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		fatal("redis connect", err)
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb, cfg.SessionTTL, cfg.CookieSecure)
	limiter := middleware.NewRateLimiter(rdb, log)

	// ── MinIO ────────────────────────────────────────────────
	minioStore, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		fatal("minio connect", err)
	}

	// ── Templates ────────────────────────────────────────────
	flashes := auth.NewFlashStore(cfg.CookieSecure)
	pages, err := web.NewPages(flashes, log)
	if err != nil {
		fatal("parse templates", err)
	}

	// ── Router ───────────────────────────────────────────────
	trusted, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		fatal("parse trusted proxies", err)
	}
	handler := server.NewRouter(server.Deps{
		Log:            log,
		Users:          pgStore,
		Sessions:       sessions,
		Flashes:        flashes,
		Pages:          pages,
		Reports:        mongoStore,
		Files:          minioStore,
		Limiter:        limiter,
		AuthRateLimit:  cfg.AuthRateLimit,
		RateWindow:     cfg.RateWindow,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: trusted,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("megaqc web listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
