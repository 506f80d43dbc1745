package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/annuaire-crawler/internal/adapter/chromedp_crawler"
	"github.com/user/annuaire-crawler/internal/adapter/jsonl"
	"github.com/user/annuaire-crawler/internal/adapter/postgres"
	redis_adapter "github.com/user/annuaire-crawler/internal/adapter/redis"
	"github.com/user/annuaire-crawler/internal/catalog"
	"github.com/user/annuaire-crawler/internal/delivery/http/handler"
	"github.com/user/annuaire-crawler/internal/delivery/http/router"
	"github.com/user/annuaire-crawler/internal/entity"
	"github.com/user/annuaire-crawler/internal/extractor"
	"github.com/user/annuaire-crawler/internal/repository"
	"github.com/user/annuaire-crawler/internal/usecase"
	"github.com/user/annuaire-crawler/pkg/config"
	"github.com/user/annuaire-crawler/pkg/logger"
	"github.com/user/annuaire-crawler/pkg/metrics"
)

const visitedExpiry = 48 * time.Hour

func main() {
	// --- Configuration ---
	cfg, err := config.Load(os.Getenv("ANNUAIRE_ENV_FILE"))
	if err != nil {
		zap.NewExample().Fatal("could not load config", zap.Error(err))
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel, "json")
	if err != nil {
		zap.NewExample().Fatal("could not build logger", zap.Error(err))
	}
	defer log.Sync()

	// --- Metrics ---
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.TargetsFile)
	if err != nil {
		log.Fatal("could not load target catalogue", zap.Error(err))
	}

	// --- Database Connections ---
	if cfg.PostgresURL == "" {
		log.Fatal("POSTGRES_URL is required in service mode")
	}
	dbpool, err := postgres.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal("unable to connect to database", zap.Error(err))
	}
	defer dbpool.Close()
	log.Info("PostgreSQL connection pool established")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("unable to connect to Redis", zap.Error(err))
	}
	log.Info("Redis connection established", zap.String("addr", cfg.RedisAddr))

	// --- Repositories ---
	queueRepo := redis_adapter.NewQueueRepo(rdb)
	recordRepo := postgres.NewRecordRepo(dbpool)
	failedURLRepo := postgres.NewFailedURLRepo(dbpool)
	statusRepo := postgres.NewStatusRepo(dbpool)
	dirs := jsonl.Dirs{Mairie: cfg.DataDir, EPCI: cfg.EPCIDir}

	// --- Browser ---
	browser, err := chromedp_crawler.NewBrowser(ctx, chromedp_crawler.Options{
		Headless:          cfg.Headless,
		ProxyServer:       cfg.BrowserProxy,
		PageLoadTimeout:   cfg.PageLoadTimeout,
		PaginationTimeout: cfg.PaginationTimeout,
		ClickTimeout:      cfg.ClickTimeout,
		SettleDelay:       cfg.SettleDelay,
		ListingSelector:   extractor.ListingLinkSelector,
		LoadMoreSelector:  extractor.LoadMoreSelector,
	}, chromedp_crawler.NewAgent(nil), log)
	if err != nil {
		log.Fatal("unable to start browser", zap.Error(err))
	}
	defer browser.Close()

	// --- Use Cases ---
	crawler := usecase.NewCrawler(usecase.CrawlerConfig{
		Browser: browser,
		OpenSink: func(t entity.Target) (repository.RecordSink, error) {
			file, err := dirs.Open(t)
			if err != nil {
				return nil, err
			}
			return usecase.MultiSink(log, file, postgres.NewRecordSink(recordRepo, t.URL)), nil
		},
		NewVisited: func(t entity.Target) repository.VisitedRepository {
			return redis_adapter.NewVisitedRepo(rdb, t.URL, visitedExpiry)
		},
		Failures:   failedURLRepo,
		VisitDelay: cfg.VisitDelay,
		Logger:     log,
	})
	targets := usecase.NewTargetManager(cat, queueRepo, statusRepo, failedURLRepo, log)
	worker := usecase.NewWorker(queueRepo, statusRepo, cat, crawler, cfg.WorkerPollInterval, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(targets, map[string]handler.HealthCheck{
		"postgres": dbpool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(apiHandler, log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
			stop()
		}
	}()
	log.Info("server started", zap.String("port", cfg.ServerPort))

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	wg.Wait()

	log.Info("server exiting")
}
