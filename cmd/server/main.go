package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/samajapp/catalog-sync/internal/catalog"
	"github.com/samajapp/catalog-sync/internal/config"
	"github.com/samajapp/catalog-sync/internal/database"
	"github.com/samajapp/catalog-sync/internal/handler"
	"github.com/samajapp/catalog-sync/internal/middleware"
	"github.com/samajapp/catalog-sync/internal/queue"
	"github.com/samajapp/catalog-sync/internal/repository"
	"github.com/samajapp/catalog-sync/internal/router"
	queue_publisher "github.com/samajapp/catalog-sync/internal/service"
	"github.com/samajapp/catalog-sync/internal/syncer"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.CreateTables(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	store := repository.NewStore(db)
	client := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout)
	snapshot := syncer.NewSnapshot(store.Events, cfg.SnapshotLimit)

	coord := syncer.New(client, store, snapshot,
		syncer.WithRunTimeout(cfg.SyncRunTimeout),
		syncer.WithCommitHook(func(n syncer.CommitNotice) {
			// Broker publish is fire-and-forget: a local commit never fails
			// because RabbitMQ is unreachable.
			go func() {
				pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer pcancel()
				_ = queue_publisher.PublishSyncCommitted(pctx, queue.SyncCommittedEvent{
					Family:      n.Family,
					Policy:      n.Policy.String(),
					Applied:     n.Applied,
					Deleted:     n.Deleted,
					ForcedFull:  n.ForcedFull,
					Watermark:   n.Watermark.UTC().Format(time.RFC3339),
					CommittedAt: time.Now().UTC().Format(time.RFC3339),
				})
			}()
		}),
	)

	// Serve whatever the cache already holds before the first sync lands.
	if err := snapshot.Reload(context.Background()); err != nil {
		log.Printf("snapshot: initial load failed: %v", err)
	}

	// Kick off an initial delta sync in the background so a fresh deploy
	// converges without waiting for the first trigger.
	go func() {
		if _, err := coord.SyncEvents(context.Background(), false); err != nil {
			log.Printf("sync: initial run failed: %v", err)
		}
	}()

	// Background consumer writing the sync audit log.
	go func() {
		if err := queue.StartSyncConsumer(); err != nil {
			log.Printf("sync-consumer: %v", err)
		}
	}()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis: unavailable; response cache and rate limiting disabled")
	}
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limitMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterCatalog(e, &handler.CatalogHandler{
		Snapshot:       snapshot,
		Coord:          coord,
		Store:          store,
		SubLoadTimeout: cfg.SubLoadTimeout,
	}, cacheMW)
	router.RegisterSync(e, &handler.SyncHandler{Coord: coord}, limitMW, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
