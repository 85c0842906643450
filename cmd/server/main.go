package main

import (
    "context"
    "database/sql"
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parking-reservation/internal/config"
    "github.com/iliyamo/parking-reservation/internal/database"
    "github.com/iliyamo/parking-reservation/internal/handler"
    "github.com/iliyamo/parking-reservation/internal/middleware"
    "github.com/iliyamo/parking-reservation/internal/queue"
    "github.com/iliyamo/parking-reservation/internal/repository"
    "github.com/iliyamo/parking-reservation/internal/router"
    "github.com/iliyamo/parking-reservation/internal/service"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis is optional: a nil client disables caching and rate limiting.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable; response cache and rate limiter disabled")
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    facilities := repository.NewFacilityRepo(db)
    spots := repository.NewSpotRepo(db)
    sessions := repository.NewSessionRepo(db)

    parking := service.NewParking(
        func(ctx context.Context, fn func(tx *sql.Tx) error) error {
            return database.WithinTx(ctx, db, fn)
        },
        facilities, spots, sessions,
    )

    e := echo.New()
    e.HideBanner = true

    if rdb != nil {
        e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    }
    var cacheMW echo.MiddlewareFunc
    if rdb != nil {
        cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
    }

    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
    router.RegisterParking(e, router.ParkingHandlers{
        Facilities: handler.NewFacilityHandler(facilities),
        Spots:      handler.NewSpotHandler(spots),
        Sessions:   handler.NewSessionHandler(parking, sessions, queue.PublishSessionClosed),
        Reports:    handler.NewReportHandler(sessions),
    }, cfg.JWTSecret, cacheMW)

    // Consumer for settlement events; reconnects forever on its own.
    go func() {
        if err := queue.StartSessionConsumer(); err != nil {
            log.Printf("session consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
