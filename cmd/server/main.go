package main

import (
	"log/slog"
	"os"

	redisv9 "github.com/redis/go-redis/v9"

	"ticker_sweep/internal/app/router"
	ledgeradapters "ticker_sweep/internal/feature/ledger/adapters"
	ledgerhandler "ticker_sweep/internal/feature/ledger/transport/handler"
	ledgerusecase "ticker_sweep/internal/feature/ledger/usecase"
	"ticker_sweep/internal/platform/cache"
	platformdb "ticker_sweep/internal/platform/db"
	platformredis "ticker_sweep/internal/platform/redis"
)

func main() {
	// db
	db := platformdb.OpenDB()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := platformredis.NewRedisClient(); err != nil {
		slog.Warn("Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// Repository
	ledgerRepo := ledgeradapters.NewLedgerRepository(db)

	// Redisキャッシュでラップ（sweepが書き込むたびに無効化される）
	cachedRepo := cache.NewCachingLedgerRepository(rdb, 0, ledgerRepo, "ledger")

	// Usecase
	ledgerUC := ledgerusecase.NewLedgerUsecase(cachedRepo)

	// Handler
	ledgerH := ledgerhandler.NewLedgerHandler(ledgerUC)

	// ルータ生成
	r := router.NewRouter(ledgerH)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	if err := r.Run(addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
