package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	ledgeradapters "ticker_sweep/internal/feature/ledger/adapters"
	sweepadapters "ticker_sweep/internal/feature/sweep/adapters"
	sweepdomain "ticker_sweep/internal/feature/sweep/domain"
	sweepusecase "ticker_sweep/internal/feature/sweep/usecase"
	validateusecase "ticker_sweep/internal/feature/validate/usecase"
	platformdb "ticker_sweep/internal/platform/db"
	"ticker_sweep/internal/platform/externalapi/yahooquote"
	platformhttp "ticker_sweep/internal/platform/http"
	"ticker_sweep/internal/shared/ratelimiter"
)

func main() {
	generateOnly := flag.Bool("generate", false, "seed the ledger with all unvalidated symbols and exit")
	flag.Parse()

	// SIGINT/SIGTERM でクリーンに停止する（チェックポイントは保存済みの状態で終了）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := platformdb.OpenDB()
	ledgerRepo := ledgeradapters.NewLedgerRepository(db)

	quoteCfg := yahooquote.LoadConfig()
	httpClient := platformhttp.NewHTTPClient(quoteCfg.Timeout)
	quoteRepo := yahooquote.NewYahooQuoteClient(quoteCfg, httpClient)

	validator := validateusecase.NewValidateUsecase(quoteRepo, validateusecase.Config{})

	checkpointPath := os.Getenv("SWEEP_CHECKPOINT_PATH")
	if checkpointPath == "" {
		checkpointPath = "sweep_checkpoint.json"
	}
	checkpoints := sweepadapters.NewCheckpointFileStore(checkpointPath)

	// プロバイダ側の暗黙のレート制限に合わせる（固定ディレイとは別の保険）
	perMinute := 150
	if v, err := strconv.Atoi(os.Getenv("SWEEP_RATE_LIMIT_PER_MINUTE")); err == nil && v > 0 {
		perMinute = v
	}
	rl := ratelimiter.NewRateLimiter(perMinute, time.Minute)

	cfg := sweepusecase.LoadConfig()
	uc := sweepusecase.NewSweepUsecase(cfg, validator, ledgerRepo, checkpoints, rl)

	if *generateOnly {
		if err := uc.GenerateDomain(ctx); err != nil {
			slog.Error("generate domain failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := uc.Run(ctx); err != nil {
		if errors.Is(err, sweepdomain.ErrFatalStopped) {
			slog.Error("sweep stopped after repeated transport failures; rerun to resume from the checkpoint")
			os.Exit(1)
		}
		slog.Error("sweep failed", "error", err)
		os.Exit(1)
	}
}
