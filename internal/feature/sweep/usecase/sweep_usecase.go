// Package usecase はシンボル空間全域を走査するバッチ分類ランナーを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	ledgerentity "ticker_sweep/internal/feature/ledger/domain/entity"
	"ticker_sweep/internal/feature/sweep/domain"
	"ticker_sweep/internal/feature/sweep/domain/entity"
	vdomain "ticker_sweep/internal/feature/validate/domain"
	ventity "ticker_sweep/internal/feature/validate/domain/entity"
	"ticker_sweep/internal/shared/ratelimiter"
	"ticker_sweep/internal/shared/symbolspace"
)

// SymbolValidator はシンボル1件の遠隔検証を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type SymbolValidator interface {
	Validate(ctx context.Context, symbol string) (ventity.Verdict, error)
	WarmUp(ctx context.Context) error
}

// LedgerRepository はランナーが必要とする台帳操作だけを抽象化します。
type LedgerRepository interface {
	Upsert(ctx context.Context, ticker ledgerentity.Ticker) error
	WasCheckedWithin(ctx context.Context, symbol string, window time.Duration) (bool, time.Duration, error)
	BulkInsertUnvalidated(ctx context.Context, symbols []string) error
	Stats(ctx context.Context) (ledgerentity.Stats, error)
}

// CheckpointStore はチェックポイントの永続化を抽象化します。
type CheckpointStore interface {
	Load() (entity.Checkpoint, error)
	Save(cp entity.Checkpoint) error
	Clear() error
}

// SweepUsecase はシンボル空間をインデックス順に走査し、各シンボルを検証して
// 台帳に記録するバッチランナーです。BatchSize件ごとにチェックポイントを保存し、
// 中断されても次回実行時に続きから再開できます。
type SweepUsecase struct {
	cfg         Config
	validator   SymbolValidator
	ledger      LedgerRepository
	checkpoints CheckpointStore
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewSweepUsecase は新しい SweepUsecase を作成します。
func NewSweepUsecase(cfg Config, validator SymbolValidator, ledger LedgerRepository,
	checkpoints CheckpointStore, rl ratelimiter.RateLimiterInterface) *SweepUsecase {
	return &SweepUsecase{
		cfg:         cfg.normalize(),
		validator:   validator,
		ledger:      ledger,
		checkpoints: checkpoints,
		rateLimiter: rl,
	}
}

// symbolResult はチャンク内の1シンボルの処理結果です。
type symbolResult struct {
	index        int64
	symbol       string
	skipped      bool
	canceled     bool
	transportErr error
	writeErr     error
	verdict      ventity.Verdict
	hasVerdict   bool
}

// runState は1回のRunのローカル状態です。カウンタ類はチェックポイントに
// そのまま引き継がれます。
type runState struct {
	processed           int64
	activeCount         int64
	delistedCount       int64
	lastProcessedSymbol string
	sinceCheckpoint     int
	skippedCount        int64
	errorCount          int64
	consecutiveErrs     int
	escalated           bool
	requestsSinceWarmUp int64
	lastBreak           time.Time
}

// Run はチェックポイント（あれば）から再開してシンボル空間を走査します。
// 外部からの割り込み（ctxキャンセル）は正常終了扱いで、チェックポイントを
// 保存してnilを返します。通信エラーがエスカレーションしきい値を超えて
// 継続した場合のみdomain.ErrFatalStoppedを返します。
func (u *SweepUsecase) Run(ctx context.Context) error {
	domainSize := symbolspace.DomainSize(u.cfg.MaxLength)

	index, state, err := u.startup(domainSize)
	if err != nil {
		return err
	}
	if index < 0 {
		// 前回の実行でドメイン全域を走査済み
		slog.Info("sweep already completed, nothing to do", "total", domainSize)
		return nil
	}

	end := domainSize
	if u.cfg.Limit > 0 && index+u.cfg.Limit < end {
		end = index + u.cfg.Limit
	}

	slog.Info("sweep starting",
		"start_index", index, "end_index", end, "domain_size", domainSize,
		"concurrency", u.cfg.ConcurrentRequests, "dry_run", u.cfg.DryRun)

	state.lastBreak = time.Now()
	chunkSize := int64(u.cfg.ConcurrentRequests)

	for index < end {
		chunkEnd := index + chunkSize
		if chunkEnd > end {
			chunkEnd = end
		}

		results := u.processChunk(ctx, index, chunkEnd)

		stopIndex, interrupted, escalate := u.applyResults(results, state)
		if interrupted {
			u.saveCheckpoint(stopIndex, domainSize, state)
			slog.Info("sweep interrupted, checkpoint flushed",
				"current_index", stopIndex, "processed", state.processed)
			return nil
		}
		index = chunkEnd

		if state.sinceCheckpoint >= u.cfg.BatchSize {
			u.saveCheckpoint(index, domainSize, state)
			state.sinceCheckpoint = 0
		}

		if escalate {
			if state.escalated {
				// 前回のエスカレーション以降、一度も成功していない
				u.saveCheckpoint(index, domainSize, state)
				slog.Error("transport failures persisted through escalation, stopping",
					"current_index", index, "errors", state.errorCount)
				return domain.ErrFatalStopped
			}
			state.escalated = true
			state.consecutiveErrs = 0

			rewind := index - u.cfg.ReplayWindow
			if rewind < 0 {
				rewind = 0
			}
			u.saveCheckpoint(rewind, domainSize, state)
			slog.Warn("consecutive transport errors, pausing and replaying",
				"threshold", u.cfg.ErrorThreshold, "cooldown", u.cfg.ErrorCooldown,
				"replay_from", rewind)
			if err := sleepCtx(ctx, u.cfg.ErrorCooldown); err != nil {
				return nil
			}
			index = rewind
			continue
		}

		if state.requestsSinceWarmUp >= u.cfg.SessionRefreshEvery {
			state.requestsSinceWarmUp = 0
			if err := u.validator.WarmUp(ctx); err != nil {
				slog.Warn("session warm-up failed", "error", err)
			}
			if err := sleepCtx(ctx, u.cfg.SessionRefreshPause); err != nil {
				u.saveCheckpoint(index, domainSize, state)
				return nil
			}
		}

		if time.Since(state.lastBreak) >= u.cfg.LongBreakEvery {
			slog.Info("periodic cooldown", "duration", u.cfg.LongBreakFor)
			if err := sleepCtx(ctx, u.cfg.LongBreakFor); err != nil {
				u.saveCheckpoint(index, domainSize, state)
				return nil
			}
			state.lastBreak = time.Now()
		}

		if index < end {
			if err := sleepCtx(ctx, u.cfg.RequestDelay); err != nil {
				u.saveCheckpoint(index, domainSize, state)
				return nil
			}
		}
	}

	return u.finish(ctx, index, domainSize, state)
}

// startup はチェックポイントを読み込み、開始インデックスと初期状態を返します。
// 走査済みの場合は開始インデックス-1を返します。
func (u *SweepUsecase) startup(domainSize int64) (int64, *runState, error) {
	state := &runState{}

	cp, err := u.checkpoints.Load()
	if err != nil {
		if errors.Is(err, domain.ErrCheckpointNotFound) {
			return 0, state, nil
		}
		return 0, nil, fmt.Errorf("load checkpoint: %w", err)
	}

	if cp.CurrentIndex >= domainSize && cp.Processed >= cp.Total {
		return -1, state, nil
	}
	if cp.Total < domainSize {
		// 前回の実行後にドメインが拡大している（maxLengthの引き上げなど）。
		// インデックスだけでは重複判定できないため、台帳側の鮮度チェックに委ねる。
		slog.Info("domain grew since last checkpoint, relying on ledger dedup",
			"checkpoint_total", cp.Total, "domain_size", domainSize)
	}

	start := cp.CurrentIndex
	if start < 0 {
		start = 0
	}
	if start > domainSize {
		start = domainSize
	}
	state.processed = cp.Processed
	state.activeCount = cp.ActiveCount
	state.delistedCount = cp.DelistedCount
	state.lastProcessedSymbol = cp.LastProcessedSymbol

	slog.Info("resuming from checkpoint",
		"current_index", start, "processed", cp.Processed,
		"last_symbol", cp.LastProcessedSymbol, "saved_at", cp.Timestamp)
	return start, state, nil
}

// processChunk は[start, end)のシンボルを有界ワーカープールで検証します。
// チャンク内の全ワーカーが完了してから結果を返します（await-all）。
func (u *SweepUsecase) processChunk(ctx context.Context, start, end int64) []symbolResult {
	results := make([]symbolResult, end-start)

	var g errgroup.Group
	g.SetLimit(u.cfg.ConcurrentRequests)
	for i := start; i < end; i++ {
		idx := i
		g.Go(func() error {
			results[idx-start] = u.processSymbol(ctx, idx)
			return nil
		})
	}
	// ワーカーはエラーを結果スロットに記録するのでWaitのerrは常にnil
	_ = g.Wait()

	return results
}

// processSymbol は1シンボルを検証し、verdictを台帳に書き込みます。
func (u *SweepUsecase) processSymbol(ctx context.Context, index int64) symbolResult {
	r := symbolResult{index: index}

	sym, err := symbolspace.SymbolAt(index, u.cfg.MaxLength)
	if err != nil {
		// ループ境界が正しければ到達しないプログラマエラー
		slog.Error("enumerator index out of range", "index", index, "error", err)
		r.skipped = true
		return r
	}
	r.symbol = sym

	if ctx.Err() != nil {
		r.canceled = true
		return r
	}

	fresh, elapsed, err := u.ledger.WasCheckedWithin(ctx, sym, u.cfg.FreshnessWindow)
	if err != nil {
		slog.Error("ledger freshness check failed", "symbol", sym, "error", err)
	}
	if fresh {
		slog.Debug("skipping fresh symbol", "symbol", sym, "checked_ago", elapsed)
		r.skipped = true
		return r
	}

	if u.cfg.DryRun {
		slog.Info("dry-run: would validate", "symbol", sym, "index", index)
		r.skipped = true
		return r
	}

	if u.rateLimiter != nil {
		u.rateLimiter.WaitIfNeeded()
	}

	started := time.Now()
	verdict, err := u.validator.Validate(ctx, sym)
	if err != nil {
		if ctx.Err() != nil {
			r.canceled = true
			return r
		}
		var transportErr *vdomain.TransportError
		if errors.As(err, &transportErr) {
			// 結果が不定な通信エラー: verdictとして記録せずエスカレーションに回す
			slog.Warn("transport error", "symbol", sym, "error", err)
			r.transportErr = err
			return r
		}
		slog.Error("unexpected validation error", "symbol", sym, "error", err)
		r.transportErr = err
		return r
	}

	r.verdict = verdict
	slog.Info("classified", "symbol", sym,
		"status", verdictStatus(verdict), "elapsed", time.Since(started).Round(time.Millisecond))

	if err := u.ledger.Upsert(ctx, toTicker(verdict)); err != nil {
		if ctx.Err() != nil {
			// 打ち切りで書き込めなかったシンボルは未記録のまま。
			// チェックポイントはこのインデックスから再開する。
			r.canceled = true
			return r
		}
		// 台帳書き込み失敗は1件のエラーとして数え、バッチは継続する
		slog.Error("ledger upsert failed", "symbol", sym, "error", err)
		r.writeErr = err
		return r
	}
	r.hasVerdict = true
	return r
}

// applyResults はチャンクの結果をインデックス順に集計へ反映します。
// 戻り値は（中断時の再開インデックス, 中断フラグ, エスカレーション要求）です。
func (u *SweepUsecase) applyResults(results []symbolResult, state *runState) (int64, bool, bool) {
	escalate := false
	for _, r := range results {
		if r.canceled {
			return r.index, true, false
		}
		switch {
		case r.transportErr != nil:
			state.errorCount++
			state.consecutiveErrs++
			state.requestsSinceWarmUp++
			if state.consecutiveErrs >= u.cfg.ErrorThreshold {
				escalate = true
			}
		case r.writeErr != nil:
			// 検証自体は成功しているので通信エラーの連続カウントはリセットし、
			// processedや内訳には数えない（台帳に行が存在しないため）
			state.errorCount++
			state.consecutiveErrs = 0
			state.escalated = false
			state.requestsSinceWarmUp++
		case r.hasVerdict:
			state.consecutiveErrs = 0
			state.escalated = false
			state.processed++
			state.sinceCheckpoint++
			state.requestsSinceWarmUp++
			state.lastProcessedSymbol = r.symbol
			if r.verdict.Active {
				state.activeCount++
			} else {
				state.delistedCount++
			}
		case r.skipped:
			state.skippedCount++
		}
	}
	return 0, false, escalate
}

// finish は走査完了時の後処理を行います。ドメイン全域を走査し切った場合は
// チェックポイントを削除し、Limitによる部分実行の場合は保存して終了します。
func (u *SweepUsecase) finish(ctx context.Context, index, domainSize int64, state *runState) error {
	if index >= domainSize {
		if err := u.checkpoints.Clear(); err != nil {
			slog.Error("failed to clear checkpoint", "error", err)
		}
		if stats, err := u.ledger.Stats(ctx); err == nil {
			slog.Info("sweep completed",
				"total", stats.Total, "active", stats.Active,
				"delisted", stats.Delisted, "unvalidated", stats.Unvalidated,
				"skipped_fresh", state.skippedCount, "errors", state.errorCount)
		} else {
			slog.Info("sweep completed", "processed", state.processed, "errors", state.errorCount)
		}
		return nil
	}

	u.saveCheckpoint(index, domainSize, state)
	slog.Info("sweep stopped at limit",
		"current_index", index, "processed", state.processed,
		"skipped_fresh", state.skippedCount, "errors", state.errorCount)
	return nil
}

// saveCheckpoint は現在の進捗を保存します。保存失敗はログに残して処理を続けます
// （失われうる進捗は最大1バッチ分）。対応する台帳書き込みが完了した後にのみ
// 呼び出すこと。
func (u *SweepUsecase) saveCheckpoint(currentIndex, domainSize int64, state *runState) {
	cp := entity.Checkpoint{
		CurrentIndex:        currentIndex,
		Total:               domainSize,
		Processed:           state.processed,
		ActiveCount:         state.activeCount,
		DelistedCount:       state.delistedCount,
		Timestamp:           time.Now(),
		LastProcessedSymbol: state.lastProcessedSymbol,
	}
	if err := u.checkpoints.Save(cp); err != nil {
		slog.Error("failed to save checkpoint", "current_index", currentIndex, "error", err)
	}
}

// GenerateDomain はシンボル空間全域（Limit指定時はその件数まで）を未検証状態で
// 台帳に一括生成します。既存行は変更されません。
func (u *SweepUsecase) GenerateDomain(ctx context.Context) error {
	domainSize := symbolspace.DomainSize(u.cfg.MaxLength)
	end := domainSize
	if u.cfg.Limit > 0 && u.cfg.Limit < end {
		end = u.cfg.Limit
	}

	const batch = 500
	symbols := make([]string, 0, batch)
	for i := int64(0); i < end; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sym, err := symbolspace.SymbolAt(i, u.cfg.MaxLength)
		if err != nil {
			return fmt.Errorf("enumerate index %d: %w", i, err)
		}
		symbols = append(symbols, sym)

		if len(symbols) == batch || i == end-1 {
			if err := u.ledger.BulkInsertUnvalidated(ctx, symbols); err != nil {
				return fmt.Errorf("bulk insert at index %d: %w", i, err)
			}
			symbols = symbols[:0]
		}
	}

	slog.Info("domain generated", "symbols", end, "domain_size", domainSize)
	return nil
}

func toTicker(v ventity.Verdict) ledgerentity.Ticker {
	now := time.Now()
	t := ledgerentity.Ticker{
		Symbol:      v.Symbol,
		Currency:    v.Currency,
		LastChecked: &now,
	}
	if v.Active {
		t.Status = ledgerentity.StatusActive
		t.Price = v.Price
		exchange := v.Exchange
		t.Exchange = &exchange
	} else {
		t.Status = ledgerentity.StatusDelisted
		// 取引所欄に分類理由のセンチネル文字列を残す
		reason := string(v.Reason)
		t.Exchange = &reason
	}
	return t
}

func verdictStatus(v ventity.Verdict) string {
	if v.Active {
		return string(ledgerentity.StatusActive)
	}
	return string(ledgerentity.StatusDelisted)
}

// sleepCtx はキャンセルを尊重しつつdだけ待機します。
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
