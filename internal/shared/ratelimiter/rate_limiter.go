package ratelimiter

import (
	"log/slog"
	"sync"
	"time"
)

// RateLimiterInterface は、外部プロバイダー呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded()
}

// RateLimiterは固定ウィンドウで呼び出し頻度を制限します。
// 並行ワーカープールの複数goroutineから同時に呼び出せます。
type RateLimiter struct {
	limit    int           // ウィンドウあたりの上限
	interval time.Duration // どの単位でリセットするか

	mu        sync.Mutex
	count     int
	lastReset time.Time
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
	}
}

// WaitIfNeededはレートリミットの上限に達しているかを確認し、必要であれば
// ウィンドウの残り時間だけ待機します。
func (rl *RateLimiter) WaitIfNeeded() {
	rl.mu.Lock()

	now := time.Now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count <= rl.limit {
		rl.mu.Unlock()
		return
	}

	sleep := rl.interval - now.Sub(rl.lastReset)
	// リセット
	rl.count = 1
	rl.lastReset = now.Add(sleep)
	rl.mu.Unlock()

	if sleep > 0 {
		slog.Info("rate limit hit, sleeping", "limit", rl.limit, "sleep", sleep)
		time.Sleep(sleep)
	}
}
