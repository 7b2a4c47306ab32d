package usecase

import (
	"os"
	"strconv"
	"time"

	"ticker_sweep/internal/shared/symbolspace"
)

// Config はバッチランナーの動作設定です。ゼロ値はLoadConfig/normalizeで
// 基準値に補正されます。
type Config struct {
	// MaxLength は走査するシンボルの最大文字数（1〜5）です。
	MaxLength int
	// IncludeLength5 は5文字シンボル帯域（+11,881,376件）を含めるかどうかです。
	IncludeLength5 bool
	// BatchSize はチェックポイントを保存する処理件数の間隔です。
	BatchSize int
	// ConcurrentRequests は同時に実行する検証リクエスト数です。0または1で逐次実行になります。
	ConcurrentRequests int
	// RequestDelay は逐次実行でのリクエスト間、並行実行でのチャンク間の待機時間です。
	RequestDelay time.Duration
	// FreshnessWindow はこの期間内に検証済みのシンボルをスキップする鮮度窓です。
	FreshnessWindow time.Duration
	// Limit は1回の実行で処理する最大件数です。0で無制限（ドメイン全域）。
	Limit int64
	// DryRun がtrueの場合、外部照会と台帳書き込みを行わず列挙だけを実行します。
	DryRun bool

	// ErrorThreshold は一時停止をトリガーする連続通信エラー回数です。
	ErrorThreshold int
	// ErrorCooldown はエスカレーション時の待機時間です。
	ErrorCooldown time.Duration
	// ReplayWindow はエスカレーション後に巻き戻して再検証するインデックス数です。
	ReplayWindow int64
	// LongBreakEvery はプロバイダー負荷軽減のための定期休止の間隔です。
	LongBreakEvery time.Duration
	// LongBreakFor は定期休止の長さです。
	LongBreakFor time.Duration
	// SessionRefreshEvery は何リクエストごとにセッション更新を行うかです。
	SessionRefreshEvery int64
	// SessionRefreshPause はセッション更新後の小休止です。
	SessionRefreshPause time.Duration
}

// LoadConfig は環境変数からランナー設定を読み込みます。未設定の項目は基準値になります。
func LoadConfig() Config {
	cfg := Config{
		MaxLength:          envInt("SWEEP_MAX_LENGTH", 4),
		IncludeLength5:     os.Getenv("SWEEP_INCLUDE_LENGTH5") == "true",
		BatchSize:          envInt("SWEEP_BATCH_SIZE", 10),
		ConcurrentRequests: envInt("SWEEP_CONCURRENT_REQUESTS", 1),
		RequestDelay:       time.Duration(envInt("SWEEP_REQUEST_DELAY_MS", 1000)) * time.Millisecond,
		FreshnessWindow:    time.Duration(envInt("SWEEP_FRESHNESS_WINDOW_HOURS", 24)) * time.Hour,
		Limit:              int64(envInt("SWEEP_LIMIT", 0)),
		DryRun:             os.Getenv("SWEEP_DRY_RUN") == "true",
	}
	return cfg.normalize()
}

// normalize は未設定・範囲外の項目を基準値に補正したConfigを返します。
func (c Config) normalize() Config {
	if c.IncludeLength5 {
		c.MaxLength = symbolspace.MaxSymbolLength
	}
	if c.MaxLength < 1 || c.MaxLength > symbolspace.MaxSymbolLength {
		c.MaxLength = 4
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.ConcurrentRequests < 1 {
		c.ConcurrentRequests = 1
	}
	if c.ConcurrentRequests > 25 {
		c.ConcurrentRequests = 25
	}
	if c.FreshnessWindow <= 0 {
		c.FreshnessWindow = 24 * time.Hour
	}
	if c.ErrorThreshold <= 0 {
		c.ErrorThreshold = 10
	}
	if c.ErrorCooldown <= 0 {
		c.ErrorCooldown = 60 * time.Second
	}
	if c.ReplayWindow <= 0 {
		c.ReplayWindow = 10
	}
	if c.LongBreakEvery <= 0 {
		c.LongBreakEvery = 15 * time.Minute
	}
	if c.LongBreakFor <= 0 {
		c.LongBreakFor = time.Minute
	}
	if c.SessionRefreshEvery <= 0 {
		c.SessionRefreshEvery = 10000
	}
	if c.SessionRefreshPause <= 0 {
		c.SessionRefreshPause = 5 * time.Second
	}
	return c
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
