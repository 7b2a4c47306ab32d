// Package usecase はシンボル1件の遠隔検証とverdict分類のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ticker_sweep/internal/feature/validate/domain"
	"ticker_sweep/internal/feature/validate/domain/entity"
)

const (
	// DefaultSchemaRetries はスキーマ検証エラー時の最大試行回数です。
	DefaultSchemaRetries = 3
	// DefaultSchemaRetryBackoff はスキーマエラーのリトライ間隔です。
	DefaultSchemaRetryBackoff = 500 * time.Millisecond
)

// DefaultAllowedExchanges は「上場中」と認める取引所名の部分文字列リストです。
// 大文字小文字を区別しない部分一致で照合します。
var DefaultAllowedExchanges = []string{"NYSE", "Nasdaq", "AMEX", "NMS", "NYQ"}

// QuoteRepository は外部マーケットデータプロバイダーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type QuoteRepository interface {
	// GetQuote はシンボル1件のクォートを取得します。
	// 通信失敗は*domain.TransportError、ペイロード不整合は*domain.SchemaErrorを返します。
	GetQuote(ctx context.Context, symbol string) (entity.Quote, error)
	// WarmUp は既知の有効シンボルを1回参照してプロバイダーセッションを更新します。
	WarmUp(ctx context.Context) error
}

// Config はverdict分類ポリシーの設定です。
type Config struct {
	AllowedExchanges   []string
	SchemaRetries      int
	SchemaRetryBackoff time.Duration
}

// ValidateUsecase は1シンボルの検証を行い、Active/Delistedのverdictに分類します。
// 永続状態を持たず、複数goroutineから同時に呼び出せます。
type ValidateUsecase struct {
	quotes QuoteRepository
	cfg    Config
}

// NewValidateUsecase は新しい ValidateUsecase を作成します。ゼロ値の設定項目は
// デフォルト（許可取引所リスト、リトライ3回、バックオフ500ms）で補われます。
func NewValidateUsecase(quotes QuoteRepository, cfg Config) *ValidateUsecase {
	if len(cfg.AllowedExchanges) == 0 {
		cfg.AllowedExchanges = DefaultAllowedExchanges
	}
	if cfg.SchemaRetries <= 0 {
		cfg.SchemaRetries = DefaultSchemaRetries
	}
	if cfg.SchemaRetryBackoff <= 0 {
		cfg.SchemaRetryBackoff = DefaultSchemaRetryBackoff
	}
	return &ValidateUsecase{quotes: quotes, cfg: cfg}
}

// Validate はシンボル1件を検証します。
//
//   - 認識済み取引所で価格があればActive
//   - 価格がない、または取引所が許可リスト外ならDelisted（理由つき）
//   - スキーマ検証エラーはSchemaRetries回までリトライし、それでも失敗すれば
//     Delisted（schema_validation）として分類
//   - 通信エラーはverdictにせず*domain.TransportErrorをそのまま返す
func (u *ValidateUsecase) Validate(ctx context.Context, symbol string) (entity.Verdict, error) {
	var lastSchemaErr *domain.SchemaError

	for attempt := 1; attempt <= u.cfg.SchemaRetries; attempt++ {
		quote, err := u.quotes.GetQuote(ctx, symbol)
		if err == nil {
			return u.classify(symbol, quote), nil
		}

		var schemaErr *domain.SchemaError
		if !errors.As(err, &schemaErr) {
			// 通信エラー等はリトライせず呼び出し側に委ねる
			return entity.Verdict{}, err
		}
		lastSchemaErr = schemaErr

		if attempt < u.cfg.SchemaRetries {
			select {
			case <-ctx.Done():
				return entity.Verdict{}, ctx.Err()
			case <-time.After(u.cfg.SchemaRetryBackoff):
			}
		}
	}

	// リトライ上限到達: ポリシーとしてdelisted扱いにする
	slog.Warn("schema validation failed after retries, classifying as delisted",
		"symbol", symbol, "attempts", u.cfg.SchemaRetries, "error", lastSchemaErr)
	return entity.Verdict{
		Symbol: symbol,
		Active: false,
		Reason: entity.ReasonSchemaValidation,
	}, nil
}

// WarmUp はプロバイダーセッションの更新をそのまま委譲します。
func (u *ValidateUsecase) WarmUp(ctx context.Context) error {
	return u.quotes.WarmUp(ctx)
}

func (u *ValidateUsecase) classify(symbol string, quote entity.Quote) entity.Verdict {
	if quote.Price == nil {
		return entity.Verdict{Symbol: symbol, Active: false, Reason: entity.ReasonNoPrice}
	}
	if !u.exchangeRecognized(quote.Exchange) {
		return entity.Verdict{Symbol: symbol, Active: false, Reason: entity.ReasonUnrecognizedExchange}
	}

	currency := quote.Currency
	if currency == "" {
		currency = "USD"
	}
	return entity.Verdict{
		Symbol:   symbol,
		Active:   true,
		Price:    quote.Price,
		Exchange: quote.Exchange,
		Currency: currency,
	}
}

func (u *ValidateUsecase) exchangeRecognized(exchange string) bool {
	ex := strings.ToLower(exchange)
	for _, allowed := range u.cfg.AllowedExchanges {
		if strings.Contains(ex, strings.ToLower(allowed)) {
			return true
		}
	}
	return false
}
