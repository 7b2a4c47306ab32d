// Package usecase は分類台帳（レジャー）操作のビジネスロジックを実装します。
package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"ticker_sweep/internal/feature/ledger/domain/entity"
)

// LedgerRepository は分類台帳の永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type LedgerRepository interface {
	// Upsert はシンボルをキーとして1行を挿入または更新します。冪等です。
	Upsert(ctx context.Context, ticker entity.Ticker) error
	// Get はシンボルに対応する台帳行を返します。存在しない場合はdomain.ErrTickerNotFoundを返します。
	Get(ctx context.Context, symbol string) (entity.Ticker, error)
	// ListByStatus は指定ステータスの行をシンボル昇順で返します。
	ListByStatus(ctx context.Context, status entity.Status) ([]entity.Ticker, error)
	// Stats は台帳全体の集計を返します。
	Stats(ctx context.Context) (entity.Stats, error)
	// WasCheckedWithin はシンボルが指定期間内に検証済みかどうかと、最終検証からの経過時間を返します。
	WasCheckedWithin(ctx context.Context, symbol string, window time.Duration) (bool, time.Duration, error)
	// BulkInsertUnvalidated は未検証行を一括生成します。既存行は一切変更しません。
	BulkInsertUnvalidated(ctx context.Context, symbols []string) error
}

// LedgerUsecase は台帳の読み取り系ユースケース（統計・一覧・エクスポート）を提供します。
// エクスポーターやHTTP APIはこのユースケースだけを経由して台帳を参照します。
type LedgerUsecase struct {
	repo LedgerRepository
}

// NewLedgerUsecase は新しい LedgerUsecase を作成します。
func NewLedgerUsecase(r LedgerRepository) *LedgerUsecase {
	return &LedgerUsecase{repo: r}
}

// Stats は台帳の集計値を返します。
func (u *LedgerUsecase) Stats(ctx context.Context) (entity.Stats, error) {
	return u.repo.Stats(ctx)
}

// ListByStatus は指定ステータスのシンボル一覧をシンボル昇順で返します。
func (u *LedgerUsecase) ListByStatus(ctx context.Context, status entity.Status) ([]entity.Ticker, error) {
	return u.repo.ListByStatus(ctx, status)
}

// ExportCSV は指定ステータスの台帳行をCSVとしてwに書き出します。
// 行順はListByStatusと同じシンボル昇順で、決定的な出力になります。
func (u *LedgerUsecase) ExportCSV(ctx context.Context, status entity.Status, w io.Writer) error {
	tickers, err := u.repo.ListByStatus(ctx, status)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"symbol", "status", "price", "exchange", "currency", "last_checked"}); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, t := range tickers {
		price := ""
		if t.Price != nil {
			price = strconv.FormatFloat(*t.Price, 'f', -1, 64)
		}
		exchange := ""
		if t.Exchange != nil {
			exchange = *t.Exchange
		}
		lastChecked := ""
		if t.LastChecked != nil {
			lastChecked = t.LastChecked.UTC().Format(time.RFC3339)
		}
		if err := cw.Write([]string{t.Symbol, string(t.Status), price, exchange, t.Currency, lastChecked}); err != nil {
			return fmt.Errorf("export: write row %s: %w", t.Symbol, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
