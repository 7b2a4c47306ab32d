// Package adapters はledgerフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticker_sweep/internal/feature/ledger/domain"
	"ticker_sweep/internal/feature/ledger/domain/entity"
	"ticker_sweep/internal/feature/ledger/usecase"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tickerGorm はLedgerRepositoryインターフェースのGORM実装です。
type tickerGorm struct {
	db *gorm.DB
}

var _ usecase.LedgerRepository = (*tickerGorm)(nil)

// NewLedgerRepository は指定されたDB接続でtickerGormリポジトリの新しいインスタンスを生成します。
func NewLedgerRepository(db *gorm.DB) *tickerGorm {
	return &tickerGorm{db: db}
}

// TickerModel は台帳テーブルの永続化モデルです。
type TickerModel struct {
	ID          uint       `gorm:"primaryKey"`
	Symbol      string     `gorm:"size:8;not null;uniqueIndex"`
	Status      string     `gorm:"size:16;not null;index"`
	Price       *float64   `gorm:""`
	Exchange    *string    `gorm:"size:64"`
	Currency    string     `gorm:"size:8;not null;default:USD"`
	LastChecked *time.Time `gorm:""`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (TickerModel) TableName() string {
	return "tickers"
}

func toModel(e entity.Ticker) TickerModel {
	currency := e.Currency
	if currency == "" {
		currency = entity.DefaultCurrency
	}
	return TickerModel{
		Symbol:      e.Symbol,
		Status:      string(e.Status),
		Price:       e.Price,
		Exchange:    e.Exchange,
		Currency:    currency,
		LastChecked: e.LastChecked,
	}
}

func toEntity(m TickerModel) entity.Ticker {
	return entity.Ticker{
		Symbol:      m.Symbol,
		Status:      entity.Status(m.Status),
		Price:       m.Price,
		Exchange:    m.Exchange,
		Currency:    m.Currency,
		LastChecked: m.LastChecked,
	}
}

// Upsert はシンボルをキーに1行を挿入または更新します。
// last_checkedが未設定の場合は現在時刻を補います。priceがnilの更新は
// 既存のpriceをNULLで上書きするため、delistedへの遷移で古い価格が残りません。
func (r *tickerGorm) Upsert(ctx context.Context, ticker entity.Ticker) error {
	if !ticker.Status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, ticker.Status)
	}

	m := toModel(ticker)
	if m.LastChecked == nil {
		now := time.Now()
		m.LastChecked = &now
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "price", "exchange", "currency", "last_checked", "updated_at"}),
	}).Create(&m).Error
}

// Get はシンボルに対応する台帳行を返します。
func (r *tickerGorm) Get(ctx context.Context, symbol string) (entity.Ticker, error) {
	var m TickerModel
	if err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Ticker{}, domain.ErrTickerNotFound
		}
		return entity.Ticker{}, err
	}
	return toEntity(m), nil
}

// ListByStatus は指定ステータスの行をシンボル昇順で返します。
// 毎回新しいスナップショットを返すクエリで、再開可能なカーソルは持ちません。
func (r *tickerGorm) ListByStatus(ctx context.Context, status entity.Status) ([]entity.Ticker, error) {
	var rows []TickerModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("symbol ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Ticker, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}

// Stats は台帳全体の集計を返します。
func (r *tickerGorm) Stats(ctx context.Context) (entity.Stats, error) {
	var counts []struct {
		Status string
		N      int64
	}
	if err := r.db.WithContext(ctx).
		Model(&TickerModel{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&counts).Error; err != nil {
		return entity.Stats{}, err
	}

	var s entity.Stats
	for _, c := range counts {
		s.Total += c.N
		switch entity.Status(c.Status) {
		case entity.StatusActive:
			s.Active += c.N
		case entity.StatusDelisted:
			s.Delisted += c.N
		case entity.StatusUnvalidated:
			s.Unvalidated += c.N
		}
	}
	s.Validated = s.Active + s.Delisted
	return s, nil
}

// WasCheckedWithin はシンボルが指定期間内に検証済みかどうかと経過時間を返します。
// 行が存在しない、または未検証（last_checkedがNULLか状態がunvalidated）の場合はfalseです。
func (r *tickerGorm) WasCheckedWithin(ctx context.Context, symbol string, window time.Duration) (bool, time.Duration, error) {
	var m TickerModel
	if err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, nil
		}
		return false, 0, err
	}
	if m.LastChecked == nil || entity.Status(m.Status) == entity.StatusUnvalidated {
		return false, 0, nil
	}
	elapsed := time.Since(*m.LastChecked)
	return elapsed <= window, elapsed, nil
}

// BulkInsertUnvalidated は未検証行をバッチで一括生成します。
// 既存行との衝突はDO NOTHINGで無視するため、検証済み行を巻き戻すことはありません。
func (r *tickerGorm) BulkInsertUnvalidated(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	ms := make([]TickerModel, 0, len(symbols))
	for _, sym := range symbols {
		ms = append(ms, TickerModel{
			Symbol:   sym,
			Status:   string(entity.StatusUnvalidated),
			Currency: entity.DefaultCurrency,
		})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoNothing: true,
	}).CreateInBatches(&ms, 500).Error
}
