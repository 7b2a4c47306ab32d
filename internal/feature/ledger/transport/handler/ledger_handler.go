package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"ticker_sweep/internal/feature/ledger/domain/entity"
	"ticker_sweep/internal/feature/ledger/transport/http/dto"

	"github.com/gin-gonic/gin"
)

// LedgerUsecase は台帳の読み取りユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type LedgerUsecase interface {
	Stats(ctx context.Context) (entity.Stats, error)
	ListByStatus(ctx context.Context, status entity.Status) ([]entity.Ticker, error)
	ExportCSV(ctx context.Context, status entity.Status, w io.Writer) error
}

// LedgerHandler は台帳に関するHTTPリクエストを処理します。
// ランナーやチェックポイントの内部状態には一切依存しません。
type LedgerHandler struct {
	uc LedgerUsecase
}

// NewLedgerHandler は新しい LedgerHandler を作成します。
func NewLedgerHandler(uc LedgerUsecase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

// Stats は台帳の集計値を返すAPIです。
func (h *LedgerHandler) Stats(c *gin.Context) {
	s, err := h.uc.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.StatsResponse{
		Total:       s.Total,
		Active:      s.Active,
		Delisted:    s.Delisted,
		Unvalidated: s.Unvalidated,
		Validated:   s.Validated,
	})
}

// List は指定ステータスのシンボル一覧をシンボル昇順で返すAPIです。
// statusクエリパラメータ（デフォルト: active）が不正な場合は400を返します。
func (h *LedgerHandler) List(c *gin.Context) {
	status := entity.Status(c.DefaultQuery("status", string(entity.StatusActive)))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + string(status)})
		return
	}

	tickers, err := h.uc.ListByStatus(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]dto.TickerItem, 0, len(tickers))
	for _, t := range tickers {
		item := dto.TickerItem{
			Symbol:   t.Symbol,
			Status:   string(t.Status),
			Price:    t.Price,
			Exchange: t.Exchange,
			Currency: t.Currency,
		}
		if t.LastChecked != nil {
			item.LastChecked = t.LastChecked.UTC().Format(time.RFC3339)
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, out)
}

// ExportCSV は指定ステータスの台帳をCSVでダウンロードさせるAPIです。
func (h *LedgerHandler) ExportCSV(c *gin.Context) {
	status := entity.Status(c.DefaultQuery("status", string(entity.StatusActive)))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status: " + string(status)})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="tickers_`+string(status)+`.csv"`)
	if err := h.uc.ExportCSV(c.Request.Context(), status, c.Writer); err != nil {
		// ヘッダー送出後はステータスを変えられないのでログ相当のエラー本文だけ返す
		_ = c.Error(err)
	}
}
