// Package router はHTTP APIのルーティングを構成します。
package router

import (
	ledgerhandler "ticker_sweep/internal/feature/ledger/transport/handler"
	"ticker_sweep/internal/platform/http/handler"

	"github.com/gin-gonic/gin"
)

// NewRouter は台帳読み取りAPIのルータを生成します。
// すべてのエンドポイントは読み取り専用で、認証は不要です。
func NewRouter(ledger *ledgerhandler.LedgerHandler) *gin.Engine {
	r := gin.Default()

	// 導通確認用
	r.GET("/healthz", handler.Health)

	// 台帳の読み取りAPI（ランナーの内部状態には依存しない）
	r.GET("/stats", ledger.Stats)
	r.GET("/symbols", ledger.List)
	r.GET("/export/csv", ledger.ExportCSV)

	return r
}
