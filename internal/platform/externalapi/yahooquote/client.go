package yahooquote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"ticker_sweep/internal/feature/validate/domain"
	"ticker_sweep/internal/feature/validate/domain/entity"
	"ticker_sweep/internal/feature/validate/usecase"
	"ticker_sweep/internal/platform/externalapi/yahooquote/dto"
)

// YahooQuoteClient はYahoo Finance APIからクォートを取得するQuoteRepository実装です。
type YahooQuoteClient struct {
	cfg    Config
	client *http.Client
}

// YahooQuoteClientがQuoteRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.QuoteRepository = (*YahooQuoteClient)(nil)

// NewYahooQuoteClient は指定された設定とHTTPクライアントでYahooQuoteClientの新しいインスタンスを生成します。
func NewYahooQuoteClient(cfg Config, client *http.Client) *YahooQuoteClient {
	return &YahooQuoteClient{cfg: cfg, client: client}
}

// GetQuote はシンボル1件のクォートを取得し、domain.Quoteとして返します。
// 通信失敗・タイムアウト・404以外の4xx/5xxは*domain.TransportError、
// ペイロード不整合（JSONデコード失敗・プロバイダーエラー・result欠落・404）は
// *domain.SchemaErrorとして返します。
func (y *YahooQuoteClient) GetQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	q := url.Values{}
	q.Set("symbols", symbol)

	u := fmt.Sprintf("%s/v7/finance/quote?%s", y.cfg.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return entity.Quote{}, fmt.Errorf("yahooquote: build request: %w", err)
	}
	req.Header.Set("User-Agent", y.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	res, err := y.client.Do(req)
	if err != nil {
		return entity.Quote{}, &domain.TransportError{Symbol: symbol, Err: err}
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	// 404はプロバイダーが「シンボルが存在しない」と答えたケースで、
	// 通信障害ではなくスキーマ系の失敗として扱う
	if res.StatusCode == http.StatusNotFound {
		return entity.Quote{}, &domain.SchemaError{Symbol: symbol, Detail: "http 404"}
	}
	if res.StatusCode >= 400 {
		return entity.Quote{}, &domain.TransportError{
			Symbol: symbol,
			Err:    fmt.Errorf("yahooquote http %d", res.StatusCode),
		}
	}

	var body dto.QuoteResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return entity.Quote{}, &domain.SchemaError{Symbol: symbol, Detail: "decode payload", Err: err}
	}
	if body.QuoteResponse.Error != nil {
		return entity.Quote{}, &domain.SchemaError{
			Symbol: symbol,
			Detail: fmt.Sprintf("provider error %s: %s", body.QuoteResponse.Error.Code, body.QuoteResponse.Error.Description),
		}
	}
	if len(body.QuoteResponse.Result) == 0 {
		return entity.Quote{}, &domain.SchemaError{Symbol: symbol, Detail: "empty result"}
	}

	r := body.QuoteResponse.Result[0]
	exchange := r.FullExchangeName
	if exchange == "" {
		exchange = r.Exchange
	}
	return entity.Quote{
		Symbol:   r.Symbol,
		Price:    r.RegularMarketPrice,
		Exchange: exchange,
		Currency: r.Currency,
	}, nil
}

// WarmUp は既知の有効シンボルを1回参照し、プロバイダーのセッションクッキーを更新します。
// 取得結果そのものは破棄します。
func (y *YahooQuoteClient) WarmUp(ctx context.Context) error {
	if _, err := y.GetQuote(ctx, WarmUpSymbol); err != nil {
		return fmt.Errorf("yahooquote: warm-up lookup: %w", err)
	}
	return nil
}
