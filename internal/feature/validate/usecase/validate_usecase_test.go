package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticker_sweep/internal/feature/validate/domain"
	"ticker_sweep/internal/feature/validate/domain/entity"
)

// mockQuoteRepository is a mock implementation of the QuoteRepository interface.
type mockQuoteRepository struct {
	GetQuoteFunc  func(ctx context.Context, symbol string) (entity.Quote, error)
	GetQuoteCalls int
	WarmUpCalls   int
}

func (m *mockQuoteRepository) GetQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	m.GetQuoteCalls++
	if m.GetQuoteFunc != nil {
		return m.GetQuoteFunc(ctx, symbol)
	}
	return entity.Quote{}, errors.New("GetQuoteFunc is not implemented")
}

func (m *mockQuoteRepository) WarmUp(ctx context.Context) error {
	m.WarmUpCalls++
	return nil
}

func floatPtr(f float64) *float64 { return &f }

func testConfig() Config {
	// テストを高速化するためバックオフを最小化する
	return Config{SchemaRetryBackoff: time.Millisecond}
}

func TestValidateUsecase_Validate(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name           string
		symbol         string
		mockFunc       func(ctx context.Context, symbol string) (entity.Quote, error)
		expectedCalls  int
		expectedActive bool
		expectedReason entity.Reason
		expectedErr    bool
	}{
		{
			name:   "active: price on recognized exchange",
			symbol: "AAPL",
			mockFunc: func(_ context.Context, symbol string) (entity.Quote, error) {
				return entity.Quote{Symbol: symbol, Price: floatPtr(232.5), Exchange: "NasdaqGS", Currency: "USD"}, nil
			},
			expectedCalls:  1,
			expectedActive: true,
		},
		{
			name:   "active: exchange match is case-insensitive substring",
			symbol: "GM",
			mockFunc: func(_ context.Context, symbol string) (entity.Quote, error) {
				return entity.Quote{Symbol: symbol, Price: floatPtr(41.2), Exchange: "new york stock exchange (nyse)"}, nil
			},
			expectedCalls:  1,
			expectedActive: true,
		},
		{
			name:   "delisted: no tradeable price",
			symbol: "QQZX",
			mockFunc: func(_ context.Context, symbol string) (entity.Quote, error) {
				return entity.Quote{Symbol: symbol, Exchange: "NYSE"}, nil
			},
			expectedCalls:  1,
			expectedActive: false,
			expectedReason: entity.ReasonNoPrice,
		},
		{
			name:   "delisted: venue outside the allow-list",
			symbol: "SAP",
			mockFunc: func(_ context.Context, symbol string) (entity.Quote, error) {
				return entity.Quote{Symbol: symbol, Price: floatPtr(180), Exchange: "XETRA"}, nil
			},
			expectedCalls:  1,
			expectedActive: false,
			expectedReason: entity.ReasonUnrecognizedExchange,
		},
		{
			name:   "delisted: schema error after exhausted retries",
			symbol: "ZZZZ",
			mockFunc: func(_ context.Context, symbol string) (entity.Quote, error) {
				return entity.Quote{}, &domain.SchemaError{Symbol: symbol, Detail: "empty result"}
			},
			expectedCalls:  3,
			expectedActive: false,
			expectedReason: entity.ReasonSchemaValidation,
		},
		{
			name:   "error: transport failure is returned, not classified",
			symbol: "NET",
			mockFunc: func(_ context.Context, symbol string) (entity.Quote, error) {
				return entity.Quote{}, &domain.TransportError{Symbol: symbol, Err: errors.New("connection refused")}
			},
			expectedCalls: 1,
			expectedErr:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockQuoteRepository{GetQuoteFunc: tc.mockFunc}
			uc := NewValidateUsecase(mock, testConfig())

			verdict, err := uc.Validate(ctx, tc.symbol)

			if mock.GetQuoteCalls != tc.expectedCalls {
				t.Errorf("GetQuote calls mismatch: got %d, want %d", mock.GetQuoteCalls, tc.expectedCalls)
			}
			if tc.expectedErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				var transportErr *domain.TransportError
				if !errors.As(err, &transportErr) {
					t.Errorf("expected *domain.TransportError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict.Symbol != tc.symbol {
				t.Errorf("verdict symbol mismatch: got %s, want %s", verdict.Symbol, tc.symbol)
			}
			if verdict.Active != tc.expectedActive {
				t.Errorf("verdict active mismatch: got %v, want %v", verdict.Active, tc.expectedActive)
			}
			if !tc.expectedActive && verdict.Reason != tc.expectedReason {
				t.Errorf("verdict reason mismatch: got %s, want %s", verdict.Reason, tc.expectedReason)
			}
		})
	}
}

// TestValidateUsecase_Validate_SchemaErrorThenSuccess は途中の試行で成功すれば
// リトライが打ち切られverdictが返ることを検証します。
func TestValidateUsecase_Validate_SchemaErrorThenSuccess(t *testing.T) {
	calls := 0
	mock := &mockQuoteRepository{
		GetQuoteFunc: func(_ context.Context, symbol string) (entity.Quote, error) {
			calls++
			if calls < 2 {
				return entity.Quote{}, &domain.SchemaError{Symbol: symbol, Detail: "malformed payload"}
			}
			return entity.Quote{Symbol: symbol, Price: floatPtr(10), Exchange: "AMEX"}, nil
		},
	}
	uc := NewValidateUsecase(mock, testConfig())

	verdict, err := uc.Validate(context.Background(), "ABC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verdict.Active {
		t.Errorf("expected active verdict, got reason %s", verdict.Reason)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestValidateUsecase_Validate_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &mockQuoteRepository{
		GetQuoteFunc: func(_ context.Context, symbol string) (entity.Quote, error) {
			cancel()
			return entity.Quote{}, &domain.SchemaError{Symbol: symbol, Detail: "malformed payload"}
		},
	}
	uc := NewValidateUsecase(mock, Config{SchemaRetryBackoff: time.Hour})

	_, err := uc.Validate(ctx, "ABC")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestValidateUsecase_WarmUp(t *testing.T) {
	mock := &mockQuoteRepository{}
	uc := NewValidateUsecase(mock, Config{})

	if err := uc.WarmUp(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.WarmUpCalls != 1 {
		t.Errorf("expected 1 WarmUp call, got %d", mock.WarmUpCalls)
	}
}
