package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ticker_sweep/internal/feature/ledger/domain/entity"
)

// mockLedgerRepository is a mock implementation of the LedgerRepository interface.
type mockLedgerRepository struct {
	ListByStatusFunc func(ctx context.Context, status entity.Status) ([]entity.Ticker, error)
	StatsFunc        func(ctx context.Context) (entity.Stats, error)
}

func (m *mockLedgerRepository) Upsert(context.Context, entity.Ticker) error {
	return errors.New("Upsert is not implemented")
}

func (m *mockLedgerRepository) Get(context.Context, string) (entity.Ticker, error) {
	return entity.Ticker{}, errors.New("Get is not implemented")
}

func (m *mockLedgerRepository) ListByStatus(ctx context.Context, status entity.Status) ([]entity.Ticker, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, status)
	}
	return nil, nil
}

func (m *mockLedgerRepository) Stats(ctx context.Context) (entity.Stats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return entity.Stats{}, nil
}

func (m *mockLedgerRepository) WasCheckedWithin(context.Context, string, time.Duration) (bool, time.Duration, error) {
	return false, 0, errors.New("WasCheckedWithin is not implemented")
}

func (m *mockLedgerRepository) BulkInsertUnvalidated(context.Context, []string) error {
	return errors.New("BulkInsertUnvalidated is not implemented")
}

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

func TestLedgerUsecase_Stats(t *testing.T) {
	mock := &mockLedgerRepository{
		StatsFunc: func(context.Context) (entity.Stats, error) {
			return entity.Stats{Total: 10, Active: 4, Delisted: 5, Unvalidated: 1, Validated: 9}, nil
		},
	}
	uc := NewLedgerUsecase(mock)

	s, err := uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Validated != 9 {
		t.Errorf("expected validated 9, got %d", s.Validated)
	}
}

func TestLedgerUsecase_ExportCSV(t *testing.T) {
	checked := time.Date(2026, 8, 27, 15, 30, 0, 0, time.UTC)
	mock := &mockLedgerRepository{
		ListByStatusFunc: func(_ context.Context, status entity.Status) ([]entity.Ticker, error) {
			if status != entity.StatusActive {
				t.Errorf("unexpected status %s", status)
			}
			return []entity.Ticker{
				{Symbol: "A", Status: entity.StatusActive, Price: floatPtr(100), Exchange: strPtr("NASDAQ"), Currency: "USD", LastChecked: &checked},
				{Symbol: "B", Status: entity.StatusActive, Price: floatPtr(55.5), Exchange: strPtr("NYSE"), Currency: "USD"},
			}, nil
		},
	}
	uc := NewLedgerUsecase(mock)

	var buf bytes.Buffer
	if err := uc.ExportCSV(context.Background(), entity.StatusActive, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "symbol,status,price,exchange,currency,last_checked" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "A,active,100,NASDAQ,USD,2026-08-27T15:30:00Z" {
		t.Errorf("unexpected row %q", lines[1])
	}
	if lines[2] != "B,active,55.5,NYSE,USD," {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestLedgerUsecase_ExportCSV_RepositoryError(t *testing.T) {
	mock := &mockLedgerRepository{
		ListByStatusFunc: func(context.Context, entity.Status) ([]entity.Ticker, error) {
			return nil, errors.New("storage failure")
		},
	}
	uc := NewLedgerUsecase(mock)

	var buf bytes.Buffer
	if err := uc.ExportCSV(context.Background(), entity.StatusActive, &buf); err == nil {
		t.Fatal("expected an error")
	}
	if buf.Len() != 0 {
		t.Errorf("no output should be written on error, got %q", buf.String())
	}
}
