// Package db はGORMによるデータベース接続の初期化を提供します。
package db

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ticker_sweep/internal/feature/ledger/adapters"
)

// OpenDB は台帳用のデータベース接続を開きます。
// DATABASE_URLが設定されていればPostgreSQL、それ以外は組み込みSQLite
// （TICKER_DB_PATH、デフォルト "tickers.db"）を使用します。
// SQLiteでもシンボル単位のアトミックなupsertには十分です。
func OpenDB() *gorm.DB {
	var (
		db  *gorm.DB
		err error
	)

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		deadline := time.Now().Add(60 * time.Second)
		for {
			db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
			if err == nil {
				break
			}
			if time.Now().After(deadline) {
				log.Fatalf("DB connect failed after 60s: %v", err)
			}
			log.Printf("DB connect failed, retrying...: %v", err)
			time.Sleep(3 * time.Second)
		}
	} else {
		path := os.Getenv("TICKER_DB_PATH")
		if path == "" {
			path = "tickers.db"
		}
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open sqlite db %s: %v", path, err)
		}
	}

	// 台帳テーブルのマイグレーション
	if err := db.AutoMigrate(&adapters.TickerModel{}); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	return db
}
