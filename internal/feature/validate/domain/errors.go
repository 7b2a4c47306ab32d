// Package domain defines domain-level errors for the validate feature.
package domain

import "fmt"

// TransportError はネットワーク障害・タイムアウト・5xxなど、結果が不定な
// 通信レイヤーの失敗を表します。verdictとして台帳に記録してはならず、
// 呼び出し側（バッチランナー）の連続エラーエスカレーションで扱います。
type TransportError struct {
	Symbol string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.Symbol, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError はプロバイダーのペイロードが期待する形に合致しない失敗を表します。
// 404や空のresultもここに含まれます。ポリシーとして、限定回数のリトライ後に
// delisted（schema_validation）として分類されます。
type SchemaError struct {
	Symbol string
	Detail string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema error for %s: %s: %v", e.Symbol, e.Detail, e.Err)
	}
	return fmt.Sprintf("schema error for %s: %s", e.Symbol, e.Detail)
}

func (e *SchemaError) Unwrap() error { return e.Err }
