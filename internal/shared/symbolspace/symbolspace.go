// Package symbolspace はティッカーシンボル空間のインデックス変換を提供します。
// 長さ1〜maxLengthの英字シンボル全体を、整数インデックスと1対1に対応付けます。
package symbolspace

import (
	"errors"
	"fmt"
)

const (
	// AlphabetSize はシンボルに使用する文字数（A〜Z）です。
	AlphabetSize = 26
	// MaxSymbolLength はサポートするシンボルの最大文字数です。
	MaxSymbolLength = 5
)

// ErrOutOfRange は要求されたインデックスがドメイン境界外であることを表します。
// 正しく境界処理されたループでは発生しないプログラマエラーです。
var ErrOutOfRange = errors.New("symbolspace: index out of range")

// DomainSize は長さ1〜maxLengthのシンボル総数を返します。
// maxLengthが1〜MaxSymbolLengthの範囲外の場合は0を返します。
// DomainSize(4) = 475254, DomainSize(5) = 12356630
func DomainSize(maxLength int) int64 {
	if maxLength < 1 || maxLength > MaxSymbolLength {
		return 0
	}
	var total int64
	size := int64(1)
	for l := 1; l <= maxLength; l++ {
		size *= AlphabetSize
		total += size
	}
	return total
}

// SymbolAt はグローバルインデックスに対応するシンボルを返します。
// 長さの短いシンボルから順に並べ、同じ長さの中では標準的な0始まりの
// 26進位置表記（A=0 … Z=25、最上位文字が先頭）で採番します:
// "A","B",…,"Z","AA","AB",…,"ZZ","AAA",…
func SymbolAt(index int64, maxLength int) (string, error) {
	if index < 0 || index >= DomainSize(maxLength) {
		return "", fmt.Errorf("%w: index=%d maxLength=%d", ErrOutOfRange, index, maxLength)
	}

	// インデックスが属する長さLを特定し、長さ内のサブインデックスに変換
	length := 1
	size := int64(AlphabetSize)
	rest := index
	for rest >= size {
		rest -= size
		size *= AlphabetSize
		length++
	}

	// サブインデックスを長さL桁の26進表記に展開
	buf := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		buf[i] = byte('A' + rest%AlphabetSize)
		rest /= AlphabetSize
	}
	return string(buf), nil
}

// IndexOf はSymbolAtの逆変換で、シンボルのグローバルインデックスを返します。
// 空文字列・MaxSymbolLength超・A〜Z以外の文字を含むシンボルはエラーになります。
func IndexOf(symbol string) (int64, error) {
	if len(symbol) == 0 || len(symbol) > MaxSymbolLength {
		return 0, fmt.Errorf("%w: symbol=%q", ErrOutOfRange, symbol)
	}

	var sub int64
	for i := 0; i < len(symbol); i++ {
		c := symbol[i]
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("%w: symbol=%q", ErrOutOfRange, symbol)
		}
		sub = sub*AlphabetSize + int64(c-'A')
	}

	// 長さの短いシンボル群のサイズ分をオフセットする
	var offset int64
	size := int64(1)
	for l := 1; l < len(symbol); l++ {
		size *= AlphabetSize
		offset += size
	}
	return offset + sub, nil
}
