// Package adapters はsweepフィーチャーの永続化実装を提供します。
package adapters

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ticker_sweep/internal/feature/sweep/domain"
	"ticker_sweep/internal/feature/sweep/domain/entity"
	"ticker_sweep/internal/feature/sweep/usecase"
)

// checkpointFile はCheckpointStoreインターフェースのJSONファイル実装です。
// チェックポイントは単一のJSONレコードで、ランナーだけが読み書きします。
type checkpointFile struct {
	path string
}

var _ usecase.CheckpointStore = (*checkpointFile)(nil)

// NewCheckpointFileStore は指定パスにチェックポイントを保存するストアを生成します。
func NewCheckpointFileStore(path string) *checkpointFile {
	return &checkpointFile{path: path}
}

// Load はチェックポイントを読み込みます。ファイルが存在しない場合は
// domain.ErrCheckpointNotFoundを返します（= 最初から開始）。
func (s *checkpointFile) Load() (entity.Checkpoint, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entity.Checkpoint{}, domain.ErrCheckpointNotFound
		}
		return entity.Checkpoint{}, fmt.Errorf("read checkpoint %s: %w", s.path, err)
	}

	var cp entity.Checkpoint
	if err := json.Unmarshal(b, &cp); err != nil {
		return entity.Checkpoint{}, fmt.Errorf("decode checkpoint %s: %w", s.path, err)
	}
	return cp, nil
}

// Save はチェックポイントを上書き保存します。一時ファイルに書いてから
// renameすることで、クラッシュ時にも壊れたチェックポイントを残しません。
func (s *checkpointFile) Save(cp entity.Checkpoint) error {
	b, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename checkpoint %s: %w", s.path, err)
	}
	return nil
}

// Clear はチェックポイントを削除します。存在しない場合はエラーになりません。
func (s *checkpointFile) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove checkpoint %s: %w", s.path, err)
	}
	return nil
}
