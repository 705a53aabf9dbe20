package draft

import (
	"sync"

	"github.com/hitoshi/blogman/internal/model"
)

// LocalStore はローカル（端末側）下書きストレージの戦略インターフェース。
// セッションIDをキーに、高々1件のローカルシャドウを保持する。
type LocalStore interface {
	// Load はセッションのローカルシャドウを取得する。
	Load(sessionID string) (*model.LocalDraft, bool)
	// Save はセッションのローカルシャドウを上書き保存する。
	Save(sessionID string, d *model.LocalDraft) error
	// Clear はセッションのローカルシャドウを破棄する。存在しなくてもエラーにならない。
	Clear(sessionID string)
}

// MemoryLocalStore はメモリ上のLocalStore実装。
type MemoryLocalStore struct {
	drafts sync.Map
}

// NewMemoryLocalStore はMemoryLocalStoreを生成する。
func NewMemoryLocalStore() *MemoryLocalStore {
	return &MemoryLocalStore{}
}

// Load はセッションのローカルシャドウを取得する。
func (s *MemoryLocalStore) Load(sessionID string) (*model.LocalDraft, bool) {
	v, ok := s.drafts.Load(sessionID)
	if !ok {
		return nil, false
	}
	d := v.(model.LocalDraft)
	return &d, true
}

// Save はセッションのローカルシャドウを上書き保存する。
// 呼び出し元の後続変更から保護するため値をコピーして保持する。
func (s *MemoryLocalStore) Save(sessionID string, d *model.LocalDraft) error {
	s.drafts.Store(sessionID, *d)
	return nil
}

// Clear はセッションのローカルシャドウを破棄する。
func (s *MemoryLocalStore) Clear(sessionID string) {
	s.drafts.Delete(sessionID)
}

// compile-time interface check
var _ LocalStore = (*MemoryLocalStore)(nil)
