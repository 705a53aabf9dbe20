package draft

import (
	"log/slog"
	"sync"
	"time"
)

// Manager は編集セッションのレジストリ。
// セッションIDごとにSessionを生成・保持し、アプリケーション終了時に
// 保留中の自動保存をまとめてキャンセルする。
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	local  LocalStore
	remote RemoteStore
	delay  time.Duration
	logger *slog.Logger
}

// NewManager は新しいManagerを生成する。
// delayは各セッションのローカル自動保存のデバウンス間隔。
func NewManager(local LocalStore, remote RemoteStore, delay time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		local:    local,
		remote:   remote,
		delay:    delay,
		logger:   logger,
	}
}

// Open はセッションIDに対応するSessionを返す。
// 未登録のIDの場合は新しいセッションを生成して登録する。
func (m *Manager) Open(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := NewSession(id, m.local, m.remote, m.delay, m.logger)
	m.sessions[id] = s
	return s
}

// Close は指定セッションを閉じてレジストリから除去する。
// ローカルシャドウは残るため、同じIDで再度開けば復元できる。
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Close()
		delete(m.sessions, id)
	}
}

// CloseAll は全セッションを閉じる。シャットダウン時に呼ぶ。
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}

// Len は現在開いているセッション数を返す。
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
