package draft

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// RemoteStore はサーバー側下書きストレージの戦略インターフェース。
// 投稿サービスがこのインターフェースを実装する。
type RemoteStore interface {
	// CreateDraft は新規サーバー下書きを作成し、そのIDを返す。
	CreateDraft(ctx context.Context, authorID string, d model.LocalDraft) (string, error)
	// UpdateDraft は既存のサーバー下書きを上書きする。
	UpdateDraft(ctx context.Context, authorID, id string, d model.LocalDraft) error
	// PublishDraft は下書きを公開する。idが空の場合は直接公開投稿を
	// 作成する。公開された投稿のIDを返す。
	PublishDraft(ctx context.Context, authorID, id string, d model.LocalDraft) (string, error)
	// DeleteDraft はサーバー下書きを削除する。
	DeleteDraft(ctx context.Context, authorID, id string) error
}

// Session は1つの編集セッションの下書き同期を管理する。
// すべてのメソッドは並行呼び出しに対して安全で、内部状態は単一の
// ミューテックスで直列化される。
type Session struct {
	mu      sync.Mutex
	id      string
	state   State
	draftID string
	draft   model.LocalDraft
	timer   *time.Timer

	local  LocalStore
	remote RemoteStore
	delay  time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSession は新しい編集セッションを生成する。
// delayはローカル自動保存のデバウンス間隔。
func NewSession(id string, local LocalStore, remote RemoteStore, delay time.Duration, logger *slog.Logger) *Session {
	return &Session{
		id:     id,
		state:  StateNoDraft,
		local:  local,
		remote: remote,
		delay:  delay,
		now:    time.Now,
		logger: logger,
	}
}

// AttachServerDraft は既存のサーバー下書きIDでセッションを開く。
// 以降サーバーコピーが唯一の真実となり、ローカル自動保存は行われない。
func (s *Session) AttachServerDraft(draftID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.local.Clear(s.id)
	s.state = StateServerBacked
	s.draftID = draftID
}

// RestoreLocal はセッション開始時にローカルシャドウを復元する。
// シャドウが存在すればそれを編集内容として読み込み、LocalOnlyへ遷移する。
func (s *Session) RestoreLocal() (*model.LocalDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateNoDraft {
		return nil, false
	}
	d, ok := s.local.Load(s.id)
	if !ok {
		return nil, false
	}
	s.draft = *d
	s.state = StateLocalOnly
	return d, true
}

// Edit は編集内容の変化を通知する。
// サーバー下書きが存在しない間のみ、デバウンスされたローカル自動保存を
// スケジュールする。連続する編集は保留中の保存を置き換える。
func (s *Session) Edit(d model.LocalDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}

	s.draft = d

	// サーバー下書きがある間はローカル自動保存を抑止する
	if s.state == StateServerBacked {
		return
	}

	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.delay, s.autosave)
}

// autosave はデバウンス満了時にローカルシャドウを保存する。
func (s *Session) autosave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	// タイマー発火までの間にサーバー保存や公開が完了していたら何もしない
	if s.state == StateServerBacked || s.state.Terminal() {
		return
	}
	s.saveLocalLocked()
}

// saveLocalLocked はロック保持下でローカルシャドウを保存し、
// LocalOnlyへ遷移する。
func (s *Session) saveLocalLocked() {
	s.draft.LastSaved = s.now().UTC()
	if err := s.local.Save(s.id, &s.draft); err != nil {
		if s.logger != nil {
			s.logger.Error("ローカル下書きの保存に失敗しました", "session_id", s.id, "error", err)
		}
		return
	}
	s.state = StateLocalOnly
}

// SaveDraft は明示的な下書き保存を行う。
// userIDが空（匿名）の場合はローカルシャドウへ即時保存する。
// 認証済みの場合はサーバーへ保存し、初回成功時にローカルシャドウを
// 破棄してServerBackedへ遷移する。以降の保存は同じサーバー下書きを
// 上書きする。
func (s *Session) SaveDraft(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return model.NewValidationError("公開済みのセッションは編集できません。")
	}

	if userID == "" {
		s.stopTimerLocked()
		s.saveLocalLocked()
		return nil
	}

	if s.draftID != "" {
		if err := s.remote.UpdateDraft(ctx, userID, s.draftID, s.draft); err != nil {
			return err
		}
		return nil
	}

	id, err := s.remote.CreateDraft(ctx, userID, s.draft)
	if err != nil {
		return err
	}
	s.stopTimerLocked()
	s.local.Clear(s.id)
	s.draftID = id
	s.state = StateServerBacked
	return nil
}

// Publish はセッションの内容を公開する。
// LocalOnlyからの直接公開も許可される（サーバー下書きを経由しない）。
// 成功時にローカルシャドウを破棄し、終端状態のPublishedへ遷移する。
func (s *Session) Publish(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return "", model.NewValidationError("このセッションは公開済みです。")
	}
	if userID == "" {
		return "", model.NewUnauthorizedError()
	}

	id, err := s.remote.PublishDraft(ctx, userID, s.draftID, s.draft)
	if err != nil {
		return "", err
	}

	s.stopTimerLocked()
	s.local.Clear(s.id)
	s.draftID = id
	s.state = StatePublished
	return id, nil
}

// Discard はセッションの下書きを破棄する。
// ローカルシャドウと保留中の自動保存を常に破棄し、サーバー下書きが
// 存在する場合はサーバーコピーも削除してNoDraftへ戻る。
func (s *Session) Discard(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return model.NewValidationError("公開済みのセッションは破棄できません。")
	}

	s.stopTimerLocked()
	s.local.Clear(s.id)

	if s.state == StateServerBacked && s.draftID != "" {
		if err := s.remote.DeleteDraft(ctx, userID, s.draftID); err != nil {
			return err
		}
	}

	s.draft = model.LocalDraft{}
	s.draftID = ""
	s.state = StateNoDraft
	return nil
}

// Close はセッションを閉じ、保留中の自動保存をキャンセルする。
// ローカルシャドウは破棄されず、次回セッションで復元可能なまま残る。
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// State は現在の同期状態を返す。
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// DraftID はサーバー下書きのIDを返す。未作成の場合は空文字列。
func (s *Session) DraftID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftID
}

// Draft は現在の編集内容のコピーを返す。
func (s *Session) Draft() model.LocalDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// stopTimerLocked はロック保持下で保留中のタイマーを停止する。
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
