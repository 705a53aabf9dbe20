// Package draft は編集セッションごとの下書き同期を提供する。
//
// 下書きの保存先はセッションの認証状態に応じて、ローカル（端末側）
// ストレージとサーバーストレージに振り分けられる。保存先の媒体は
// LocalStore / RemoteStore として注入され、状態遷移のロジックは
// 媒体から独立している。
package draft

// State は編集セッションの下書き同期状態を表す。
type State string

const (
	// StateNoDraft は下書きが存在しない初期状態。
	StateNoDraft State = "no_draft"
	// StateLocalOnly はローカルシャドウのみが存在する状態。
	// 匿名セッション、または認証済みでも未保存の下書きはここに留まる。
	StateLocalOnly State = "local_only"
	// StateServerBacked はサーバー下書きが作成済みの状態。
	// サーバーコピーが唯一の真実であり、ローカル自動保存は抑止される。
	StateServerBacked State = "server_backed"
	// StatePublished は公開済みの終端状態。
	StatePublished State = "published"
)

// transitions は許可される状態遷移の表。
// StatePublished は終端で、どの状態へも遷移しない。
var transitions = map[State][]State{
	StateNoDraft:      {StateLocalOnly, StateServerBacked, StatePublished},
	StateLocalOnly:    {StateLocalOnly, StateServerBacked, StatePublished, StateNoDraft},
	StateServerBacked: {StateServerBacked, StatePublished, StateNoDraft},
	StatePublished:    {},
}

// CanTransitionTo は現在の状態からnextへの遷移が許可されるかを返す。
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal は終端状態かどうかを返す。
func (s State) Terminal() bool {
	return s == StatePublished
}
