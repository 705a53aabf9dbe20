// Package model はドメインモデルを定義する。
package model

import "time"

// LocalDraft は編集中投稿のローカルシャドウコピーを表す。
// サーバー側のPostがまだ作成されていない、または匿名で編集中の間だけ存在し、
// サーバー下書きの作成が成功した時点で破棄される。
type LocalDraft struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TLDR        string    `json:"tldr"`
	Content     string    `json:"content"` // エディタネイティブ形式
	LastSaved   time.Time `json:"lastSaved"`
}

// Empty は全フィールドが未入力かどうかを返す。
func (d *LocalDraft) Empty() bool {
	return d.Title == "" && d.Description == "" && d.TLDR == "" && d.Content == ""
}
