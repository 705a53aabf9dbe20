// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostStatus は投稿の公開状態を表す。
type PostStatus string

const (
	// PostStatusDraft は下書き状態。作成者本人のみ閲覧できる。
	PostStatusDraft PostStatus = "draft"
	// PostStatusPublished は公開済み状態。誰でも閲覧できる。
	PostStatusPublished PostStatus = "published"
)

// Valid はPostStatusが定義済みの値かどうかを返す。
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post はブログ投稿を表す。ドキュメントストアのpostsコレクションに保存される。
// IDはストアが採番する不透明な識別子で、作成後は不変。
// Authorは作成時のセッションから一度だけ設定され、以後変更されない。
type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Content     string             `bson:"content" json:"content"` // サニタイズ済みHTML
	Description string             `bson:"description" json:"description"`
	TLDR        string             `bson:"tldr" json:"tldr"`
	Author      string             `bson:"author" json:"author"`
	Status      PostStatus         `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
