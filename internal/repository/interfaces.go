// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// PostRepository は投稿ドキュメントの永続化インターフェース。
// IDの一意性と採番はストア側が保証する。リポジトリはIDを捏造しない。
type PostRepository interface {
	// Insert は投稿を作成し、ストアが採番したIDの16進表現を返す。
	Insert(ctx context.Context, post *model.Post) (string, error)

	// FindByID は指定IDの投稿を公開状態に関わらず取得する。
	// 見つからない場合はnilを返す。不正な形式のIDにはストアへの
	// 問い合わせ前にINVALID_POST_IDエラーを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// FindPublishedByID は指定IDの公開済み投稿を取得する。
	// 下書きは存在してもnil扱いになる。
	FindPublishedByID(ctx context.Context, id string) (*model.Post, error)

	// ListPublished は公開済み投稿の一覧をcreated_at降順で返す。
	ListPublished(ctx context.Context) ([]*model.Post, error)

	// ListDraftsByAuthor は指定作成者の下書き一覧をupdated_at降順で返す。
	ListDraftsByAuthor(ctx context.Context, author string) ([]*model.Post, error)

	// Update は投稿の可変フィールドを無条件に上書きする。
	// author と created_at は変更されない。履歴は保持しない。
	Update(ctx context.Context, post *model.Post) error

	// Delete は指定作成者が所有する投稿を物理削除する。
	// 削除された場合はtrueを、該当投稿がない場合はfalseを返す。
	Delete(ctx context.Context, id, author string) (bool, error)

	// DeleteByAuthor は指定作成者のすべての投稿を物理削除し、削除件数を返す。
	DeleteByAuthor(ctx context.Context, author string) (int64, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentities、sessionsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
