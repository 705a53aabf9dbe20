// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
)

// AuthorPostsDeleter はユーザーが所有する投稿の一括削除インターフェース。
type AuthorPostsDeleter interface {
	DeleteByAuthor(ctx context.Context, author string) (int64, error)
}

// Service はユーザー管理のサービス層。
// 退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	postDeleter AuthorPostsDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	postDeleter AuthorPostsDeleter,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		postDeleter: postDeleter,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: posts → sessions → user（+ CASCADE: identities）
// 投稿は下書き・公開済みを問わずすべて削除される。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. 投稿を削除
	if s.postDeleter != nil {
		deleted, err := s.postDeleter.DeleteByAuthor(ctx, userID)
		if err != nil {
			return fmt.Errorf("投稿の削除に失敗しました: %w", err)
		}
		slog.Info("投稿を削除しました",
			slog.String("user_id", userID),
			slog.Int64("deleted_count", deleted),
		)
	}

	// 2. セッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 3. ユーザーを削除（identitiesはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
