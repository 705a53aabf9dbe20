package post

import (
	"context"

	"github.com/hitoshi/blogman/internal/model"
)

// ListPublished は公開済み投稿の一覧をcreatedAt降順で返す。
// 認証は不要。下書きは含まれない。
func (s *Service) ListPublished(ctx context.Context) ([]*model.Post, error) {
	return s.postRepo.ListPublished(ctx)
}

// ListOwnDrafts は呼び出し元が所有する下書きの一覧を返す。
// 他のユーザーの下書きは決して含まれない。
func (s *Service) ListOwnDrafts(ctx context.Context, callerID string) ([]*model.Post, error) {
	if callerID == "" {
		return nil, model.NewUnauthorizedError()
	}
	return s.postRepo.ListDraftsByAuthor(ctx, callerID)
}

// GetPublishedByID は指定IDの公開済み投稿を返す。
// 下書きは所有者以外には存在自体を明かさず、存在してもPOST_NOT_FOUNDを返す。
func (s *Service) GetPublishedByID(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.postRepo.FindPublishedByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(id)
	}
	return post, nil
}
